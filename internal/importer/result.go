package importer

import "github.com/kosarica/catalog-service/internal/types"

// WriterResult carries the ids the core writer resolved (or created) for
// one article record. Sub-writers key all their writes off these.
type WriterResult struct {
	ArticleID     int64
	VariantID     int64
	MainVariantID int64
}

// IsMainVariant reports whether the written variant is the article's main
// variant. Relation and property writes only fire for main variants.
func (r WriterResult) IsMainVariant() bool {
	return r.VariantID == r.MainVariantID
}

// LogStateErrorMode is the batch state when lenient mode absorbed at least
// one record failure.
const LogStateErrorMode = "error-mode-triggered"

// Result is the outcome of one write batch. It is returned from Write and
// never kept as orchestrator state, so concurrent batches cannot bleed into
// each other.
type Result struct {
	// Messages holds one human-readable entry per record that failed and
	// was absorbed in lenient mode.
	Messages []string
	// State is LogStateErrorMode when Messages is non-empty, otherwise "".
	State string
	// Written and Failed count article records.
	Written int
	Failed  int
	// Unprocessed holds placeholder article rows for order numbers that
	// relation rows referenced but that do not exist yet. Importing them in
	// a follow-up pass resolves the pending links.
	Unprocessed []types.Row

	seenUnprocessed map[string]bool
}

func (r *Result) addMessage(msg string) {
	r.Messages = append(r.Messages, msg)
	r.State = LogStateErrorMode
}

// addUnprocessed records a placeholder article for an unresolved relation
// target, once per order number.
func (r *Result) addUnprocessed(orderNumber string) {
	if orderNumber == "" || r.seenUnprocessed[orderNumber] {
		return
	}
	if r.seenUnprocessed == nil {
		r.seenUnprocessed = make(map[string]bool)
	}
	r.seenUnprocessed[orderNumber] = true
	r.Unprocessed = append(r.Unprocessed, types.Row{
		"articleId":   orderNumber,
		"orderNumber": orderNumber,
		"mainNumber":  orderNumber,
		"processed":   1,
	})
}
