package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

type fakeDB struct {
	begun     int
	commits   int
	rollbacks int
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	d.begun++
	return &fakeTx{db: d}, nil
}

type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.db.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.db.rollbacks++
	return nil
}

type stubWriters struct {
	articleFn    func(row types.Row) (WriterResult, error)
	priceRows    [][]types.Row
	categoryRows [][]types.Row
	configCalls  int
	propCalls    int
	transCalls   int
	imageCalls   int
	relations    []relationCall
	unresolved   []string
}

type relationCall struct {
	kind       string
	mainNumber string
	processed  bool
	rows       int
}

func (s *stubWriters) Write(ctx context.Context, q database.Querier, row types.Row, defaults types.Row) (WriterResult, error) {
	return s.articleFn(row)
}

type stubPrices struct{ s *stubWriters }

func (w stubPrices) Write(ctx context.Context, q database.Querier, articleID, variantID int64, rows []types.Row) error {
	w.s.priceRows = append(w.s.priceRows, rows)
	return nil
}

type stubCategories struct{ s *stubWriters }

func (w stubCategories) Write(ctx context.Context, q database.Querier, articleID int64, rows []types.Row) error {
	w.s.categoryRows = append(w.s.categoryRows, rows)
	return nil
}

type stubConfigurators struct{ s *stubWriters }

func (w stubConfigurators) Write(ctx context.Context, q database.Querier, res WriterResult, rows []types.Row) error {
	w.s.configCalls++
	return nil
}

type stubProperties struct{ s *stubWriters }

func (w stubProperties) Write(ctx context.Context, q database.Querier, articleID int64, orderNumber string, rows []types.Row) error {
	w.s.propCalls++
	return nil
}

type stubTranslations struct{ s *stubWriters }

func (w stubTranslations) Write(ctx context.Context, q database.Querier, res WriterResult, rows []types.Row) error {
	w.s.transCalls++
	return nil
}

type stubRelations struct{ s *stubWriters }

func (w stubRelations) Write(ctx context.Context, q database.Querier, articleID int64, mainNumber, kind string, processed bool, rows []types.Row) ([]string, error) {
	w.s.relations = append(w.s.relations, relationCall{kind: kind, mainNumber: mainNumber, processed: processed, rows: len(rows)})
	return w.s.unresolved, nil
}

type stubImages struct{ s *stubWriters }

func (w stubImages) Write(ctx context.Context, q database.Querier, articleID int64, rows []types.Row) error {
	w.s.imageCalls++
	return nil
}

func newStubOrchestrator(db *fakeDB, mode ErrorMode, stubs *stubWriters) *Orchestrator {
	return &Orchestrator{
		db:            db,
		mode:          mode,
		logger:        zerolog.Nop(),
		articles:      stubs,
		prices:        stubPrices{stubs},
		categories:    stubCategories{stubs},
		configurators: stubConfigurators{stubs},
		properties:    stubProperties{stubs},
		translations:  stubTranslations{stubs},
		relations:     stubRelations{stubs},
		images:        stubImages{stubs},
	}
}

func mainResult(id int64) (WriterResult, error) {
	return WriterResult{ArticleID: id, VariantID: id * 10, MainVariantID: id * 10}, nil
}

func TestWriteRejectsEmptyBatch(t *testing.T) {
	orch := newStubOrchestrator(&fakeDB{}, ErrorModeLenient, &stubWriters{})

	_, err := orch.Write(context.Background(), types.NewBatch(), nil)
	require.Error(t, err)

	var ve *types.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestWriteLenientAbsorbsBadRecords(t *testing.T) {
	db := &fakeDB{}
	stubs := &stubWriters{
		articleFn: func(row types.Row) (WriterResult, error) {
			if row.String("orderNumber") == "SW-BAD" {
				return WriterResult{}, types.Adapterf("article record without a name")
			}
			return mainResult(row.Int64("id"))
		},
	}
	orch := newStubOrchestrator(db, ErrorModeLenient, stubs)

	batch := types.NewBatch()
	batch.AddArticle(types.Row{"orderNumber": "SW-1", "id": "1"})
	batch.AddArticle(types.Row{"orderNumber": "SW-BAD", "id": "2"})
	batch.AddArticle(types.Row{"orderNumber": "SW-3", "id": "3"})

	result, err := orch.Write(context.Background(), batch, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Written)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Messages, 1)
	assert.Contains(t, result.Messages[0], "without a name")
	assert.Equal(t, LogStateErrorMode, result.State)

	// The bad record rolled back on its own, the rest committed.
	assert.Equal(t, 3, db.begun)
	assert.Equal(t, 2, db.commits)
	assert.Equal(t, 1, db.rollbacks)
}

func TestWriteStrictAbortsOnFirstBadRecord(t *testing.T) {
	db := &fakeDB{}
	stubs := &stubWriters{
		articleFn: func(row types.Row) (WriterResult, error) {
			if row.String("orderNumber") == "SW-BAD" {
				return WriterResult{}, types.Adapterf("broken record")
			}
			return mainResult(1)
		},
	}
	orch := newStubOrchestrator(db, ErrorModeStrict, stubs)

	batch := types.NewBatch()
	batch.AddArticle(types.Row{"orderNumber": "SW-1"})
	batch.AddArticle(types.Row{"orderNumber": "SW-BAD"})
	batch.AddArticle(types.Row{"orderNumber": "SW-3"})

	_, err := orch.Write(context.Background(), batch, nil)
	require.Error(t, err)
	assert.True(t, types.IsAdapterError(err))

	// The third record was never attempted.
	assert.Equal(t, 2, db.begun)
	assert.Equal(t, 1, db.commits)
	assert.Equal(t, 1, db.rollbacks)
}

func TestWriteFatalErrorAbortsEvenInLenientMode(t *testing.T) {
	db := &fakeDB{}
	stubs := &stubWriters{
		articleFn: func(row types.Row) (WriterResult, error) {
			return WriterResult{}, errors.New("connection lost")
		},
	}
	orch := newStubOrchestrator(db, ErrorModeLenient, stubs)

	batch := types.NewBatch()
	batch.AddArticle(types.Row{"orderNumber": "SW-1"})

	_, err := orch.Write(context.Background(), batch, nil)
	require.Error(t, err)
	assert.False(t, types.IsAdapterError(err))
	assert.Equal(t, 1, db.rollbacks)
}

func TestWritePartitionsSubRowsPerRecord(t *testing.T) {
	db := &fakeDB{}
	stubs := &stubWriters{
		articleFn: func(row types.Row) (WriterResult, error) {
			return mainResult(row.Int64("id"))
		},
	}
	orch := newStubOrchestrator(db, ErrorModeLenient, stubs)

	batch := types.NewBatch()
	first := batch.AddArticle(types.Row{"orderNumber": "SW-1", "id": "1"})
	second := batch.AddArticle(types.Row{"orderNumber": "SW-2", "id": "2"})
	batch.Add(types.SectionPrice, first, types.Row{"price": "9.99"})
	batch.Add(types.SectionPrice, first, types.Row{"price": "8.99", "from": "10"})
	batch.Add(types.SectionPrice, second, types.Row{"price": "19.99"})

	result, err := orch.Write(context.Background(), batch, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Written)

	require.Len(t, stubs.priceRows, 2)
	assert.Len(t, stubs.priceRows[0], 2)
	assert.Len(t, stubs.priceRows[1], 1)
}

func TestWriteProcessedRecordSkipsMaterializedGroups(t *testing.T) {
	db := &fakeDB{}
	stubs := &stubWriters{
		articleFn: func(row types.Row) (WriterResult, error) {
			return mainResult(1)
		},
	}
	orch := newStubOrchestrator(db, ErrorModeLenient, stubs)

	batch := types.NewBatch()
	ref := batch.AddArticle(types.Row{"orderNumber": "SW-1", "processed": "1"})
	batch.Add(types.SectionPrice, ref, types.Row{"price": "9.99"})
	batch.Add(types.SectionSimilar, ref, types.Row{"ordernumber": "SW-2"})
	batch.Add(types.SectionImage, ref, types.Row{"path": "media/a.jpg"})

	result, err := orch.Write(context.Background(), batch, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)

	assert.Empty(t, stubs.priceRows)
	assert.Empty(t, stubs.categoryRows)
	assert.Zero(t, stubs.configCalls)
	assert.Zero(t, stubs.propCalls)
	assert.Zero(t, stubs.transCalls)

	// Relations and images still run; the placeholder stands in for its
	// own main variant.
	assert.Equal(t, 1, stubs.imageCalls)
	require.Len(t, stubs.relations, 2)
	for _, call := range stubs.relations {
		assert.Equal(t, "SW-1", call.mainNumber)
		assert.True(t, call.processed)
	}
}

func TestWriteSkipsRelationsAndPropertiesForNonMainVariants(t *testing.T) {
	db := &fakeDB{}
	stubs := &stubWriters{
		articleFn: func(row types.Row) (WriterResult, error) {
			return WriterResult{ArticleID: 1, VariantID: 11, MainVariantID: 10}, nil
		},
	}
	orch := newStubOrchestrator(db, ErrorModeLenient, stubs)

	batch := types.NewBatch()
	ref := batch.AddArticle(types.Row{"orderNumber": "SW-1.2", "mainNumber": "SW-1"})
	batch.Add(types.SectionSimilar, ref, types.Row{"ordernumber": "SW-9"})
	batch.Add(types.SectionPropertyValue, ref, types.Row{"propertyValueName": "red"})

	_, err := orch.Write(context.Background(), batch, nil)
	require.NoError(t, err)

	assert.Empty(t, stubs.relations)
	assert.Zero(t, stubs.propCalls)
	assert.Equal(t, 1, stubs.transCalls)
}

func TestWriteCollectsUnresolvedRelationTargets(t *testing.T) {
	db := &fakeDB{}
	stubs := &stubWriters{
		articleFn: func(row types.Row) (WriterResult, error) {
			return mainResult(1)
		},
		unresolved: []string{"SW-MISSING"},
	}
	orch := newStubOrchestrator(db, ErrorModeLenient, stubs)

	batch := types.NewBatch()
	ref := batch.AddArticle(types.Row{"orderNumber": "SW-1", "mainNumber": "SW-1"})
	batch.Add(types.SectionAccessory, ref, types.Row{"ordernumber": "SW-MISSING"})

	result, err := orch.Write(context.Background(), batch, nil)
	require.NoError(t, err)

	// Both relation kinds reported the same target; it is deduplicated.
	require.Len(t, result.Unprocessed, 1)
	placeholder := result.Unprocessed[0]
	assert.Equal(t, "SW-MISSING", placeholder.String("orderNumber"))
	assert.Equal(t, "SW-MISSING", placeholder.String("mainNumber"))
	assert.Equal(t, int64(1), placeholder.Int64("processed"))
}

func TestFilterCategoryRows(t *testing.T) {
	rows := filterCategoryRows([]types.Row{
		{"categoryId": "7"},
		{"categoryPath": "Shoes->Men"},
		{"categoryId": "0", "categoryPath": ""},
		{},
	})
	assert.Len(t, rows, 2)
}
