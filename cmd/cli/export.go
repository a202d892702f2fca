package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/export"
	"github.com/kosarica/catalog-service/internal/fileio"
	"github.com/kosarica/catalog-service/internal/media"
	"github.com/kosarica/catalog-service/internal/search"
	"github.com/kosarica/catalog-service/internal/types"
)

var (
	exportVariants bool
	exportCategory int64
	exportStream   int64
	exportOffset   int
	exportLimit    int
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the product catalog to a file",
	Long: `Export the product catalog to a CSV, XML or XLSX file. The file format
is derived from the file extension. CSV files carry the article section only,
XML and XLSX files carry all record sections.

By default only main variants are exported. Use --variants to include every
variant, --category to restrict to a category subtree, or --stream to export
a product stream.`,
	Example: `  catalog-service export products.csv
  catalog-service export products.xml --variants
  catalog-service export shoes.xlsx --category 42
  catalog-service export sale.xml --stream 3 --limit 500`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVar(&exportVariants, "variants", false, "Export all variants instead of main variants only")
	exportCmd.Flags().Int64Var(&exportCategory, "category", 0, "Restrict the export to a category subtree")
	exportCmd.Flags().Int64Var(&exportStream, "stream", 0, "Export the articles of a product stream")
	exportCmd.Flags().IntVar(&exportOffset, "offset", 0, "Number of records to skip")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "Maximum number of records to export (0 = all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outPath := args[0]

	format, err := fileio.FormatForFile(outPath)
	if err != nil {
		return err
	}
	writer, err := fileio.NewWriter(format)
	if err != nil {
		return err
	}

	pool := database.Pool()

	registry := attributes.NewRegistry()
	if err := registry.Load(ctx, pool); err != nil {
		return fmt.Errorf("failed to load attribute configuration: %w", err)
	}

	resolver := export.NewIDResolver(pool, search.NewStreamResolver(pool))
	ids, err := resolver.ResolveIDs(ctx, export.Filter{
		Variants:   exportVariants,
		CategoryID: exportCategory,
		StreamID:   exportStream,
	}, exportOffset, exportLimit)
	if err != nil {
		return fmt.Errorf("failed to resolve export records: %w", err)
	}
	if len(ids) == 0 {
		logger.Warn().Msg("No records matched the export filter")
		return nil
	}

	projector := export.NewProjector(pool, registry, media.NewBaseURLResolver(cfg.Media.BaseURL), *logger)
	columns := projector.DefaultColumns()
	sections, err := projector.Project(ctx, ids, columns)
	if err != nil {
		return fmt.Errorf("failed to project export records: %w", err)
	}
	wired := fileio.AssignParentIndexes(sections)

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer file.Close()

	if err := writer.Write(file, wired, columns); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	printExportSummary(outPath, wired)
	return nil
}

func printExportSummary(outPath string, sections map[types.Section][]types.Row) {
	names := make([]string, 0, len(sections))
	for section := range sections {
		names = append(names, string(section))
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "File:\t%s\n", filepath.Clean(outPath))
	for _, name := range names {
		fmt.Fprintf(w, "%s:\t%d\n", name, len(sections[types.Section(name)]))
	}
	w.Flush()
}
