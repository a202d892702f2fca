package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/fileio"
	"github.com/kosarica/catalog-service/internal/importer"
	"github.com/kosarica/catalog-service/internal/types"
)

var (
	importErrorMode string
	importDefaults  string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a product catalog file",
	Long: `Import a CSV, XML or XLSX catalog file. The file format is derived
from the file extension. Each root record is written in its own transaction,
so one bad record never takes down the batch.

In lenient mode (the default) bad records are rolled back, logged and
skipped. In strict mode the first bad record aborts the import.`,
	Example: `  catalog-service import products.csv
  catalog-service import products.xml --error-mode strict
  catalog-service import products.xlsx --defaults '{"taxId":"1","active":"1"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importErrorMode, "error-mode", "", "Error handling mode: strict or lenient (default from config)")
	importCmd.Flags().StringVar(&importDefaults, "defaults", "", "JSON object with fallback values for unset record fields")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	inPath := args[0]

	format, err := fileio.FormatForFile(inPath)
	if err != nil {
		return err
	}
	reader, err := fileio.NewReader(format)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inPath, err)
	}
	groups, err := reader.Read(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", inPath, err)
	}
	batch, err := types.BatchFromGrouped(groups)
	if err != nil {
		return fmt.Errorf("failed to assemble records: %w", err)
	}

	var defaults types.Row
	if importDefaults != "" {
		if err := json.Unmarshal([]byte(importDefaults), &defaults); err != nil {
			return fmt.Errorf("invalid --defaults payload: %w", err)
		}
	}

	mode := cfg.Import.ErrorMode
	if importErrorMode != "" {
		mode = importErrorMode
	}

	pool := database.Pool()

	registry := attributes.NewRegistry()
	if err := registry.Load(ctx, pool); err != nil {
		return fmt.Errorf("failed to load attribute configuration: %w", err)
	}

	tracker := importer.NewRunTracker(pool)
	runID, err := tracker.Start(ctx, inPath, len(batch.Articles()))
	if err != nil {
		return err
	}

	orch := importer.New(pool, registry, importer.ErrorMode(mode), *logger)
	result, err := orch.Write(ctx, batch, defaults)
	if err != nil {
		if finishErr := tracker.Finish(ctx, runID, nil); finishErr != nil {
			logger.Error().Err(finishErr).Str("runId", runID).Msg("Failed to finish import run")
		}
		return fmt.Errorf("import failed: %w", err)
	}
	if err := tracker.Finish(ctx, runID, result); err != nil {
		logger.Error().Err(err).Str("runId", runID).Msg("Failed to finish import run")
	}

	printImportSummary(runID, result)
	return nil
}

func printImportSummary(runID string, result *importer.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Run:\t%s\n", runID)
	fmt.Fprintf(w, "Written:\t%d\n", result.Written)
	fmt.Fprintf(w, "Failed:\t%d\n", result.Failed)
	if len(result.Unprocessed) > 0 {
		fmt.Fprintf(w, "Unprocessed:\t%d\n", len(result.Unprocessed))
	}
	w.Flush()

	for _, msg := range result.Messages {
		fmt.Fprintf(os.Stderr, "  %s\n", msg)
	}
}
