package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
)

// refreshAttributesCmd represents the refresh-attributes command
var refreshAttributesCmd = &cobra.Command{
	Use:   "refresh-attributes",
	Short: "Reload the attribute column configuration",
	Long: `Reload the free-form attribute column configuration from the database
and print the columns imports and exports will use.`,
	Args: cobra.NoArgs,
	RunE: runRefreshAttributes,
}

func init() {
	rootCmd.AddCommand(refreshAttributesCmd)
}

func runRefreshAttributes(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	registry := attributes.NewRegistry()
	if err := registry.Load(ctx, database.Pool()); err != nil {
		return fmt.Errorf("failed to load attribute configuration: %w", err)
	}

	cols := registry.Columns(attributes.TableArticleAttributes)
	if len(cols) == 0 {
		fmt.Println("No attribute columns configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tTRANSLATABLE")
	for _, col := range cols {
		fmt.Fprintf(w, "%s\t%t\n", col.Name, col.Translatable)
	}
	return w.Flush()
}
