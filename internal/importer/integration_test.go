package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/types"
)

// setupTestDB starts a throwaway PostgreSQL container with the full schema
// applied. It returns the pool and a cleanup function.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	config, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	require.NoError(t, err, "Failed to create connection pool")

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err, "Failed to read migration")

	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err, "Failed to apply migration")

	cleanup := func() {
		pool.Close()
		testcontainers.TerminateContainer(container)
	}

	return pool, cleanup
}

func loadedRegistry(t *testing.T, pool *pgxpool.Pool) *attributes.Registry {
	reg := attributes.NewRegistry()
	require.NoError(t, reg.Load(context.Background(), pool))
	return reg
}

func TestImportPersistsArticleGraph(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	batch := types.NewBatch()
	ref := batch.AddArticle(types.Row{
		"orderNumber":  "SW-100",
		"mainNumber":   "SW-100",
		"name":         "Leather Boot",
		"tax":          "19",
		"supplierName": "Bootmaker",
		"active":       "1",
	})
	batch.Add(types.SectionPrice, ref, types.Row{"price": "11.90"})
	batch.Add(types.SectionCategory, ref, types.Row{"categoryPath": "Shoes->Boots"})
	batch.Add(types.SectionSimilar, ref, types.Row{"ordernumber": "SW-999"})

	orch := New(pool, loadedRegistry(t, pool), ErrorModeLenient, zerolog.Nop())
	result, err := orch.Write(ctx, batch, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 0, result.Failed)

	// The similar target does not exist yet, so a placeholder comes back.
	require.Len(t, result.Unprocessed, 1)
	assert.Equal(t, "SW-999", result.Unprocessed[0].String("orderNumber"))

	var kind int64
	var articleID int64
	err = pool.QueryRow(ctx,
		`SELECT article_id, kind FROM article_variants WHERE order_number = 'SW-100'`,
	).Scan(&articleID, &kind)
	require.NoError(t, err)
	assert.EqualValues(t, types.MainKind, kind)

	var supplier string
	err = pool.QueryRow(ctx, `
		SELECT s.name FROM articles a JOIN suppliers s ON s.id = a.supplier_id WHERE a.id = $1
	`, articleID).Scan(&supplier)
	require.NoError(t, err)
	assert.Equal(t, "Bootmaker", supplier)

	// EK is tax-inclusive, so 11.90 gross at 19 % lands as 10.00 net.
	var price float64
	err = pool.QueryRow(ctx, `
		SELECT price FROM variant_prices WHERE article_id = $1 AND customer_group_key = 'EK'
	`, articleID).Scan(&price)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, price, 0.001)

	var categories int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM article_categories WHERE article_id = $1`, articleID,
	).Scan(&categories)
	require.NoError(t, err)
	assert.Equal(t, 1, categories)

	var leafParent *int64
	err = pool.QueryRow(ctx,
		`SELECT parent_id FROM categories WHERE name = 'Boots'`,
	).Scan(&leafParent)
	require.NoError(t, err)
	require.NotNil(t, leafParent)

	// Writing the identical batch again must converge on the same state
	// instead of duplicating prices, assignments or lookup rows.
	result, err = orch.Write(ctx, batch, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 0, result.Failed)

	counts := map[string]int{
		`SELECT COUNT(*) FROM article_variants`:   1,
		`SELECT COUNT(*) FROM variant_prices`:     1,
		`SELECT COUNT(*) FROM article_categories`: 1,
		`SELECT COUNT(*) FROM categories`:         2,
		`SELECT COUNT(*) FROM article_relations`:  0,
		`SELECT COUNT(*) FROM article_images`:     0,
		`SELECT COUNT(*) FROM suppliers`:          1,
		`SELECT COUNT(*) FROM taxes`:              1,
	}
	for query, want := range counts {
		var got int
		require.NoError(t, pool.QueryRow(ctx, query).Scan(&got))
		assert.Equal(t, want, got, query)
	}

	// A follow-up record attaches a second variant to the same article.
	second := types.NewBatch()
	second.AddArticle(types.Row{
		"orderNumber": "SW-100.1",
		"mainNumber":  "SW-100",
	})
	result, err = orch.Write(ctx, second, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)

	var variants int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM article_variants WHERE article_id = $1`, articleID,
	).Scan(&variants)
	require.NoError(t, err)
	assert.Equal(t, 2, variants)
}

func TestImportLenientAbsorbsMissingMainVariant(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	batch := types.NewBatch()
	batch.AddArticle(types.Row{
		"orderNumber": "SW-200",
		"mainNumber":  "SW-200",
		"name":        "Trail Runner",
	})
	batch.AddArticle(types.Row{
		"orderNumber": "SW-201.1",
		"mainNumber":  "SW-777",
	})

	orch := New(pool, loadedRegistry(t, pool), ErrorModeLenient, zerolog.Nop())
	result, err := orch.Write(ctx, batch, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, LogStateErrorMode, result.State)
	require.Len(t, result.Messages, 1)
	assert.Contains(t, result.Messages[0], "SW-777")

	var variants int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM article_variants`).Scan(&variants)
	require.NoError(t, err)
	assert.Equal(t, 1, variants)
}

func TestRunTrackerLifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	tracker := NewRunTracker(pool)
	id, err := tracker.Start(ctx, "api", 3)
	require.NoError(t, err)

	run, err := tracker.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Equal(t, 3, run.TotalRecords)
	assert.Nil(t, run.CompletedAt)

	require.NoError(t, tracker.Finish(ctx, id, &Result{
		Written:  2,
		Failed:   1,
		Messages: []string{"variant SW-1 can not be created without a main number"},
	}))

	run, err = tracker.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, 2, run.Written)
	assert.Equal(t, 1, run.Failed)
	require.Len(t, run.Messages, 1)
	require.NotNil(t, run.CompletedAt)

	require.NoError(t, tracker.Finish(ctx, id, nil))
	run, err = tracker.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, run.Status)
}
