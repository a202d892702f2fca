package export

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
	"github.com/kosarica/catalog-service/internal/search"
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

func seedArticle(t *testing.T, pool *pgxpool.Pool, name, orderNumber string) (articleID, mainVariantID int64) {
	ctx := context.Background()
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO articles (name) VALUES ($1) RETURNING id`, name,
	).Scan(&articleID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO article_variants (article_id, order_number, kind) VALUES ($1, $2, 1) RETURNING id`,
		articleID, orderNumber,
	).Scan(&mainVariantID))
	return articleID, mainVariantID
}

func seedVariant(t *testing.T, pool *pgxpool.Pool, articleID int64, orderNumber string) int64 {
	var id int64
	require.NoError(t, pool.QueryRow(context.Background(),
		`INSERT INTO article_variants (article_id, order_number, kind) VALUES ($1, $2, 2) RETURNING id`,
		articleID, orderNumber,
	).Scan(&id))
	return id
}

func TestTranslationAssemblerBuildsFullGrid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// de_DE (default) and en_GB come seeded; add one more translation locale.
	var frID int64
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO locales (locale) VALUES ('fr_FR') RETURNING id`,
	).Scan(&frID))
	var enID int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT id FROM locales WHERE locale = 'en_GB'`,
	).Scan(&enID))

	articleID, mainID := seedArticle(t, pool, "Leather Boot", "SW-1")
	variantID := seedVariant(t, pool, articleID, "SW-1.1")

	// One explicit override for the main variant, one article-level override,
	// and one corrupt article-level payload (valid JSONB, not an object).
	_, err := pool.Exec(ctx, `
		INSERT INTO variant_translations (variant_id, locale_id, data)
		VALUES ($1, $2, '{"name": "Boot EN", "packUnit": "Pair"}')
	`, mainID, enID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO article_translations (article_id, locale_id, data)
		VALUES ($1, $2, '{"name": "Article EN", "description": "Desc EN", "packUnit": "Box"}')
	`, articleID, enID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO article_translations (article_id, locale_id, data) VALUES ($1, $2, '[1, 2]')
	`, articleID, frID)
	require.NoError(t, err)

	reg := attributes.NewRegistry()
	require.NoError(t, reg.Load(ctx, pool))

	rows, err := NewTranslationAssembler(pool, reg, zerolog.Nop()).Assemble(ctx, []int64{mainID, variantID})
	require.NoError(t, err)

	// Two variants times two non-default locales, exactly.
	require.Len(t, rows, 4)

	// Main variant, en_GB: the explicit override wins, the article override
	// fills only fields the override left unset.
	main := rows[0]
	assert.Equal(t, mainID, main.Int64("variantId"))
	assert.Equal(t, enID, main.Int64("languageId"))
	assert.Equal(t, "Boot EN", main.String("name"))
	assert.Equal(t, "Pair", main.String("packUnit"))
	assert.Equal(t, "Desc EN", main.String("description"))
	assert.Equal(t, "", main.String("keywords"))

	// Main variant, fr_FR: the corrupt article payload is skipped, leaving a
	// synthesized identity row with empty fields.
	mainFr := rows[1]
	assert.Equal(t, frID, mainFr.Int64("languageId"))
	assert.Equal(t, "", mainFr.String("name"))
	assert.Equal(t, "", mainFr.String("description"))

	// Non-main variant without its own override, en_GB: only the legacy
	// field subset falls back to the article override.
	secondary := rows[2]
	assert.Equal(t, variantID, secondary.Int64("variantId"))
	assert.Equal(t, enID, secondary.Int64("languageId"))
	assert.Equal(t, "Article EN", secondary.String("name"))
	assert.Equal(t, "Desc EN", secondary.String("description"))
	assert.Equal(t, "", secondary.String("packUnit"))

	// Non-main variant, fr_FR: nothing to fall back to.
	secondaryFr := rows[3]
	assert.Equal(t, variantID, secondaryFr.Int64("variantId"))
	assert.Equal(t, "", secondaryFr.String("name"))
}

func TestResolveIDsCategoryFilter(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	var rootID, menID, bootsID int64
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO categories (name, path) VALUES ('Shoes', '') RETURNING id`,
	).Scan(&rootID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO categories (parent_id, name, path) VALUES ($1, 'Men', $1::text) RETURNING id`, rootID,
	).Scan(&menID))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO categories (parent_id, name, path) VALUES ($1, 'Boots', $2::text || '|' || $1::text) RETURNING id`,
		menID, rootID,
	).Scan(&bootsID))

	a1, v1 := seedArticle(t, pool, "Sandal", "SW-1")
	v1b := seedVariant(t, pool, a1, "SW-1.1")
	a2, v2 := seedArticle(t, pool, "Loafer", "SW-2")
	a3, v3 := seedArticle(t, pool, "Boot", "SW-3")

	for category, article := range map[int64]int64{rootID: a1, menID: a2, bootsID: a3} {
		_, err := pool.Exec(ctx,
			`INSERT INTO article_categories (article_id, category_id) VALUES ($1, $2)`, article, category)
		require.NoError(t, err)
	}

	resolver := NewIDResolver(pool, search.NewStreamResolver(pool))

	// The subtree filter collects entities assigned at every level.
	ids, err := resolver.ResolveIDs(ctx, Filter{CategoryID: rootID}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{v1, v2, v3}, ids)

	ids, err = resolver.ResolveIDs(ctx, Filter{CategoryID: menID}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{v2, v3}, ids)

	ids, err = resolver.ResolveIDs(ctx, Filter{CategoryID: bootsID}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{v3}, ids)

	ids, err = resolver.ResolveIDs(ctx, Filter{CategoryID: rootID, Variants: true}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{v1, v1b, v2, v3}, ids)

	ids, err = resolver.ResolveIDs(ctx, Filter{CategoryID: rootID}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{v2}, ids)

	_, err = resolver.ResolveIDs(ctx, Filter{CategoryID: 99999}, 0, 0)
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestResolveIDsStreamFilter(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	a1, v1 := seedArticle(t, pool, "Leather Boot", "SW-10")
	v1b := seedVariant(t, pool, a1, "SW-10.1")
	seedArticle(t, pool, "Sneaker", "SW-20")

	var bootStream, emptyStream, noMatchStream int64
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO product_streams (name, conditions)
		VALUES ('boots', '[{"field": "name", "op": "contains", "value": "Boot"}]') RETURNING id
	`).Scan(&bootStream))
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO product_streams (name, conditions) VALUES ('empty', '[]') RETURNING id`,
	).Scan(&emptyStream))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO product_streams (name, conditions)
		VALUES ('nothing', '[{"field": "name", "op": "contains", "value": "zzz"}]') RETURNING id
	`).Scan(&noMatchStream))

	resolver := NewIDResolver(pool, search.NewStreamResolver(pool))

	ids, err := resolver.ResolveIDs(ctx, Filter{StreamID: bootStream}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{v1}, ids)

	// Combined with the variants filter the stream expands to every variant
	// of the matched articles.
	ids, err = resolver.ResolveIDs(ctx, Filter{StreamID: bootStream, Variants: true}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{v1, v1b}, ids)

	// A resolvable stream with zero matches is an empty export, not an error.
	ids, err = resolver.ResolveIDs(ctx, Filter{StreamID: noMatchStream}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// A stream without usable conditions is rejected, as is an unknown id.
	_, err = resolver.ResolveIDs(ctx, Filter{StreamID: emptyStream}, 0, 0)
	require.Error(t, err)
	assert.True(t, types.IsInvalidArgument(err))

	_, err = resolver.ResolveIDs(ctx, Filter{StreamID: 99999}, 0, 0)
	require.Error(t, err)
	assert.True(t, types.IsInvalidArgument(err))
}
