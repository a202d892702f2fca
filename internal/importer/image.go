package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/types"
)

// ImageWriter upserts image assignments keyed by (article, path) and keeps
// the single-main-image invariant intact afterwards.
type ImageWriter struct{}

// NewImageWriter creates an image writer.
func NewImageWriter() *ImageWriter {
	return &ImageWriter{}
}

// Write applies the image rows of one article record.
func (w *ImageWriter) Write(ctx context.Context, q database.Querier, articleID int64, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		path := strings.TrimSpace(row.String("path"))
		if path == "" {
			path = mediaPath(row.String("imageUrl"))
		}
		if path == "" {
			return types.Adapterf("image row for article %d has no path", articleID)
		}

		main := row.Int64("main")
		if main != 1 {
			main = 2
		}

		_, err := q.Exec(ctx, `
			INSERT INTO article_images (article_id, path, main, position) VALUES ($1, $2, $3, $4)
			ON CONFLICT (article_id, path) DO UPDATE SET main = EXCLUDED.main, position = EXCLUDED.position
		`, articleID, path, main, row.Int64("position"))
		if err != nil {
			return fmt.Errorf("failed to write image %q for article %d: %w", path, articleID, err)
		}
	}

	return w.normalizeMainFlag(ctx, q, articleID)
}

// normalizeMainFlag enforces exactly one main image per article: extra
// flagged images are demoted and, when none is flagged, the first image by
// position is promoted.
func (w *ImageWriter) normalizeMainFlag(ctx context.Context, q database.Querier, articleID int64) error {
	_, err := q.Exec(ctx, `
		UPDATE article_images SET main = 2
		WHERE article_id = $1 AND main = 1
		  AND id <> (
			SELECT id FROM article_images
			WHERE article_id = $1 AND main = 1
			ORDER BY position, id LIMIT 1
		  )
	`, articleID)
	if err != nil {
		return fmt.Errorf("failed to demote extra main images of article %d: %w", articleID, err)
	}

	_, err = q.Exec(ctx, `
		UPDATE article_images SET main = 1
		WHERE article_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM article_images WHERE article_id = $1 AND main = 1
		  )
		  AND id = (
			SELECT id FROM article_images
			WHERE article_id = $1
			ORDER BY position, id LIMIT 1
		  )
	`, articleID)
	if err != nil {
		return fmt.Errorf("failed to promote a main image for article %d: %w", articleID, err)
	}
	return nil
}

// mediaPath strips scheme and host from an absolute delivery URL, leaving
// the stored relative media path.
func mediaPath(imageURL string) string {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return ""
	}
	u, err := url.Parse(imageURL)
	if err != nil || u.Path == "" {
		return imageURL
	}
	if u.Scheme == "" {
		return strings.TrimPrefix(imageURL, "/")
	}
	return strings.TrimPrefix(u.Path, "/")
}
