package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/export"
	"github.com/kosarica/catalog-service/internal/fileio"
	prom "github.com/kosarica/catalog-service/internal/metrics"
	"github.com/kosarica/catalog-service/internal/search"
	"github.com/kosarica/catalog-service/internal/storage"
	"github.com/kosarica/catalog-service/internal/types"
)

// ExportRequest selects what to export and in which file format
type ExportRequest struct {
	Format     string `json:"format"`
	Variants   bool   `json:"variants"`
	CategoryID int64  `json:"categoryId"`
	StreamID   int64  `json:"streamId"`
	Offset     int    `json:"offset" binding:"min=0"`
	Limit      int    `json:"limit" binding:"min=0"`
}

// ExportResponse describes the produced export artifact
type ExportResponse struct {
	Key         string         `json:"key,omitempty"`
	RecordCount int            `json:"recordCount"`
	Sections    map[string]int `json:"sections,omitempty"`
}

// ExportProducts resolves the filtered variant set, projects all record
// groups and stores the serialized file as an export artifact
func ExportProducts(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Format == "" {
		req.Format = string(fileio.FormatCSV)
	}
	writer, err := fileio.NewWriter(fileio.Format(req.Format))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pool := database.Pool()
	ctx := c.Request.Context()
	started := time.Now()

	resolver := export.NewIDResolver(pool, search.NewStreamResolver(pool))
	ids, err := resolver.ResolveIDs(ctx, export.Filter{
		Variants:   req.Variants,
		CategoryID: req.CategoryID,
		StreamID:   req.StreamID,
	}, req.Offset, req.Limit)
	if err != nil {
		abortWithReadError(c, err)
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, ExportResponse{RecordCount: 0})
		return
	}

	projector := export.NewProjector(pool, registry, mediaResolver, logger)
	columns := projector.DefaultColumns()
	sections, err := projector.Project(ctx, ids, columns)
	if err != nil {
		abortWithReadError(c, err)
		return
	}

	wired := fileio.AssignParentIndexes(sections)
	var buf bytes.Buffer
	if err := writer.Write(&buf, wired, columns); err != nil {
		logger.Error().Err(err).Msg("Failed to serialize export")
		prom.ExportError(req.Format)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to serialize export"})
		return
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("products-%s.%s", now.Format("20060102-150405"), req.Format)
	key := storage.BuildExportKey(req.Format, now, filename)
	err = store.Put(ctx, key, buf.Bytes(), &storage.Metadata{
		ContentType:  contentTypeFor(fileio.Format(req.Format)),
		OriginalName: filename,
		Format:       req.Format,
		RecordCount:  len(ids),
		CreatedAt:    now,
	})
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to store export artifact")
		prom.ExportError(req.Format)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store export artifact"})
		return
	}

	metrics.RecordExport(ctx, req.Format, len(ids))
	prom.ObserveExport(req.Format, time.Since(started))

	counts := make(map[string]int, len(wired))
	for section, rows := range wired {
		counts[string(section)] = len(rows)
	}
	c.JSON(http.StatusOK, ExportResponse{Key: key, RecordCount: len(ids), Sections: counts})
}

// DownloadExport streams a stored export artifact back to the caller
func DownloadExport(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	ctx := c.Request.Context()

	content, err := store.Get(ctx, key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Export artifact not found"})
		return
	}

	contentType := "application/octet-stream"
	if info, err := store.GetInfo(ctx, key); err == nil && info.ContentType != "" {
		contentType = info.ContentType
	}
	c.Data(http.StatusOK, contentType, content)
}

func contentTypeFor(format fileio.Format) string {
	switch format {
	case fileio.FormatCSV:
		return "text/csv"
	case fileio.FormatXML:
		return "application/xml"
	case fileio.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// abortWithReadError maps read-side pipeline errors to HTTP statuses
func abortWithReadError(c *gin.Context, err error) {
	switch {
	case types.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case types.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error().Err(err).Msg("Export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
	}
}
