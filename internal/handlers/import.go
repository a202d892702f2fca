package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/fileio"
	"github.com/kosarica/catalog-service/internal/importer"
	prom "github.com/kosarica/catalog-service/internal/metrics"
	"github.com/kosarica/catalog-service/internal/storage"
	"github.com/kosarica/catalog-service/internal/types"
)

// ImportResponse summarizes one executed import batch
type ImportResponse struct {
	RunID       string      `json:"runId"`
	Written     int         `json:"written"`
	Failed      int         `json:"failed"`
	State       string      `json:"state,omitempty"`
	Messages    []string    `json:"messages,omitempty"`
	Unprocessed []types.Row `json:"unprocessed,omitempty"`
}

// ImportProducts accepts a catalog file upload and writes it record by
// record. The optional "defaults" form field carries a JSON object with
// fallback values for fields the rows do not set.
func ImportProducts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open upload"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}

	format, err := fileio.FormatForFile(fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reader, err := fileio.NewReader(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groups, err := reader.Read(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	batch, err := types.BatchFromGrouped(groups)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var defaults types.Row
	if raw := c.PostForm("defaults"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &defaults); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid defaults payload"})
			return
		}
	}

	pool := database.Pool()
	ctx := c.Request.Context()

	tracker := importer.NewRunTracker(pool)
	runID, err := tracker.Start(ctx, fileHeader.Filename, len(batch.Articles()))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register import run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register import run"})
		return
	}

	// Keep the raw upload for auditing; losing it is not fatal.
	key := storage.BuildImportKey(runID, fileHeader.Filename)
	if err := store.Put(ctx, key, data, &storage.Metadata{OriginalName: fileHeader.Filename}); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to archive import upload")
	}

	orch := importer.New(pool, registry, importer.ErrorMode(importCfg.ErrorMode), logger)
	started := time.Now()
	result, err := orch.Write(ctx, batch, defaults)
	if err != nil {
		if finishErr := tracker.Finish(ctx, runID, nil); finishErr != nil {
			logger.Error().Err(finishErr).Str("runId", runID).Msg("Failed to finish import run")
		}
		switch {
		case types.IsAdapterError(err):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "runId": runID})
		default:
			var ve *types.ValidationError
			if errors.As(err, &ve) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "runId": runID})
				return
			}
			logger.Error().Err(err).Str("runId", runID).Msg("Import failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed", "runId": runID})
		}
		return
	}

	if err := tracker.Finish(ctx, runID, result); err != nil {
		logger.Error().Err(err).Str("runId", runID).Msg("Failed to finish import run")
	}
	metrics.RecordImport(ctx, fileHeader.Filename, result.Written, result.Failed)
	prom.ObserveImport(string(format), len(batch.Articles()), result.Failed, time.Since(started))

	c.JSON(http.StatusOK, ImportResponse{
		RunID:       runID,
		Written:     result.Written,
		Failed:      result.Failed,
		State:       result.State,
		Messages:    result.Messages,
		Unprocessed: result.Unprocessed,
	})
}
