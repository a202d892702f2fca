package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/importer"
)

// ListRunsRequest represents query parameters for listing import runs
type ListRunsRequest struct {
	Status string `form:"status" json:"status"`
	Limit  int    `form:"limit" json:"limit" binding:"min=0,max=100"`
	Offset int    `form:"offset" json:"offset" binding:"min=0"`
}

// ListRunsResponse represents the response for listing import runs
type ListRunsResponse struct {
	Runs  []ImportRun `json:"runs"`
	Total int         `json:"total"`
}

// ImportRun represents an import run response
type ImportRun struct {
	ID           string     `json:"id"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	TotalRecords int        `json:"totalRecords"`
	Written      int        `json:"written"`
	Failed       int        `json:"failed"`
	Messages     []string   `json:"messages,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

// ListImportRuns returns a paginated list of import runs with an optional
// status filter
func ListImportRuns(c *gin.Context) {
	var req ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Set defaults
	if req.Limit == 0 {
		req.Limit = 20
	}

	pool := database.Pool()
	ctx := c.Request.Context()

	query := `
		SELECT id, source, status, total_records, written, failed, COALESCE(messages, '{}'), started_at, completed_at
		FROM import_runs
		WHERE 1=1
	`
	countQuery := "SELECT COUNT(*) FROM import_runs WHERE 1=1"
	args := []interface{}{}

	if req.Status != "" {
		query += " AND status = $1"
		countQuery += " AND status = $1"
		args = append(args, req.Status)
	}

	var total int
	if err := pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Failed to count import runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count import runs"})
		return
	}

	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, req.Limit, req.Offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list import runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list import runs"})
		return
	}
	defer rows.Close()

	runs := []ImportRun{}
	for rows.Next() {
		var run ImportRun
		err := rows.Scan(
			&run.ID, &run.Source, &run.Status, &run.TotalRecords,
			&run.Written, &run.Failed, &run.Messages, &run.StartedAt, &run.CompletedAt,
		)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to scan import run")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan import run"})
			return
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to read import runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read import runs"})
		return
	}

	c.JSON(http.StatusOK, ListRunsResponse{Runs: runs, Total: total})
}

// GetImportRun returns a single import run by id
func GetImportRun(c *gin.Context) {
	runID := c.Param("runId")

	tracker := importer.NewRunTracker(database.Pool())
	run, err := tracker.Get(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Import run not found"})
			return
		}
		logger.Error().Err(err).Str("runId", runID).Msg("Failed to load import run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load import run"})
		return
	}

	c.JSON(http.StatusOK, ImportRun{
		ID:           run.ID,
		Source:       run.Source,
		Status:       run.Status,
		TotalRecords: run.TotalRecords,
		Written:      run.Written,
		Failed:       run.Failed,
		Messages:     run.Messages,
		StartedAt:    run.StartedAt,
		CompletedAt:  run.CompletedAt,
	})
}
