package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/catalog-service/internal/attributes"
	"github.com/kosarica/catalog-service/internal/database"
)

// AttributesResponse lists the configured free-form attribute columns
type AttributesResponse struct {
	Columns []AttributeColumn `json:"columns"`
}

// AttributeColumn describes one configured attribute column
type AttributeColumn struct {
	Name         string `json:"name"`
	Translatable bool   `json:"translatable"`
}

// ListAttributes returns the attribute columns currently known to the
// registry
func ListAttributes(c *gin.Context) {
	cols := registry.Columns(attributes.TableArticleAttributes)
	out := make([]AttributeColumn, 0, len(cols))
	for _, col := range cols {
		out = append(out, AttributeColumn{Name: col.Name, Translatable: col.Translatable})
	}
	c.JSON(http.StatusOK, AttributesResponse{Columns: out})
}

// RefreshAttributes reloads the attribute configuration from the database.
// Call it after attribute columns were added or removed so imports and
// exports pick them up without a restart.
func RefreshAttributes(c *gin.Context) {
	if err := registry.Load(c.Request.Context(), database.Pool()); err != nil {
		logger.Error().Err(err).Msg("Failed to refresh attribute configuration")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh attribute configuration"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
