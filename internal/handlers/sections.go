package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/export"
)

// SectionsResponse lists the exportable record sections and their columns
type SectionsResponse struct {
	Sections []SectionInfo `json:"sections"`
}

// SectionInfo describes one record section
type SectionInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ListSections returns the available export sections with their default
// column sets, so clients can build column selections for exports
func ListSections(c *gin.Context) {
	projector := export.NewProjector(database.Pool(), registry, mediaResolver, logger)
	columns := projector.DefaultColumns()

	sections := make([]SectionInfo, 0, len(columns))
	for section, cols := range columns {
		sections = append(sections, SectionInfo{Name: string(section), Columns: cols})
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Name < sections[j].Name })

	c.JSON(http.StatusOK, SectionsResponse{Sections: sections})
}
