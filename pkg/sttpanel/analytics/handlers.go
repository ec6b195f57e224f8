package analytics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles analytics requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new analytics handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// Get returns the usage report
// @Summary Usage analytics
// @Description Aggregate usage over the full or date-filtered ledger
// @Tags analytics
// @Produce json
// @Param from query string false "Range start (RFC 3339 or YYYY-MM-DD)"
// @Param to query string false "Range end, inclusive (RFC 3339 or YYYY-MM-DD)"
// @Param period query string false "Preset period: this-week, last-week, this-month, last-month"
// @Success 200 {object} Report
// @Failure 400 {object} map[string]string "Bad range or period"
// @Router /analytics [get]
func (h *Handler) Get(c *gin.Context) {
	var from, to *time.Time

	if period := c.Query("period"); period != "" {
		f, t, err := PresetRange(period, time.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		from, to = &f, &t
	} else {
		var err error
		from, to, err = ParseRange(c.Query("from"), c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	report, err := Compute(h.db, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// RegisterRoutes registers analytics routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analytics", h.Get)
}
