package api

import (
	"aptmarket/server/config"
	"aptmarket/server/internal/analysis"
	"aptmarket/server/internal/charts"
	"aptmarket/server/internal/dashboard"
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const queryFailedMessage = "Could not load listings from the database, please try again later"

// Pages renders the dashboard pages
type Pages interface {
	Dates(ctx context.Context) ([]string, error)
	Cities() []string
	Monthly(ctx context.Context, f analysis.Filters) (*dashboard.MonthlyPage, error)
	Trends(ctx context.Context, f analysis.Filters) (*dashboard.TrendsPage, error)
	Map(ctx context.Context, f analysis.Filters) (*charts.Chart, error)
}

type Handler struct {
	pages  Pages
	logger *logrus.Logger
}

// PageQuery holds the filter query parameters of a page
type PageQuery struct {
	Date string `form:"date"`
	City string `form:"city"`
}

func NewHandler(pages Pages, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		pages:  pages,
		logger: logger,
	}
}

func (h *Handler) GetDates(c *gin.Context) {
	dates, err := h.pages.Dates(c.Request.Context())
	if err != nil {
		h.queryFailed(c, err, "Failed to get snapshot dates")
		return
	}

	c.JSON(http.StatusOK, dates)
}

func (h *Handler) GetCities(c *gin.Context) {
	c.JSON(http.StatusOK, config.CityOptions(h.pages.Cities()))
}

func (h *Handler) GetMonthly(c *gin.Context) {
	filters, ok := h.bindFilters(c, true)
	if !ok {
		return
	}

	page, err := h.pages.Monthly(c.Request.Context(), filters)
	if err != nil {
		h.queryFailed(c, err, "Failed to render monthly page")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetTrends(c *gin.Context) {
	filters, ok := h.bindFilters(c, false)
	if !ok {
		return
	}

	page, err := h.pages.Trends(c.Request.Context(), filters)
	if err != nil {
		h.queryFailed(c, err, "Failed to render trends page")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetMap(c *gin.Context) {
	filters, ok := h.bindFilters(c, true)
	if !ok {
		return
	}

	chart, err := h.pages.Map(c.Request.Context(), filters)
	if err != nil {
		h.queryFailed(c, err, "Failed to render price map")
		return
	}

	c.JSON(http.StatusOK, chart)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindFilters reads the page query. A missing or malformed date is rejected
// when the page needs one.
func (h *Handler) bindFilters(c *gin.Context, dateRequired bool) (analysis.Filters, bool) {
	var query PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		requestLogger(c, h.logger).WithError(err).Warn("Failed to parse page query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return analysis.Filters{}, false
	}

	filters := analysis.Filters{City: query.City}
	if filters.City == "" {
		filters.City = analysis.AllCities
	}

	if query.Date == "" {
		if dateRequired {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The date parameter is required"})
			return analysis.Filters{}, false
		}
		return filters, true
	}

	date, err := time.Parse("2006-01-02", query.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The date parameter must look like 2024-03-01"})
		return analysis.Filters{}, false
	}
	filters.Date = date
	return filters, true
}

func (h *Handler) queryFailed(c *gin.Context, err error, msg string) {
	if errors.Is(err, dashboard.ErrDateRequired) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestLogger(c, h.logger).WithError(err).Error(msg)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": queryFailedMessage})
}
