package handlers

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"task-manager/api/internal/apperr"
	"task-manager/api/internal/models"

	"github.com/gin-gonic/gin"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html"))

type AnalyticsSource interface {
	Summary(ctx context.Context) (*models.AnalyticsSummary, error)
}

type AnalyticsHandler struct {
	analytics AnalyticsSource
	title     string
}

func NewAnalyticsHandler(analytics AnalyticsSource, title string) *AnalyticsHandler {
	if title == "" {
		title = "Task Manager"
	}
	return &AnalyticsHandler{analytics: analytics, title: title}
}

func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type chartRow struct {
	Label   string
	Class   string
	Count   int64
	Percent int64
}

type dashboardView struct {
	Title     string
	Total     int64
	ByStatus  []chartRow
	Completed []chartRow
	Active    []chartRow
}

// Dashboard renders the summary as an HTML page with bar charts.
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}

	view := dashboardView{Title: h.title, Total: summary.TotalTasks}
	for _, s := range summary.ByStatus {
		view.ByStatus = append(view.ByStatus, chartRow{
			Label:   string(s.Status),
			Class:   string(s.Status),
			Count:   s.Count,
			Percent: percent(s.Count, summary.TotalTasks),
		})
	}
	view.Completed = perUserRows(summary.CompletedPerUser)
	view.Active = perUserRows(summary.ActivePerUser)

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, view); err != nil {
		RespondError(c, apperr.Unexpected("DASHBOARD_RENDER_FAILED", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// perUserRows scales bars against the busiest user.
func perUserRows(counts []models.UserTaskCount) []chartRow {
	var top int64
	for _, u := range counts {
		if u.Count > top {
			top = u.Count
		}
	}
	rows := make([]chartRow, 0, len(counts))
	for _, u := range counts {
		rows = append(rows, chartRow{Label: u.FullName, Count: u.Count, Percent: percent(u.Count, top)})
	}
	return rows
}

func percent(part, whole int64) int64 {
	if whole <= 0 {
		return 0
	}
	return part * 100 / whole
}
