package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"bistro/internal/core/apperror"
	"bistro/internal/domain/notifications"
	"bistro/internal/domain/reports"
)

// ReportsHandler handles HTTP requests for reports and notification counts.
type ReportsHandler struct {
	*BaseHandler
	reports       *reports.Service
	notifications *notifications.Service
	hub           *notifications.Hub
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, r *reports.Service, n *notifications.Service, hub *notifications.Hub) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, reports: r, notifications: n, hub: hub}
}

// Profit handles GET /reports/profit?from=&to=
// Both bounds are required; a date-only "to" includes that whole day.
func (h *ReportsHandler) Profit(c *gin.Context) {
	from, to, err := h.QueryRange(c.Query("from"), c.Query("to"))
	if err != nil {
		h.Error(c, err)
		return
	}
	if from == nil || to == nil {
		h.Error(c, apperror.NewInvalidInput("from and to are required"))
		return
	}

	// The report window is half-open.
	end := to.Add(time.Nanosecond)
	report, err := h.reports.Profit(c.Request.Context(), *from, end)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Dashboard handles GET /reports/dashboard
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	d, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Notifications handles GET /notifications
func (h *ReportsHandler) Notifications(c *gin.Context) {
	counts, err := h.notifications.Counts(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, counts)
}

// LowStock handles GET /notifications/low-stock
func (h *ReportsHandler) LowStock(c *gin.Context) {
	items, err := h.notifications.LowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// Stream handles GET /notifications/stream as server-sent events.
// Each event carries the latest counts; the stream ends when the client leaves.
func (h *ReportsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.notifications.Counts(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	updates, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("counts", counts)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case next, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("counts", next)
			return true
		}
	})
}
