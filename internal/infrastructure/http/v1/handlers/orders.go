package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bistro/internal/domain/orders"
	"bistro/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	*BaseHandler
	service *orders.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *orders.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	var q dto.OrderListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter, err := h.parseFilter(q)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

func (h *OrderHandler) parseFilter(q dto.OrderListQuery) (orders.ListFilter, error) {
	filter := orders.ListFilter{ListFilter: q.ListQuery.ToFilter()}

	for _, raw := range strings.Split(q.Status, ",") {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		st, err := orders.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Statuses = append(filter.Statuses, st)
	}

	if q.Type != "" {
		t, err := orders.ParseType(q.Type)
		if err != nil {
			return filter, err
		}
		filter.Type = &t
	}

	var err error
	if filter.TableID, err = h.QueryID(q.TableID, "tableId"); err != nil {
		return filter, err
	}
	if filter.DriverID, err = h.QueryID(q.DriverID, "driverId"); err != nil {
		return filter, err
	}
	if filter.From, filter.To, err = h.QueryRange(q.From, q.To); err != nil {
		return filter, err
	}
	return filter, nil
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o)
}

// Update handles PATCH /orders/:id (status transitions and edits).
func (h *OrderHandler) Update(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.Update(c.Request.Context(), orderID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// Delete handles DELETE /orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
