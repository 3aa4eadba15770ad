package handlers

import (
	"github.com/gin-gonic/gin"

	"bistro/internal/domain/purchases"
	"bistro/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles supplier purchase endpoints.
type PurchaseHandler struct {
	*BaseHandler
	service *purchases.Service
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchases.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// List handles GET /purchases
func (h *PurchaseHandler) List(c *gin.Context) {
	var q dto.PurchaseListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := purchases.ListFilter{ListFilter: q.ListQuery.ToFilter()}
	if q.Status != "" {
		st, err := purchases.ParseStatus(q.Status)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.Status = &st
	}
	var err error
	if filter.From, filter.To, err = h.QueryRange(q.From, q.To); err != nil {
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

// Get handles GET /purchases/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	purchaseID, ok := h.ParseID(c)
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Create handles POST /purchases
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Update handles PUT /purchases/:id
func (h *PurchaseHandler) Update(c *gin.Context) {
	purchaseID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.Update(c.Request.Context(), purchaseID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Delete handles DELETE /purchases/:id
func (h *PurchaseHandler) Delete(c *gin.Context) {
	purchaseID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), purchaseID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
