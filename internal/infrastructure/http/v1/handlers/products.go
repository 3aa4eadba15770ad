package handlers

import (
	"github.com/gin-gonic/gin"

	"bistro/internal/domain/catalog"
	"bistro/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles menu product endpoints.
type ProductHandler struct {
	*BaseHandler
	service *catalog.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *catalog.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ProductListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	categoryID, err := h.QueryID(q.CategoryID, "categoryId")
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.ListProducts(c.Request.Context(), catalog.ProductFilter{
		ListFilter: q.ListQuery.ToFilter(),
		CategoryID: categoryID,
		ActiveOnly: q.ActiveOnly,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	p, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.service.CreateProduct(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Update handles PATCH /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpdateProduct(c.Request.Context(), productID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
