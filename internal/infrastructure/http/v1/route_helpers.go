package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bistro/internal/infrastructure/http/v1/middleware"
)

// ResourceRouteHandler defines the CRUD methods every resource handler implements.
type ResourceRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterResourceRoutes registers standard CRUD routes for a resource.
// updateMethod is PUT for full-replace resources and PATCH for partial edits.
//
// Usage:
//
//	handler := handlers.NewMaterialHandler(base, services.Materials)
//	RegisterResourceRoutes(protected.Group("/materials"), handler, http.MethodPatch,
//		auth.PermInventoryRead, auth.PermInventoryWrite)
func RegisterResourceRoutes(group *gin.RouterGroup, handler ResourceRouteHandler, updateMethod, readPerm, writePerm string) {
	read := middleware.RequirePermission(readPerm)
	write := middleware.RequirePermission(writePerm)

	group.GET("", read, handler.List)
	group.POST("", write, handler.Create)
	group.GET("/:id", read, handler.Get)
	group.Handle(updateMethod, "/:id", write, handler.Update)
	if updateMethod != http.MethodPut {
		// PUT is accepted everywhere so clients need not track which resources patch.
		group.PUT("/:id", write, handler.Update)
	}
	group.DELETE("/:id", write, handler.Delete)
}
