// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bistro/internal/app"
	"bistro/internal/core/apperror"
	"bistro/internal/domain/auth"
	"bistro/internal/domain/catalog"
	"bistro/internal/domain/dining"
	"bistro/internal/infrastructure/http/v1/dto"
	"bistro/internal/infrastructure/http/v1/handlers"
	"bistro/internal/infrastructure/http/v1/middleware"
	"bistro/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services *app.Services

	// Logger for request logging
	Logger *logger.Logger

	// CookieSecure marks the session cookie Secure (HTTPS only)
	CookieSecure bool

	// Debug puts gin into debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.Failure(apperror.CodeNotFound, "route not found", nil))
	})

	healthHandler := handlers.NewHealthHandler(cfg.Services.Ping)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()
	svc := cfg.Services
	authHandler := handlers.NewAuthHandler(base, svc.Auth, cfg.CookieSecure)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", authHandler.Login)

		protected := v1.Group("")
		protected.Use(middleware.Auth(svc.Auth))
		protected.Use(middleware.Idempotency(svc.Idempotency))

		registerAuthRoutes(protected, authHandler)
		registerInventoryRoutes(protected, base, svc)
		registerDiningRoutes(protected, base, svc)
		registerOrderRoutes(protected, base, svc)
		registerDocumentRoutes(protected, base, svc)
		registerReportRoutes(protected, base, svc)
		registerAdminRoutes(protected, base, svc)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	rg.POST("/auth/logout", h.Logout)
	rg.GET("/auth/me", h.Me)

	manage := middleware.RequirePermission(auth.PermUsersManage)
	rg.GET("/permissions", manage, h.Permissions)

	users := rg.Group("/users", manage)
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

func registerInventoryRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	RegisterResourceRoutes(rg.Group("/materials"),
		handlers.NewMaterialHandler(base, svc.Materials),
		http.MethodPatch, auth.PermInventoryRead, auth.PermInventoryWrite)

	RegisterResourceRoutes(rg.Group("/categories"),
		handlers.NewReferenceHandler[*catalog.Category, dto.CategoryRequest](base, svc.Categories),
		http.MethodPut, auth.PermCatalogRead, auth.PermCatalogWrite)

	RegisterResourceRoutes(rg.Group("/products"),
		handlers.NewProductHandler(base, svc.Catalog),
		http.MethodPatch, auth.PermCatalogRead, auth.PermCatalogWrite)
}

func registerDiningRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	RegisterResourceRoutes(rg.Group("/tables"),
		handlers.NewReferenceHandler[*dining.Table, dto.TableRequest](base, svc.Dining.Tables),
		http.MethodPut, auth.PermDiningRead, auth.PermDiningWrite)

	RegisterResourceRoutes(rg.Group("/zones"),
		handlers.NewReferenceHandler[*dining.Zone, dto.ZoneRequest](base, svc.Dining.Zones),
		http.MethodPut, auth.PermDiningRead, auth.PermDiningWrite)

	RegisterResourceRoutes(rg.Group("/drivers"),
		handlers.NewReferenceHandler[*dining.Driver, dto.DriverRequest](base, svc.Dining.Drivers),
		http.MethodPut, auth.PermDiningRead, auth.PermDiningWrite)
}

func registerOrderRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	RegisterResourceRoutes(rg.Group("/orders"),
		handlers.NewOrderHandler(base, svc.Orders),
		http.MethodPatch, auth.PermOrdersRead, auth.PermOrdersWrite)
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	salesHandler := handlers.NewSaleHandler(base, svc.Sales)
	salesGroup := rg.Group("/sales")
	RegisterResourceRoutes(salesGroup, salesHandler, http.MethodPut, auth.PermSalesRead, auth.PermSalesWrite)
	salesGroup.POST("/:id/void", middleware.RequirePermission(auth.PermSalesWrite), salesHandler.Void)

	RegisterResourceRoutes(rg.Group("/purchases"),
		handlers.NewPurchaseHandler(base, svc.Purchases),
		http.MethodPut, auth.PermPurchasesRead, auth.PermPurchasesWrite)

	RegisterResourceRoutes(rg.Group("/waste"),
		handlers.NewWasteHandler(base, svc.Waste),
		http.MethodPut, auth.PermWasteRead, auth.PermWasteWrite)
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	h := handlers.NewReportsHandler(base, svc.Reports, svc.Notifications, svc.Hub)

	reports := rg.Group("/reports", middleware.RequirePermission(auth.PermReportsRead))
	{
		reports.GET("/profit", h.Profit)
		reports.GET("/dashboard", h.Dashboard)
	}

	notify := rg.Group("/notifications", middleware.RequireAnyPermission(auth.PermNotificationsRead, auth.PermInventoryRead))
	{
		notify.GET("", h.Notifications)
		notify.GET("/low-stock", h.LowStock)
		notify.GET("/stream", h.Stream)
	}
}

func registerAdminRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *app.Services) {
	RegisterResourceRoutes(rg.Group("/roles"),
		handlers.NewReferenceHandler[*auth.Role, dto.RoleRequest](base, svc.Roles),
		http.MethodPut, auth.PermUsersManage, auth.PermUsersManage)

	h := handlers.NewAdminHandler(base, svc.Backup, svc.Audit)

	backup := rg.Group("/backup", middleware.RequirePermission(auth.PermBackupManage))
	{
		backup.GET("", h.Export)
		backup.POST("/restore", h.Restore)
	}

	rg.GET("/audit/:entity/:id", middleware.RequirePermission(auth.PermAuditRead), h.History)
}
