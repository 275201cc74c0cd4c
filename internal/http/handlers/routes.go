package handlers

import (
	"productmap/internal/app"
	"productmap/internal/http/middleware"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all API routes
func SetupRoutes(api *echo.Group, services *app.Services) {
	// Every route is tenant-scoped
	api.Use(middleware.TenantResolver())
	api.Use(middleware.RequireTenant())

	// Import routes
	importHandler := NewImportHandler(ImportDeps{
		Mapping:   services.MappingService,
		Suppliers: services.SupplierImportService,
		Products:  services.ProductImportService,
		Jobs:      services.ImportJobService,
		Settings:  services.TenantSettingsService,
		History:   services.ImportHistoryRepo,
		Archive:   services.Archiver(),
	})
	imports := api.Group("/imports")
	imports.POST("/supplier/mapping", importHandler.PreviewMapping)
	imports.POST("/supplier", importHandler.UploadSupplierFile)
	imports.POST("/products", importHandler.UploadProductFile)
	imports.GET("/jobs/:id", importHandler.GetJob)
	imports.POST("/jobs/:id/cancel", importHandler.CancelJob)
	imports.GET("/history", importHandler.ListHistory)

	// Settings routes
	settingsHandler := NewTenantSettingsHandler(services.TenantSettingsService)
	settings := api.Group("/settings")
	settings.GET("/matching", settingsHandler.GetMatchSettings)
	settings.PUT("/matching", settingsHandler.UpdateMatchSettings)

	// Custom attribute routes
	attributeHandler := NewCustomAttributeHandler(services.CustomAttributeRepo)
	attributes := api.Group("/custom-attributes")
	attributes.GET("", attributeHandler.List)
	attributes.POST("", attributeHandler.Create)
	attributes.DELETE("/:id", attributeHandler.Delete)

	// Supplier routes
	supplierHandler := NewSupplierHandler(services.SupplierRepo, services.SupplierProductRepo)
	suppliers := api.Group("/suppliers")
	suppliers.GET("/:id/products", supplierHandler.ListProducts)
	suppliers.GET("/:id/products/stats", supplierHandler.GetStats)
	suppliers.GET("/:id/products/methods", supplierHandler.GetMatchMethods)

	// Maintenance routes
	admin := api.Group("/admin")
	admin.POST("/fix-duplicates", supplierHandler.FixDuplicates)

	// WebSocket route for import progress
	api.GET("/ws", services.Hub.HandleWebSocket)
}
