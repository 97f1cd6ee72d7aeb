package main

import (
	"net/http"

	"furniture-service/internal/capability"
	"furniture-service/internal/handler"
	mid "furniture-service/internal/middleware"
	"furniture-service/pkg/config"
	"furniture-service/pkg/database"
	"furniture-service/pkg/jwtutil"
	"furniture-service/pkg/logger"
	"furniture-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration (reads .env if present)
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting furniture-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Catalog routes. Reads are open to any authenticated caller,
	// writes require the catalog capability.
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", handler.ListProducts)
	productAPI.GET("/:id", handler.GetProduct)
	productAPI.GET("/:id/variants", handler.ListVariants)
	productWrite := productAPI.Group("", mid.RequireCapability(capability.ManageCatalog))
	productWrite.POST("", handler.CreateProduct)
	productWrite.PUT("/:id", handler.UpdateProduct)
	productWrite.DELETE("/:id", handler.DeleteProduct)
	productWrite.POST("/:id/variants", handler.CreateVariant)
	productWrite.PUT("/:id/variants/:variant_id", handler.UpdateVariant)
	productWrite.DELETE("/:id/variants/:variant_id", handler.DeleteVariant)

	categoryAPI := e.Group("/api/categories", mid.AuthMiddleware)
	categoryAPI.GET("", handler.ListCategories)
	categoryAPI.GET("/:id", handler.GetCategory)
	categoryWrite := categoryAPI.Group("", mid.RequireCapability(capability.ManageCatalog))
	categoryWrite.POST("", handler.CreateCategory)
	categoryWrite.PUT("/:id", handler.UpdateCategory)
	categoryWrite.DELETE("/:id", handler.DeleteCategory)

	// Branch routes
	branchAPI := e.Group("/api/branches", mid.AuthMiddleware)
	branchAPI.GET("", handler.ListBranches)
	branchAPI.GET("/:id", handler.GetBranch)
	branchAPI.GET("/:id/stats", handler.GetBranchStats, mid.RequireCapability(capability.ViewReports))
	branchAPI.GET("/:id/low-stock", handler.ListBranchLowStock, mid.RequireCapability(capability.ViewInventory))
	branchWrite := branchAPI.Group("", mid.RequireCapability(capability.ManageBranches))
	branchWrite.POST("", handler.CreateBranch)
	branchWrite.PUT("/:id", handler.UpdateBranch)
	branchWrite.DELETE("/:id", handler.DeleteBranch)

	// Stock routes
	stockAPI := e.Group("/api/stocks", mid.AuthMiddleware, mid.RequireCapability(capability.ViewInventory))
	stockAPI.GET("", handler.ListStocks)
	stockAPI.GET("/resolve", handler.GetOrCreateStock)
	stockAPI.GET("/:id", handler.GetStock)
	stockAPI.GET("/report", handler.GetInventoryReport)
	stockAPI.GET("/movements", handler.ListStockMovements)
	stockWrite := stockAPI.Group("", mid.RequireCapability(capability.ManageInventory))
	stockWrite.PUT("/:id", handler.UpdateStock)
	stockWrite.POST("/:id/add", handler.AddStock)
	stockWrite.POST("/:id/remove", handler.RemoveStock)
	stockWrite.POST("/:id/adjust", handler.AdjustStock)
	stockWrite.POST("/:id/transfer", handler.TransferStock)

	// Supplier routes
	supplierAPI := e.Group("/api/suppliers", mid.AuthMiddleware, mid.RequireCapability(capability.ManageSuppliers))
	supplierAPI.GET("", handler.ListSuppliers)
	supplierAPI.GET("/:id", handler.GetSupplier)
	supplierAPI.POST("", handler.CreateSupplier)
	supplierAPI.PUT("/:id", handler.UpdateSupplier)
	supplierAPI.DELETE("/:id", handler.DeleteSupplier)
	supplierAPI.GET("/:id/contacts", handler.ListSupplierContacts)
	supplierAPI.POST("/:id/contacts", handler.CreateSupplierContact)
	supplierAPI.PUT("/:id/contacts/:contact_id", handler.UpdateSupplierContact)
	supplierAPI.DELETE("/:id/contacts/:contact_id", handler.DeleteSupplierContact)
	supplierAPI.GET("/:id/purchase-orders", handler.ListSupplierPurchaseOrders)

	// Purchase order routes
	poAPI := e.Group("/api/purchase-orders", mid.AuthMiddleware, mid.RequireCapability(capability.ManagePurchaseOrders))
	poAPI.GET("", handler.ListPurchaseOrders)
	poAPI.GET("/:id", handler.GetPurchaseOrder)
	poAPI.POST("", handler.CreatePurchaseOrder)
	poAPI.POST("/:id/items", handler.AddPurchaseOrderItem)
	poAPI.PUT("/:id/items/:item_id", handler.UpdatePurchaseOrderItem)
	poAPI.POST("/:id/submit", handler.SubmitPurchaseOrder)
	poAPI.POST("/:id/approve", handler.ApprovePurchaseOrder, mid.RequireCapability(capability.ApprovePurchaseOrders))
	poAPI.POST("/:id/ordered", handler.MarkPurchaseOrderOrdered)
	poAPI.POST("/:id/cancel", handler.CancelPurchaseOrder)
	poAPI.POST("/:id/receive", handler.ReceivePurchaseOrder, mid.RequireCapability(capability.ReceivePurchaseOrders))
	poAPI.GET("/:id/receives", handler.ListPurchaseOrderReceives)

	// Cart routes
	cartAPI := e.Group("/api/cart", mid.AuthMiddleware)
	cartAPI.GET("", handler.GetCart)
	cartAPI.POST("/items", handler.AddCartItem)
	cartAPI.PUT("/items/:item_id", handler.UpdateCartItem)
	cartAPI.DELETE("/items/:item_id", handler.RemoveCartItem)
	cartAPI.DELETE("", handler.ClearCart)

	// Shipping address routes
	addressAPI := e.Group("/api/shipping-addresses", mid.AuthMiddleware)
	addressAPI.GET("", handler.ListShippingAddresses)
	addressAPI.POST("", handler.CreateShippingAddress)
	addressAPI.PUT("/:id", handler.UpdateShippingAddress)
	addressAPI.DELETE("/:id", handler.DeleteShippingAddress)

	// Order routes
	orderAPI := e.Group("/api/orders", mid.AuthMiddleware)
	orderAPI.POST("", handler.CreateOrder)
	orderAPI.GET("/my", handler.ListMyOrders)
	orderAPI.GET("", handler.ListOrders, mid.RequireCapability(capability.ViewOrders))
	orderAPI.GET("/dashboard", handler.GetOrderDashboardStats, mid.RequireCapability(capability.ViewReports))
	orderAPI.GET("/:id", handler.GetOrder)
	orderAPI.GET("/:id/tracking", handler.GetOrderTracking)
	orderAPI.PUT("/:id/status", handler.UpdateOrderStatus, mid.RequireCapability(capability.ManageOrders))
	orderAPI.PUT("/:id/payment", handler.UpdateOrderPayment, mid.RequireCapability(capability.ManageOrders))
	orderAPI.POST("/:id/cancel", handler.CancelOrder)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
