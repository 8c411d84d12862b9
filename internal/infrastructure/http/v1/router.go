// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"gstbooks/internal/domain/cashflow"
	"gstbooks/internal/domain/catalogs/party"
	"gstbooks/internal/domain/catalogs/product"
	"gstbooks/internal/domain/documents"
	"gstbooks/internal/domain/documents/invoice"
	"gstbooks/internal/domain/documents/purchase"
	"gstbooks/internal/domain/payments"
	"gstbooks/internal/domain/statements"
	"gstbooks/internal/domain/stockledger"
	"gstbooks/internal/infrastructure/http/v1/handlers"
	"gstbooks/internal/infrastructure/http/v1/middleware"
	"gstbooks/internal/infrastructure/storage/postgres"
	"gstbooks/internal/infrastructure/storage/postgres/catalog_repo"
	"gstbooks/internal/infrastructure/storage/postgres/document_repo"
	"gstbooks/internal/infrastructure/storage/postgres/ledger_repo"
	"gstbooks/internal/infrastructure/storage/postgres/payment_repo"
	"gstbooks/internal/infrastructure/storage/postgres/report_repo"
	"gstbooks/pkg/logger"
)

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (used for health checks)
	Pool *postgres.Pool

	// TxManager runs units of work in database transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// Numerator generates document numbers
	Numerator documents.NumberGenerator

	// Stock controls the negative-stock floor
	Stock stockledger.Policy
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories share the one transaction manager; a service-opened
	// transaction covers every repo call made inside it.
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	partyRepo := catalog_repo.NewPartyRepo(cfg.TxManager)
	invoiceRepo := document_repo.NewInvoiceRepo(cfg.TxManager)
	purchaseRepo := document_repo.NewPurchaseRepo(cfg.TxManager)
	paymentRepo := payment_repo.NewPaymentRepo(cfg.TxManager)
	stockRepo := ledger_repo.NewStockRepo(cfg.TxManager)
	reportRepo := report_repo.NewReportRepo(cfg.TxManager)

	ledgerService := stockledger.NewService(stockRepo, cfg.TxManager, cfg.Stock)
	productService := product.NewService(productRepo)
	partyService := party.NewService(partyRepo)
	invoiceService := invoice.NewService(invoiceRepo, productRepo, partyRepo, ledgerService, cfg.Numerator, cfg.TxManager)
	purchaseService := purchase.NewService(purchaseRepo, productRepo, partyRepo, ledgerService, cfg.Numerator, cfg.TxManager)
	paymentService := payments.NewService(paymentRepo, invoiceRepo, purchaseRepo, cfg.TxManager)
	cashflowService := cashflow.NewService(paymentRepo, reportRepo, cfg.TxManager)
	statementBuilder := statements.NewBuilder(reportRepo, cashflowService, cfg.TxManager, statements.DefaultTaxRate)

	base := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	{
		registerCatalogRoutes(api, base, productService, partyService)
		registerDocumentRoutes(api, base, invoiceService, purchaseService)
		registerPaymentRoutes(api, base, paymentService)
		registerStockRoutes(api, base, ledgerService)
		registerReportRoutes(api, base, cashflowService, statementBuilder)
	}

	return router
}

// registerCatalogRoutes registers product and party endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, products *product.Service, parties *party.Service) {
	productHandler := handlers.NewProductHandler(base, products)
	productGroup := rg.Group("/products")
	{
		productGroup.POST("", productHandler.Create)
		productGroup.GET("", productHandler.List)
		productGroup.GET("/:id", productHandler.Get)
		productGroup.PUT("/:id", productHandler.Update)
		productGroup.DELETE("/:id", productHandler.Delete)
	}

	partyHandler := handlers.NewPartyHandler(base, parties)
	partyGroup := rg.Group("/parties")
	{
		partyGroup.POST("", partyHandler.Create)
		partyGroup.GET("", partyHandler.List)
		partyGroup.GET("/:id", partyHandler.Get)
		partyGroup.PUT("/:id", partyHandler.Update)
		partyGroup.DELETE("/:id", partyHandler.Delete)
	}
}

// registerDocumentRoutes registers invoice and purchase endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, invoices *invoice.Service, purchases *purchase.Service) {
	invoiceHandler := handlers.NewInvoiceHandler(base, invoices)
	invoiceGroup := rg.Group("/invoices")
	{
		invoiceGroup.POST("", invoiceHandler.Create)
		invoiceGroup.GET("", invoiceHandler.List)
		invoiceGroup.GET("/:id", invoiceHandler.Get)
		invoiceGroup.PUT("/:id", invoiceHandler.Update)
		invoiceGroup.DELETE("/:id", invoiceHandler.Delete)
	}

	purchaseHandler := handlers.NewPurchaseHandler(base, purchases)
	purchaseGroup := rg.Group("/purchases")
	{
		purchaseGroup.POST("", purchaseHandler.Create)
		purchaseGroup.GET("", purchaseHandler.List)
		purchaseGroup.GET("/:id", purchaseHandler.Get)
		purchaseGroup.PUT("/:id", purchaseHandler.Update)
		purchaseGroup.DELETE("/:id", purchaseHandler.Delete)
	}
}

// registerPaymentRoutes registers payment and expense endpoints.
func registerPaymentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, service *payments.Service) {
	handler := handlers.NewPaymentsHandler(base, service)

	paymentGroup := rg.Group("/payments")
	{
		paymentGroup.POST("", handler.RecordPayment)
		paymentGroup.DELETE("/:id", handler.DeletePayment)
	}

	purchasePaymentGroup := rg.Group("/purchase-payments")
	{
		purchasePaymentGroup.POST("", handler.RecordPurchasePayment)
		purchasePaymentGroup.DELETE("/:id", handler.DeletePurchasePayment)
	}

	expenseGroup := rg.Group("/expenses")
	{
		expenseGroup.POST("", handler.RecordExpense)
		expenseGroup.DELETE("/:id", handler.DeleteExpense)
	}
}

// registerStockRoutes registers stock ledger endpoints.
func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, ledger *stockledger.Service) {
	handler := handlers.NewStockHandler(base, ledger)

	stockGroup := rg.Group("/stock")
	{
		stockGroup.POST("/adjustments", handler.RecordAdjustment)
		stockGroup.GET("/:id/balance", handler.GetBalance)
		stockGroup.GET("/:id/valuation", handler.GetValuation)
		stockGroup.POST("/:id/verify", handler.VerifyCache)
	}
}

// registerReportRoutes registers cashflow and statement endpoints.
func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, flows *cashflow.Service, builder *statements.Builder) {
	cashflowHandler := handlers.NewCashflowHandler(base, flows)
	cashflowGroup := rg.Group("/cashflow")
	{
		cashflowGroup.GET("/transactions", cashflowHandler.ListTransactions)
		cashflowGroup.GET("/summary", cashflowHandler.Summary)
		cashflowGroup.GET("/pending", cashflowHandler.Pending)
	}

	statementsHandler := handlers.NewStatementsHandler(base, builder)
	statementsGroup := rg.Group("/statements")
	{
		statementsGroup.GET("/profit-loss", statementsHandler.ProfitLoss)
		statementsGroup.GET("/balance-sheet", statementsHandler.BalanceSheet)
		statementsGroup.GET("/cash-flow", statementsHandler.CashFlow)
	}
}
