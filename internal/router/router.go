package router

import (
	"time"

	"github.com/omrysinwany/InvoTrack/internal/config"
	"github.com/omrysinwany/InvoTrack/internal/handler"
	"github.com/omrysinwany/InvoTrack/internal/infra"
	"github.com/omrysinwany/InvoTrack/internal/middleware"
	"github.com/omrysinwany/InvoTrack/internal/repository"
	"github.com/omrysinwany/InvoTrack/internal/service"
	"github.com/omrysinwany/InvoTrack/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps carries the externally-constructed pieces the router wires together.
// The POS relay and breaker are built in main so the worker pool can share
// them.
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	PosBreaker *infra.CircuitBreaker
	Extractor  *infra.ExtractionClient
	Dispatcher *worker.Dispatcher
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(d.DB)
	productRepo := repository.NewProductRepository(d.DB)
	supplierRepo := repository.NewSupplierRepository(d.DB)
	documentRepo := repository.NewDocumentRepository(d.DB)
	posSettingsRepo := repository.NewPosSettingsRepository(d.DB)
	txManager := repository.NewTxManager(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo)
	supplierSvc := service.NewSupplierService(supplierRepo)
	documentSvc := service.NewDocumentService(documentRepo)
	posSvc := service.NewPosService(posSettingsRepo, d.PosBreaker)

	reconciler := service.NewReconcileService(productRepo, cfg.StoreInBatchSize)
	finalizer := service.NewFinalizerService(txManager, supplierRepo, productRepo, documentRepo, d.Dispatcher)
	sessions := service.NewSessionManager()
	flowSvc := service.NewFlowService(sessions, supplierRepo, documentRepo, reconciler, finalizer)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	scansH := handler.NewScansHandler(d.Extractor, flowSvc)
	productsH := handler.NewProductsHandler(productSvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)
	documentsH := handler.NewDocumentsHandler(documentSvc)
	posH := handler.NewPosHandler(posSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Resolution flow — one route per step, strictly forward
		scans := v1.Group("/scans")
		{
			scans.POST("", scansH.Start)
			scans.GET("/:id", scansH.Get)
			scans.POST("/:id/supplier", scansH.ConfirmSupplier)
			scans.POST("/:id/products", scansH.SubmitProductDetails)
			scans.POST("/:id/links", scansH.LinkDocuments)
			scans.POST("/:id/finalize", scansH.Finalize)
			scans.DELETE("/:id", scansH.Cancel)
		}

		products := v1.Group("/products")
		{
			products.GET("", productsH.List)
			products.GET("/:id", productsH.Get)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Deactivate)
		}

		suppliers := v1.Group("/suppliers")
		{
			suppliers.POST("", suppliersH.Create)
			suppliers.GET("", suppliersH.List)
			suppliers.GET("/:id", suppliersH.Get)
			suppliers.DELETE("/:id", suppliersH.Deactivate)
		}

		documents := v1.Group("/documents")
		{
			documents.GET("", documentsH.List)
			documents.GET("/:id", documentsH.Get)
			documents.DELETE("/:id", documentsH.Archive)
		}

		posRoutes := v1.Group("/pos")
		{
			posRoutes.GET("/settings", posH.GetSettings)
			posRoutes.PUT("/settings", posH.UpdateSettings)
			posRoutes.POST("/test-connection", posH.TestConnection)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
