package main

import (
	"log"

	_ "erp-backend/api/swagger" // swagger docs
	"erp-backend/internal/config"
	"erp-backend/internal/database"
	"erp-backend/internal/dte"
	"erp-backend/internal/handler"
	"erp-backend/internal/middleware"
	"erp-backend/internal/repository"
	"erp-backend/internal/service"
	"erp-backend/internal/sii"
	"erp-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           ERP Facturación Electrónica API
// @version         1.0
// @description     Invoice management with SII electronic tax document (DTE) generation.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := config.Load()
	jwtSecret := []byte(cfg.JWTSecret)

	db, err := database.NewConnection(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	folioRepo := repository.NewFolioRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	profileRepo := repository.NewCompanyProfileRepository(db)
	accountingRepo := repository.NewAccountingRepository(db)

	siiClient := sii.NewSimulatedClient(cfg.SIILatency, cfg.SIISeed)
	renderer := dte.NewRenderer(cfg.CompanyDefaults)

	userService := service.NewUserService(userRepo, jwtSecret)
	invoiceService := service.NewInvoiceService(invoiceRepo)
	profileService := service.NewCompanyProfileService(profileRepo)
	dteService := service.NewDTEService(
		invoiceRepo, folioRepo, submissionRepo, profileRepo, accountingRepo,
		txManager, siiClient, renderer, cfg.SIITimeout, wsHub,
	)
	queryService := service.NewDTEQueryService(invoiceRepo, submissionRepo, siiClient, cfg.SIITimeout)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, jwtSecret)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	dteHandler := handler.NewDTEHandler(dteService, queryService, profileService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))

	protected := router.Group("")
	protected.Use(middleware.RequireAuth(jwtSecret))
	invoiceHandler.RegisterRoutes(protected)
	dteHandler.RegisterRoutes(protected)

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
