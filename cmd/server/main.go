package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/martify/martify-backend/config"
	"github.com/martify/martify-backend/internal/app/controller"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/internal/app/service"
	"github.com/martify/martify-backend/internal/db"
	"github.com/martify/martify-backend/internal/middleware"
	"github.com/martify/martify-backend/internal/router"
	"github.com/martify/martify-backend/internal/scheduler"
	"github.com/martify/martify-backend/internal/storage"
	"github.com/martify/martify-backend/pkg/logger"
	"github.com/martify/martify-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting Martify Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs token revocation; without it logout is a client-side no-op
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	addressRepo := repository.NewAddressRepository(db.GetDB())
	favoriteRepo := repository.NewFavoriteRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(userRepo, &cfg.JWT)
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo, favoriteRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, addressRepo, db.GetDB())
	addressService := service.NewAddressService(addressRepo)
	favoriteService := service.NewFavoriteService(favoriteRepo, productRepo)
	sellerService := service.NewSellerService(orderRepo)

	// Initialize storage
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	orderController := controller.NewOrderController(orderService)
	addressController := controller.NewAddressController(addressService)
	favoriteController := controller.NewFavoriteController(favoriteService)
	sellerController := controller.NewSellerController(sellerService)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		cartController,
		orderController,
		addressController,
		favoriteController,
		sellerController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start the nightly consistency sweep
	reconciler := scheduler.NewReconcileScheduler(productRepo, orderRepo)
	if err := reconciler.Start(); err != nil {
		logger.Fatal("Failed to start reconciliation scheduler", err)
	}
	defer reconciler.Stop()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
