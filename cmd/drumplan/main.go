package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lubeworks/drumplan/internal/config"
	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/handler"
	"github.com/lubeworks/drumplan/internal/middleware"
	"github.com/lubeworks/drumplan/internal/notify"
	"github.com/lubeworks/drumplan/internal/repository"
	"github.com/lubeworks/drumplan/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting drumplan service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate planning tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// Redis is optional; events are just not published without it.
	rdb := initRedis(cfg.Redis, zapLogger)

	notifier := notify.NewNotifier(db, rdb, zapLogger)
	dispatcher := notify.NewDispatcher(db, notify.LogSender(zapLogger), zapLogger, cfg.Outbox.Interval)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, notifier, zapLogger, cfg.Schedule.DrumsPerDay)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "drumplan"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "service": "drumplan"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "drumplan"})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "drumplan",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// Planning API v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// master data
		products := v1.Group("/products")
		{
			products.GET("", handlers.Catalog.ListProducts)
			products.POST("", handlers.Catalog.CreateProduct)
			products.GET("/:id", handlers.Catalog.GetProduct)
		}

		packagings := v1.Group("/packagings")
		{
			packagings.GET("", handlers.Catalog.ListPackagings)
			packagings.POST("", handlers.Catalog.CreatePackaging)
		}

		v1.PUT("/specs", handlers.Catalog.UpsertSpec)

		suppliers := v1.Group("/suppliers")
		{
			suppliers.GET("", handlers.Catalog.ListSuppliers)
			suppliers.POST("", handlers.Catalog.CreateSupplier)
		}

		// inventory ledger
		inventory := v1.Group("/inventory")
		{
			inventory.GET("", handlers.Inventory.List)
			inventory.POST("", handlers.Inventory.Create)
			inventory.POST("/grn", handlers.Inventory.Receive)
			inventory.GET("/:id", handlers.Inventory.Get)
			inventory.GET("/:id/availability", handlers.Inventory.Availability)
			inventory.GET("/:id/movements", handlers.Inventory.Movements)
			inventory.POST("/:id/reserve", handlers.Inventory.Reserve)
		}

		// BOMs
		boms := v1.Group("/boms")
		{
			boms.GET("/product", handlers.BOM.ListProductBOMs)
			boms.POST("/product", handlers.BOM.CreateProductBOM)
			boms.POST("/product/:id/activate", handlers.BOM.ActivateProductBOM)
			boms.GET("/product/resolve/:product_id", handlers.BOM.ResolveProductBOM)
			boms.GET("/packaging", handlers.BOM.ListPackagingBOMs)
			boms.POST("/packaging", handlers.BOM.CreatePackagingBOM)
			boms.POST("/packaging/:id/activate", handlers.BOM.ActivatePackagingBOM)
		}

		// scheduling
		v1.GET("/production/schedule", handlers.Schedule.GetSchedule)
		jobs := v1.Group("/job-orders")
		{
			jobs.GET("", handlers.Schedule.ListJobs)
			jobs.POST("", handlers.Schedule.CreateJob)
			jobs.GET("/:id", handlers.Schedule.GetJob)
			jobs.PUT("/:id/status", handlers.Schedule.UpdateStatus)
			jobs.PUT("/:id/reschedule", handlers.Schedule.Reschedule)
		}

		// shortages and procurement
		procurement := v1.Group("/procurement")
		{
			procurement.GET("/shortages", handlers.Procurement.Shortages)
			procurement.GET("/shortages/export", handlers.Procurement.ExportShortages)

			pos := procurement.Group("/purchase-orders")
			{
				pos.GET("", handlers.Procurement.ListPOs)
				pos.POST("", handlers.Procurement.GeneratePO)
				pos.GET("/:id", handlers.Procurement.GetPO)
				pos.POST("/:id/approve", middleware.RequireRole("finance"), handlers.Procurement.ApprovePO)
				pos.POST("/:id/reject", middleware.RequireRole("finance"), handlers.Procurement.RejectPO)
				pos.POST("/:id/send", handlers.Procurement.SendPO)
				pos.POST("/:id/receive", handlers.Procurement.ReceivePO)
			}
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	dispatchCtx, stopDispatcher := context.WithCancel(context.Background())
	go dispatcher.Run(dispatchCtx)

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	stopDispatcher()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}

func initRedis(cfg config.RedisConfig, zapLogger *zap.Logger) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis not reachable, event publishing disabled", zap.Error(err))
		return nil
	}
	return rdb
}
