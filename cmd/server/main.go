package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-wms/internal/config"
	"github.com/bitfantasy/nimo-wms/internal/middleware"
	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/handler"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-wms service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Supplier{},
		&entity.Customer{},
		&entity.InventoryItem{},
		&entity.InventoryTransaction{},
		&entity.PurchaseOrder{},
		&entity.POLineItem{},
		&entity.POPayment{},
		&entity.POAttachment{},
		&entity.Shipment{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis not available, dashboard cache disabled", zap.Error(err))
		rdb = nil
	}

	// 组装仓库、服务、处理器
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg, zapLogger)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

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
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
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

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	v1 := r.Group("/api/v1")
	authorized := v1.Group("", middleware.JWTAuth(cfg.JWT.Secret))

	wms := authorized.Group("/wms")
	{
		pos := wms.Group("/purchase-orders")
		{
			pos.GET("", h.PO.ListPOs)
			pos.GET("/export", h.PO.ExportPOs)
			pos.POST("", h.PO.CreatePO)
			pos.GET("/:id", h.PO.GetPO)
			pos.PUT("/:id", h.PO.UpdatePO)
			pos.DELETE("/:id", h.PO.DeletePO)
			pos.DELETE("/:id/purge", middleware.RequireRole("wms_admin"), h.PO.PurgePO)

			// 生命周期
			pos.POST("/:id/submit", h.PO.SubmitPO)
			pos.POST("/:id/approve", h.PO.ApprovePO)
			pos.POST("/:id/reject", h.PO.RejectPO)
			pos.POST("/:id/order", h.PO.OrderPO)
			pos.POST("/:id/cancel", h.PO.CancelPO)
			pos.POST("/:id/archive", h.PO.ArchivePO)
			pos.POST("/:id/restore", h.PO.RestorePO)

			// 收货、付款、物流
			pos.POST("/:id/receive", h.PO.ReceivePO)
			pos.POST("/:id/payments", h.PO.RecordPayment)
			pos.PUT("/:id/shipping-status", h.PO.UpdateShippingStatus)

			// 附件
			pos.POST("/:id/attachments", h.PO.UploadAttachment)
			pos.GET("/:id/attachments", h.PO.ListAttachments)
			pos.GET("/:id/attachments/:attachmentId/url", h.PO.DownloadAttachment)

			// 批量操作
			pos.POST("/batch/archive", h.PO.BatchArchive)
			pos.POST("/batch/restore", h.PO.BatchRestore)
			pos.POST("/batch/cancel", h.PO.BatchCancel)
			pos.POST("/batch/delete", h.PO.BatchDelete)
			pos.POST("/batch/order", h.PO.BatchOrder)
		}

		suppliers := wms.Group("/suppliers")
		{
			suppliers.GET("", h.Supplier.ListSuppliers)
			suppliers.POST("", h.Supplier.CreateSupplier)
			suppliers.GET("/:id", h.Supplier.GetSupplier)
			suppliers.PUT("/:id", h.Supplier.UpdateSupplier)
			suppliers.DELETE("/:id", h.Supplier.DeleteSupplier)
			suppliers.POST("/:id/archive", h.Supplier.ArchiveSupplier)
			suppliers.POST("/:id/restore", h.Supplier.RestoreSupplier)
			suppliers.POST("/batch/archive", h.Supplier.BatchArchive)
			suppliers.POST("/batch/delete", h.Supplier.BatchDelete)
		}

		customers := wms.Group("/customers")
		{
			customers.GET("", h.Customer.ListCustomers)
			customers.POST("", h.Customer.CreateCustomer)
			customers.GET("/:id", h.Customer.GetCustomer)
			customers.PUT("/:id", h.Customer.UpdateCustomer)
			customers.DELETE("/:id", h.Customer.DeleteCustomer)
			customers.POST("/:id/archive", h.Customer.ArchiveCustomer)
			customers.POST("/:id/restore", h.Customer.RestoreCustomer)
			customers.POST("/batch/archive", h.Customer.BatchArchive)
			customers.POST("/batch/delete", h.Customer.BatchDelete)
		}

		shipments := wms.Group("/shipments")
		{
			shipments.GET("", h.Shipment.ListShipments)
			shipments.POST("", h.Shipment.CreateShipment)
			shipments.GET("/:id", h.Shipment.GetShipment)
			shipments.PUT("/:id", h.Shipment.UpdateShipment)
			shipments.DELETE("/:id", h.Shipment.DeleteShipment)
			shipments.POST("/:id/archive", h.Shipment.ArchiveShipment)
			shipments.POST("/:id/restore", h.Shipment.RestoreShipment)
			shipments.POST("/batch/archive", h.Shipment.BatchArchive)
			shipments.POST("/batch/delete", h.Shipment.BatchDelete)
		}

		inventory := wms.Group("/inventory")
		{
			inventory.GET("", h.Inventory.ListItems)
			inventory.POST("", h.Inventory.CreateItem)
			inventory.GET("/transactions", h.Inventory.ListTransactions)
			inventory.GET("/:id", h.Inventory.GetItem)
			inventory.PUT("/:id", h.Inventory.UpdateItem)
			inventory.POST("/:id/adjust", h.Inventory.AdjustItem)
		}

		wms.GET("/dashboard/stats", h.Dashboard.GetStats)
	}
}
