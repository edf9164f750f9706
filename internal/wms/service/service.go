package service

import (
	"github.com/bitfantasy/nimo-wms/internal/config"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	PO         *POService
	Supplier   *SupplierService
	Customer   *CustomerService
	Shipment   *ShipmentService
	Inventory  *InventoryService
	Dashboard  *DashboardService
	Export     *ExportService
	Attachment *AttachmentService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio client init failed, attachments disabled", zap.Error(err))
			minioClient = nil
		}
	}

	supplierSvc := NewSupplierService(repos.Supplier, logger)
	inventorySvc := NewInventoryService(repos.Inventory, logger)
	dashboardSvc := NewDashboardService(repos.PO, rdb, logger)

	poSvc := NewPOService(repos.PO, supplierSvc, inventorySvc, logger)
	// 订单变更后主动失效看板缓存，而不是只等TTL过期
	poSvc.SetStatsInvalidator(dashboardSvc)

	return &Services{
		PO:         poSvc,
		Supplier:   supplierSvc,
		Customer:   NewCustomerService(repos.Customer, logger),
		Shipment:   NewShipmentService(repos.Shipment, repos.Customer, logger),
		Inventory:  inventorySvc,
		Dashboard:  dashboardSvc,
		Export:     NewExportService(repos.PO, logger),
		Attachment: NewAttachmentService(repos.PO, minioClient, cfg.MinIO.Bucket, logger),
	}
}
