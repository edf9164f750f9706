package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// AttachmentService 采购订单附件服务（票据扫描件等，对象存MinIO）
type AttachmentService struct {
	poRepo      *repository.PORepository
	minioClient *minio.Client
	bucketName  string
	logger      *zap.Logger
}

func NewAttachmentService(poRepo *repository.PORepository, minioClient *minio.Client, bucketName string, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{
		poRepo:      poRepo,
		minioClient: minioClient,
		bucketName:  bucketName,
		logger:      logger,
	}
}

// Upload 上传PO附件，对象键 po/{po_id}/{随机前缀}{扩展名}
func (s *AttachmentService) Upload(ctx context.Context, actor Actor, poID string, reader io.Reader, fileName string, fileSize int64, contentType string) (*entity.POAttachment, error) {
	if err := requirePermission(actor, ActionEdit); err != nil {
		return nil, err
	}

	po, err := s.poRepo.FindByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po.Archived {
		return nil, ErrInvalidTransition
	}

	objectKey := fmt.Sprintf("po/%s/%s%s", po.ID, uuid.New().String()[:8], filepath.Ext(fileName))

	if s.minioClient == nil {
		return nil, fmt.Errorf("storage not configured")
	}
	_, err = s.minioClient.PutObject(ctx, s.bucketName, objectKey, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	att := &entity.POAttachment{
		ID:         uuid.New().String()[:32],
		POID:       po.ID,
		FileName:   fileName,
		ObjectKey:  objectKey,
		Size:       fileSize,
		UploadedBy: actor.UserID,
	}

	if err := s.poRepo.CreateAttachment(ctx, att); err != nil {
		return nil, err
	}

	s.logger.Info("PO attachment uploaded",
		zap.String("po_code", po.POCode),
		zap.String("file_name", fileName),
		zap.Int64("size", fileSize),
	)
	return att, nil
}

// List 查询PO附件列表
func (s *AttachmentService) List(ctx context.Context, poID string) ([]entity.POAttachment, error) {
	if _, err := s.poRepo.FindByID(ctx, poID); err != nil {
		return nil, err
	}
	return s.poRepo.ListAttachments(ctx, poID)
}

// PresignedURL 生成附件的临时下载链接
func (s *AttachmentService) PresignedURL(ctx context.Context, poID, attachmentID string) (string, error) {
	if s.minioClient == nil {
		return "", fmt.Errorf("storage not configured")
	}

	atts, err := s.List(ctx, poID)
	if err != nil {
		return "", err
	}

	for _, att := range atts {
		if att.ID == attachmentID {
			reqParams := make(url.Values)
			reqParams.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="%s"`, att.FileName))

			u, err := s.minioClient.PresignedGetObject(ctx, s.bucketName, att.ObjectKey, 15*time.Minute, reqParams)
			if err != nil {
				return "", fmt.Errorf("presign object: %w", err)
			}
			return u.String(), nil
		}
	}
	return "", repository.ErrNotFound
}
