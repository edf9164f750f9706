package service

import (
	"bytes"
	"context"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportService 采购订单台账导出（xlsx）
type ExportService struct {
	poRepo *repository.PORepository
	logger *zap.Logger
}

func NewExportService(poRepo *repository.PORepository, logger *zap.Logger) *ExportService {
	return &ExportService{poRepo: poRepo, logger: logger}
}

// 导出时分页拉取的批大小
const exportBatchSize = 500

// ExportPORegister 导出采购订单台账，返回xlsx字节流
func (s *ExportService) ExportPORegister(ctx context.Context, actor Actor, params repository.POListParams) (*bytes.Buffer, error) {
	if err := requirePermission(actor, ActionExport); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "采购订单"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"订单编号", "供应商", "国家", "城市", "状态", "物流状态", "订单金额", "已付金额", "余额", "下单日期", "预计到货", "备注"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	params.Page = 1
	params.PageSize = exportBatchSize
	for {
		pos, total, err := s.poRepo.FindAll(ctx, params)
		if err != nil {
			return nil, err
		}

		for _, po := range pos {
			values := []interface{}{
				po.POCode,
				po.SupplierName,
				po.SupplierCountry,
				po.SupplierCity,
				statusLabel(po.Status),
				po.ShippingStatus,
				po.TotalAmount,
				po.TotalPaid,
				po.POBalance,
				formatDate(po.PODate),
				formatDate(po.ExpectedDate),
				po.Notes,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			row++
		}

		if int64(params.Page*exportBatchSize) >= total {
			break
		}
		params.Page++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	s.logger.Info("PO register exported",
		zap.Int("rows", row-2),
		zap.String("user_id", actor.UserID),
	)
	return buf, nil
}

// statusLabel 审批状态的中文展示
func statusLabel(status string) string {
	switch status {
	case entity.POStatusDraft:
		return "草稿"
	case entity.POStatusPendingApproval:
		return "待审批"
	case entity.POStatusApproved:
		return "已审批"
	case entity.POStatusRejected:
		return "已驳回"
	case entity.POStatusOrdered:
		return "已下单"
	case entity.POStatusPartial:
		return "部分收货"
	case entity.POStatusReceived:
		return "已收货"
	case entity.POStatusCancelled:
		return "已取消"
	default:
		return status
	}
}

// formatDate 空日期导出为空白单元格
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
