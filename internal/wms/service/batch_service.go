package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// 批量协调器：同一生命周期操作对一组订单逐单尽力执行。
// 单个失败只计入失败清单，不影响其他订单，也不回滚已成功的。

const batchConcurrency = 4

// BatchRequest 批量操作请求
type BatchRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// BatchError 单个订单的失败记录
type BatchError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// BatchResult 批量操作汇总
type BatchResult struct {
	SuccessCount int          `json:"success_count"`
	FailedCount  int          `json:"failed_count"`
	SucceededIDs []string     `json:"succeeded_ids"`
	Errors       []BatchError `json:"errors"`
}

// ApplyBatch 对去重后的每个ID执行op，受限并发，汇总结果。
// op内部各自做权限与状态检查，这里不预判。
func (s *POService) ApplyBatch(ctx context.Context, actor Actor, ids []string, opName string, op func(ctx context.Context, id string) error) *BatchResult {
	return applyBatch(ctx, s.logger, actor, ids, opName, op)
}

func applyBatch(ctx context.Context, logger *zap.Logger, actor Actor, ids []string, opName string, op func(ctx context.Context, id string) error) *BatchResult {
	// 去重，保序
	seen := make(map[string]bool, len(ids))
	var unique []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	result := &BatchResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, batchConcurrency)

	for _, id := range unique {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			err := op(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailedCount++
				result.Errors = append(result.Errors, BatchError{ID: id, Message: err.Error()})
				return
			}
			result.SuccessCount++
			result.SucceededIDs = append(result.SucceededIDs, id)
		}(id)
	}
	wg.Wait()

	logger.Info("batch operation finished",
		zap.String("op", opName),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailedCount),
		zap.String("user_id", actor.UserID),
	)
	return result
}

// BatchArchive 批量归档
func (s *POService) BatchArchive(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return s.ApplyBatch(ctx, actor, ids, "archive", func(ctx context.Context, id string) error {
		_, err := s.Archive(ctx, actor, id, nil)
		return err
	})
}

// BatchRestore 批量恢复
func (s *POService) BatchRestore(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return s.ApplyBatch(ctx, actor, ids, "restore", func(ctx context.Context, id string) error {
		_, err := s.Restore(ctx, actor, id, nil)
		return err
	})
}

// BatchCancel 批量取消
func (s *POService) BatchCancel(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return s.ApplyBatch(ctx, actor, ids, "cancel", func(ctx context.Context, id string) error {
		_, err := s.Cancel(ctx, actor, id, nil)
		return err
	})
}

// BatchDelete 批量硬删除
func (s *POService) BatchDelete(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return s.ApplyBatch(ctx, actor, ids, "delete", func(ctx context.Context, id string) error {
		return s.Delete(ctx, actor, id)
	})
}

// BatchMarkAsOrdered 批量下单
func (s *POService) BatchMarkAsOrdered(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return s.ApplyBatch(ctx, actor, ids, "mark_as_ordered", func(ctx context.Context, id string) error {
		_, err := s.MarkAsOrdered(ctx, actor, id, nil)
		return err
	})
}

// BatchArchive 批量归档供应商
func (s *SupplierService) BatchArchive(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return applyBatch(ctx, s.logger, actor, ids, "supplier_archive", func(ctx context.Context, id string) error {
		_, err := s.ArchiveSupplier(ctx, actor, id)
		return err
	})
}

// BatchDelete 批量删除供应商（仅归档后）
func (s *SupplierService) BatchDelete(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return applyBatch(ctx, s.logger, actor, ids, "supplier_delete", func(ctx context.Context, id string) error {
		return s.DeleteSupplier(ctx, actor, id)
	})
}

// BatchArchive 批量归档客户
func (s *CustomerService) BatchArchive(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return applyBatch(ctx, s.logger, actor, ids, "customer_archive", func(ctx context.Context, id string) error {
		_, err := s.ArchiveCustomer(ctx, actor, id)
		return err
	})
}

// BatchDelete 批量删除客户（仅归档后）
func (s *CustomerService) BatchDelete(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return applyBatch(ctx, s.logger, actor, ids, "customer_delete", func(ctx context.Context, id string) error {
		return s.DeleteCustomer(ctx, actor, id)
	})
}

// BatchArchive 批量归档发运单
func (s *ShipmentService) BatchArchive(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return applyBatch(ctx, s.logger, actor, ids, "shipment_archive", func(ctx context.Context, id string) error {
		_, err := s.ArchiveShipment(ctx, actor, id)
		return err
	})
}

// BatchDelete 批量删除发运单（仅归档后）
func (s *ShipmentService) BatchDelete(ctx context.Context, actor Actor, ids []string) *BatchResult {
	return applyBatch(ctx, s.logger, actor, ids, "shipment_delete", func(ctx context.Context, id string) error {
		return s.DeleteShipment(ctx, actor, id)
	})
}
