package service

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"go.uber.org/zap"
)

// 生命周期引擎：审批状态机的全部状态变更入口。
// 所有操作的检查顺序一致：权限 → 归档覆盖层 → 状态合法性 → 持久化。
// 非法转换一律返回 ErrInvalidTransition，不产生部分修改。

// TransitionRequest 状态变更请求（乐观锁版本号可选）
type TransitionRequest struct {
	Version *int `json:"version"`
}

// SubmitForApproval 提交审批：仅草稿，且行项非空
func (s *POService) SubmitForApproval(ctx context.Context, actor Actor, id string, req *TransitionRequest) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, actor, id, req, ActionSubmit, func(po *entity.PurchaseOrder) error {
		if po.Status != entity.POStatusDraft {
			return ErrInvalidTransition
		}
		if len(po.Items) == 0 {
			return NewValidationError("items", "行项为空的订单不能提交审批")
		}
		po.Status = entity.POStatusPendingApproval
		return nil
	})
}

// Approve 审批通过：仅待审批，写入审批人与时间
func (s *POService) Approve(ctx context.Context, actor Actor, id string, req *TransitionRequest) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, actor, id, req, ActionApprove, func(po *entity.PurchaseOrder) error {
		if po.Status != entity.POStatusPendingApproval {
			return ErrInvalidTransition
		}
		now := time.Now()
		po.Status = entity.POStatusApproved
		po.ApprovedBy = &actor.UserID
		po.ApprovedAt = &now
		return nil
	})
}

// Reject 驳回：仅待审批，驳回为审批终态
func (s *POService) Reject(ctx context.Context, actor Actor, id string, req *TransitionRequest) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, actor, id, req, ActionApprove, func(po *entity.PurchaseOrder) error {
		if po.Status != entity.POStatusPendingApproval {
			return ErrInvalidTransition
		}
		po.Status = entity.POStatusRejected
		return nil
	})
}

// MarkAsOrdered 下单：仅已审批
func (s *POService) MarkAsOrdered(ctx context.Context, actor Actor, id string, req *TransitionRequest) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, actor, id, req, ActionOrder, func(po *entity.PurchaseOrder) error {
		if po.Status != entity.POStatusApproved {
			return ErrInvalidTransition
		}
		po.Status = entity.POStatusOrdered
		return nil
	})
}

// Cancel 取消：received/cancelled之外均可。已落库的收货不回冲。
func (s *POService) Cancel(ctx context.Context, actor Actor, id string, req *TransitionRequest) (*entity.PurchaseOrder, error) {
	return s.transition(ctx, actor, id, req, ActionCancel, func(po *entity.PurchaseOrder) error {
		if !entity.CanTransition(po.Status, entity.POStatusCancelled) {
			return ErrInvalidTransition
		}
		po.Status = entity.POStatusCancelled
		return nil
	})
}

// transition 生命周期操作的统一骨架
func (s *POService) transition(ctx context.Context, actor Actor, id string, req *TransitionRequest, action Action, apply func(*entity.PurchaseOrder) error) (*entity.PurchaseOrder, error) {
	if err := requirePermission(actor, action); err != nil {
		return nil, err
	}

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Archived {
		// 归档订单只接受恢复与永久删除
		return nil, ErrInvalidTransition
	}
	if req != nil {
		if err := checkVersion(po, req.Version); err != nil {
			return nil, err
		}
	}

	from := po.Status
	if err := apply(po); err != nil {
		return nil, err
	}

	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)

	s.logger.Info("PO status changed",
		zap.String("po_code", po.POCode),
		zap.String("from", from),
		zap.String("to", po.Status),
		zap.String("user_id", actor.UserID),
	)
	return po, nil
}

// Archive 归档：仅 draft/cancelled/rejected，活跃流程不可归档
func (s *POService) Archive(ctx context.Context, actor Actor, id string, req *TransitionRequest) (*entity.PurchaseOrder, error) {
	if err := requirePermission(actor, ActionArchive); err != nil {
		return nil, err
	}

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Archived {
		return nil, ErrInvalidTransition
	}
	if req != nil {
		if err := checkVersion(po, req.Version); err != nil {
			return nil, err
		}
	}
	if !isArchivableStatus(po.Status) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	po.Archived = true
	po.ArchivedAt = &now

	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return po, nil
}

// Restore 从归档恢复，审批状态保持不变
func (s *POService) Restore(ctx context.Context, actor Actor, id string, req *TransitionRequest) (*entity.PurchaseOrder, error) {
	if err := requirePermission(actor, ActionRestore); err != nil {
		return nil, err
	}

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !po.Archived {
		return nil, ErrInvalidTransition
	}
	if req != nil {
		if err := checkVersion(po, req.Version); err != nil {
			return nil, err
		}
	}

	po.Archived = false
	po.ArchivedAt = nil

	if err := s.poRepo.Update(ctx, po); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return po, nil
}

// Delete 硬删除（不经归档）：仅 draft/cancelled/rejected
func (s *POService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := requirePermission(actor, ActionDelete); err != nil {
		return err
	}

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if po.Archived {
		// 归档订单只走永久删除
		return ErrInvalidTransition
	}
	if !isArchivableStatus(po.Status) {
		return ErrInvalidTransition
	}

	if err := s.poRepo.Delete(ctx, po.ID); err != nil {
		return err
	}
	s.invalidateStats(ctx)

	s.logger.Info("PO deleted", zap.String("po_code", po.POCode), zap.String("user_id", actor.UserID))
	return nil
}

// PermanentlyDelete 永久删除：仅归档订单，仅最高权限
func (s *POService) PermanentlyDelete(ctx context.Context, actor Actor, id string) error {
	if err := requirePermission(actor, ActionPurge); err != nil {
		return err
	}

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !po.Archived {
		return ErrInvalidTransition
	}

	if err := s.poRepo.Delete(ctx, po.ID); err != nil {
		return err
	}
	s.invalidateStats(ctx)

	s.logger.Info("PO permanently deleted", zap.String("po_code", po.POCode), zap.String("user_id", actor.UserID))
	return nil
}

// isArchivableStatus 可归档/可硬删除的状态
func isArchivableStatus(status string) bool {
	return status == entity.POStatusDraft ||
		status == entity.POStatusCancelled ||
		status == entity.POStatusRejected
}
