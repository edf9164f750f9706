package service

import (
	"context"
	"sort"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"go.uber.org/zap"
)

// 收货对账：把一次到货核销到订单行项并同步库存台账。
// 先全量校验再落账，任何一行超量整单拒绝，不产生部分收货。

// ReceiveRequest 收货请求。Items键为库存物料ID，值为本次实收数量。
type ReceiveRequest struct {
	Items      map[string]float64 `json:"items" binding:"required"`
	ActualCost *float64           `json:"actual_cost"`
	Version    *int               `json:"version"`
}

// InventoryDelta 单个物料的库存变动结果
type InventoryDelta struct {
	InventoryItemID string  `json:"inventory_item_id"`
	ItemName        string  `json:"item_name"`
	PreviousQty     float64 `json:"previous_qty"`
	NewQty          float64 `json:"new_qty"`
}

// Receive 对一张订单执行收货对账。
// 仅 ordered / partially_received 状态可收货；收货后状态按行项完成度推导：
// 全部行项收满为 received，否则为 partially_received。
func (s *POService) Receive(ctx context.Context, actor Actor, id string, req *ReceiveRequest) (*entity.PurchaseOrder, []InventoryDelta, error) {
	if err := requirePermission(actor, ActionReceive); err != nil {
		return nil, nil, err
	}

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if po.Archived {
		return nil, nil, ErrInvalidTransition
	}
	if err := checkVersion(po, req.Version); err != nil {
		return nil, nil, err
	}
	if po.Status != entity.POStatusOrdered && po.Status != entity.POStatusPartial {
		return nil, nil, ErrInvalidTransition
	}

	// 第一遍：全量校验。行项索引按物料ID建，校验失败不碰任何数据。
	lines := make(map[string]*entity.POLineItem, len(po.Items))
	for i := range po.Items {
		lines[po.Items[i].InventoryItemID] = &po.Items[i]
	}

	var receipts []lineReceipt
	for itemID, qty := range req.Items {
		if qty == 0 {
			continue
		}
		if qty < 0 {
			return nil, nil, NewValidationError("items", "收货数量不能为负: "+itemID)
		}
		line, ok := lines[itemID]
		if !ok {
			return nil, nil, NewValidationError("items", "物料不在订单行项中: "+itemID)
		}
		if remaining := line.Remaining(); qty > remaining {
			return nil, nil, &QuantityExceedsRemainingError{
				InventoryItemID: itemID,
				Requested:       qty,
				Remaining:       remaining,
			}
		}
		receipts = append(receipts, lineReceipt{line: line, qty: qty})
	}
	if len(receipts) == 0 {
		return nil, nil, ErrNothingToReceive
	}
	if req.ActualCost != nil && *req.ActualCost < 0 {
		return nil, nil, NewValidationError("actual_cost", "实际成本不能为负")
	}
	// 过账顺序跟随行项顺序，台账与返回的变动列表保持稳定
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].line.SortOrder < receipts[j].line.SortOrder
	})

	// 第二遍：逐行过账库存台账。任何一行失败即反向冲销已过账的行。
	var deltas []InventoryDelta
	var posted []lineReceipt
	for _, rc := range receipts {
		ref := repository.LedgerRef{
			Type:      "purchase_order",
			ID:        po.ID,
			Code:      po.POCode,
			TxType:    entity.TxTypePurchaseIn,
			Notes:     "采购收货 " + po.POCode,
			CreatedBy: actor.UserID,
		}
		newQty, err := s.ledger.AdjustQuantity(ctx, rc.line.InventoryItemID, rc.qty, ref)
		if err != nil {
			s.compensate(ctx, actor, po, posted)
			return nil, nil, err
		}
		posted = append(posted, rc)
		deltas = append(deltas, InventoryDelta{
			InventoryItemID: rc.line.InventoryItemID,
			ItemName:        rc.line.ItemName,
			PreviousQty:     newQty - rc.qty,
			NewQty:          newQty,
		})
	}

	for _, rc := range receipts {
		rc.line.QuantityReceived += rc.qty
	}

	if po.AllItemsReceived() {
		po.Status = entity.POStatusReceived
	} else {
		po.Status = entity.POStatusPartial
	}

	// 实际成本覆盖：锁定订单总额，后续重算不再按行项求和
	if req.ActualCost != nil {
		po.TotalAmount = *req.ActualCost
		po.ActualCostSet = true
	}
	po.RecomputeTotals()

	if err := s.poRepo.UpdateWithItems(ctx, po); err != nil {
		// 订单保存失败，库存台账已过账的行必须冲销
		s.compensate(ctx, actor, po, posted)
		return nil, nil, err
	}
	s.invalidateStats(ctx)

	s.logger.Info("PO receipt reconciled",
		zap.String("po_code", po.POCode),
		zap.String("status", po.Status),
		zap.Int("lines", len(deltas)),
		zap.String("user_id", actor.UserID),
	)
	return po, deltas, nil
}

// lineReceipt 一次收货中单个行项的实收量
type lineReceipt struct {
	line *entity.POLineItem
	qty  float64
}

// compensate 反向冲销已过账的库存变动。冲销本身失败只记日志，
// 台账里留有正反两笔凭证，人工可追。
func (s *POService) compensate(ctx context.Context, actor Actor, po *entity.PurchaseOrder, posted []lineReceipt) {
	for _, rc := range posted {
		ref := repository.LedgerRef{
			Type:      "purchase_order",
			ID:        po.ID,
			Code:      po.POCode,
			TxType:    entity.TxTypeReversal,
			Notes:     "收货冲销 " + po.POCode,
			CreatedBy: actor.UserID,
		}
		if _, err := s.ledger.AdjustQuantity(ctx, rc.line.InventoryItemID, -rc.qty, ref); err != nil {
			s.logger.Error("receipt reversal failed, manual reconciliation required",
				zap.String("po_code", po.POCode),
				zap.String("inventory_item_id", rc.line.InventoryItemID),
				zap.Float64("qty", rc.qty),
				zap.Error(err),
			)
		}
	}
}
