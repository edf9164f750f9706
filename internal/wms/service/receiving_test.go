package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
)

func (env *poTestEnv) itemQty(t *testing.T, id string) float64 {
	t.Helper()
	item, err := env.inventory.GetItem(context.Background(), id)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	return item.Quantity
}

func TestReceivePartialThenFull(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.orderedPO(t)

	qtyBefore := env.itemQty(t, env.itemA.ID)

	// 第一批：外壳收6（订10），螺丝收完
	po1, deltas, err := env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items: map[string]float64{
			env.itemA.ID: 6,
			env.itemB.ID: 100,
		},
	})
	if err != nil {
		t.Fatalf("first receive failed: %v", err)
	}
	if po1.Status != entity.POStatusPartial {
		t.Fatalf("expected partially_received, got %s", po1.Status)
	}
	if len(deltas) != 2 {
		t.Fatalf("expected 2 inventory deltas, got %d", len(deltas))
	}
	if got := env.itemQty(t, env.itemA.ID); got != qtyBefore+6 {
		t.Errorf("expected inventory %v, got %v", qtyBefore+6, got)
	}

	// 第二批：剩余4，订单收满
	po2, _, err := env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items: map[string]float64{env.itemA.ID: 4},
	})
	if err != nil {
		t.Fatalf("second receive failed: %v", err)
	}
	if po2.Status != entity.POStatusReceived {
		t.Fatalf("expected received, got %s", po2.Status)
	}
	if got := env.itemQty(t, env.itemA.ID); got != qtyBefore+10 {
		t.Errorf("expected inventory %v, got %v", qtyBefore+10, got)
	}

	// 已收满的订单不能再收
	_, _, err = env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items: map[string]float64{env.itemA.ID: 1},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition receiving into received PO, got %v", err)
	}
}

func TestOverReceiptRejectedWithoutMutation(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.orderedPO(t)

	qtyBefore := env.itemQty(t, env.itemA.ID)

	// 外壳订10收11，整单拒绝
	_, _, err := env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items: map[string]float64{
			env.itemA.ID: 11,
			env.itemB.ID: 50,
		},
	})
	var qe *QuantityExceedsRemainingError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuantityExceedsRemainingError, got %v", err)
	}
	if qe.Requested != 11 || qe.Remaining != 10 {
		t.Errorf("expected requested=11 remaining=10, got %+v", qe)
	}

	// 库存与订单都未被碰过（螺丝那行也没落账）
	if got := env.itemQty(t, env.itemA.ID); got != qtyBefore {
		t.Errorf("expected inventory unchanged %v, got %v", qtyBefore, got)
	}
	reloaded, err := env.svc.GetPO(ctx, po.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != entity.POStatusOrdered {
		t.Errorf("expected status unchanged, got %s", reloaded.Status)
	}
	for _, item := range reloaded.Items {
		if item.QuantityReceived != 0 {
			t.Errorf("expected no received quantity, got %v on %s", item.QuantityReceived, item.ItemName)
		}
	}
}

func TestReceiveValidation(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.orderedPO(t)

	// 全零载荷
	_, _, err := env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items: map[string]float64{env.itemA.ID: 0},
	})
	if !errors.Is(err, ErrNothingToReceive) {
		t.Errorf("expected ErrNothingToReceive, got %v", err)
	}

	// 负数数量
	_, _, err = env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items: map[string]float64{env.itemA.ID: -1},
	})
	if !IsValidationError(err) {
		t.Errorf("expected validation error for negative qty, got %v", err)
	}

	// 不在订单里的物料
	other := &entity.InventoryItem{ID: "not-on-po", SKU: "SKU-X", Name: "x", Unit: "pcs"}
	if err := env.db.Create(other).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	_, _, err = env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items: map[string]float64{other.ID: 1},
	})
	if !IsValidationError(err) {
		t.Errorf("expected validation error for unknown line, got %v", err)
	}

	// 草稿不能收货
	draft := env.createDraftPO(t)
	_, _, err = env.svc.Receive(ctx, adminActor(), draft.ID, &ReceiveRequest{
		Items: map[string]float64{env.itemA.ID: 1},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition receiving draft, got %v", err)
	}
}

func TestReceiveActualCostOverride(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.orderedPO(t)

	actual := 160.0
	received, _, err := env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items:      map[string]float64{env.itemA.ID: 10, env.itemB.ID: 100},
		ActualCost: &actual,
	})
	if err != nil {
		t.Fatalf("receive with actual cost failed: %v", err)
	}
	if received.TotalAmount != 160 {
		t.Errorf("expected total overridden to 160, got %v", received.TotalAmount)
	}
	if !received.ActualCostSet {
		t.Error("expected actual_cost_set flag")
	}
	if received.POBalance != 160 {
		t.Errorf("expected balance 160, got %v", received.POBalance)
	}

	// 负实际成本拒绝
	po2 := env.orderedPO(t)
	bad := -1.0
	_, _, err = env.svc.Receive(ctx, adminActor(), po2.ID, &ReceiveRequest{
		Items:      map[string]float64{env.itemA.ID: 1},
		ActualCost: &bad,
	})
	if !IsValidationError(err) {
		t.Errorf("expected validation error for negative actual cost, got %v", err)
	}
}

func TestReceiveWritesLedgerTransactions(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.orderedPO(t)

	_, _, err := env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items: map[string]float64{env.itemA.ID: 6},
	})
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	txs, total, err := env.inventory.ListTransactions(ctx, env.itemA.ID, 1, 10)
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 ledger row, got %d", total)
	}
	if txs[0].TransactionType != entity.TxTypePurchaseIn {
		t.Errorf("expected PURCHASE_IN, got %s", txs[0].TransactionType)
	}
	if txs[0].ReferenceCode != po.POCode {
		t.Errorf("expected reference %s, got %s", po.POCode, txs[0].ReferenceCode)
	}
	if txs[0].Quantity != 6 {
		t.Errorf("expected qty 6, got %v", txs[0].Quantity)
	}
}

func TestReceiveVersionConflict(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.orderedPO(t)

	stale := po.Version - 1
	_, _, err := env.svc.Receive(ctx, adminActor(), po.ID, &ReceiveRequest{
		Items:   map[string]float64{env.itemA.ID: 1},
		Version: &stale,
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict for stale version, got %v", err)
	}
}
