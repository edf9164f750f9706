package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type poTestEnv struct {
	db        *gorm.DB
	svc       *POService
	inventory *InventoryService
	supplier  *entity.Supplier
	itemA     *entity.InventoryItem
	itemB     *entity.InventoryItem
}

func setupPOTest(t *testing.T) *poTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	repos := repository.NewRepositories(db)
	supplierSvc := NewSupplierService(repos.Supplier, logger)
	inventorySvc := NewInventoryService(repos.Inventory, logger)
	poSvc := NewPOService(repos.PO, supplierSvc, inventorySvc, logger)

	return &poTestEnv{
		db:        db,
		svc:       poSvc,
		inventory: inventorySvc,
		supplier:  testutil.SeedSupplier(t, db, "深圳精密制造"),
		itemA:     testutil.SeedInventoryItem(t, db, "SKU-A", "外壳", 100, 12.5),
		itemB:     testutil.SeedInventoryItem(t, db, "SKU-B", "螺丝", 1000, 0.2),
	}
}

func adminActor() Actor {
	return Actor{UserID: "test-user-001", Roles: []string{RoleAdmin}}
}

func viewerActor() Actor {
	return Actor{UserID: "test-user-002", Roles: []string{RoleViewer}}
}

func futureDate() *time.Time {
	d := time.Now().AddDate(0, 1, 0)
	return &d
}

// createDraftPO 创建一张两行项的草稿订单
func (env *poTestEnv) createDraftPO(t *testing.T) *entity.PurchaseOrder {
	t.Helper()
	po, err := env.svc.CreatePO(context.Background(), adminActor(), &CreatePORequest{
		SupplierID:   env.supplier.ID,
		ExpectedDate: futureDate(),
		Items: []CreatePOItem{
			{InventoryItemID: env.itemA.ID, Quantity: 10, UnitPrice: 12.5},
			{InventoryItemID: env.itemB.ID, Quantity: 100, UnitPrice: 0.2},
		},
	})
	if err != nil {
		t.Fatalf("CreatePO failed: %v", err)
	}
	return po
}

// orderedPO 把草稿推进到已下单
func (env *poTestEnv) orderedPO(t *testing.T) *entity.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	po := env.createDraftPO(t)

	po, err := env.svc.SubmitForApproval(ctx, adminActor(), po.ID, nil)
	if err != nil {
		t.Fatalf("SubmitForApproval failed: %v", err)
	}
	po, err = env.svc.Approve(ctx, adminActor(), po.ID, nil)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	po, err = env.svc.MarkAsOrdered(ctx, adminActor(), po.ID, nil)
	if err != nil {
		t.Fatalf("MarkAsOrdered failed: %v", err)
	}
	return po
}

func TestCreatePO(t *testing.T) {
	env := setupPOTest(t)
	po := env.createDraftPO(t)

	if po.Status != entity.POStatusDraft {
		t.Errorf("expected draft, got %s", po.Status)
	}
	if po.POCode == "" {
		t.Error("expected PO code to be generated")
	}
	if po.SupplierName != env.supplier.Name {
		t.Errorf("expected supplier snapshot %q, got %q", env.supplier.Name, po.SupplierName)
	}
	// 10*12.5 + 100*0.2 = 145
	if po.TotalAmount != 145 {
		t.Errorf("expected total 145, got %v", po.TotalAmount)
	}
	if po.POBalance != 145 {
		t.Errorf("expected balance 145, got %v", po.POBalance)
	}
	if po.Version != 1 {
		t.Errorf("expected version 1, got %d", po.Version)
	}
}

func TestCreatePOValidation(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()

	// 行项为空
	_, err := env.svc.CreatePO(ctx, adminActor(), &CreatePORequest{
		SupplierID:   env.supplier.ID,
		ExpectedDate: futureDate(),
	})
	if !IsValidationError(err) {
		t.Errorf("expected validation error for empty items, got %v", err)
	}

	// 缺预计到货日期
	_, err = env.svc.CreatePO(ctx, adminActor(), &CreatePORequest{
		SupplierID: env.supplier.ID,
		Items:      []CreatePOItem{{InventoryItemID: env.itemA.ID, Quantity: 1}},
	})
	if !IsValidationError(err) {
		t.Errorf("expected validation error for missing expected_date, got %v", err)
	}

	// 供应商不存在
	_, err = env.svc.CreatePO(ctx, adminActor(), &CreatePORequest{
		SupplierID:   "no-such-supplier",
		ExpectedDate: futureDate(),
		Items:        []CreatePOItem{{InventoryItemID: env.itemA.ID, Quantity: 1}},
	})
	if !IsValidationError(err) {
		t.Errorf("expected validation error for unknown supplier, got %v", err)
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	env := setupPOTest(t)
	po := env.orderedPO(t)

	if po.Status != entity.POStatusOrdered {
		t.Fatalf("expected ordered, got %s", po.Status)
	}
	if po.ApprovedBy == nil || *po.ApprovedBy != "test-user-001" {
		t.Error("expected approver to be recorded")
	}
	if po.ApprovedAt == nil {
		t.Error("expected approval timestamp")
	}
	// create=1, submit/approve/order各加一
	if po.Version != 4 {
		t.Errorf("expected version 4 after three transitions, got %d", po.Version)
	}
}

func TestLifecycleGating(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.createDraftPO(t)

	// 草稿不能直接审批
	if _, err := env.svc.Approve(ctx, adminActor(), po.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition approving draft, got %v", err)
	}
	// 草稿不能下单
	if _, err := env.svc.MarkAsOrdered(ctx, adminActor(), po.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition ordering draft, got %v", err)
	}

	// 驳回后是终态
	po2 := env.createDraftPO(t)
	if _, err := env.svc.SubmitForApproval(ctx, adminActor(), po2.ID, nil); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	rejected, err := env.svc.Reject(ctx, adminActor(), po2.ID, nil)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != entity.POStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if _, err := env.svc.SubmitForApproval(ctx, adminActor(), po2.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition submitting rejected PO, got %v", err)
	}
}

func TestCancelGating(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()

	// 已下单可以取消
	po := env.orderedPO(t)
	cancelled, err := env.svc.Cancel(ctx, adminActor(), po.ID, nil)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != entity.POStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// 已取消不能再取消
	if _, err := env.svc.Cancel(ctx, adminActor(), po.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition cancelling twice, got %v", err)
	}
}

func TestArchiveRestoreGating(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()

	// 活跃流程不可归档
	ordered := env.orderedPO(t)
	if _, err := env.svc.Archive(ctx, adminActor(), ordered.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition archiving ordered PO, got %v", err)
	}

	// 草稿可归档
	draft := env.createDraftPO(t)
	archived, err := env.svc.Archive(ctx, adminActor(), draft.ID, nil)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if !archived.Archived || archived.ArchivedAt == nil {
		t.Fatal("expected archived flag and timestamp")
	}
	// 归档状态下审批状态保持不变
	if archived.Status != entity.POStatusDraft {
		t.Errorf("expected status unchanged after archive, got %s", archived.Status)
	}

	// 归档订单不可编辑、不可提交
	notes := "x"
	if _, err := env.svc.UpdatePO(ctx, adminActor(), draft.ID, &UpdatePORequest{Notes: &notes}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition editing archived PO, got %v", err)
	}
	if _, err := env.svc.SubmitForApproval(ctx, adminActor(), draft.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition submitting archived PO, got %v", err)
	}

	// 恢复后可以继续
	restored, err := env.svc.Restore(ctx, adminActor(), draft.ID, nil)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Archived {
		t.Fatal("expected archived flag cleared")
	}
	if _, err := env.svc.SubmitForApproval(ctx, adminActor(), draft.ID, nil); err != nil {
		t.Errorf("submit after restore failed: %v", err)
	}

	// 未归档的不能恢复
	if _, err := env.svc.Restore(ctx, adminActor(), draft.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition restoring non-archived PO, got %v", err)
	}
}

func TestPermanentDeleteRequiresArchive(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.createDraftPO(t)

	// 未归档不能永久删除
	if err := env.svc.PermanentlyDelete(ctx, adminActor(), po.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition purging non-archived PO, got %v", err)
	}

	if _, err := env.svc.Archive(ctx, adminActor(), po.ID, nil); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if err := env.svc.PermanentlyDelete(ctx, adminActor(), po.ID); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if _, err := env.svc.GetPO(ctx, po.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound after purge, got %v", err)
	}
}

func TestHardDeleteRejectsArchived(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.createDraftPO(t)

	if _, err := env.svc.Archive(ctx, adminActor(), po.ID, nil); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	// 归档后普通删除被拒绝，归档订单只走永久删除
	manager := Actor{UserID: "test-user-003", Roles: []string{RoleManager}}
	if err := env.svc.Delete(ctx, manager, po.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition deleting archived PO, got %v", err)
	}
	if _, err := env.svc.GetPO(ctx, po.ID); err != nil {
		t.Errorf("expected archived PO to survive, got %v", err)
	}
}

func TestPermissionDenied(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()

	_, err := env.svc.CreatePO(ctx, viewerActor(), &CreatePORequest{
		SupplierID:   env.supplier.ID,
		ExpectedDate: futureDate(),
		Items:        []CreatePOItem{{InventoryItemID: env.itemA.ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for viewer create, got %v", err)
	}

	po := env.createDraftPO(t)
	if _, err := env.svc.SubmitForApproval(ctx, viewerActor(), po.ID, nil); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for viewer submit, got %v", err)
	}
	// 永久删除仅管理员
	operator := Actor{UserID: "op", Roles: []string{RoleOperator}}
	if err := env.svc.PermanentlyDelete(ctx, operator, po.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for operator purge, got %v", err)
	}
}

func TestVersionConflict(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.createDraftPO(t)

	stale := po.Version - 1
	notes := "updated"
	_, err := env.svc.UpdatePO(ctx, adminActor(), po.ID, &UpdatePORequest{Notes: &notes, Version: &stale})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict for stale version, got %v", err)
	}

	// 正确版本放行
	current := po.Version
	if _, err := env.svc.UpdatePO(ctx, adminActor(), po.ID, &UpdatePORequest{Notes: &notes, Version: &current}); err != nil {
		t.Errorf("update with current version failed: %v", err)
	}
}

func TestUpdateItemsOnlyInDraft(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.orderedPO(t)

	_, err := env.svc.UpdatePO(ctx, adminActor(), po.ID, &UpdatePORequest{
		Items: []CreatePOItem{{InventoryItemID: env.itemA.ID, Quantity: 5}},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition editing items of ordered PO, got %v", err)
	}

	// 草稿行项编辑重算总额
	draft := env.createDraftPO(t)
	updated, err := env.svc.UpdatePO(ctx, adminActor(), draft.ID, &UpdatePORequest{
		Items: []CreatePOItem{{InventoryItemID: env.itemA.ID, Quantity: 2, UnitPrice: 10}},
	})
	if err != nil {
		t.Fatalf("draft item update failed: %v", err)
	}
	if updated.TotalAmount != 20 {
		t.Errorf("expected total 20 after item edit, got %v", updated.TotalAmount)
	}
	if len(updated.Items) != 1 {
		t.Errorf("expected 1 line item, got %d", len(updated.Items))
	}
}

func TestRecordPayment(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.orderedPO(t)

	paid, err := env.svc.RecordPayment(ctx, adminActor(), po.ID, &RecordPaymentRequest{
		Amount:    100,
		Reference: "TT-001",
	})
	if err != nil {
		t.Fatalf("record payment failed: %v", err)
	}
	if paid.TotalPaid != 100 {
		t.Errorf("expected total paid 100, got %v", paid.TotalPaid)
	}
	// 145 - 100 = 45
	if paid.POBalance != 45 {
		t.Errorf("expected balance 45, got %v", paid.POBalance)
	}
	if len(paid.Payments) != 1 {
		t.Errorf("expected 1 payment record, got %d", len(paid.Payments))
	}

	// 超付余额为负，不钳制
	over, err := env.svc.RecordPayment(ctx, adminActor(), po.ID, &RecordPaymentRequest{Amount: 100})
	if err != nil {
		t.Fatalf("second payment failed: %v", err)
	}
	if over.POBalance != -55 {
		t.Errorf("expected balance -55 after overpayment, got %v", over.POBalance)
	}
}

func TestShippingStatusIndependent(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	po := env.createDraftPO(t)

	// 物流标签更新不影响审批状态
	updated, err := env.svc.UpdateShippingStatus(ctx, adminActor(), po.ID, &UpdateShippingStatusRequest{
		ShippingStatus: entity.ShippingStatusInTransit,
	})
	if err != nil {
		t.Fatalf("shipping status update failed: %v", err)
	}
	if updated.ShippingStatus != entity.ShippingStatusInTransit {
		t.Errorf("expected in_transit, got %s", updated.ShippingStatus)
	}
	if updated.Status != entity.POStatusDraft {
		t.Errorf("expected approval status unchanged, got %s", updated.Status)
	}

	// 非法标签拒绝
	_, err = env.svc.UpdateShippingStatus(ctx, adminActor(), po.ID, &UpdateShippingStatusRequest{
		ShippingStatus: "teleported",
	})
	if !IsValidationError(err) {
		t.Errorf("expected validation error for bad shipping status, got %v", err)
	}
}
