package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"go.uber.org/zap"
)

func TestBatchArchivePartialFailure(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()

	// 两张草稿可归档，一张已下单不可
	draft1 := env.createDraftPO(t)
	draft2 := env.createDraftPO(t)
	ordered := env.orderedPO(t)

	result := env.svc.BatchArchive(ctx, adminActor(), []string{draft1.ID, draft2.ID, ordered.ID})

	if result.SuccessCount != 2 {
		t.Errorf("expected 2 successes, got %d", result.SuccessCount)
	}
	if result.FailedCount != 1 {
		t.Errorf("expected 1 failure, got %d", result.FailedCount)
	}
	if len(result.Errors) != 1 || result.Errors[0].ID != ordered.ID {
		t.Errorf("expected failure for %s, got %+v", ordered.ID, result.Errors)
	}

	// 成功的两张确实归档了
	for _, id := range []string{draft1.ID, draft2.ID} {
		po, err := env.svc.GetPO(ctx, id)
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if !po.Archived {
			t.Errorf("expected %s archived", id)
		}
	}
	// 失败的那张没动
	po, err := env.svc.GetPO(ctx, ordered.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if po.Archived {
		t.Error("expected ordered PO untouched")
	}
}

func TestBatchDedupesIDs(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	draft := env.createDraftPO(t)

	// 重复ID只处理一次，第二次归档会失败
	result := env.svc.BatchArchive(ctx, adminActor(), []string{draft.ID, draft.ID, "", draft.ID})

	if result.SuccessCount != 1 {
		t.Errorf("expected 1 success after dedupe, got %d", result.SuccessCount)
	}
	if result.FailedCount != 0 {
		t.Errorf("expected 0 failures, got %d", result.FailedCount)
	}
	if len(result.SucceededIDs) != 1 || result.SucceededIDs[0] != draft.ID {
		t.Errorf("expected single succeeded id, got %v", result.SucceededIDs)
	}
}

func TestBatchNotFoundCollected(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	draft := env.createDraftPO(t)

	result := env.svc.BatchCancel(ctx, adminActor(), []string{draft.ID, "no-such-po"})

	if result.SuccessCount != 1 {
		t.Errorf("expected 1 success, got %d", result.SuccessCount)
	}
	if result.FailedCount != 1 {
		t.Errorf("expected 1 failure, got %d", result.FailedCount)
	}
}

func TestSupplierBatchArchiveThenDelete(t *testing.T) {
	env := setupPOTest(t)
	ctx := context.Background()
	svc := NewSupplierService(repository.NewSupplierRepository(env.db), zap.NewNop())

	// 归档后才能删除，未归档的那家删除会落入失败清单
	result := svc.BatchArchive(ctx, adminActor(), []string{env.supplier.ID})
	if result.SuccessCount != 1 {
		t.Fatalf("expected 1 archived, got %+v", result)
	}

	other, err := svc.CreateSupplier(ctx, adminActor(), &CreateSupplierRequest{Name: "未归档供应商"})
	if err != nil {
		t.Fatalf("CreateSupplier failed: %v", err)
	}

	result = svc.BatchDelete(ctx, adminActor(), []string{env.supplier.ID, other.ID})
	if result.SuccessCount != 1 {
		t.Errorf("expected 1 deleted, got %d", result.SuccessCount)
	}
	if result.FailedCount != 1 || result.Errors[0].ID != other.ID {
		t.Errorf("expected unarchived supplier to fail, got %+v", result.Errors)
	}

	if _, err := svc.GetSupplier(ctx, env.supplier.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected archived supplier gone, got %v", err)
	}
}
