package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-wms/internal/middleware"
	"github.com/bitfantasy/nimo-wms/internal/wms/entity"
	"github.com/bitfantasy/nimo-wms/internal/wms/repository"
	"github.com/bitfantasy/nimo-wms/internal/wms/service"
	"github.com/bitfantasy/nimo-wms/internal/wms/testutil"
	"go.uber.org/zap"
)

func setupPOHandlerTest(t *testing.T) (*testutil.TestEnv, *poFixture) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	repos := repository.NewRepositories(db)
	supplierSvc := service.NewSupplierService(repos.Supplier, logger)
	inventorySvc := service.NewInventoryService(repos.Inventory, logger)
	poSvc := service.NewPOService(repos.PO, supplierSvc, inventorySvc, logger)
	exportSvc := service.NewExportService(repos.PO, logger)
	h := NewPOHandler(poSvc, exportSvc, nil)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1/wms")
	pos := api.Group("/purchase-orders")
	pos.POST("", h.CreatePO)
	pos.GET("/:id", h.GetPO)
	pos.POST("/:id/submit", h.SubmitPO)
	pos.POST("/:id/approve", h.ApprovePO)
	pos.POST("/:id/order", h.OrderPO)
	pos.POST("/:id/receive", h.ReceivePO)
	pos.POST("/:id/archive", h.ArchivePO)
	pos.DELETE("/:id/purge", middleware.RequireRole("wms_admin"), h.PurgePO)
	pos.POST("/batch/archive", h.BatchArchive)

	supplier := testutil.SeedSupplier(t, db, "测试供应商")
	item := testutil.SeedInventoryItem(t, db, "SKU-H1", "外壳", 50, 10)

	return &testutil.TestEnv{DB: db, Router: router, T: t},
		&poFixture{svc: poSvc, supplier: supplier, item: item}
}

type poFixture struct {
	svc      *service.POService
	supplier *entity.Supplier
	item     *entity.InventoryItem
}

// orderedPO 通过HTTP接口把一张PO推进到已下单
func (f *poFixture) orderedPO(t *testing.T, env *testutil.TestEnv, token string) string {
	t.Helper()

	expected := time.Now().AddDate(0, 1, 0).Format(time.RFC3339)
	body := map[string]interface{}{
		"supplier_id":   f.supplier.ID,
		"expected_date": expected,
		"items": []map[string]interface{}{
			{"inventory_item_id": f.item.ID, "quantity": 10, "unit_price": 10},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	poID := resp["data"].(map[string]interface{})["id"].(string)

	for _, step := range []string{"submit", "approve", "order"} {
		w := testutil.DoRequest(env.Router, http.MethodPost,
			"/api/v1/wms/purchase-orders/"+poID+"/"+step, nil, token)
		if w.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d: %s", step, w.Code, w.Body.String())
		}
	}
	return poID
}

func TestReceiveEndpoint(t *testing.T) {
	env, f := setupPOHandlerTest(t)
	token := testutil.AdminToken()
	poID := f.orderedPO(t, env, token)

	// 部分收货
	body := map[string]interface{}{
		"items": map[string]float64{f.item.ID: 6},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/wms/purchase-orders/"+poID+"/receive", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	po := data["purchase_order"].(map[string]interface{})
	if po["status"] != entity.POStatusPartial {
		t.Errorf("expected partially_received, got %v", po["status"])
	}
	deltas := data["inventory_deltas"].([]interface{})
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d", len(deltas))
	}
	delta := deltas[0].(map[string]interface{})
	if delta["new_qty"].(float64) != 56 {
		t.Errorf("expected new qty 56, got %v", delta["new_qty"])
	}
}

func TestReceiveEndpointOverReceipt(t *testing.T) {
	env, f := setupPOHandlerTest(t)
	token := testutil.AdminToken()
	poID := f.orderedPO(t, env, token)

	body := map[string]interface{}{
		"items": map[string]float64{f.item.ID: 11},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/wms/purchase-orders/"+poID+"/receive", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReceiveEndpointForbiddenForViewer(t *testing.T) {
	env, f := setupPOHandlerTest(t)
	adminToken := testutil.AdminToken()
	poID := f.orderedPO(t, env, adminToken)

	body := map[string]interface{}{
		"items": map[string]float64{f.item.ID: 1},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/wms/purchase-orders/"+poID+"/receive", body, testutil.ViewerToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBatchArchiveEndpoint(t *testing.T) {
	env, f := setupPOHandlerTest(t)
	token := testutil.AdminToken()

	// 一张草稿、一张已下单
	expected := time.Now().AddDate(0, 1, 0).Format(time.RFC3339)
	body := map[string]interface{}{
		"supplier_id":   f.supplier.ID,
		"expected_date": expected,
		"items": []map[string]interface{}{
			{"inventory_item_id": f.item.ID, "quantity": 1, "unit_price": 10},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d", w.Code)
	}
	draftID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
	orderedID := f.orderedPO(t, env, token)

	batchBody := map[string]interface{}{"ids": []string{draftID, orderedID}}
	w = testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/wms/purchase-orders/batch/archive", batchBody, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["success_count"].(float64) != 1 {
		t.Errorf("expected 1 success, got %v", data["success_count"])
	}
	if data["failed_count"].(float64) != 1 {
		t.Errorf("expected 1 failure, got %v", data["failed_count"])
	}
}

func TestPurgeEndpointRequiresAdminRole(t *testing.T) {
	env, f := setupPOHandlerTest(t)
	adminToken := testutil.AdminToken()

	// 建一张草稿并归档，仅admin角色可永久删除
	expected := time.Now().AddDate(0, 1, 0).Format(time.RFC3339)
	body := map[string]interface{}{
		"supplier_id":   f.supplier.ID,
		"expected_date": expected,
		"items": []map[string]interface{}{
			{"inventory_item_id": f.item.ID, "quantity": 1, "unit_price": 10},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders", body, adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d", w.Code)
	}
	poID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w = testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/wms/purchase-orders/"+poID+"/archive", nil, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("archive expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 非admin被角色中间件拦下
	w = testutil.DoRequest(env.Router, http.MethodDelete,
		"/api/v1/wms/purchase-orders/"+poID+"/purge", nil, testutil.ViewerToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer purge, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodDelete,
		"/api/v1/wms/purchase-orders/"+poID+"/purge", nil, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin purge, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetPONotFound(t *testing.T) {
	env, _ := setupPOHandlerTest(t)
	w := testutil.DoRequest(env.Router, http.MethodGet,
		"/api/v1/wms/purchase-orders/does-not-exist", nil, testutil.AdminToken())
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCreatePOUnauthorized(t *testing.T) {
	env, _ := setupPOHandlerTest(t)
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/wms/purchase-orders", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
