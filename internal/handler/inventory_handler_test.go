package handler

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/lubeworks/drumplan/internal/entity"
	"github.com/lubeworks/drumplan/internal/notify"
	"github.com/lubeworks/drumplan/internal/repository"
	"github.com/lubeworks/drumplan/internal/service"
	"github.com/lubeworks/drumplan/internal/testutil"
)

func setupInventoryHandlerTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	notifier := notify.NewNotifier(db, nil, zap.NewNop())
	services := service.NewServices(repos, db, notifier, zap.NewNop(), 600)
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/inventory/grn", handlers.Inventory.Receive)
	api.GET("/inventory/:id/availability", handlers.Inventory.Availability)
	api.POST("/inventory/:id/reserve", handlers.Inventory.Reserve)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestReserveSoftModeOverHTTP(t *testing.T) {
	env := setupInventoryHandlerTest(t)
	token := testutil.DefaultTestToken()
	item := testutil.SeedItem(t, env.DB, "RM-BASE", "Base Oil", entity.ItemTypeRaw, 30, 0, 0)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inventory/"+item.ID+"/reserve",
		map[string]interface{}{"quantity": 100, "mode": "soft", "ref_type": "JOB", "ref_id": "j1"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("soft reserve: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["reserved_qty"].(float64) != 30 {
		t.Fatalf("reserved = %v, want clamped 30", data["reserved_qty"])
	}
	if data["shortfall"].(float64) != 70 {
		t.Fatalf("shortfall = %v, want 70", data["shortfall"])
	}
}

func TestReserveHardModeInsufficientOverHTTP(t *testing.T) {
	env := setupInventoryHandlerTest(t)
	token := testutil.DefaultTestToken()
	item := testutil.SeedItem(t, env.DB, "RM-BASE", "Base Oil", entity.ItemTypeRaw, 30, 0, 0)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inventory/"+item.ID+"/reserve",
		map[string]interface{}{"quantity": 100, "mode": "hard", "ref_type": "JOB", "ref_id": "j1"}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("hard overdraw: expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReserveRejectsUnknownMode(t *testing.T) {
	env := setupInventoryHandlerTest(t)
	token := testutil.DefaultTestToken()
	item := testutil.SeedItem(t, env.DB, "RM-BASE", "Base Oil", entity.ItemTypeRaw, 30, 0, 0)

	// mode values the ledger does not define fail binding loudly instead of
	// silently degrading to hard
	for _, mode := range []string{"SOFT", "HOLD"} {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/inventory/"+item.ID+"/reserve",
			map[string]interface{}{"quantity": 100, "mode": mode, "ref_type": "JOB", "ref_id": "j1"}, token)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("mode %q: expected 400, got %d: %s", mode, w.Code, w.Body.String())
		}
	}
}
