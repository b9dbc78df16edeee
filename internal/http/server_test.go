package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Romario114/Site-financeiro/internal/storage"
	"github.com/Romario114/Site-financeiro/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	debts, err := store.NewDebtStore(ctx, kv, nil)
	if err != nil {
		t.Fatalf("NewDebtStore() error = %v", err)
	}
	ledger, err := store.NewLedger(ctx, kv, nil)
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}
	srv := NewServer(":0", debts, ledger)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestCreateDebtEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/debts",
		`{"name":"Carro","amount":"45000,00","installments":48,"kind":"financing"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	debt, ok := body["debt"].(map[string]any)
	if !ok {
		t.Fatalf("response has no debt object: %v", body)
	}
	if debt["totalAmount"].(float64) != 4500000 {
		t.Errorf("totalAmount = %v, want 4500000 cents", debt["totalAmount"])
	}
	if debt["progress"].(float64) != 0 {
		t.Errorf("progress = %v, want 0", debt["progress"])
	}
	if debt["kindLabel"].(string) != "Financiamento" {
		t.Errorf("kindLabel = %v, want Financiamento", debt["kindLabel"])
	}

	// Validation failures come back as 422.
	rr = do(t, srv, http.MethodPost, "/api/debts",
		`{"name":"","amount":"100,00","installments":10,"kind":"loan"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty name status = %d, want 422", rr.Code)
	}
	rr = do(t, srv, http.MethodPost, "/api/debts",
		`{"name":"X","amount":"abc","installments":10,"kind":"loan"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad amount status = %d, want 422", rr.Code)
	}
}

func TestDebtLifecycleEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/debts",
		`{"name":"Moto","amount":"3000,00","installments":3,"kind":"loan"}`)
	id := decode(t, rr)["debt"].(map[string]any)["id"].(string)

	rr = do(t, srv, http.MethodPost, "/api/debts/pay", `{"id":"`+id+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("pay status = %d", rr.Code)
	}
	debt := decode(t, rr)["debt"].(map[string]any)
	if debt["paidInstallments"].(float64) != 1 || debt["progress"].(float64) != 33 {
		t.Errorf("after pay: paid %v progress %v, want 1 and 33", debt["paidInstallments"], debt["progress"])
	}

	rr = do(t, srv, http.MethodPost, "/api/debts/settle", `{"id":"`+id+`"}`)
	debt = decode(t, rr)["debt"].(map[string]any)
	if debt["settled"] != true || debt["paidInstallments"].(float64) != 3 {
		t.Errorf("after settle: %v", debt)
	}

	rr = do(t, srv, http.MethodPost, "/api/debts/reactivate", `{"id":"`+id+`"}`)
	debt = decode(t, rr)["debt"].(map[string]any)
	if debt["settled"] != false || debt["paidInstallments"].(float64) != 3 {
		t.Errorf("after reactivate: %v", debt)
	}

	rr = do(t, srv, http.MethodPost, "/api/debts/pay", `{"id":"missing"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("pay on missing id status = %d, want 404", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/debts", `{"id":"`+id+`"}`)
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rr.Code)
	}
	// Deleting again still succeeds.
	rr = do(t, srv, http.MethodDelete, "/api/debts", `{"id":"`+id+`"}`)
	if rr.Code != http.StatusNoContent {
		t.Errorf("second delete status = %d, want 204", rr.Code)
	}
}

func TestUpdateDebtEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/debts",
		`{"name":"Velha","amount":"1000,00","installments":10,"kind":"other"}`)
	id := decode(t, rr)["debt"].(map[string]any)["id"].(string)

	rr = do(t, srv, http.MethodPut, "/api/debts",
		`{"id":"`+id+`","name":"Nova","amount":"2000,00","installments":20,"kind":"loan"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body.String())
	}
	debt := decode(t, rr)["debt"].(map[string]any)
	if debt["name"] != "Nova" || debt["totalAmount"].(float64) != 200000 {
		t.Errorf("update result = %v", debt)
	}

	rr = do(t, srv, http.MethodPut, "/api/debts",
		`{"id":"missing","name":"X","amount":"1,00","installments":1,"kind":"loan"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("update missing id status = %d, want 404", rr.Code)
	}
}

func TestListAndSummaryEndpoints(t *testing.T) {
	srv := newTestServer(t)

	do(t, srv, http.MethodPost, "/api/debts",
		`{"name":"A","amount":"10,00","installments":2,"kind":"loan"}`)
	rr := do(t, srv, http.MethodPost, "/api/debts",
		`{"name":"B","amount":"20,00","installments":1,"kind":"loan"}`)
	idB := decode(t, rr)["debt"].(map[string]any)["id"].(string)
	do(t, srv, http.MethodPost, "/api/debts/pay", `{"id":"`+idB+`"}`)

	rr = do(t, srv, http.MethodGet, "/api/debts?status=active", "")
	body := decode(t, rr)
	debts := body["debts"].([]any)
	if len(debts) != 1 || debts[0].(map[string]any)["name"] != "A" {
		t.Errorf("active list = %v, want only A", debts)
	}

	rr = do(t, srv, http.MethodGet, "/api/debts?status=bogus", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bogus status filter = %d, want 400", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/debts/summary", "")
	sum := decode(t, rr)
	if sum["count"].(float64) != 2 || sum["totalAmount"].(float64) != 3000 {
		t.Errorf("summary = %v, want count 2 totalAmount 3000", sum)
	}
	if sum["settledCount"].(float64) != 1 || sum["averageProgress"].(float64) != 50 {
		t.Errorf("summary = %v, want settledCount 1 averageProgress 50", sum)
	}
}

func TestLedgerEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/incomes",
		`{"date":"2026-08-01","label":"Salario","amount":"150,00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add income status = %d, body %s", rr.Code, rr.Body.String())
	}
	rr = do(t, srv, http.MethodPost, "/api/expenses",
		`{"date":"2026-08-02","label":"Mercado","amount":"30,00"}`)
	expenseID := decode(t, rr)["entry"].(map[string]any)["id"].(string)

	rr = do(t, srv, http.MethodGet, "/api/ledger/totals", "")
	totals := decode(t, rr)
	if totals["incomeTotal"].(float64) != 15000 || totals["expenseTotal"].(float64) != 3000 {
		t.Errorf("totals = %v", totals)
	}
	if totals["balance"].(float64) != 12000 || totals["balanceState"] != "normal" {
		t.Errorf("totals = %v, want balance 12000 normal", totals)
	}

	rr = do(t, srv, http.MethodPut, "/api/expenses",
		`{"id":"`+expenseID+`","date":"2026-08-02","label":"Mercado","amount":"145,00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("edit expense status = %d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/ledger/totals", "")
	if state := decode(t, rr)["balanceState"]; state != "low" {
		t.Errorf("balanceState = %v, want low after heavy expense", state)
	}

	rr = do(t, srv, http.MethodDelete, "/api/expenses", `{"id":"`+expenseID+`"}`)
	if rr.Code != http.StatusNoContent {
		t.Errorf("remove expense status = %d, want 204", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/expenses", "")
	if entries := decode(t, rr)["entries"].([]any); len(entries) != 0 {
		t.Errorf("expenses after delete = %v, want empty", entries)
	}

	rr = do(t, srv, http.MethodPost, "/api/incomes",
		`{"date":"2026-08-01","label":"","amount":"10,00"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank label status = %d, want 422", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPatch, "/api/debts", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH /api/debts status = %d, want 405", rr.Code)
	}
	rr = do(t, srv, http.MethodPost, "/api/ledger/totals", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST totals status = %d, want 405", rr.Code)
	}
}
