package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api/handlers"
	"github.com/ndewijer/Fund-Administration-Backend/internal/testutil"
)

// TestEventHandler_CreateEvent tests the POST /api/event endpoint.
//
// WHY: Events enter the approval workflow as drafts; the handler must
// enforce the per-type component rules before a draft exists at all.
func TestEventHandler_CreateEvent(t *testing.T) {
	t.Run("creates capital call draft", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewEventHandler(testutil.NewTestEventService(t, db))

		fund := testutil.NewFund().Build(t, db)

		body := map[string]any{
			"fundId":              fund.ID,
			"type":                "capital_call",
			"name":                "Call 1",
			"eventDate":           "2024-03-01",
			"effectiveDate":       "2024-03-15",
			"recordDate":          "2024-02-28",
			"totalAmount":         "10000000",
			"investmentAmount":    "8000000",
			"managementFeeAmount": "1500000",
			"expenseAmount":       "500000",
		}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/event", body)
		w := httptest.NewRecorder()

		handler.CreateEvent(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		var response handlers.EventResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if response.Status != "draft" {
			t.Errorf("Expected draft status, got '%s'", response.Status)
		}
		if response.Method != "pro_rata" {
			t.Errorf("Expected default pro_rata method, got '%s'", response.Method)
		}
		if response.Basis != "commitment" {
			t.Errorf("Expected default commitment basis, got '%s'", response.Basis)
		}
	})

	t.Run("rejects capital call whose components do not sum", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewEventHandler(testutil.NewTestEventService(t, db))

		fund := testutil.NewFund().Build(t, db)

		body := map[string]any{
			"fundId":           fund.ID,
			"type":             "capital_call",
			"name":             "Call 1",
			"eventDate":        "2024-03-01",
			"effectiveDate":    "2024-03-15",
			"recordDate":       "2024-02-28",
			"totalAmount":      "10000000",
			"investmentAmount": "5000000",
		}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/event", body)
		w := httptest.NewRecorder()

		handler.CreateEvent(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", w.Code)
		}

		var response struct {
			Fields map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Fields["totalAmount"] == "" {
			t.Error("Expected a field error for totalAmount")
		}
	})

	t.Run("rejects effective date before event date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewEventHandler(testutil.NewTestEventService(t, db))

		fund := testutil.NewFund().Build(t, db)

		body := map[string]any{
			"fundId":            fund.ID,
			"type":              "distribution",
			"name":              "Distribution 1",
			"eventDate":         "2024-03-15",
			"effectiveDate":     "2024-03-01",
			"recordDate":        "2024-02-28",
			"totalAmount":       "1000000",
			"grossDistribution": "1000000",
		}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/event", body)
		w := httptest.NewRecorder()

		handler.CreateEvent(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", w.Code)
		}
	})
}

// TestEventHandler_Workflow tests the approval workflow over HTTP.
//
// WHY: Back-office users drive events through draft, approval and
// processing from the UI; the endpoints must enforce the transition matrix
// with 409s rather than corrupting event state.
func TestEventHandler_Workflow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	eventService := testutil.NewTestEventService(t, db)
	handler := handlers.NewEventHandler(eventService)

	fund := testutil.NewFund().Build(t, db)
	investor := testutil.NewInvestor().Build(t, db)
	testutil.NewCommitment(investor.ID, fund.ID).WithAmount("10000000").Build(t, db)

	createBody := map[string]any{
		"fundId":           fund.ID,
		"type":             "capital_call",
		"name":             "Call 1",
		"eventDate":        "2024-03-01",
		"effectiveDate":    "2024-03-15",
		"recordDate":       "2024-02-28",
		"totalAmount":      "2000000",
		"investmentAmount": "2000000",
	}
	w := httptest.NewRecorder()
	handler.CreateEvent(w, testutil.NewJSONRequest(t, http.MethodPost, "/api/event", createBody))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created handlers.EventResponse
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	updateStatus := func(status string) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequestWithURLParams(t,
			http.MethodPut,
			"/api/event/"+created.ID+"/status",
			map[string]string{"uuid": created.ID},
			map[string]string{"status": status},
		)
		w := httptest.NewRecorder()
		handler.UpdateStatus(w, req)
		return w
	}

	t.Run("cannot process a draft event", func(t *testing.T) {
		req := testutil.NewRequestWithURLParams(
			http.MethodPost,
			"/api/event/"+created.ID+"/process",
			map[string]string{"uuid": created.ID},
		)
		w := httptest.NewRecorder()

		handler.Process(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", w.Code)
		}
	})

	t.Run("rejects skipping the approval step", func(t *testing.T) {
		w := updateStatus("approved")
		if w.Code != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", w.Code)
		}
	})

	t.Run("approves and processes the event", func(t *testing.T) {
		if w := updateStatus("pending_approval"); w.Code != http.StatusOK {
			t.Fatalf("Expected status 200 moving to pending_approval, got %d", w.Code)
		}
		if w := updateStatus("approved"); w.Code != http.StatusOK {
			t.Fatalf("Expected status 200 moving to approved, got %d", w.Code)
		}

		req := testutil.NewRequestWithURLParams(
			http.MethodPost,
			"/api/event/"+created.ID+"/process",
			map[string]string{"uuid": created.ID},
		)
		w := httptest.NewRecorder()

		handler.Process(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var result handlers.ProcessingResultResponse
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if result.Status != "completed" {
			t.Errorf("Expected completed processing, got '%s'", result.Status)
		}
		if result.TotalInvestorsProcessed != 1 {
			t.Errorf("Expected 1 investor processed, got %d", result.TotalInvestorsProcessed)
		}
		if !result.TotalGrossAmount.Equal(decimal.RequireFromString("2000000")) {
			t.Errorf("Expected gross 2000000, got %s", result.TotalGrossAmount)
		}
	})

	t.Run("persisted calculations are retrievable", func(t *testing.T) {
		req := testutil.NewRequestWithURLParams(
			http.MethodGet,
			"/api/event/"+created.ID+"/calculations",
			map[string]string{"uuid": created.ID},
		)
		w := httptest.NewRecorder()

		handler.Calculations(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		var calculations []handlers.CalculationJSON
		if err := json.NewDecoder(w.Body).Decode(&calculations); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if len(calculations) != 1 {
			t.Fatalf("Expected 1 calculation, got %d", len(calculations))
		}
		if !calculations[0].OwnershipPercentage.Equal(decimal.NewFromInt(100)) {
			t.Errorf("Expected 100%% ownership, got %s", calculations[0].OwnershipPercentage)
		}
	})
}
