package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lifetrack/lifetrack/internal/config"
	"github.com/lifetrack/lifetrack/internal/storage"
)

// testServer creates a test server with an in-memory database
func testServer(t *testing.T) *Server {
	t.Helper()

	db, err := storage.Open(storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return New(Config{
		DB:     db,
		Engine: config.Default().Engine,
	})
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

func TestAPI_Health(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "GET", "/api/v1/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
}

// --- Tasks ---

func TestAPI_CreateTask_MissingTitle(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "POST", "/api/v1/tasks", map[string]string{"category": "work"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestAPI_TaskRoundTrip(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "POST", "/api/v1/tasks", map[string]string{
		"title":    "Write report",
		"category": "work",
		"priority": "high",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &created)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created task has no id")
	}
	if created["status"] != "pending" {
		t.Errorf("expected default status pending, got %v", created["status"])
	}

	rr = doJSON(t, srv, "GET", "/api/v1/tasks/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var fetched map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &fetched)
	if fetched["title"] != "Write report" {
		t.Errorf("expected title 'Write report', got %v", fetched["title"])
	}
}

func TestAPI_GetTask_NotFound(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "GET", "/api/v1/tasks/nonexistent", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestAPI_UpdateTask_MarksDone(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "POST", "/api/v1/tasks", map[string]string{"title": "Finish me"})
	var created map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &created)
	id := created["id"].(string)

	rr = doJSON(t, srv, "PUT", "/api/v1/tasks/"+id, map[string]string{"status": "done"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var updated map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated["status"] != "done" {
		t.Errorf("expected status done, got %v", updated["status"])
	}
	if updated["completed_at"] == nil {
		t.Error("marking a task done should set completed_at")
	}
}

// --- Habits ---

func TestAPI_CompleteHabit_UpdatesStreak(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "POST", "/api/v1/habits", map[string]string{"title": "Read"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	var habit map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &habit)
	id := habit["id"].(string)

	rr = doJSON(t, srv, "POST", "/api/v1/habits/"+id+"/complete", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	updated, _ := resp["habit"].(map[string]interface{})
	if updated == nil {
		t.Fatal("response missing the updated habit")
	}
	if updated["current_streak"].(float64) != 1 {
		t.Errorf("expected current_streak 1, got %v", updated["current_streak"])
	}

	rr = doJSON(t, srv, "GET", "/api/v1/habits/"+id+"/completions", nil)
	var completions []map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &completions)
	if len(completions) != 1 {
		t.Errorf("expected 1 completion, got %d", len(completions))
	}
}

func TestAPI_CompleteHabit_NotFound(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "POST", "/api/v1/habits/nonexistent/complete", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

// --- Transactions ---

func TestAPI_CreateTransaction_InvalidType(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "POST", "/api/v1/transactions", map[string]interface{}{
		"title":  "Mystery",
		"type":   "transfer",
		"amount": 50,
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

// --- Insights ---

func TestAPI_GetInsights_UnknownPeriod(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "GET", "/api/v1/insights/yearly", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestAPI_GetInsights_Daily(t *testing.T) {
	srv := testServer(t)

	doJSON(t, srv, "POST", "/api/v1/tasks", map[string]string{"title": "One"})

	rr := doJSON(t, srv, "GET", "/api/v1/insights/daily", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var report map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &report)
	if report["period"] != "daily" {
		t.Errorf("expected period daily, got %v", report["period"])
	}
	summary, _ := report["summary"].(map[string]interface{})
	if summary == nil {
		t.Fatal("report missing summary")
	}
	if summary["tasks_total"].(float64) != 1 {
		t.Errorf("expected tasks_total 1, got %v", summary["tasks_total"])
	}
}

// --- Forecasts ---

func TestAPI_ForecastProductivity_EmptyHistory(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "GET", "/api/v1/forecast/productivity", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &result)
	if result["fallback_reason"] != "insufficient_data" {
		t.Errorf("expected insufficient_data fallback, got %v", result["fallback_reason"])
	}
}

// --- Optimization ---

func TestAPI_SuggestAllocations_RequiresTotal(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "GET", "/api/v1/budgets/allocations", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without total, got %d", rr.Code)
	}
}

func TestAPI_SuggestAllocations_Defaults(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "GET", "/api/v1/budgets/allocations?total=1000", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var allocations []map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &allocations)
	if len(allocations) == 0 {
		t.Fatal("expected the default allocation table with no history")
	}

	var sum float64
	for _, a := range allocations {
		sum += a["suggested_amount"].(float64)
	}
	if sum != 1000 {
		t.Errorf("allocations sum to %v, want 1000", sum)
	}
}

func TestAPI_BudgetStatus(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "POST", "/api/v1/budgets", map[string]interface{}{
		"category": "Food",
		"amount":   500,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var b map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &b)
	id := b["id"].(string)

	doJSON(t, srv, "POST", "/api/v1/transactions", map[string]interface{}{
		"title":    "Groceries",
		"category": "Food",
		"type":     "expense",
		"amount":   120,
	})

	rr = doJSON(t, srv, "GET", fmt.Sprintf("/api/v1/budgets/%s/status", id), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var status map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &status)
	if status["spent_amount"].(float64) != 120 {
		t.Errorf("expected spent_amount 120, got %v", status["spent_amount"])
	}
	if status["is_over_budget"].(bool) {
		t.Error("120 of 500 should not be over budget")
	}
}

func TestAPI_PredictPriority_HeuristicWithoutModel(t *testing.T) {
	srv := testServer(t)

	rr := doJSON(t, srv, "POST", "/api/v1/priority/predict", map[string]string{
		"title": "Untrained",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["method"] != "heuristic" {
		t.Errorf("expected heuristic method, got %v", resp["method"])
	}
	if resp["priority"] != "medium" {
		t.Errorf("expected medium for a task with no due date, got %v", resp["priority"])
	}
}

func TestAPI_ScheduleDay(t *testing.T) {
	srv := testServer(t)

	for i := 0; i < 5; i++ {
		doJSON(t, srv, "POST", "/api/v1/tasks", map[string]string{
			"title": fmt.Sprintf("Task %d", i),
		})
	}

	rr := doJSON(t, srv, "GET", "/api/v1/schedule/day?available_hours=3", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var scheduled []map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &scheduled)
	if len(scheduled) != 3 {
		t.Errorf("expected 3 scheduled tasks, got %d", len(scheduled))
	}
}
