package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dosetrack/dosetrack/internal/platform/auth"
)

func newTestContext(t *testing.T, method, target, body string, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userID != uuid.Nil {
		ctx := context.WithValue(req.Context(), auth.UserIDKey, userID.String())
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandlerCreateItem(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	owner := uuid.New()

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/items",
		`{"name":"Metformin","dosage":"500mg"}`, owner)
	if err := h.CreateItem(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var item Item
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if item.UserID != owner {
		t.Errorf("expected owner %s, got %s", owner, item.UserID)
	}
	if !item.IsActive {
		t.Error("expected created item to be active")
	}
}

func TestHandlerCreateItem_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/items", `{"name":"X"}`, uuid.Nil)
	err := h.CreateItem(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}

func TestHandlerGetItem_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)

	c, _ := newTestContext(t, http.MethodGet, "/api/v1/items/"+uuid.NewString(), "", uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetItem(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

func TestHandlerCreateSchedule(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	owner := uuid.New()

	item := &Item{UserID: owner, Name: "Metformin"}
	svc.CreateItem(context.Background(), item)

	body := `{"item_id":"` + item.ID.String() + `","freq_type":"specific_days","times":["08:00","20:00"],"days_of_week":[1,3,5]}`
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/schedules", body, owner)
	if err := h.CreateSchedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var sched Schedule
	if err := json.Unmarshal(rec.Body.Bytes(), &sched); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if sched.FreqType != FreqSpecificDays {
		t.Errorf("expected freq_type specific_days, got %s", sched.FreqType)
	}
}

func TestHandlerCreateSchedule_InvalidFreq(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	owner := uuid.New()

	item := &Item{UserID: owner, Name: "Metformin"}
	svc.CreateItem(context.Background(), item)

	body := `{"item_id":"` + item.ID.String() + `","freq_type":"hourly","times":["08:00"]}`
	c, _ := newTestContext(t, http.MethodPost, "/api/v1/schedules", body, owner)
	err := h.CreateSchedule(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandlerDeactivateSchedule(t *testing.T) {
	svc, _, schedules := newTestService()
	h := NewHandler(svc)
	owner := uuid.New()

	item := &Item{UserID: owner, Name: "Metformin"}
	svc.CreateItem(context.Background(), item)
	sched := &Schedule{ItemID: item.ID, FreqType: FreqDaily, Times: []string{"08:00"}}
	svc.CreateSchedule(context.Background(), owner, sched)

	c, rec := newTestContext(t, http.MethodDelete, "/api/v1/schedules/"+sched.ID.String(), "", owner)
	c.SetParamNames("id")
	c.SetParamValues(sched.ID.String())

	if err := h.DeactivateSchedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if schedules.schedules[sched.ID].IsActive {
		t.Error("expected schedule deactivated")
	}
}
