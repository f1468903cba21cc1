package dose

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/dosetrack/dosetrack/internal/domain/schedule"
	"github.com/dosetrack/dosetrack/internal/platform/auth"
)

const testCronSecret = "test-cron-secret"

var testSigningKey = []byte("test-signing-key")

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func newTestHandler(src ScheduleSource, repo OccurrenceRepository, now time.Time) *Handler {
	svc := newTestDoseService(src, repo, now)
	verifier := auth.NewVerifier(auth.JWTConfig{SigningKey: testSigningKey})
	return NewHandler(svc, verifier, testCronSecret)
}

func doGenerate(h *Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/doses/generate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h.Generate(c)
	return rec
}

func TestGenerate_Unauthorized(t *testing.T) {
	h := newTestHandler(&mockScheduleSource{}, newMockOccurrenceRepo(), day0)

	rec := doGenerate(h, `{}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "Unauthorized" {
		t.Errorf(`expected {"error":"Unauthorized"}, got %s`, rec.Body.String())
	}
}

func TestGenerate_BadSecretRejected(t *testing.T) {
	h := newTestHandler(&mockScheduleSource{}, newMockOccurrenceRepo(), day0)

	rec := doGenerate(h, `{}`, map[string]string{auth.CronSecretHeader: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGenerate_CronSecretAllUsers(t *testing.T) {
	a := dailySchedule("08:00")
	b := dailySchedule("08:00")
	src := &mockScheduleSource{schedules: []*schedule.ActiveSchedule{a, b}}
	repo := newMockOccurrenceRepo()
	h := newTestHandler(src, repo, day0.Add(time.Hour))

	rec := doGenerate(h, `{"days":1}`, map[string]string{auth.CronSecretHeader: testCronSecret})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success            bool  `json:"success"`
		Generated          int   `json:"generated"`
		SchedulesProcessed int   `json:"schedules_processed"`
		Days               int   `json:"days"`
		DurationMS         int64 `json:"duration_ms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !body.Success || body.Generated != 2 || body.SchedulesProcessed != 2 || body.Days != 1 {
		t.Errorf("unexpected summary: %+v (%s)", body, rec.Body.String())
	}
}

func TestGenerate_CronSecretScopedUserID(t *testing.T) {
	a := dailySchedule("08:00")
	b := dailySchedule("08:00")
	src := &mockScheduleSource{schedules: []*schedule.ActiveSchedule{a, b}}
	repo := newMockOccurrenceRepo()
	h := newTestHandler(src, repo, day0.Add(time.Hour))

	body := `{"days":1,"user_id":"` + a.UserID.String() + `"}`
	rec := doGenerate(h, body, map[string]string{auth.CronSecretHeader: testCronSecret})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	for _, o := range repo.stored {
		if o.ScheduleID != a.ID {
			t.Errorf("generated for out-of-scope schedule %v", o.ScheduleID)
		}
	}
}

func TestGenerate_BearerScopesToSubject(t *testing.T) {
	mine := dailySchedule("08:00")
	other := dailySchedule("08:00")
	src := &mockScheduleSource{schedules: []*schedule.ActiveSchedule{mine, other}}
	repo := newMockOccurrenceRepo()
	h := newTestHandler(src, repo, day0.Add(time.Hour))

	// user_id in the body must be ignored on the bearer path.
	body := `{"days":1,"user_id":"` + other.UserID.String() + `"}`
	rec := doGenerate(h, body, map[string]string{
		"Authorization": "Bearer " + signToken(t, mine.UserID.String()),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.stored) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(repo.stored))
	}
	for _, o := range repo.stored {
		if o.ScheduleID != mine.ID {
			t.Errorf("bearer path leaked into another user's schedule")
		}
	}
}

func TestGenerate_InvalidTokenRejected(t *testing.T) {
	h := newTestHandler(&mockScheduleSource{}, newMockOccurrenceRepo(), day0)

	rec := doGenerate(h, `{}`, map[string]string{"Authorization": "Bearer garbage"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGenerate_NoActiveSchedulesMessage(t *testing.T) {
	h := newTestHandler(&mockScheduleSource{}, newMockOccurrenceRepo(), day0)

	rec := doGenerate(h, `{}`, map[string]string{auth.CronSecretHeader: testCronSecret})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["message"] != "No active schedules" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if body["generated"] != float64(0) {
		t.Errorf("expected generated 0, got %v", body["generated"])
	}
}

func TestGenerate_MalformedBodyFallsBackToDefaults(t *testing.T) {
	s := dailySchedule("08:00")
	src := &mockScheduleSource{schedules: []*schedule.ActiveSchedule{s}}
	h := newTestHandler(src, newMockOccurrenceRepo(), day0.Add(time.Hour))

	rec := doGenerate(h, `{not json`, map[string]string{auth.CronSecretHeader: testCronSecret})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected malformed body to be recovered, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["days"] != float64(DefaultHorizonDays) {
		t.Errorf("expected default horizon, got %v", body["days"])
	}
}
