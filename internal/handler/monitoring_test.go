package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/startupnamer/vitals/internal/alerting"
	"github.com/startupnamer/vitals/internal/domain"
	"github.com/startupnamer/vitals/internal/ratelimit"
	"github.com/startupnamer/vitals/internal/storage"
	"github.com/startupnamer/vitals/internal/summary"
)

type fakeAlertStore struct {
	alerts     []domain.Alert
	lastFilter storage.AlertFilter
}

func (f *fakeAlertStore) InsertAlert(_ context.Context, alert *domain.Alert) (int64, error) {
	alert.ID = int64(len(f.alerts) + 1)
	f.alerts = append(f.alerts, *alert)
	return alert.ID, nil
}

func (f *fakeAlertStore) ListAlerts(_ context.Context, filter storage.AlertFilter) ([]domain.Alert, error) {
	f.lastFilter = filter
	return f.alerts, nil
}

func (f *fakeAlertStore) OpenAlertCounts(context.Context) (map[domain.AlertSeverity]int64, error) {
	counts := make(map[domain.AlertSeverity]int64, len(domain.Severities))
	for _, sev := range domain.Severities {
		counts[sev] = 0
	}
	for _, a := range f.alerts {
		if a.Status == domain.StatusOpen {
			counts[a.Severity]++
		}
	}
	return counts, nil
}

func newMonitoringHandler(store *fakeSampleStore, alertStore *fakeAlertStore, dbErr error) *MonitoringHandler {
	log := zerolog.Nop()
	ping := func(context.Context) error { return dbErr }
	return NewMonitoring(summary.New(store, log), alerting.New(alertStore, log), ping, log)
}

func TestCreateAlertAndList(t *testing.T) {
	alertStore := &fakeAlertStore{}
	h := newMonitoringHandler(&fakeSampleStore{}, alertStore, nil)

	rec := postJSON(t, h.CreateAlert, `{
		"alertType":"threshold_exceeded",
		"url":"https://example.com/checkout",
		"metricName":"lcp",
		"thresholdValue":4000,
		"actualValue":5200,
		"severity":"high"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["data"].(map[string]any)["id"].(float64) != 1 {
		t.Fatalf("expected alert id 1")
	}
	if alertStore.alerts[0].Status != domain.StatusOpen {
		t.Fatalf("new alert should default to open, got %q", alertStore.alerts[0].Status)
	}

	req := httptest.NewRequest(http.MethodGet, "http://vitals.test/alerts?status=open&severity=high", nil)
	listRec := httptest.NewRecorder()
	h.ListAlerts(listRec, req)
	if listRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listRec.Code)
	}
	data := decodeBody(t, listRec)["data"].(map[string]any)
	if len(data["alerts"].([]any)) != 1 {
		t.Fatalf("expected one alert, got %v", data["alerts"])
	}
	sum := data["summary"].(map[string]any)
	if sum["open"].(float64) != 1 {
		t.Fatalf("expected one open alert in summary, got %v", sum)
	}
	if alertStore.lastFilter.Status != domain.StatusOpen || alertStore.lastFilter.Severity != domain.SeverityHigh {
		t.Fatalf("filter not forwarded: %+v", alertStore.lastFilter)
	}
}

func TestCreateAlertRejectsBadSeverity(t *testing.T) {
	alertStore := &fakeAlertStore{}
	h := newMonitoringHandler(&fakeSampleStore{}, alertStore, nil)

	rec := postJSON(t, h.CreateAlert, `{"alertType":"threshold_exceeded","metricName":"lcp","severity":"catastrophic"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(alertStore.alerts) != 0 {
		t.Fatalf("invalid alert must not be stored")
	}
}

func TestListAlertsRejectsBadLimit(t *testing.T) {
	h := newMonitoringHandler(&fakeSampleStore{}, &fakeAlertStore{}, nil)
	req := httptest.NewRequest(http.MethodGet, "http://vitals.test/alerts?limit=nope", nil)
	rec := httptest.NewRecorder()
	h.ListAlerts(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	avg := 2100.0
	store := &fakeSampleStore{
		aggregate: &storage.Aggregate{
			Total:       5,
			UniquePages: 2,
			Metrics: map[string]storage.MetricStats{
				domain.MetricLCP: {Count: 5, Average: &avg, GoodCount: 4},
			},
		},
	}
	h := newMonitoringHandler(store, &fakeAlertStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "http://vitals.test/dashboard?period=24h", nil)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	data := decodeBody(t, rec)["data"].(map[string]any)
	for _, key := range []string{"summary", "alerts", "topSlowPages", "demographics", "recommendations"} {
		if _, ok := data[key]; !ok {
			t.Fatalf("dashboard payload missing %q", key)
		}
	}
	sum := data["summary"].(map[string]any)
	if sum["totalMeasurements"].(float64) != 5 {
		t.Fatalf("expected 5 measurements, got %v", sum["totalMeasurements"])
	}
}

func TestMonitoringHealth(t *testing.T) {
	h := newMonitoringHandler(&fakeSampleStore{}, &fakeAlertStore{}, nil)
	req := httptest.NewRequest(http.MethodGet, "http://vitals.test/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] == "unhealthy" {
		t.Fatalf("expected healthy-ish status with db up, got %v", body["status"])
	}
	db := body["checks"].(map[string]any)["database"].(map[string]any)
	if db["ok"] != true {
		t.Fatalf("expected database check ok")
	}
}

func TestMonitoringHealthDatabaseDown(t *testing.T) {
	h := newMonitoringHandler(&fakeSampleStore{}, &fakeAlertStore{}, errors.New("dial tcp: refused"))
	req := httptest.NewRequest(http.MethodGet, "http://vitals.test/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with db down, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	db := body["checks"].(map[string]any)["database"].(map[string]any)
	if db["ok"] != false {
		t.Fatalf("expected database check failed")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewMemory()
	defer limiter.Close()

	var served int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RateLimit(limiter, "ingest", 2, time.Minute, nil, zerolog.Nop())(next)

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "http://vitals.test/", strings.NewReader("{}"))
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("203.0.113.1"); rec.Code != http.StatusOK {
		t.Fatalf("request 1 should pass, got %d", rec.Code)
	}
	if rec := do("203.0.113.1"); rec.Code != http.StatusOK {
		t.Fatalf("request 2 should pass, got %d", rec.Code)
	}
	rec := do("203.0.113.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("request 3 should be limited, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	body := decodeBody(t, rec)
	if body["success"] != false || body["retryAfter"] == nil {
		t.Fatalf("unexpected limit body: %v", body)
	}

	// A different IP has its own window.
	if rec := do("203.0.113.2"); rec.Code != http.StatusOK {
		t.Fatalf("unrelated client should pass, got %d", rec.Code)
	}
	if served != 3 {
		t.Fatalf("expected 3 served requests, got %d", served)
	}
}

func TestRateLimitScopesAreIndependent(t *testing.T) {
	limiter := ratelimit.NewMemory()
	defer limiter.Close()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ingest := RateLimit(limiter, "ingest", 2, 5*time.Minute, nil, zerolog.Nop())(next)
	monitoring := RateLimit(limiter, "monitoring", 2, time.Minute, nil, zerolog.Nop())(next)

	do := func(h http.Handler) int {
		req := httptest.NewRequest(http.MethodGet, "http://vitals.test/", nil)
		req.RemoteAddr = "203.0.113.5:45000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	// Exhaust the ingest budget for this client.
	do(ingest)
	do(ingest)
	if code := do(ingest); code != http.StatusTooManyRequests {
		t.Fatalf("ingest request 3 should be limited, got %d", code)
	}

	// The same client's monitoring budget is untouched.
	if code := do(monitoring); code != http.StatusOK {
		t.Fatalf("monitoring request should pass with ingest exhausted, got %d", code)
	}
	if code := do(monitoring); code != http.StatusOK {
		t.Fatalf("monitoring request 2 should pass, got %d", code)
	}
	if code := do(monitoring); code != http.StatusTooManyRequests {
		t.Fatalf("monitoring request 3 should be limited, got %d", code)
	}
}

func TestRateLimitTrustedBypass(t *testing.T) {
	limiter := ratelimit.NewMemory()
	defer limiter.Close()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	trusted := TrustedClients([]string{"198.51.100.7"})
	wrapped := RateLimit(limiter, "ingest", 1, time.Minute, trusted, zerolog.Nop())(next)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "http://vitals.test/", nil)
		req.RemoteAddr = "198.51.100.7:40000"
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("trusted request %d should bypass limiter, got %d", i+1, rec.Code)
		}
	}
}
