package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/netdoctor/netdoctor/internal/domain"
)

// fakeDiagnoser validates the target like the real runner but returns a
// canned report.
type fakeDiagnoser struct {
	lastTarget string
	lastMode   domain.Mode
}

func (f *fakeDiagnoser) Diagnose(ctx context.Context, raw string, mode domain.Mode) (*domain.Report, error) {
	target, err := domain.ParseTarget(raw)
	if err != nil {
		return nil, err
	}
	f.lastTarget = target.Host
	f.lastMode = mode

	outcomes := make(map[domain.ProbeKind]domain.ProbeOutcome, 5)
	for _, kind := range domain.ProbeKinds() {
		outcomes[kind] = domain.ProbeOutcome{Kind: kind, Status: domain.StatusOK}
	}
	return &domain.Report{
		Target:   target,
		Mode:     mode,
		Outcomes: outcomes,
		Health:   domain.HealthScore{Score: 100, Severity: domain.SeverityHealthy},
		Summary:  "All diagnostics passed",
	}, nil
}

func newTestServer() (*Server, *fakeDiagnoser) {
	f := &fakeDiagnoser{}
	return NewServer(zap.NewNop(), f, 0, 0), f
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("healthz body = %q", rec.Body.String())
	}
}

func TestDiagnose_GetQueryParams(t *testing.T) {
	s, f := newTestServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/diagnose?target=Example.com&mode=expert", nil)
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if f.lastTarget != "example.com" || f.lastMode != domain.ModeExpert {
		t.Fatalf("diagnoser got target=%q mode=%q", f.lastTarget, f.lastMode)
	}

	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || len(body.Data) == 0 {
		t.Fatalf("response envelope wrong: %s", rec.Body.String())
	}
}

func TestDiagnose_PostJSONBody(t *testing.T) {
	s, f := newTestServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/diagnose",
		strings.NewReader(`{"target":"example.com","mode":"beginner"}`))
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if f.lastTarget != "example.com" || f.lastMode != domain.ModeBeginner {
		t.Fatalf("diagnoser got target=%q mode=%q", f.lastTarget, f.lastMode)
	}
}

func TestDiagnose_MissingTarget(t *testing.T) {
	s, _ := newTestServer()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagnose", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestDiagnose_InvalidTargetIs400(t *testing.T) {
	s, _ := newTestServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/diagnose?target="+
		strings.ReplaceAll("not a domain!!", " ", "%20"), nil)
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "invalid target") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestDiagnose_BadPostPayload(t *testing.T) {
	s, _ := newTestServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/diagnose", strings.NewReader("{not json"))
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
