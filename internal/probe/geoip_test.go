package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/netdoctor/netdoctor/internal/domain"
)

func TestGeoIPProbe_OK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/8.8.8.8" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","country":"United States","city":"Mountain View","isp":"Google LLC","org":"Google Public DNS","as":"AS15169 Google LLC","query":"8.8.8.8"}`))
	}))
	defer s.Close()

	p := NewGeoIPProbe(s.URL, 2*time.Second)
	out := p.Run(context.Background(), mustTarget(t, "8.8.8.8"))
	if out.Status != domain.StatusOK {
		t.Fatalf("want ok, got %+v", out)
	}
	if out.Fields["country"] != "United States" || out.Fields["isp"] != "Google LLC" {
		t.Fatalf("fields = %+v", out.Fields)
	}
}

func TestGeoIPProbe_ServiceFailureStatus(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range","query":"10.0.0.1"}`))
	}))
	defer s.Close()

	p := NewGeoIPProbe(s.URL, 2*time.Second)
	out := p.Run(context.Background(), mustTarget(t, "10.0.0.1"))
	if out.Status != domain.StatusFailed || out.ErrorKind != domain.ErrProtocol {
		t.Fatalf("want failed/protocol, got %+v", out)
	}
	if out.Error != "private range" {
		t.Fatalf("error = %q", out.Error)
	}
}

func TestGeoIPProbe_RateLimited(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer s.Close()

	p := NewGeoIPProbe(s.URL, 2*time.Second)
	out := p.Run(context.Background(), mustTarget(t, "8.8.8.8"))
	if out.Status != domain.StatusFailed || out.ErrorKind != domain.ErrConnection {
		t.Fatalf("want failed/connection, got %+v", out)
	}
}

func TestGeoIPProbe_MalformedResponse(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json at all`))
	}))
	defer s.Close()

	p := NewGeoIPProbe(s.URL, 2*time.Second)
	out := p.Run(context.Background(), mustTarget(t, "8.8.8.8"))
	if out.Status != domain.StatusFailed || out.ErrorKind != domain.ErrProtocol {
		t.Fatalf("want failed/protocol, got %+v", out)
	}
}

func TestGeoIPProbe_ServiceUnreachable(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	base := s.URL
	s.Close()

	p := NewGeoIPProbe(base, 500*time.Millisecond)
	out := p.Run(context.Background(), mustTarget(t, "8.8.8.8"))
	if out.Status != domain.StatusFailed {
		t.Fatalf("want failed, got %+v", out)
	}
	if out.ErrorKind != domain.ErrConnection {
		t.Fatalf("error kind = %s, want connection", out.ErrorKind)
	}
}
