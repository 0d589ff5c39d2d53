package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/netdoctor/netdoctor/internal/domain"
	"github.com/netdoctor/netdoctor/internal/httpapi/middleware"
)

// Diagnoser is the pipeline boundary the server calls into.
type Diagnoser interface {
	Diagnose(ctx context.Context, rawTarget string, mode domain.Mode) (*domain.Report, error)
}

type Server struct {
	Logger    *zap.Logger
	Runner    Diagnoser
	RateRPM   int
	RateBurst int
}

func NewServer(l *zap.Logger, runner Diagnoser, rateRPM, rateBurst int) *Server {
	return &Server{Logger: l, Runner: runner, RateRPM: rateRPM, RateBurst: rateBurst}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(s.RateRPM, s.RateBurst))
		r.Get("/api/diagnose", s.handleDiagnose)
		r.Post("/api/diagnose", s.handleDiagnose)
	})

	return r
}

type diagnosePayload struct {
	Target string `json:"target"`
	Mode   string `json:"mode"`
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	modeStr := r.URL.Query().Get("mode")

	if r.Method == http.MethodPost && target == "" {
		var p diagnosePayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad payload")
			return
		}
		target, modeStr = p.Target, p.Mode
	}
	if target == "" {
		writeError(w, http.StatusBadRequest, "no target provided")
		return
	}

	mode := domain.ParseMode(modeStr)
	report, err := s.Runner.Diagnose(r.Context(), target, mode)
	if err != nil {
		var ite *domain.InvalidTargetError
		if errors.As(err, &ite) {
			writeError(w, http.StatusBadRequest, ite.Error())
			return
		}
		s.Logger.Error("diagnose_error", zap.String("target", target), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    report,
	})
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
	})
}
