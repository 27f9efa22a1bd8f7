package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nainya/agentops/internal/security"
	"github.com/nainya/agentops/internal/telemetry"
	"github.com/nainya/agentops/pkg/agentops"
)

const maxBodyBytes = 64 * 1024

type answerRequest struct {
	Question string `json:"question"`
}

type answerResponse struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

type draftRequest struct {
	TicketText string `json:"ticket_text"`
}

type draftResponse struct {
	Draft     string   `json:"draft"`
	Citations []string `json:"citations"`
}

// HTTPHandler returns the REST API
func (s *Server) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/agentops/answer", s.requireAuth(s.handleAnswer))
	mux.Handle("POST /api/agentops/draft_reply", s.requireAuth(s.handleDraftReply))
	mux.Handle("GET /api/metrics", s.requireAuth(s.handleMetrics))
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.withRequestLog(mux)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, claims *security.Claims)

func (s *Server) requireAuth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.authenticate(r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			sendError(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if rec, ok := w.(*statusRecorder); ok {
			rec.user = claims.Subject
		}
		next(w, r.WithContext(withClaims(r.Context(), claims)), claims)
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request, claims *security.Claims) {
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, ok := s.askHTTP(w, r, agentops.ModeAnswer, req.Question, "question", claims)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, answerResponse{Answer: result.Text, Citations: result.Citations})
}

func (s *Server) handleDraftReply(w http.ResponseWriter, r *http.Request, claims *security.Claims) {
	var req draftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, ok := s.askHTTP(w, r, agentops.ModeDraft, req.TicketText, "ticket_text", claims)
	if !ok {
		return
	}
	sendJSON(w, http.StatusOK, draftResponse{Draft: result.Text, Citations: result.Citations})
}

func (s *Server) askHTTP(w http.ResponseWriter, r *http.Request, mode agentops.Mode, text, field string, claims *security.Claims) (agentops.Result, bool) {
	result, err := s.ask(r.Context(), mode, text, claims.Subject)
	switch {
	case err == nil:
		return result, true
	case errors.Is(err, ErrFeatureDisabled):
		sendError(w, err.Error(), http.StatusNotImplemented)
	case errors.Is(err, ErrEmptyInput):
		sendError(w, field+" is required", http.StatusBadRequest)
	default:
		s.log.HTTPLogger(r.URL.Path).Error().Err(err).Msg("Policy search failed")
		sendError(w, "policy search failed", http.StatusInternalServerError)
	}
	return agentops.Result{}, false
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, _ *security.Claims) {
	sendJSON(w, http.StatusOK, s.recorder.Snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	c := s.engine.Corpus()
	body := map[string]interface{}{
		"status":         "healthy",
		"service":        "agentops",
		"documents":      c.Len(),
		"sections":       c.SectionCount(),
		"uptime_seconds": int64(s.Uptime().Seconds()),
	}
	code := http.StatusOK
	if !s.Ready() {
		body["status"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	sendJSON(w, code, body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		sendError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func sendJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, message string, code int) {
	sendJSON(w, code, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// statusRecorder captures the response code for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
	user   string
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestLog records every request in metrics, telemetry and the log
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.RequestsInFlight.Inc()
		defer s.metrics.RequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		// The mux sets Pattern on r; unmatched paths share one label
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordRequest("http", route, strconv.Itoa(rec.status), duration)
		if r.URL.Path != "/health" {
			s.recorder.Record(telemetry.Event{
				Type:      telemetry.EventAPIRequest,
				Path:      r.URL.Path,
				Method:    r.Method,
				Status:    rec.status,
				LatencyMs: float64(duration.Microseconds()) / 1000,
				UserID:    rec.user,
			})
		}
		s.log.LogHTTPRequest(r.Method, r.URL.Path, rec.status, duration, rec.user)
	})
}
