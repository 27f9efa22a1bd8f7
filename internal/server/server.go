// Package server exposes the policy Q&A engine over HTTP and gRPC
package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nainya/agentops/internal/logger"
	"github.com/nainya/agentops/internal/metrics"
	"github.com/nainya/agentops/internal/security"
	"github.com/nainya/agentops/internal/telemetry"
	"github.com/nainya/agentops/pkg/agentops"
)

var (
	ErrFeatureDisabled = errors.New("AgentOps feature is not enabled")
	ErrEmptyInput      = errors.New("input text is required")
)

// Options wires the server's collaborators. Nil fields get working defaults.
type Options struct {
	Verifier       *security.Verifier
	Recorder       *telemetry.Recorder
	Metrics        *metrics.Metrics
	Logger         *logger.Logger
	FeatureEnabled bool
	SkippedSources int // Corpus sources rejected at load, reported as a gauge
}

// Server holds the engine and the ambient services shared by both transports
type Server struct {
	engine   *agentops.Engine
	verifier *security.Verifier
	recorder *telemetry.Recorder
	metrics  *metrics.Metrics
	log      *logger.Logger
	enabled  bool

	ready     atomic.Bool
	startTime time.Time
}

// NewServer creates a server around an engine whose corpus is already loaded
func NewServer(engine *agentops.Engine, opts Options) *Server {
	s := &Server{
		engine:    engine,
		verifier:  opts.Verifier,
		recorder:  opts.Recorder,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		enabled:   opts.FeatureEnabled,
		startTime: time.Now(),
	}
	if s.verifier == nil {
		s.verifier = security.NewVerifier(security.DefaultDemoToken, "")
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.recorder == nil {
		m := s.metrics
		s.recorder = telemetry.New(telemetry.WithHook(func(e telemetry.Event) { m.RecordEvent(e.Type) }))
	}

	c := engine.Corpus()
	s.metrics.UpdateCorpusStats(c.Len(), c.SectionCount(), opts.SkippedSources)
	s.ready.Store(true)
	return s
}

// Ready reports whether the server accepts traffic
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// SetReady flips readiness, used during shutdown
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Uptime returns the time since NewServer
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// Recorder returns the telemetry recorder
func (s *Server) Recorder() *telemetry.Recorder {
	return s.recorder
}

type claimsKey struct{}

func withClaims(ctx context.Context, c *security.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the caller claims stored by the auth layer
func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*security.Claims)
	return c, ok
}

// authenticate verifies an Authorization header value
func (s *Server) authenticate(header string) (*security.Claims, error) {
	return s.verifier.VerifyHeader(header)
}

// ask runs one query for an authenticated caller. It is the single path both transports use.
func (s *Server) ask(ctx context.Context, mode agentops.Mode, text, user string) (agentops.Result, error) {
	if !s.enabled {
		return agentops.Result{}, ErrFeatureDisabled
	}
	if strings.TrimSpace(text) == "" {
		return agentops.Result{}, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return agentops.Result{}, err
	}

	start := time.Now()
	result, err := s.engine.Ask(mode, text)
	if err != nil {
		s.recorder.Record(telemetry.Event{
			Type:     telemetry.EventError,
			UserID:   user,
			Metadata: map[string]string{"feature": "agentops", "error": err.Error()},
		})
		return agentops.Result{}, err
	}
	duration := time.Since(start)

	eventType, lengthKey := telemetry.EventAnswer, "question_length"
	if mode == agentops.ModeDraft {
		eventType, lengthKey = telemetry.EventDraft, "ticket_length"
	}
	s.recorder.Record(telemetry.Event{
		Type:      eventType,
		UserID:    user,
		LatencyMs: float64(duration.Microseconds()) / 1000,
		Metadata: map[string]string{
			"feature":         "agentops",
			lengthKey:         strconv.Itoa(len(text)),
			"citations_count": strconv.Itoa(len(result.Citations)),
		},
	})
	s.metrics.RecordQuery(string(mode), len(result.Passages), len(result.Citations))
	s.log.LogQuery(string(mode), security.Redact(text), result.Citations, duration)

	return result, nil
}
