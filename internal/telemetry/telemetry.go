// Package telemetry records request events in memory and optionally to a CSV file
package telemetry

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types recorded by the service
const (
	EventAnswer     = "agentops_answer"
	EventDraft      = "agentops_draft"
	EventError      = "agentops_error"
	EventAPIRequest = "api_request"
)

const (
	// DefaultCapacity is the number of events kept in memory
	DefaultCapacity = 1000
	// RecentLimit is the number of events returned by Snapshot
	RecentLimit = 10
)

// CSVHeader is the first row of a telemetry CSV file
var CSVHeader = []string{"timestamp", "event_type", "path", "method", "status", "latency_ms", "user_id", "metadata"}

// Event is one telemetry record
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      string            `json:"event_type"`
	Path      string            `json:"path,omitempty"`
	Method    string            `json:"method,omitempty"`
	Status    int               `json:"status,omitempty"` // 0 when not an HTTP/RPC outcome
	LatencyMs float64           `json:"latency_ms,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Snapshot is a point-in-time view of the recorder
type Snapshot struct {
	Counters     map[string]int64 `json:"counters"`
	RecentEvents []Event          `json:"recent_events"`
	TotalEvents  int              `json:"total_events"`
	CSVPath      string           `json:"csv_path,omitempty"`
}

// Recorder keeps the last Capacity events and running counters.
// All methods are safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	ring     []Event
	next     int
	full     bool
	counters map[string]int64

	csvPath string
	hook    func(Event)
	logger  zerolog.Logger
	now     func() time.Time
}

// Option configures a Recorder
type Option func(*Recorder)

// WithCapacity sets the in-memory event limit
func WithCapacity(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.ring = make([]Event, n)
		}
	}
}

// WithCSV appends every event to the CSV file at path
func WithCSV(path string) Option {
	return func(r *Recorder) {
		r.csvPath = path
	}
}

// WithHook calls fn for every recorded event, outside the recorder lock
func WithHook(fn func(Event)) Option {
	return func(r *Recorder) {
		r.hook = fn
	}
}

// WithLogger sets the logger used for CSV write failures
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// New creates a recorder
func New(opts ...Option) *Recorder {
	r := &Recorder{
		ring:     make([]Event, DefaultCapacity),
		counters: make(map[string]int64),
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stores e, filling in its id and timestamp, and returns the stored event.
// CSV failures are logged and never returned.
func (r *Recorder) Record(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now().UTC()
	}
	if e.Type == "" {
		e.Type = "unknown"
	}

	r.mu.Lock()
	r.ring[r.next] = e
	r.next = (r.next + 1) % len(r.ring)
	if r.next == 0 {
		r.full = true
	}
	r.counters["event_"+e.Type]++
	r.counters["total_events"]++
	if e.Status > 0 {
		r.counters[fmt.Sprintf("status_%dxx", e.Status/100)]++
	}
	if r.csvPath != "" {
		if err := r.appendCSV(e); err != nil {
			r.logger.Warn().Err(err).Str("path", r.csvPath).Msg("Failed to write telemetry to CSV")
		}
	}
	r.mu.Unlock()

	if r.hook != nil {
		r.hook(e)
	}
	return e
}

// Increment adds n to a named counter
func (r *Recorder) Increment(key string, n int64) {
	r.mu.Lock()
	r.counters[key] += n
	r.mu.Unlock()
}

// Counter returns a counter value, 0 if unset
func (r *Recorder) Counter(key string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key]
}

// Events returns the stored events, oldest first
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eventsLocked()
}

func (r *Recorder) eventsLocked() []Event {
	if !r.full {
		return append([]Event(nil), r.ring[:r.next]...)
	}
	out := make([]Event, 0, len(r.ring))
	out = append(out, r.ring[r.next:]...)
	return append(out, r.ring[:r.next]...)
}

// Snapshot returns counters and the most recent events
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	counters := make(map[string]int64, len(r.counters))
	for k, v := range r.counters {
		counters[k] = v
	}
	events := r.eventsLocked()
	recent := events
	if len(recent) > RecentLimit {
		recent = recent[len(recent)-RecentLimit:]
	}

	s := Snapshot{
		Counters:     counters,
		RecentEvents: append([]Event{}, recent...),
		TotalEvents:  len(events),
	}
	if r.csvPath != "" {
		if abs, err := filepath.Abs(r.csvPath); err == nil {
			s.CSVPath = abs
		} else {
			s.CSVPath = r.csvPath
		}
	}
	return s
}

// Reset clears events and counters. The CSV file is left untouched.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.ring {
		r.ring[i] = Event{}
	}
	r.next = 0
	r.full = false
	r.counters = make(map[string]int64)
}

func (r *Recorder) appendCSV(e Event) error {
	if dir := filepath.Dir(r.csvPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create telemetry dir: %w", err)
		}
	}

	_, statErr := os.Stat(r.csvPath)
	writeHeader := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(r.csvPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open telemetry csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(CSVHeader); err != nil {
			return err
		}
	}
	if err := w.Write(csvRow(e)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func csvRow(e Event) []string {
	status := ""
	if e.Status > 0 {
		status = strconv.Itoa(e.Status)
	}
	latency := ""
	if e.LatencyMs > 0 {
		latency = strconv.FormatFloat(e.LatencyMs, 'f', 2, 64)
	}
	meta := "{}"
	if len(e.Metadata) > 0 {
		if b, err := json.Marshal(e.Metadata); err == nil {
			meta = string(b)
		}
	}
	return []string{
		e.Timestamp.Format(time.RFC3339Nano),
		e.Type,
		e.Path,
		e.Method,
		status,
		latency,
		e.UserID,
		meta,
	}
}
