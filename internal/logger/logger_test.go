package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("Invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogHTTPRequest(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "info", Output: &buf})

	l.LogHTTPRequest("POST", "/api/agentops/answer", 200, 5*time.Millisecond, "demo-user")
	l.LogHTTPRequest("POST", "/api/agentops/answer", 400, time.Millisecond, "")
	l.LogHTTPRequest("POST", "/api/agentops/answer", 500, time.Millisecond, "")

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"info", "warn", "error"} {
		if lines[i]["level"] != want {
			t.Errorf("line %d level = %v, want %s", i, lines[i]["level"], want)
		}
	}
	if lines[0]["service"] != "agentops" || lines[0]["component"] != "http" || lines[0]["user_id"] != "demo-user" {
		t.Errorf("Unexpected fields %v", lines[0])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "warn", Output: &buf})

	l.LogQuery("answer", "late checkout", []string{"POL-GUEST-SERVICES"}, time.Millisecond)
	l.LogCorpusLoaded("builtin", 3, 12, 0)
	l.LogGrpcRequest("/agentops.v1.PolicyQA/Answer", time.Millisecond, errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("Expected only the error line, got %d", len(lines))
	}
	if lines[0]["error"] != "boom" || lines[0]["method"] != "/agentops.v1.PolicyQA/Answer" {
		t.Errorf("Unexpected error line %v", lines[0])
	}
}

func TestCorpusLoadedWarnsOnSkips(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "debug", Output: &buf})

	l.LogCorpusLoaded("./policies", 2, 7, 1)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["level"] != "warn" || lines[0]["skipped"] != float64(1) {
		t.Errorf("Unexpected corpus line %v", lines)
	}
}

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "debug", Output: &buf})

	l.CorpusLogger("builtin").Warn().Msg("skipped")
	l.HTTPLogger("/health").Info().Msg("ok")
	l.GrpcLogger("Answer").WithFields(map[string]interface{}{"peer": "bufconn"}).Debug().Msg("call")

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	if lines[0]["component"] != "corpus" || lines[0]["source"] != "builtin" {
		t.Errorf("Unexpected corpus logger fields %v", lines[0])
	}
	if lines[1]["component"] != "http" || lines[1]["path"] != "/health" {
		t.Errorf("Unexpected http logger fields %v", lines[1])
	}
	if lines[2]["component"] != "grpc" || lines[2]["peer"] != "bufconn" {
		t.Errorf("Unexpected grpc logger fields %v", lines[2])
	}
}

func TestNop(t *testing.T) {
	// Must not panic
	Nop().LogServerStart(8080, 50051, "builtin")
	Nop().LogServerShutdown()
}

func TestInitGlobalLoggerInstallsPackageLogger(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	var buf bytes.Buffer
	l := InitGlobalLogger(Config{Level: "info", Output: &buf})
	if l == nil {
		t.Fatal("Expected a logger")
	}

	log.Info().Msg("from package logger")
	log.Debug().Msg("filtered")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 log line, got %d", len(lines))
	}
	if lines[0]["message"] != "from package logger" || lines[0]["service"] != "agentops" {
		t.Errorf("Unexpected fields %v", lines[0])
	}
}
