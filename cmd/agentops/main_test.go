package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Keep the working directory .env out of the test
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAskCommand(t *testing.T) {
	out, err := runCmd(t, "ask", "What is the cancellation policy?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out, "Cancel by 6:00 PM on day of arrival for full refund.") {
		t.Errorf("Unexpected output %q", out)
	}
	if !strings.Contains(out, "Citations: POL-BILLING") {
		t.Errorf("Expected citations line, got %q", out)
	}
}

func TestDraftCommandJSON(t *testing.T) {
	out, err := runCmd(t, "draft", "--json", "I need to cancel my reservation due to an emergency")
	if err != nil {
		t.Fatalf("draft failed: %v", err)
	}

	var body struct {
		Draft     string   `json:"draft"`
		Citations []string `json:"citations"`
	}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("Invalid JSON output %q: %v", out, err)
	}
	if !reflect.DeepEqual(body.Citations, []string{"POL-BILLING"}) || !strings.Contains(body.Draft, "[POL-BILLING]") {
		t.Errorf("Unexpected draft %+v", body)
	}
}

func TestAskRequiresArgs(t *testing.T) {
	if _, err := runCmd(t, "ask"); err == nil {
		t.Error("Expected error without a question")
	}
}

func TestCorpusCommandWithPolicyDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"spa.md":   "# Spa\n\n## Hours\nThe spa is open 9 to 9.\n",
		"empty.md": "   \n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	out, err := runCmd(t, "corpus", "--policy-dir", dir)
	if err != nil {
		t.Fatalf("corpus failed: %v", err)
	}
	if !strings.Contains(out, "POL-SPA  Spa") || !strings.Contains(out, "- Hours") {
		t.Errorf("Unexpected corpus listing %q", out)
	}
	if !strings.Contains(out, "1 documents, 1 sections") {
		t.Errorf("Expected empty source skipped, got %q", out)
	}
}

func TestEmptyPolicyDirFails(t *testing.T) {
	if _, err := runCmd(t, "corpus", "--policy-dir", t.TempDir()); err == nil {
		t.Error("Expected error for a directory without policies")
	}
}
