// ABOUTME: Tests for corpus loading and section parsing
// ABOUTME: Verifies ordering, lookups and graceful degradation of bad sources

package corpus

import (
	"errors"
	"testing"
)

func testSources() []Source {
	return []Source{
		{
			ID:    "POL-BILLING",
			Title: "Billing",
			Raw:   "# Billing\n\n## Cancellation\nCancel by 6:00 PM on day of arrival for full refund.\n\n## Refunds\nRefunds take 5 business days.\n",
		},
		{
			ID:    "POL-AMENITIES",
			Title: "Amenities",
			Raw:   "## Pets\nDogs and cats up to 50 lbs.\n",
		},
	}
}

func TestLoadPreservesOrder(t *testing.T) {
	c, err := Load(testSources())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Len() != 2 {
		t.Fatalf("Expected 2 documents, got %d", c.Len())
	}

	all := c.All()
	if all[0].ID != "POL-BILLING" || all[1].ID != "POL-AMENITIES" {
		t.Errorf("Unexpected load order: %s, %s", all[0].ID, all[1].ID)
	}

	if c.SectionCount() != 3 {
		t.Errorf("Expected 3 sections, got %d", c.SectionCount())
	}
}

func TestGet(t *testing.T) {
	c, _ := Load(testSources())

	doc, ok := c.Get("POL-BILLING")
	if !ok {
		t.Fatal("POL-BILLING not found")
	}

	if doc.Title != "Billing" {
		t.Errorf("Expected title 'Billing', got '%s'", doc.Title)
	}

	if len(doc.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(doc.Sections))
	}

	if doc.Sections[0].Heading != "Cancellation" {
		t.Errorf("Expected first heading 'Cancellation', got '%s'", doc.Sections[0].Heading)
	}

	if doc.Sections[1].Body != "Refunds take 5 business days." {
		t.Errorf("Unexpected body: %q", doc.Sections[1].Body)
	}

	if _, ok := c.Get("POL-MISSING"); ok {
		t.Error("Expected POL-MISSING to be absent")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c, _ := Load(testSources())

	all := c.All()
	all[0] = nil

	if c.All()[0] == nil {
		t.Error("All must not expose the internal slice")
	}
}

func TestLoadSkipsBadSources(t *testing.T) {
	sources := append(testSources(),
		Source{ID: "POL-EMPTY", Raw: "  \n\t"},
		Source{ID: "POL-BILLING", Raw: "# Duplicate\nbody"},
		Source{ID: "", Raw: "no id"},
	)

	c, err := Load(sources)
	if err == nil {
		t.Fatal("Expected load errors")
	}

	if c == nil {
		t.Fatal("Corpus must not be nil")
	}

	if c.Len() != 2 {
		t.Errorf("Expected 2 documents to survive, got %d", c.Len())
	}

	loadErrs := LoadErrors(err)
	if len(loadErrs) != 3 {
		t.Fatalf("Expected 3 load errors, got %d", len(loadErrs))
	}

	if !errors.Is(loadErrs[0], ErrEmptySource) {
		t.Errorf("Expected ErrEmptySource, got %v", loadErrs[0])
	}
	if !errors.Is(loadErrs[1], ErrDuplicateID) {
		t.Errorf("Expected ErrDuplicateID, got %v", loadErrs[1])
	}
	if !errors.Is(loadErrs[2], ErrMissingID) {
		t.Errorf("Expected ErrMissingID, got %v", loadErrs[2])
	}

	if !errors.Is(err, ErrEmptySource) {
		t.Error("Joined error should match ErrEmptySource")
	}

	// The first POL-BILLING wins
	doc, _ := c.Get("POL-BILLING")
	if doc.Title != "Billing" {
		t.Errorf("Duplicate overwrote original document: %s", doc.Title)
	}
}

func TestLoadRejectsIDsMarkersCannotCarry(t *testing.T) {
	c, err := Load([]Source{
		{ID: "POL SPA", Raw: "## Hours\nThe spa opens at nine."},
		{ID: "POL-[X]", Raw: "text"},
		{ID: "POL\tTAB", Raw: "text"},
		{ID: "  POL-SPA  ", Raw: "## Hours\nThe spa opens at nine."},
	})

	loadErrs := LoadErrors(err)
	if len(loadErrs) != 3 {
		t.Fatalf("Expected 3 load errors, got %d: %v", len(loadErrs), err)
	}
	for _, le := range loadErrs {
		if !errors.Is(le, ErrInvalidID) {
			t.Errorf("Expected ErrInvalidID for %q, got %v", le.ID, le.Err)
		}
	}

	// Surrounding whitespace is trimmed, not rejected
	if c.Len() != 1 {
		t.Fatalf("Expected 1 document, got %d", c.Len())
	}
	if _, ok := c.Get("POL-SPA"); !ok {
		t.Error("Expected trimmed POL-SPA to load")
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"POL-BILLING", true},
		{"pol_1.2", true},
		{"", false},
		{"POL SPA", false},
		{"POL[1]", false},
		{"POL]", false},
		{"POL\u00a0NBSP", false},
	}

	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.want {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestLoadDefaultsTitleToID(t *testing.T) {
	c, err := Load([]Source{{ID: "POL-X", Raw: "text"}})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	doc, _ := c.Get("POL-X")
	if doc.Title != "POL-X" {
		t.Errorf("Expected title POL-X, got %s", doc.Title)
	}
}

func TestParseSections(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		headings []string
		bodies   []string
	}{
		{
			name:     "no headings",
			raw:      "Just a paragraph.\nSecond line.",
			headings: []string{""},
			bodies:   []string{"Just a paragraph.\nSecond line."},
		},
		{
			name:     "preamble then heading",
			raw:      "Intro text.\n# Rules\nRule one.",
			headings: []string{"", "Rules"},
			bodies:   []string{"Intro text.", "Rule one."},
		},
		{
			name:     "empty sections dropped",
			raw:      "# Title\n\n## Empty\n\n## Filled\nContent here.",
			headings: []string{"Filled"},
			bodies:   []string{"Content here."},
		},
		{
			name:     "headings only degrade to whole document",
			raw:      "# One\n## Two",
			headings: []string{""},
			bodies:   []string{"# One\n## Two"},
		},
		{
			name:     "hashtag is not a heading",
			raw:      "#nospace stays body",
			headings: []string{""},
			bodies:   []string{"#nospace stays body"},
		},
		{
			name:     "closing hashes and CRLF",
			raw:      "## Pets ##\r\nDogs welcome.\r\n",
			headings: []string{"Pets"},
			bodies:   []string{"Dogs welcome."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections := ParseSections(tt.raw)
			if len(sections) != len(tt.headings) {
				t.Fatalf("Expected %d sections, got %d: %+v", len(tt.headings), len(sections), sections)
			}
			for i, s := range sections {
				if s.Heading != tt.headings[i] {
					t.Errorf("Section %d heading: expected %q, got %q", i, tt.headings[i], s.Heading)
				}
				if s.Body != tt.bodies[i] {
					t.Errorf("Section %d body: expected %q, got %q", i, tt.bodies[i], s.Body)
				}
			}
		})
	}
}
