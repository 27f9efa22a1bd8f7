// ABOUTME: Tests for lexical ranking
// ABOUTME: Verifies scoring, exclusion of zero scores, tie-breaks and determinism

package ranker

import (
	"reflect"
	"testing"

	"github.com/nainya/agentops/pkg/corpus"
)

func setupTestCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Load([]corpus.Source{
		{
			ID:    "POL-BILLING",
			Title: "Billing",
			Raw: "## Cancellation\nCancel by 6:00 PM on day of arrival for full refund.\n\n" +
				"## Refunds\nRefunds are returned to the original card.",
		},
		{
			ID:    "POL-GUEST-SERVICES",
			Title: "Guest Services",
			Raw: "## Late Checkout\nLate checkout until 2:00 PM for elite members.\n\n" +
				"## Room Changes\nA room change is free within 24 hours.",
		},
		{
			ID:    "POL-AMENITIES",
			Title: "Amenities",
			Raw:   "## Pets\nDogs and cats welcome, fee per stay. Late arrivals with pets use the side entrance.",
		},
	})
	if err != nil {
		t.Fatalf("Failed to load corpus: %v", err)
	}
	return c
}

func TestRankCancellationScenario(t *testing.T) {
	c := setupTestCorpus(t)

	results := Rank("What is the cancellation policy?", c, 3)
	if len(results) != 1 {
		t.Fatalf("Expected 1 passage, got %d: %+v", len(results), results)
	}

	p := results[0]
	if p.DocumentID != "POL-BILLING" {
		t.Errorf("Expected POL-BILLING, got %s", p.DocumentID)
	}
	if p.SectionHeading != "Cancellation" {
		t.Errorf("Expected Cancellation section, got %s", p.SectionHeading)
	}
	if p.Score < 1 {
		t.Errorf("Expected score >= 1, got %v", p.Score)
	}
}

func TestRankScoresDistinctKeywords(t *testing.T) {
	c := setupTestCorpus(t)

	// "late" twice in the query still counts once
	results := Rank("late late checkout", c, 5)
	if len(results) != 2 {
		t.Fatalf("Expected 2 passages, got %d", len(results))
	}

	if results[0].SectionHeading != "Late Checkout" || results[0].Score != 2 {
		t.Errorf("Expected Late Checkout with score 2, got %s/%v", results[0].SectionHeading, results[0].Score)
	}
	if results[1].DocumentID != "POL-AMENITIES" || results[1].Score != 1 {
		t.Errorf("Expected POL-AMENITIES with score 1, got %s/%v", results[1].DocumentID, results[1].Score)
	}
}

func TestRankNoOverlap(t *testing.T) {
	c := setupTestCorpus(t)

	if results := Rank("xyzzy plugh quux", c, 3); len(results) != 0 {
		t.Errorf("Expected empty ranking, got %+v", results)
	}
}

func TestRankEmptyAndStopWordQueries(t *testing.T) {
	c := setupTestCorpus(t)

	for _, q := range []string{"", "   ", "?!", "what is the", "Is it for them?"} {
		if results := Rank(q, c, 3); len(results) != 0 {
			t.Errorf("Query %q: expected empty ranking, got %d passages", q, len(results))
		}
	}
}

func TestRankStopWordsOnlyFilterQuerySide(t *testing.T) {
	c, _ := corpus.Load([]corpus.Source{
		{ID: "POL-A", Raw: "the of and"},
		{ID: "POL-B", Raw: "towels for the pool"},
	})

	results := Rank("the towels", c, 3)
	if len(results) != 1 || results[0].DocumentID != "POL-B" {
		t.Errorf("Expected only POL-B, got %+v", results)
	}
}

func TestRankTieBreakByLoadOrder(t *testing.T) {
	sources := []corpus.Source{
		{ID: "POL-FIRST", Raw: "## A\nbreakfast served daily\n## B\nbreakfast again"},
		{ID: "POL-SECOND", Raw: "breakfast menu"},
	}
	c, _ := corpus.Load(sources)

	results := Rank("breakfast", c, 3)
	if len(results) != 3 {
		t.Fatalf("Expected 3 passages, got %d", len(results))
	}

	want := []struct {
		id      string
		section int
	}{{"POL-FIRST", 0}, {"POL-FIRST", 1}, {"POL-SECOND", 0}}
	for i, w := range want {
		if results[i].DocumentID != w.id || results[i].SectionIndex != w.section {
			t.Errorf("Position %d: expected %s#%d, got %s#%d", i, w.id, w.section, results[i].DocumentID, results[i].SectionIndex)
		}
	}

	// Reversing load order reverses the tie-break
	reversed, _ := corpus.Load([]corpus.Source{sources[1], sources[0]})
	results = Rank("breakfast", reversed, 1)
	if results[0].DocumentID != "POL-SECOND" {
		t.Errorf("Expected POL-SECOND first after reorder, got %s", results[0].DocumentID)
	}
}

func TestRankTopK(t *testing.T) {
	c := setupTestCorpus(t)

	if got := len(Rank("late room pets refund cancel", c, 2)); got != 2 {
		t.Errorf("Expected 2 passages, got %d", got)
	}

	if got := len(Rank("late room pets refund cancel", c, 0)); got != DefaultTopK {
		t.Errorf("Expected default %d passages, got %d", DefaultTopK, got)
	}
}

func TestRankDeterministic(t *testing.T) {
	c := setupTestCorpus(t)

	first := Rank("late checkout room pets refund", c, 5)
	for i := 0; i < 20; i++ {
		again := Rank("late checkout room pets refund", c, 5)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Ranking changed on run %d", i)
		}
	}
}

func TestRankNilCorpus(t *testing.T) {
	if results := Rank("refund", nil, 3); results != nil {
		t.Errorf("Expected nil, got %+v", results)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Cancel by 6:00 PM!", []string{"cancel", "by", "600", "pm"}},
		{"Wi-Fi costs $15/day", []string{"wifi", "costs", "15day"}},
		{"  multiple\tspaces\nand lines ", []string{"multiple", "spaces", "and", "lines"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := Tokenize(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestQueryTerms(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"I need to cancel my reservation due to an emergency, cancel!", []string{"need", "cancel", "reservation", "due", "emergency"}},
		{"What is the cancellation policy?", []string{"cancellation", "policy"}},
		{"Which policies cover pets?", []string{"policies", "cover", "pets"}},
	}

	for _, tt := range tests {
		if got := QueryTerms(tt.query); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("QueryTerms(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}

	if StopWordsVersion != "v2" {
		t.Errorf("Unexpected stop-word version %s", StopWordsVersion)
	}
}

func TestRankMatchesLiteralPolicy(t *testing.T) {
	c, err := corpus.Load([]corpus.Source{
		{ID: "POL-X", Raw: "## Privacy policy\nOur privacy policy covers data."},
		{ID: "POL-Y", Raw: "## Pool\nPool opens at nine."},
	})
	if err != nil {
		t.Fatalf("Failed to load corpus: %v", err)
	}

	results := Rank("policy", c, 3)
	if len(results) != 1 || results[0].DocumentID != "POL-X" {
		t.Fatalf("Expected only POL-X, got %+v", results)
	}
	if results[0].SectionHeading != "Privacy policy" || results[0].Score != 1 {
		t.Errorf("Expected Privacy policy with score 1, got %s/%v", results[0].SectionHeading, results[0].Score)
	}
}
