// ABOUTME: Answer and draft-reply composition from ranked passages
// ABOUTME: Markers are placed inline next to the sentences each document supports

package compose

import (
	"strings"

	"github.com/nainya/agentops/pkg/ranker"
)

// Composer turns ranked passages into user-facing text.
// The zero value quotes every passage in full; use Default for the service settings.
type Composer struct {
	MaxPassages  int // Passages quoted, counted before merging (<= 0 means all)
	MaxSentences int // Sentences quoted per passage (<= 0 means all)
}

// Default returns the composer used by the service
func Default() Composer {
	return Composer{MaxPassages: 2, MaxSentences: 2}
}

// group is a run of consecutive passages from the same document
type group struct {
	id        string
	title     string
	sentences []string
}

func (c Composer) groups(passages []ranker.ScoredPassage) []group {
	if c.MaxPassages > 0 && len(passages) > c.MaxPassages {
		passages = passages[:c.MaxPassages]
	}

	var groups []group
	for _, p := range passages {
		quoted := sentences(sanitize(p.Body), c.MaxSentences)
		if len(quoted) == 0 {
			continue
		}
		if n := len(groups); n > 0 && groups[n-1].id == p.DocumentID {
			groups[n-1].sentences = append(groups[n-1].sentences, quoted...)
			continue
		}
		title := p.DocumentTitle
		if title == "" {
			title = p.DocumentID
		}
		groups = append(groups, group{id: p.DocumentID, title: sanitize(title), sentences: quoted})
	}
	return groups
}

func allowedIDs(groups []group) map[string]bool {
	ids := make(map[string]bool, len(groups))
	for _, g := range groups {
		ids[g.id] = true
	}
	return ids
}

// Answer composes a direct answer quoting the top passages
func (c Composer) Answer(passages []ranker.ScoredPassage) Answer {
	groups := c.groups(passages)
	if len(groups) == 0 {
		return Answer{Text: NoMatchText, Citations: []string{}}
	}

	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, strings.Join(g.sentences, " ")+" "+Marker(g.id))
	}

	text := strings.Join(parts, " ")
	return Answer{Text: text, Citations: ExtractCitations(text, allowedIDs(groups))}
}

// Draft composes an empathetic reply to a guest ticket grounded in the top passages
func (c Composer) Draft(passages []ranker.ScoredPassage, ticket string) Answer {
	groups := c.groups(passages)
	if len(groups) == 0 {
		return Answer{Text: NoMatchDraftText, Citations: []string{}}
	}

	var b strings.Builder
	b.WriteString(acknowledgement(ticket))

	for i, g := range groups {
		b.WriteString(" ")
		if i == 0 {
			b.WriteString("Per our " + policyLabel(g.title) + " " + Marker(g.id) + ": ")
		} else {
			b.WriteString("In addition, our " + policyLabel(g.title) + " " + Marker(g.id) + " notes: ")
		}
		b.WriteString(strings.Join(g.sentences, " "))
	}

	b.WriteString(" I'd be happy to take care of this for you.")
	b.WriteString(" Could you share your confirmation number so I can get started?")

	text := b.String()
	return Answer{Text: text, Citations: ExtractCitations(text, allowedIDs(groups))}
}

// distressWords switch the acknowledgement from a thank-you to an apology
var distressWords = map[string]bool{
	"emergency": true, "problem": true, "issue": true, "broken": true, "dirty": true,
	"noise": true, "noisy": true, "complaint": true, "disappointed": true, "upset": true,
	"unhappy": true, "wrong": true, "terrible": true, "unacceptable": true, "sick": true,
	"lost": true, "urgent": true, "inconvenience": true, "frustrated": true,
}

// policyLabel names a document in a draft, adding "policy" unless the title already ends with it
func policyLabel(title string) string {
	if strings.HasSuffix(strings.ToLower(title), "policy") {
		return title
	}
	return title + " policy"
}

func acknowledgement(ticket string) string {
	for _, tok := range ranker.Tokenize(ticket) {
		if distressWords[tok] {
			return "I'm very sorry to hear about your situation, and thank you for letting us know."
		}
	}
	return "Thank you for contacting us."
}
