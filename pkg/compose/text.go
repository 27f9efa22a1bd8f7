// ABOUTME: Sentence extraction and citation marker helpers
// ABOUTME: Quoted text has its brackets neutralized so only composer markers parse as citations

package compose

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	markerRe     = regexp.MustCompile(`\[([^\[\]\s]+)\]`)
	listMarkerRe = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)
)

// Marker formats an inline citation marker for a document id
func Marker(id string) string {
	return "[" + id + "]"
}

// ExtractCitations returns the distinct marker ids in text in first-occurrence
// order. Ids not present in allowed are ignored; a nil allowed accepts all.
func ExtractCitations(text string, allowed map[string]bool) []string {
	citations := []string{}
	seen := make(map[string]bool)
	for _, m := range markerRe.FindAllStringSubmatch(text, -1) {
		id := m[1]
		if seen[id] || (allowed != nil && !allowed[id]) {
			continue
		}
		seen[id] = true
		citations = append(citations, id)
	}
	return citations
}

// sanitize flattens Markdown body text to a single line and replaces square
// brackets so quoted text cannot contain citation markers
func sanitize(body string) string {
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = listMarkerRe.ReplaceAllString(line, "")
		line = strings.Trim(line, "*_`")
		if line != "" {
			parts = append(parts, line)
		}
	}
	flat := strings.Join(parts, " ")
	return strings.NewReplacer("[", "(", "]", ")").Replace(flat)
}

// sentences splits text after '.', '!' or '?' when followed by whitespace or
// the end of text, and returns at most limit sentences (all if limit <= 0).
// An unterminated tail gets a period unless it already ends in punctuation.
func sentences(text string, limit int) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
		if limit > 0 && len(out) == limit {
			return out
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		if last, _ := utf8.DecodeLastRuneInString(tail); !strings.ContainsRune(".!?:;", last) {
			tail += "."
		}
		out = append(out, tail)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
