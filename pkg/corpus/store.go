// ABOUTME: Corpus loading and Markdown section parsing
// ABOUTME: Malformed sources degrade to a single section; empty ones are skipped

package corpus

import (
	"errors"
	"strings"
	"unicode"
)

// ValidID reports whether id can appear inside a citation marker:
// non-empty, with no whitespace and no square brackets.
func ValidID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "[]") && strings.IndexFunc(id, unicode.IsSpace) < 0
}

// Load parses sources into a Corpus.
// The returned corpus is never nil. Skipped sources are reported as a
// joined error of *LoadError values; the remaining sources are still loaded.
func Load(sources []Source) (*Corpus, error) {
	c := &Corpus{
		docs:  make(map[string]*PolicyDocument, len(sources)),
		order: make([]*PolicyDocument, 0, len(sources)),
	}

	var errs []error
	for i, src := range sources {
		id := strings.TrimSpace(src.ID)
		if id == "" {
			errs = append(errs, &LoadError{Index: i, ID: src.ID, Err: ErrMissingID})
			continue
		}
		if !ValidID(id) {
			errs = append(errs, &LoadError{Index: i, ID: id, Err: ErrInvalidID})
			continue
		}
		if _, exists := c.docs[id]; exists {
			errs = append(errs, &LoadError{Index: i, ID: id, Err: ErrDuplicateID})
			continue
		}
		if strings.TrimSpace(src.Raw) == "" {
			errs = append(errs, &LoadError{Index: i, ID: id, Err: ErrEmptySource})
			continue
		}

		doc := &PolicyDocument{
			ID:       id,
			Title:    strings.TrimSpace(src.Title),
			Sections: ParseSections(src.Raw),
		}
		if doc.Title == "" {
			doc.Title = id
		}

		c.docs[id] = doc
		c.order = append(c.order, doc)
	}

	return c, errors.Join(errs...)
}

// ParseSections splits Markdown text on heading lines.
// Text before the first heading becomes an unnamed section. Sections with no
// body are dropped; if nothing remains the whole text is one unnamed section.
func ParseSections(raw string) []Section {
	var sections []Section
	heading := ""
	var body []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if text != "" {
			sections = append(sections, Section{Heading: heading, Body: text})
		}
		body = body[:0]
	}

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if h, ok := headingText(line); ok {
			flush()
			heading = h
			continue
		}
		body = append(body, line)
	}
	flush()

	if len(sections) == 0 {
		return []Section{{Body: strings.TrimSpace(raw)}}
	}
	return sections
}

// headingText reports whether line is an ATX heading ("# Title") and returns its text
func headingText(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
	if level > 6 {
		return "", false
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(rest), "#")), true
}
