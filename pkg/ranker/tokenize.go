// ABOUTME: Text normalization and the versioned stop-word list
// ABOUTME: Lowercase, delete punctuation and symbols, split on whitespace

package ranker

import (
	"strings"
	"unicode"
)

// StopWordsVersion identifies the stop-word list in use.
// Bump it whenever the list changes, since rankings change with it.
// v2 dropped the content words "policy" and "policies".
const StopWordsVersion = "v2"

// StopWordsV2 holds function words only and is removed from query tokens only
var StopWordsV2 = newWordSet(
	// articles
	"a", "an", "the",
	// prepositions
	"about", "above", "across", "after", "against", "along", "among", "around", "as", "at",
	"before", "behind", "below", "beneath", "beside", "between", "beyond", "by",
	"during", "except", "for", "from", "in", "inside", "into", "near", "of", "off", "on",
	"onto", "out", "outside", "over", "per", "since", "through", "throughout", "till", "to",
	"toward", "towards", "under", "until", "up", "upon", "via", "with", "within", "without",
	// auxiliary and modal verbs
	"am", "are", "be", "been", "being", "can", "could", "did", "do", "does", "had", "has",
	"have", "having", "is", "may", "might", "must", "shall", "should", "was", "were",
	"will", "would",
	// pronouns and determiners
	"i", "me", "my", "mine", "we", "us", "our", "ours", "you", "your", "yours",
	"he", "him", "his", "she", "her", "hers", "it", "its", "they", "them", "their",
	"this", "that", "these", "those",
	// conjunctions
	"and", "but", "or", "nor", "so", "if", "than", "then",
	// question words
	"what", "when", "where", "which", "who", "whom", "whose", "why", "how",
)

type wordSet map[string]struct{}

func newWordSet(words ...string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s wordSet) has(w string) bool {
	_, ok := s[w]
	return ok
}

// Tokenize normalizes text into tokens.
// Punctuation and symbol runes are deleted, not replaced, so "6:00" becomes "600".
func Tokenize(text string) []string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
	return strings.Fields(normalized)
}

// QueryTerms returns the distinct non-stop-word tokens of a query in first-seen order
func QueryTerms(query string) []string {
	seen := make(wordSet)
	var terms []string
	for _, tok := range Tokenize(query) {
		if StopWordsV2.has(tok) || seen.has(tok) {
			continue
		}
		seen[tok] = struct{}{}
		terms = append(terms, tok)
	}
	return terms
}

// tokenSet returns the distinct tokens of text, stop words included
func tokenSet(text string) wordSet {
	tokens := Tokenize(text)
	s := make(wordSet, len(tokens))
	for _, tok := range tokens {
		s[tok] = struct{}{}
	}
	return s
}
