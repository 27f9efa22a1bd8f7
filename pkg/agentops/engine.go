// ABOUTME: Policy Q&A engine: rank then compose, once per request
// ABOUTME: Stateless over an immutable corpus, safe for concurrent callers

package agentops

import (
	"errors"
	"fmt"

	"github.com/nainya/agentops/pkg/compose"
	"github.com/nainya/agentops/pkg/corpus"
	"github.com/nainya/agentops/pkg/ranker"
)

// Mode selects how ranked passages are composed
type Mode string

const (
	ModeAnswer Mode = "answer"
	ModeDraft  Mode = "draft"
)

// ErrUnknownMode is returned by Ask for a mode other than answer or draft
var ErrUnknownMode = errors.New("agentops: unknown mode")

// ParseMode converts a string to a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAnswer, ModeDraft:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Result is the outcome of one query
type Result struct {
	Text      string
	Citations []string
	Passages  []ranker.ScoredPassage // Ranked passages the text was built from
}

// NoMatch reports whether no policy matched the query
func (r Result) NoMatch() bool {
	return len(r.Citations) == 0 && (r.Text == compose.NoMatchText || r.Text == compose.NoMatchDraftText)
}

// Engine answers questions and drafts replies over a corpus
type Engine struct {
	corpus   *corpus.Corpus
	topK     int
	composer compose.Composer
}

// Option configures an Engine
type Option func(*Engine)

// WithTopK sets how many passages are ranked per query
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithComposer replaces the default composer
func WithComposer(c compose.Composer) Option {
	return func(e *Engine) {
		e.composer = c
	}
}

// NewEngine creates an engine over c. c must be fully loaded and is never modified.
func NewEngine(c *corpus.Corpus, opts ...Option) *Engine {
	e := &Engine{
		corpus:   c,
		topK:     ranker.DefaultTopK,
		composer: compose.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Corpus returns the corpus the engine reads from
func (e *Engine) Corpus() *corpus.Corpus {
	return e.corpus
}

// Answer responds to a policy question
func (e *Engine) Answer(question string) Result {
	passages := ranker.Rank(question, e.corpus, e.topK)
	a := e.composer.Answer(passages)
	return Result{Text: a.Text, Citations: a.Citations, Passages: passages}
}

// DraftReply composes a reply to a guest ticket
func (e *Engine) DraftReply(ticket string) Result {
	passages := ranker.Rank(ticket, e.corpus, e.topK)
	a := e.composer.Draft(passages, ticket)
	return Result{Text: a.Text, Citations: a.Citations, Passages: passages}
}

// Ask dispatches on mode
func (e *Engine) Ask(mode Mode, text string) (Result, error) {
	switch mode {
	case ModeAnswer:
		return e.Answer(text), nil
	case ModeDraft:
		return e.DraftReply(text), nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
