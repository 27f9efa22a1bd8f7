// ABOUTME: Lexical passage ranking over the policy corpus
// ABOUTME: Score is the count of distinct query keywords present in a section

package ranker

import (
	"sort"

	"github.com/nainya/agentops/pkg/corpus"
)

// Rank scores every section of c against query and returns at most topK
// passages with a positive score. Equal scores keep corpus load order.
func Rank(query string, c *corpus.Corpus, topK int) []ScoredPassage {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if c == nil {
		return nil
	}

	terms := QueryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var passages []ScoredPassage
	for di, doc := range c.All() {
		for si, section := range doc.Sections {
			score := Score(terms, section)
			if score == 0 {
				continue
			}
			passages = append(passages, ScoredPassage{
				DocumentID:     doc.ID,
				DocumentTitle:  doc.Title,
				SectionHeading: section.Heading,
				Body:           section.Body,
				Score:          float64(score),
				DocIndex:       di,
				SectionIndex:   si,
			})
		}
	}

	// Passages are generated in load order, so a stable sort on score alone
	// keeps the earlier document and section first on ties.
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})

	if len(passages) > topK {
		passages = passages[:topK]
	}
	return passages
}

// Score counts the query terms present in a section's heading and body
func Score(terms []string, section corpus.Section) int {
	tokens := tokenSet(section.Heading + "\n" + section.Body)
	score := 0
	for _, term := range terms {
		if tokens.has(term) {
			score++
		}
	}
	return score
}
