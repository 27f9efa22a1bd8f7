// ABOUTME: Ranking result types
// ABOUTME: ScoredPassage carries a section with its lexical overlap score

package ranker

// DefaultTopK is the number of passages returned when the caller passes 0
const DefaultTopK = 3

// ScoredPassage is one section of a policy document scored against a query
type ScoredPassage struct {
	DocumentID     string
	DocumentTitle  string
	SectionHeading string
	Body           string
	Score          float64 // Number of distinct query keywords present

	DocIndex     int // Load position of the document
	SectionIndex int // Position of the section within the document
}
