// ABOUTME: Composed answer type and the no-match sentinels
// ABOUTME: Callers detect "no policy matched" by sentinel text and empty citations

package compose

// NoMatchText is the answer returned when no passage matched the question
const NoMatchText = "I couldn't find specific policy information about that. Please contact your supervisor."

// NoMatchDraftText is the draft returned when no passage matched the ticket
const NoMatchDraftText = "Thank you for contacting us. I wasn't able to find a policy that covers your request, " +
	"so I've passed it to a supervisor who will follow up with you shortly. " +
	"Could you share any additional details in the meantime?"

// Answer is composed text plus the documents it cites
type Answer struct {
	Text      string
	Citations []string // Distinct ids in order of first appearance in Text
}

// NoMatch reports whether a is one of the no-match sentinels
func (a Answer) NoMatch() bool {
	return len(a.Citations) == 0 && (a.Text == NoMatchText || a.Text == NoMatchDraftText)
}
