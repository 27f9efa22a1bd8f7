// ABOUTME: Policy corpus data model
// ABOUTME: Defines Source, PolicyDocument, Section and the immutable Corpus

package corpus

// Source is one raw policy document handed to Load
type Source struct {
	ID    string // Stable identifier, e.g. POL-BILLING
	Title string // Human-readable heading
	Raw   string // Markdown text
}

// Section is a heading and the body text that follows it
type Section struct {
	Heading string // Empty for a preamble or an unstructured document
	Body    string
}

// PolicyDocument is a parsed policy with its sections in document order
type PolicyDocument struct {
	ID       string
	Title    string
	Sections []Section
}

// Corpus is the read-only set of policy documents.
// It is safe for concurrent use once Load has returned.
type Corpus struct {
	docs  map[string]*PolicyDocument
	order []*PolicyDocument
}

// Get returns the document with the given id
func (c *Corpus) Get(id string) (*PolicyDocument, bool) {
	doc, ok := c.docs[id]
	return doc, ok
}

// All returns documents in load order.
// The slice is a copy; the documents themselves must not be modified.
func (c *Corpus) All() []*PolicyDocument {
	out := make([]*PolicyDocument, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of loaded documents
func (c *Corpus) Len() int {
	return len(c.order)
}

// SectionCount returns the total number of sections across all documents
func (c *Corpus) SectionCount() int {
	n := 0
	for _, doc := range c.order {
		n += len(doc.Sections)
	}
	return n
}
