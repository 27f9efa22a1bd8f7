package corpus

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySource indicates a source with no usable text
	ErrEmptySource = errors.New("corpus: empty source")

	// ErrDuplicateID indicates a source whose id is already loaded
	ErrDuplicateID = errors.New("corpus: duplicate document id")

	// ErrMissingID indicates a source without an id
	ErrMissingID = errors.New("corpus: missing document id")

	// ErrInvalidID indicates an id containing whitespace or square brackets
	ErrInvalidID = errors.New("corpus: invalid document id")
)

// LoadError reports a source that was skipped while loading
type LoadError struct {
	Index int    // Position of the source in the input
	ID    string // Source id, possibly empty
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("corpus: source %d (%q) skipped: %v", e.Index, e.ID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadErrors unpacks the joined error returned by Load
func LoadErrors(err error) []*LoadError {
	if err == nil {
		return nil
	}
	var out []*LoadError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			var le *LoadError
			if errors.As(e, &le) {
				out = append(out, le)
			}
		}
		return out
	}
	var le *LoadError
	if errors.As(err, &le) {
		out = append(out, le)
	}
	return out
}
