package lifecycle

// Tag is the presentation hint attached to a displayed loan row.
type Tag string

const (
	TagDefault  Tag = "default"
	TagReturned Tag = "returned"
	TagOverdue  Tag = "overdue"
)

// TagFor classifies a displayed state for row highlighting.
func TagFor(s State) Tag {
	switch {
	case s.Returned():
		return TagReturned
	case s.Kind == KindOverdue:
		return TagOverdue
	default:
		return TagDefault
	}
}
