package interp

// Tag identifies the kind of a placeholder.
type Tag int

// Placeholder tags. The letter before "{" selects the tag.
const (
	TagKey      Tag = iota // k{a.b}
	TagDuration            // t{1 hour}
	TagPath                // p{./src}
	TagRegex               // r{^\d+$}
	TagSnippet             // f{1 + 1}
)

// String returns the tag name.
func (t Tag) String() string {
	switch t {
	case TagKey:
		return "key"
	case TagDuration:
		return "duration"
	case TagPath:
		return "path"
	case TagRegex:
		return "regex"
	case TagSnippet:
		return "snippet"
	default:
		return "unknown"
	}
}

// Letter returns the tag letter used in placeholders.
func (t Tag) Letter() byte {
	switch t {
	case TagKey:
		return 'k'
	case TagDuration:
		return 't'
	case TagPath:
		return 'p'
	case TagRegex:
		return 'r'
	case TagSnippet:
		return 'f'
	default:
		return 0
	}
}

// tagForLetter maps a placeholder letter to its tag.
func tagForLetter(c byte) (Tag, bool) {
	switch c {
	case 'k':
		return TagKey, true
	case 't':
		return TagDuration, true
	case 'p':
		return TagPath, true
	case 'r':
		return TagRegex, true
	case 'f':
		return TagSnippet, true
	default:
		return 0, false
	}
}
