package extractor

// ExceptionSet holds login tokens that are known false positives,
// such as contact addresses printed in page boilerplate.
type ExceptionSet map[string]struct{}

// NewExceptionSet builds a set from a list of tokens
func NewExceptionSet(tokens []string) ExceptionSet {
	set := make(ExceptionSet, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// Contains reports whether token is an exception. A nil set contains nothing.
func (s ExceptionSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Len returns the number of exceptions
func (s ExceptionSet) Len() int {
	return len(s)
}
