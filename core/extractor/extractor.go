package extractor

import (
	"fmt"
	"regexp"
	"strings"
)

// tokenChar is any rune but whitespace. RE2's \S only excludes ASCII
// whitespace, which would glue &nbsp; and other Unicode spaces into tokens.
const tokenChar = `[^\s\p{Z}\x{85}]`

const (
	// DefaultLoginPattern matches a loose email-shaped token
	DefaultLoginPattern = tokenChar + `+@` + tokenChar + `+\.` + tokenChar + `+`

	// DefaultPasswordPattern matches a token holding at least one digit
	DefaultPasswordPattern = tokenChar + `*\p{Nd}` + tokenChar + `*`

	// LookAheadWindow is how many lines after a login are searched for a password
	LookAheadWindow = 3

	separator = ":"
)

// Credentials is the login/password pair found in a document.
// An empty field means "not found".
type Credentials struct {
	Login    string `json:"login" yaml:"login"`
	Password string `json:"password" yaml:"password"`
}

// Found reports whether a login was extracted
func (c Credentials) Found() bool {
	return c.Login != ""
}

// Pair returns the credentials as a two element slice [login, password]
func (c Credentials) Pair() []string {
	return []string{c.Login, c.Password}
}

// Extractor holds the compiled login and password patterns.
// It has no mutable state, so one instance can be shared between goroutines.
type Extractor struct {
	loginRegex    *regexp.Regexp
	passwordRegex *regexp.Regexp
}

var defaultExtractor = MustNew(DefaultLoginPattern, DefaultPasswordPattern)

// New compiles the given patterns into an Extractor
func New(loginPattern, passwordPattern string) (*Extractor, error) {
	loginRegex, err := regexp.Compile(loginPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid login pattern %q: %w", loginPattern, err)
	}

	passwordRegex, err := regexp.Compile(passwordPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid password pattern %q: %w", passwordPattern, err)
	}

	return &Extractor{
		loginRegex:    loginRegex,
		passwordRegex: passwordRegex,
	}, nil
}

// MustNew is like New but panics if a pattern does not compile
func MustNew(loginPattern, passwordPattern string) *Extractor {
	e, err := New(loginPattern, passwordPattern)
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns the extractor built from the default patterns
func Default() *Extractor {
	return defaultExtractor
}

// Extract runs the default extractor over lines
func Extract(lines []string, exceptions []string) Credentials {
	return defaultExtractor.Extract(lines, NewExceptionSet(exceptions))
}

/*
   Extract scans lines forward for the first login token that is not an
   exception. A login embedding the separator is split at its first ":".
   Otherwise the next LookAheadWindow lines are searched for a password
   token. Either way the scan ends at the first qualifying login.
*/
func (e *Extractor) Extract(lines []string, exceptions ExceptionSet) Credentials {
	for i, line := range lines {
		login := e.loginRegex.FindString(line)
		if login == "" || exceptions.Contains(login) {
			continue
		}

		if idx := strings.Index(login, separator); idx != -1 {
			return Credentials{
				Login:    login[:idx],
				Password: login[idx+len(separator):],
			}
		}

		creds := Credentials{Login: login}
		for _, next := range lookAhead(lines, i, LookAheadWindow) {
			if password := e.passwordRegex.FindString(next); password != "" {
				creds.Password = password
				break
			}
		}
		return creds
	}

	return Credentials{}
}

// lookAhead returns up to n lines following index i, fewer near the end of input
func lookAhead(lines []string, i, n int) []string {
	start := i + 1
	if start >= len(lines) {
		return nil
	}

	end := start + n
	if end > len(lines) {
		end = len(lines)
	}

	return lines[start:end]
}

// LoginPattern returns the source of the login pattern
func (e *Extractor) LoginPattern() string {
	return e.loginRegex.String()
}

// PasswordPattern returns the source of the password pattern
func (e *Extractor) PasswordPattern() string {
	return e.passwordRegex.String()
}
