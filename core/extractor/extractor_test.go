package extractor

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		lines      []string
		exceptions []string
		expected   Credentials
	}{
		{
			name:     "empty input",
			lines:    nil,
			expected: Credentials{},
		},
		{
			name:     "no email shaped token",
			lines:    []string{"hello world", "password 12345", "nothing@here"},
			expected: Credentials{},
		},
		{
			name:     "inline split at separator",
			lines:    []string{"intro", "user@example.com:secret123", "other"},
			expected: Credentials{Login: "user@example.com", Password: "secret123"},
		},
		{
			name:     "inline split uses first separator",
			lines:    []string{"user@example.com:pa:ss9"},
			expected: Credentials{Login: "user@example.com", Password: "pa:ss9"},
		},
		{
			name:     "inline token surrounded by text",
			lines:    []string{"Login: user@example.com:secret123 enjoy"},
			expected: Credentials{Login: "user@example.com", Password: "secret123"},
		},
		{
			name:     "inline token with empty login yields no login",
			lines:    []string{":a@b.c", "pass1"},
			expected: Credentials{Login: "", Password: "a@b.c"},
		},
		{
			name:     "no-break space delimits tokens",
			lines:    []string{"Login:\u00a0user@mail.ru", "Password:\u00a0qwerty123"},
			expected: Credentials{Login: "user@mail.ru", Password: "qwerty123"},
		},
		{
			name:     "em space delimits tokens",
			lines:    []string{"mail\u2003user@mail.ru\u2003here", "pass\u2003qwerty123\u2003end"},
			expected: Credentials{Login: "user@mail.ru", Password: "qwerty123"},
		},
		{
			name:     "next line character delimits tokens",
			lines:    []string{"user@mail.ru\u0085x", "qwerty123"},
			expected: Credentials{Login: "user@mail.ru", Password: "qwerty123"},
		},
		{
			name:     "unicode digits count for the password",
			lines:    []string{"user@mail.ru", "pass\u0663word"},
			expected: Credentials{Login: "user@mail.ru", Password: "pass\u0663word"},
		},
		{
			name:     "look-ahead finds first password line",
			lines:    []string{"name@site.org", "junk", "has digit4here", "more junk"},
			expected: Credentials{Login: "name@site.org", Password: "digit4here"},
		},
		{
			name:     "look-ahead prefers nearest match",
			lines:    []string{"name@site.org", "pass1", "pass2"},
			expected: Credentials{Login: "name@site.org", Password: "pass1"},
		},
		{
			name:     "look-ahead window clamped at end of input",
			lines:    []string{"name@site.org", "nothing", "still nothing"},
			expected: Credentials{Login: "name@site.org", Password: ""},
		},
		{
			name:     "login on last line",
			lines:    []string{"header", "name@site.org"},
			expected: Credentials{Login: "name@site.org", Password: ""},
		},
		{
			name:     "password beyond window is ignored",
			lines:    []string{"name@site.org", "a", "b", "c", "qwerty123"},
			expected: Credentials{Login: "name@site.org", Password: ""},
		},
		{
			name:     "login line itself is not searched for a password",
			lines:    []string{"abc1@site.org", "no digits"},
			expected: Credentials{Login: "abc1@site.org", Password: ""},
		},
		{
			name:       "exceptions are skipped and scanning continues",
			lines:      []string{"Contact dmca@telegram.org", "x", "user@mail.ru", "qwerty123"},
			exceptions: []string{"dmca@telegram.org"},
			expected:   Credentials{Login: "user@mail.ru", Password: "qwerty123"},
		},
		{
			name:       "every match is an exception",
			lines:      []string{"dmca@telegram.org", "abuse@telegram.org", "pass1"},
			exceptions: []string{"dmca@telegram.org", "abuse@telegram.org"},
			expected:   Credentials{},
		},
		{
			name:       "exception matching is case-sensitive",
			lines:      []string{"DMCA@telegram.org", "pass1"},
			exceptions: []string{"dmca@telegram.org"},
			expected:   Credentials{Login: "DMCA@telegram.org", Password: "pass1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract(tt.lines, tt.exceptions)

			assert.Equal(t, tt.expected, result)
			assert.Len(t, result.Pair(), 2)
		})
	}
}

func TestExtract_LookAheadEndsScan(t *testing.T) {
	lines := []string{
		"first@site.org",
		"no password",
		"still none",
		"nope",
		"second@site.org:pw9",
	}

	result := Extract(lines, nil)

	assert.Equal(t, Credentials{Login: "first@site.org"}, result)
}

func TestExtract_Idempotent(t *testing.T) {
	lines := []string{"a", "name@site.org", "b", "x1y"}
	exceptions := []string{"other@site.org"}

	first := Extract(lines, exceptions)
	second := Extract(lines, exceptions)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a", "name@site.org", "b", "x1y"}, lines, "input must not be modified")
}

func TestExtract_OrderSensitive(t *testing.T) {
	lines := []string{"a@b.com", "pass1", "c@d.org", "pass2"}

	reversed := slices.Clone(lines)
	slices.Reverse(reversed)

	forward := Extract(lines, nil)
	backward := Extract(reversed, nil)

	assert.Equal(t, Credentials{Login: "a@b.com", Password: "pass1"}, forward)
	assert.Equal(t, Credentials{Login: "c@d.org", Password: "pass1"}, backward)
	assert.NotEqual(t, forward, backward)
}

func TestExtract_NoMatchIsOrderInvariant(t *testing.T) {
	lines := []string{"one", "two 2", "three"}

	reversed := slices.Clone(lines)
	slices.Reverse(reversed)

	assert.Equal(t, Extract(lines, nil), Extract(reversed, nil))
	assert.False(t, Extract(lines, nil).Found())
}

func TestExtract_Concurrent(t *testing.T) {
	e := Default()
	exceptions := NewExceptionSet([]string{"dmca@telegram.org"})
	lines := []string{"dmca@telegram.org", "user@mail.ru", "", "secret42"}

	var wg sync.WaitGroup
	results := make([]Credentials, 32)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = e.Extract(lines, exceptions)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, Credentials{Login: "user@mail.ru", Password: "secret42"}, r)
	}
}

func TestNew_CustomPatterns(t *testing.T) {
	e, err := New(`login=(\S+)`, `pin=\d{4}`)
	require.NoError(t, err)

	result := e.Extract([]string{"login=alice", "pin=12", "pin=1234"}, nil)

	assert.Equal(t, Credentials{Login: "login=alice", Password: "pin=1234"}, result)
	assert.Equal(t, `login=(\S+)`, e.LoginPattern())
	assert.Equal(t, `pin=\d{4}`, e.PasswordPattern())
}

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(`(`, DefaultPasswordPattern)
	assert.Error(t, err)

	_, err = New(DefaultLoginPattern, `[`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustNew(`(`, `(`) })
}

func TestExceptionSet(t *testing.T) {
	set := NewExceptionSet([]string{"a@b.c", "a@b.c", "d@e.f"})

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("a@b.c"))
	assert.False(t, set.Contains("x@y.z"))

	var empty ExceptionSet
	assert.False(t, empty.Contains("a@b.c"))
}

func TestLookAhead(t *testing.T) {
	lines := []string{"0", "1", "2", "3", "4"}

	assert.Equal(t, []string{"1", "2", "3"}, lookAhead(lines, 0, 3))
	assert.Equal(t, []string{"3", "4"}, lookAhead(lines, 2, 3))
	assert.Empty(t, lookAhead(lines, 4, 3))
}
