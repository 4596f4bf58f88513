// Package template implements the announcement formatting mini-language.
// Announcement text may embed tokens of the form <<value, spec>> where
// the spec prefix selects a formatter: ct: renders the current time,
// dt: parses and renders an arbitrary date, n: renders a fixed-point
// number. Anything that does not match the grammar is left untouched.
package template

import (
	"regexp"
	"strings"
	"time"
)

// tokenPattern matches <<value, spec>> tokens. Only the three literal
// prefixes are recognized; unrecognized syntax simply is not a match
// and passes through verbatim.
var tokenPattern = regexp.MustCompile(`(<<.*?), *((ct:|dt:|n:).*?>>)`)

// Engine replaces format tokens in announcement text. It is stateless
// apart from its clock, which is injectable for tests.
type Engine struct {
	now func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithClock overrides the wall-clock source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine using the system clock.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render replaces every format token in text, left to right, in a
// single pass. Formatter failures are embedded in the output as
// diagnostic strings and never abort rendering of the rest of the text.
func (e *Engine) Render(text string) string {
	now := e.now()

	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		groups := tokenPattern.FindStringSubmatch(token)
		if groups == nil {
			return token
		}

		value := strings.TrimPrefix(groups[1], "<<")
		spec := strings.TrimSuffix(groups[2], ">>")

		return dispatch(value, spec, now)
	})
}
