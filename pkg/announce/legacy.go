package announce

import (
	"fmt"
	"strconv"
	"strings"
)

// The first releases persisted the store as a direct textual dump of
// the in-memory structure: a dict literal with integer keys and
// single-quoted strings. parseLegacy understands just enough of that
// syntax to migrate those files — nested dicts, quoted strings with
// backslash escapes, and bare numbers.
func parseLegacy(data []byte) (Collection, error) {
	p := &legacyParser{src: string(data)}

	p.skipSpace()
	top, err := p.parseDict()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing data at offset %d", p.pos)
	}

	col := Collection{}
	for devStr, groupVal := range top {
		devKey, err := strconv.ParseInt(devStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("non-integer device key %q", devStr)
		}
		group, ok := groupVal.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("device group %q is not a dict", devStr)
		}

		col[devKey] = map[int64]*Record{}
		for idStr, recVal := range group {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("non-integer announcement key %q", idStr)
			}
			fields, ok := recVal.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("announcement %q is not a dict", idStr)
			}
			col[devKey][id] = recordJSON{
				Name:        stringField(fields, "Name"),
				Text:        stringField(fields, "Announcement"),
				Refresh:     stringField(fields, "Refresh"),
				NextRefresh: stringField(fields, "nextRefresh"),
			}.toRecord(id)
		}
	}
	return col, nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

type legacyParser struct {
	src string
	pos int
}

func (p *legacyParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *legacyParser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *legacyParser) expect(c byte) error {
	got, ok := p.peek()
	if !ok {
		return fmt.Errorf("unexpected end of input, want %q", string(c))
	}
	if got != c {
		return fmt.Errorf("unexpected %q at offset %d, want %q", string(got), p.pos, string(c))
	}
	p.pos++
	return nil
}

// parseDict parses {key: value, ...}. Keys are stringified; values are
// string or nested map[string]any.
func (p *legacyParser) parseDict() (map[string]any, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}

	out := map[string]any{}
	p.skipSpace()
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return out, nil
	}

	for {
		p.skipSpace()
		key, err := p.parseScalar()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[key] = val

		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unexpected end of input in dict")
		}
		switch c {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, fmt.Errorf("unexpected %q at offset %d", string(c), p.pos)
		}
	}
}

func (p *legacyParser) parseValue() (any, error) {
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of input")
	}
	if c == '{' {
		return p.parseDict()
	}
	return p.parseScalar()
}

// parseScalar parses a quoted string or a bare number.
func (p *legacyParser) parseScalar() (string, error) {
	c, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("unexpected end of input")
	}

	if c == '\'' || c == '"' {
		return p.parseString(c)
	}

	start := p.pos
	for p.pos < len(p.src) && strings.ContainsRune("+-.0123456789eE", rune(p.src[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("unexpected %q at offset %d", string(c), p.pos)
	}
	return p.src[start:p.pos], nil
}

func (p *legacyParser) parseString(quote byte) (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", fmt.Errorf("unterminated escape")
			}
			esc := p.src[p.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string")
}
