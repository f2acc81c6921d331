// Package uritemplate parses strings containing RFC 6570 §3.2.2-style
// `{name}` and `{name:regex}` expressions and expands them against a
// variable map, percent-encoding each expanded value according to which
// part of a URI it will occupy.
package uritemplate

import (
	"fmt"
	"regexp"
	"strings"
)

// Fragment selects which RFC 3986 reserved-character set governs
// percent-encoding of an expanded value.
type Fragment int

const (
	// PathSegment allows the broader pchar reserved set (sub-delims, ':',
	// '@') but always encodes '/' in expanded values, since a value is a
	// single path segment, not a sub-path.
	PathSegment Fragment = iota
	// Query allows the query-safe reserved set, encoding '=', '&', and '+'
	// since those are query string delimiters/form-encoding escapes.
	Query
)

// Policy governs what happens when an expression's variable has no value in
// the variable map passed to Expand.
type Policy int

const (
	// AllowUnresolved leaves the `{name}` literal in the output.
	AllowUnresolved Policy = iota
	// Required causes the expression to expand to Undefined; callers such as
	// reqtemplate's query templates treat that as "omit this value".
	Required
)

// Undefined is the sentinel returned by Expand for a Required expression
// whose variable was not supplied. It is not a valid value for any real
// variable, so comparing a result against it with == is enough to detect it.
const Undefined = "\x00undefined\x00"

// reservedDelimiter separates the stringified elements of an iterable value
// so that a caller composing a collection-formatted query/header value can
// re-split them after expansion.
const reservedDelimiter = ";"

var expressionPattern = regexp.MustCompile(`^(\w[-\w.\[\]]*)(:(.+))?$`)

type chunkKind int

const (
	literalChunk chunkKind = iota
	expressionChunk
)

type chunk struct {
	kind       chunkKind
	literal    string
	name       string
	constraint *regexp.Regexp
}

// Template is a parsed sequence of literal and expression chunks.
type Template struct {
	raw      string
	fragment Fragment
	chunks   []chunk
}

// Parse scans s into literal and expression chunks. A `{` opens an
// expression; braces nested inside an expression are treated as literal
// content of the outer expression — only the outermost pair delimits it. The
// text between the outermost braces must match `(\w[-\w.\[\]]*)(:(.+))?`, a
// name with an optional `:regex` constraint — otherwise the whole braced
// span, braces included, becomes a literal.
func Parse(s string, fragment Fragment) (*Template, error) {
	t := &Template{raw: s, fragment: fragment}
	i := 0
	for i < len(s) {
		if s[i] != '{' {
			j := strings.IndexByte(s[i:], '{')
			if j < 0 {
				t.appendLiteral(s[i:])
				break
			}
			t.appendLiteral(s[i : i+j])
			i += j
			continue
		}
		depth := 1
		j := i + 1
		for j < len(s) && depth > 0 {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth > 0 {
				j++
			}
		}
		if depth != 0 {
			// unterminated '{' — treat the rest as a literal
			t.appendLiteral(s[i:])
			break
		}
		inner := s[i+1 : j]
		if m := expressionPattern.FindStringSubmatch(inner); m != nil {
			var re *regexp.Regexp
			if m[3] != "" {
				compiled, err := regexp.Compile(m[3])
				if err != nil {
					return nil, fmt.Errorf("uritemplate: bad constraint for %q: %w", m[1], err)
				}
				re = compiled
			}
			t.chunks = append(t.chunks, chunk{kind: expressionChunk, name: m[1], constraint: re})
		} else {
			t.appendLiteral(s[i : j+1])
		}
		i = j + 1
	}
	return t, nil
}

// Literal wraps s as a Template with no expressions, useful when a caller
// already has a fully-resolved value and wants to store it as a Template
// without risking its literal braces being reinterpreted as an expression.
func Literal(s string) *Template {
	return &Template{raw: s, chunks: []chunk{{kind: literalChunk, literal: s}}}
}

// MustParse is like Parse but panics on error; useful for package-level
// template constants.
func MustParse(s string, fragment Fragment) *Template {
	t, err := Parse(s, fragment)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) appendLiteral(s string) {
	if s == "" {
		return
	}
	if n := len(t.chunks); n > 0 && t.chunks[n-1].kind == literalChunk {
		t.chunks[n-1].literal += s
		return
	}
	t.chunks = append(t.chunks, chunk{kind: literalChunk, literal: s})
}

// Names returns the distinct variable names referenced by expressions in the
// template, in first-occurrence order.
func (t *Template) Names() []string {
	seen := map[string]bool{}
	var names []string
	for _, c := range t.chunks {
		if c.kind == expressionChunk && !seen[c.name] {
			seen[c.name] = true
			names = append(names, c.name)
		}
	}
	return names
}

// String returns the original template source.
func (t *Template) String() string { return t.raw }

// Expand resolves every chunk against vars. vars values may be a string, a
// fmt.Stringer, any other value (stringified via fmt.Sprint), a []string, or
// a []interface{}; a missing key is treated per policy.
func (t *Template) Expand(vars map[string]interface{}, policy Policy) (string, error) {
	var b strings.Builder
	for _, c := range t.chunks {
		if c.kind == literalChunk {
			b.WriteString(c.literal)
			continue
		}
		v, ok := vars[c.name]
		if !ok || v == nil {
			switch policy {
			case Required:
				return Undefined, nil
			default:
				b.WriteByte('{')
				b.WriteString(c.name)
				b.WriteByte('}')
				continue
			}
		}
		expanded, err := t.expandValue(v)
		if err != nil {
			return "", fmt.Errorf("uritemplate: expanding %q: %w", c.name, err)
		}
		if c.constraint != nil {
			for _, part := range strings.Split(expanded, reservedDelimiter) {
				if !c.constraint.MatchString(part) {
					return "", fmt.Errorf("uritemplate: value %q for %q does not match constraint %s", part, c.name, c.constraint.String())
				}
			}
		}
		b.WriteString(expanded)
	}
	return b.String(), nil
}

func (t *Template) expandValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case []string:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = t.encode(s)
		}
		return strings.Join(parts, reservedDelimiter), nil
	case []interface{}:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = t.encode(fmt.Sprint(s))
		}
		return strings.Join(parts, reservedDelimiter), nil
	case fmt.Stringer:
		return t.encode(val.String()), nil
	default:
		return t.encode(fmt.Sprint(val)), nil
	}
}

func (t *Template) encode(s string) string {
	return Encode(s, t.fragment)
}

// Encode percent-encodes s for the given fragment type per RFC 3986.
func Encode(s string, fragment Fragment) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || isAllowedInFragment(c, fragment) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

func isAllowedInFragment(c byte, fragment Fragment) bool {
	switch fragment {
	case PathSegment:
		// pchar sub-delims and ':', '@'; '/' is deliberately excluded so a
		// single path-segment value can't smuggle in an extra path level.
		return strings.IndexByte("!$&'()*+,;=:@", c) >= 0
	case Query:
		// query-safe reserved set; '=', '&' and '+' stay encoded since they
		// are query-string delimiters / form-encoding escapes.
		return strings.IndexByte("!$'()*,:@/?", c) >= 0
	}
	return false
}
