package reqtemplate

import (
	"strings"

	"github.com/go-kit/feign/metadata"
	"github.com/go-kit/feign/uritemplate"
)

// Query is a single query-string parameter: an (itself templated) name plus
// an ordered list of value templates, joined per Format when resolved.
type Query struct {
	name   *uritemplate.Template
	values []*uritemplate.Template
	format metadata.CollectionFormat
	// pure marks a parameter declared with no values at construction time
	// (e.g. "?flag" rather than "?flag={v}"); it resolves to the bare name.
	pure bool
}

// NewQuery parses name and each of values as PathSegment-free Query
// templates. NewQuery treats a name-only declaration (no values) as pure.
func NewQuery(name string, values []string, format metadata.CollectionFormat) (*Query, error) {
	nameTpl, err := uritemplate.Parse(name, uritemplate.Query)
	if err != nil {
		return nil, err
	}
	q := &Query{name: nameTpl, format: format, pure: len(values) == 0}
	for _, v := range values {
		vt, err := uritemplate.Parse(v, uritemplate.Query)
		if err != nil {
			return nil, err
		}
		q.values = append(q.values, vt)
	}
	return q, nil
}

// Append adds another value template to an existing parameter.
func (q *Query) Append(value string) error {
	vt, err := uritemplate.Parse(value, uritemplate.Query)
	if err != nil {
		return err
	}
	q.values = append(q.values, vt)
	q.pure = false
	return nil
}

// AppendLiteral appends value verbatim (no expression parsing, no further
// percent-encoding), used when merging an already-encoded query-map entry.
func (q *Query) AppendLiteral(value string) {
	q.values = append(q.values, uritemplate.Literal(value))
	q.pure = false
}

// String renders the unresolved form for diagnostics, e.g. "k={v1};{v2}".
func (q *Query) String() string {
	var b strings.Builder
	b.WriteString(q.name.String())
	if !q.pure {
		b.WriteByte('=')
		parts := make([]string, len(q.values))
		for i, v := range q.values {
			parts[i] = v.String()
		}
		b.WriteString(strings.Join(parts, ";"))
	}
	return b.String()
}

// Expand resolves the parameter against vars. It returns ok=false when the
// whole parameter should be omitted from the query string: either the name
// itself failed to resolve, or every declared value resolved to Undefined.
func (q *Query) Expand(vars map[string]interface{}) (rendered string, ok bool, err error) {
	name, err := q.name.Expand(vars, uritemplate.Required)
	if err != nil {
		return "", false, err
	}
	if name == uritemplate.Undefined {
		return "", false, nil
	}

	var resolved []string
	for _, v := range q.values {
		expanded, err := v.Expand(vars, uritemplate.Required)
		if err != nil {
			return "", false, err
		}
		for _, part := range splitReserved(expanded) {
			if part != uritemplate.Undefined {
				resolved = append(resolved, part)
			}
		}
	}

	if q.pure {
		return name, true, nil
	}
	if len(resolved) == 0 {
		return "", false, nil
	}

	switch q.format {
	case metadata.Exploded:
		parts := make([]string, len(resolved))
		for i, v := range resolved {
			parts[i] = name + "=" + v
		}
		return strings.Join(parts, "&"), true, nil
	default:
		return name + "=" + strings.Join(resolved, q.format.Separator()), true, nil
	}
}

func splitReserved(expanded string) []string {
	if expanded == uritemplate.Undefined {
		return []string{uritemplate.Undefined}
	}
	return strings.Split(expanded, ";")
}
