package reqtemplate

import "github.com/go-kit/feign/uritemplate"

// Body is either literal bytes with a charset, or a body template string
// with embedded {var} expressions. At most one is ever set.
type Body struct {
	Literal []byte
	Charset string

	template *uritemplate.Template
}

// NewBodyTemplate parses s (which may contain {var} expressions) as a Body
// template, e.g. `{"owner":"{owner}"}`.
func NewBodyTemplate(s, charset string) (*Body, error) {
	tpl, err := uritemplate.Parse(s, uritemplate.Query)
	if err != nil {
		return nil, err
	}
	if charset == "" {
		charset = "UTF-8"
	}
	return &Body{template: tpl, Charset: charset}, nil
}

// NewLiteralBody wraps pre-encoded bytes (e.g. from a body-encoded template
// builder) with no further expansion.
func NewLiteralBody(b []byte, charset string) *Body {
	if charset == "" {
		charset = "UTF-8"
	}
	return &Body{Literal: b, Charset: charset}
}

func (b *Body) expand(vars map[string]interface{}) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	if b.template == nil {
		return b.Literal, nil
	}
	s, err := b.template.Expand(vars, uritemplate.AllowUnresolved)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
