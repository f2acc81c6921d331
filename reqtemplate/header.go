package reqtemplate

import (
	"net/textproto"
	"strings"

	"github.com/go-kit/feign/uritemplate"
)

// Header is a single header's ordered list of value templates. Header
// values use Query-style percent-encoding (they are not URI components, but
// the character set exclusions are close enough, and header values with
// {var} substitutions are rare enough that a single encoder is sufficient
// for both).
type Header struct {
	values []*uritemplate.Template
}

// NewHeader parses each of values as a Header value template.
func NewHeader(values []string) (*Header, error) {
	h := &Header{}
	for _, v := range values {
		vt, err := uritemplate.Parse(v, uritemplate.Query)
		if err != nil {
			return nil, err
		}
		h.values = append(h.values, vt)
	}
	return h, nil
}

// Expand resolves every value template against vars, dropping any that
// expand to an empty string; an expression with no value in vars is kept as
// its literal {name}. ok is false when nothing survives, meaning the header
// should be omitted entirely.
func (h *Header) Expand(vars map[string]interface{}) (values []string, ok bool, err error) {
	for _, v := range h.values {
		expanded, err := v.Expand(vars, uritemplate.AllowUnresolved)
		if err != nil {
			return nil, false, err
		}
		if expanded != "" {
			values = append(values, expanded)
		}
	}
	return values, len(values) > 0, nil
}

// HeaderMap is a case-insensitively keyed, insertion-ordered collection of
// Header templates, mirroring net/http.Header's canonicalization without
// its map[string][]string representation (which would lose the original
// declaration order interceptors rely on when diagnosing a template).
type HeaderMap struct {
	order []string
	byKey map[string]*Header
}

// NewHeaderMap returns an empty HeaderMap.
func NewHeaderMap() *HeaderMap {
	return &HeaderMap{byKey: map[string]*Header{}}
}

// Set replaces any existing entry for name (case-insensitively).
func (m *HeaderMap) Set(name string, h *Header) {
	key := canonicalHeaderKey(name)
	if _, exists := m.byKey[key]; !exists {
		m.order = append(m.order, key)
	}
	m.byKey[key] = h
}

// Get returns the Header for name, or nil.
func (m *HeaderMap) Get(name string) *Header {
	return m.byKey[canonicalHeaderKey(name)]
}

// Delete removes the entry for name, if any.
func (m *HeaderMap) Delete(name string) {
	key := canonicalHeaderKey(name)
	if _, exists := m.byKey[key]; !exists {
		return
	}
	delete(m.byKey, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Names returns header names in insertion order.
func (m *HeaderMap) Names() []string { return append([]string(nil), m.order...) }

// Clone deep-copies the map (templates themselves are immutable and shared).
func (m *HeaderMap) Clone() *HeaderMap {
	c := NewHeaderMap()
	for _, k := range m.order {
		c.order = append(c.order, k)
		c.byKey[k] = m.byKey[k]
	}
	return c
}

func canonicalHeaderKey(name string) string {
	return textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(name))
}
