// Package reqtemplate implements the partially-resolved HTTP request model:
// a URI template plus query, header, and body templates that resolve
// against a variable map into a concrete request.
package reqtemplate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-kit/feign/metadata"
	"github.com/go-kit/feign/uritemplate"
)

// ErrResolved is returned by mutating methods once a Template has been
// resolved; ErrUnresolved is returned by Request when called before Resolve.
var (
	ErrResolved   = errors.New("reqtemplate: template already resolved")
	ErrUnresolved = errors.New("reqtemplate: template not yet resolved")
)

// Template is a mutable, per-invocation representation of an HTTP request
// plan. It is cloned from operation metadata once per call, mutated by the
// template builder and the interceptor chain, and finally resolved into an
// immutable request.
type Template struct {
	Target      string
	uriTemplate *uritemplate.Template
	uriSource   string

	queryOrder []string
	queries    map[string]*Query

	headers *HeaderMap

	body *Body

	Method           string
	Charset          string
	DecodeSlash      bool
	CollectionFormat metadata.CollectionFormat

	resolved   bool
	resolvedRq *Resolved
}

// New builds an unresolved Template from a path-only URI template string; it
// carries no declared query parameters.
func New(method, uriTemplate string, format metadata.CollectionFormat) (*Template, error) {
	tpl, err := uritemplate.Parse(uriTemplate, uritemplate.PathSegment)
	if err != nil {
		return nil, err
	}
	return &Template{
		Method:           method,
		uriTemplate:      tpl,
		uriSource:        uriTemplate,
		queries:          map[string]*Query{},
		headers:          NewHeaderMap(),
		Charset:          "UTF-8",
		DecodeSlash:      true,
		CollectionFormat: format,
	}, nil
}

// NewFromRequestLine splits uriTemplate on its first '?' outside any
// {expression} into a
// path and a query string, parsing the query string's `&`-separated
// `name={expr}` pairs into declared Query parameters. This is how a request
// line such as "GET /search?tag={tags}" (the whole URI in one metadata
// field, per the operation metadata's URITemplate) becomes a Template with
// both a path and its declared query parameters.
func NewFromRequestLine(method, uriTemplate string, format metadata.CollectionFormat) (*Template, error) {
	path, query := splitQuery(uriTemplate)
	t, err := New(method, path, format)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return t, nil
	}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		name, value, hasValue := strings.Cut(pair, "=")
		var q *Query
		var err error
		if hasValue {
			q, err = NewQuery(name, []string{value}, format)
		} else {
			q, err = NewQuery(name, nil, format)
		}
		if err != nil {
			return nil, fmt.Errorf("reqtemplate: parsing declared query %q: %w", pair, err)
		}
		if err := t.SetQuery(q, name); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// splitQuery finds the first '?' not nested inside an unresolved
// {expression}, mirroring queryStringPresent's brace-depth tracking.
func splitQuery(uriTemplate string) (path, query string) {
	depth := 0
	for i := 0; i < len(uriTemplate); i++ {
		switch uriTemplate[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '?':
			if depth == 0 {
				return uriTemplate[:i], uriTemplate[i+1:]
			}
		}
	}
	return uriTemplate, ""
}

// Clone returns a deep-enough copy for a single invocation: the immutable
// uritemplate.Template values are shared, but the query/header collections
// and resolved state are independent.
func (t *Template) Clone() *Template {
	c := &Template{
		Target:           t.Target,
		uriTemplate:      t.uriTemplate,
		uriSource:        t.uriSource,
		queries:          make(map[string]*Query, len(t.queries)),
		headers:          t.headers.Clone(),
		body:             t.body,
		Method:           t.Method,
		Charset:          t.Charset,
		DecodeSlash:      t.DecodeSlash,
		CollectionFormat: t.CollectionFormat,
	}
	c.queryOrder = append(c.queryOrder, t.queryOrder...)
	for k, v := range t.queries {
		c.queries[k] = v
	}
	return c
}

func (t *Template) checkMutable() error {
	if t.resolved {
		return ErrResolved
	}
	return nil
}

// SetTarget sets the absolute base URL prepended to the resolved path. It is
// how target strategies (§4.8) inject a base URL before each attempt.
func (t *Template) SetTarget(target string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.Target = target
	return nil
}

// SetQuery replaces (or adds) the named query parameter.
func (t *Template) SetQuery(q *Query, name string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if _, exists := t.queries[name]; !exists {
		t.queryOrder = append(t.queryOrder, name)
	}
	t.queries[name] = q
	return nil
}

// AppendQueryValue appends a raw value to an existing query parameter, or
// to a new one using the Template's CollectionFormat.
func (t *Template) AppendQueryValue(name, value string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	q, exists := t.queries[name]
	if exists {
		cp := *q
		cp.values = append([]*uritemplate.Template(nil), q.values...)
		q = &cp
	} else {
		var err error
		q, err = NewQuery(name, nil, t.CollectionFormat)
		if err != nil {
			return err
		}
		t.queryOrder = append(t.queryOrder, name)
	}
	q.AppendLiteral(value)
	t.queries[name] = q
	return nil
}

// RemoveQuery drops a query parameter entirely; used when a caller sets a
// query-map value to empty.
func (t *Template) RemoveQuery(name string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	if _, exists := t.queries[name]; !exists {
		return nil
	}
	delete(t.queries, name)
	for i, n := range t.queryOrder {
		if n == name {
			t.queryOrder = append(t.queryOrder[:i], t.queryOrder[i+1:]...)
			break
		}
	}
	return nil
}

// SetHeader replaces (or adds) the named header's value templates.
func (t *Template) SetHeader(name string, h *Header) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.headers.Set(name, h)
	return nil
}

// AppendHeaderValue appends a raw, already-resolved value to a header; the
// template builder uses it to add a Content-Type.
func (t *Template) AppendHeaderValue(name, value string) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	h := &Header{}
	if existing := t.headers.Get(name); existing != nil {
		h.values = append(h.values, existing.values...)
	}
	h.values = append(h.values, uritemplate.Literal(value))
	t.headers.Set(name, h)
	return nil
}

// Header returns the raw Header entry for name (case-insensitive), or nil.
func (t *Template) Header(name string) *Header { return t.headers.Get(name) }

// SetBody replaces the body template.
func (t *Template) SetBody(b *Body) error {
	if err := t.checkMutable(); err != nil {
		return err
	}
	t.body = b
	return nil
}

// URITemplateString returns the original path template source, e.g. for
// interceptors that need to inspect it before resolution.
func (t *Template) URITemplateString() string { return t.uriSource }

// Resolved is the immutable output of Resolve.
type Resolved struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
	Charset string
}

// Request builds a *http.Request from a Resolved value.
func (r *Resolved) Request(ctx context.Context) (*http.Request, error) {
	var body *bytes.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, r.Method, r.URL, nil)
	}
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if len(r.Body) > 0 {
		req.Header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	return req, nil
}

// Resolve expands the URI, query, header, and body templates against vars
// and freezes the Template. Mutating after resolution returns ErrResolved;
// calling Resolve again returns the first result and ignores the new vars.
func (t *Template) Resolve(vars map[string]interface{}) (*Resolved, error) {
	if t.resolved {
		return t.resolvedRq, nil
	}

	path, err := t.uriTemplate.Expand(vars, uritemplate.AllowUnresolved)
	if err != nil {
		return nil, fmt.Errorf("reqtemplate: resolving path: %w", err)
	}
	if !t.DecodeSlash {
		path = strings.ReplaceAll(path, "%2F", "%252F")
	}

	url := t.Target + path
	hasQuery := queryStringPresent(url)

	var queryParts []string
	for _, name := range t.queryOrder {
		q := t.queries[name]
		rendered, ok, err := q.Expand(vars)
		if err != nil {
			return nil, fmt.Errorf("reqtemplate: resolving query %q: %w", name, err)
		}
		if ok {
			queryParts = append(queryParts, rendered)
		}
	}
	if len(queryParts) > 0 {
		sep := "?"
		if hasQuery {
			sep = "&"
		}
		url += sep + strings.Join(queryParts, "&")
	}

	headers := http.Header{}
	for _, name := range t.headers.Names() {
		h := t.headers.Get(name)
		values, ok, err := h.Expand(vars)
		if err != nil {
			return nil, fmt.Errorf("reqtemplate: resolving header %q: %w", name, err)
		}
		if ok {
			headers[name] = values
		}
	}

	bodyBytes, err := t.body.expand(vars)
	if err != nil {
		return nil, fmt.Errorf("reqtemplate: resolving body: %w", err)
	}

	charset := t.Charset
	if t.body != nil && t.body.Charset != "" {
		charset = t.body.Charset
	}

	t.resolvedRq = &Resolved{
		Method:  t.Method,
		URL:     url,
		Headers: headers,
		Body:    bodyBytes,
		Charset: charset,
	}
	t.resolved = true
	return t.resolvedRq, nil
}

// Request returns the concrete *http.Request for an already-resolved
// Template. It fails with ErrUnresolved if Resolve has not been called.
func (t *Template) Request(ctx context.Context) (*http.Request, error) {
	if !t.resolved {
		return nil, ErrUnresolved
	}
	return t.resolvedRq.Request(ctx)
}

// queryStringPresent detects a literal '?' in url that is not part of an
// unresolved {expression}, i.e. not preceded by an open brace with no
// matching close yet.
func queryStringPresent(url string) bool {
	depth := 0
	for i := 0; i < len(url); i++ {
		switch url[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '?':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}
