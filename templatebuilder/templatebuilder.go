// Package templatebuilder turns an argument vector into a resolved
// reqtemplate.Resolved request, following one of three binding strategies
// chosen by the contract parser per operation: plain, form-encoded, or
// body-encoded.
package templatebuilder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-kit/feign/metadata"
	"github.com/go-kit/feign/reqtemplate"
	"github.com/go-kit/feign/uritemplate"
)

// Encoder serializes a Go value into request body bytes, e.g. JSON. It is
// the pluggable seam transport/http exposes as EncodeRequestFunc, generalized
// here to cover both the form-encoded and body-encoded builder variants.
type Encoder interface {
	Encode(v interface{}) ([]byte, string, error)
}

// Builder binds one operation's metadata + an argument vector into a
// resolved request.
type Builder struct {
	method      *metadata.Method
	template    *reqtemplate.Template
	formEncoder Encoder
	bodyEncoder Encoder
}

// New constructs a Builder from method metadata and a template pre-parsed
// from the operation's URI (method metadata is immutable and shared across
// invocations; the Builder clones its template per Build call).
func New(method *metadata.Method, template *reqtemplate.Template, formEncoder, bodyEncoder Encoder) *Builder {
	return &Builder{method: method, template: template, formEncoder: formEncoder, bodyEncoder: bodyEncoder}
}

// Build runs the shared clone → bind → resolve → merge-maps algorithm
// against argv in one step. Callers that need the target strategy applied
// per-attempt (e.g. invocation.Handler) should use Bind and MergeMaps
// directly instead, resolving in between.
func (b *Builder) Build(argv []interface{}) (*reqtemplate.Resolved, error) {
	tpl, vars, err := b.Bind(argv)
	if err != nil {
		return nil, err
	}
	resolved, err := tpl.Resolve(vars)
	if err != nil {
		return nil, err
	}
	if err := b.MergeMaps(resolved, argv); err != nil {
		return nil, err
	}
	return resolved, nil
}

// Bind clones the operation's template and binds argv into it: the URI
// override (if any), the body (literal, form-encoded, or body-encoded), and
// returns the variable map Resolve needs. The returned template is not yet
// resolved, so a caller may still run interceptors and a target strategy
// against it first.
func (b *Builder) Bind(argv []interface{}) (*reqtemplate.Template, map[string]interface{}, error) {
	tpl := b.template.Clone()
	m := b.method

	if m.URIIndex != metadata.NoIndex {
		uri, err := stringify(argv[m.URIIndex])
		if err != nil {
			return nil, nil, fmt.Errorf("templatebuilder: URI argument: %w", err)
		}
		if err := tpl.SetTarget(uri); err != nil {
			return nil, nil, err
		}
	}

	vars := map[string]interface{}{}
	formValues := map[string]interface{}{}
	formSet := map[string]bool{}
	for _, name := range m.FormParams {
		formSet[name] = true
	}
	for index, names := range m.IndexToName {
		value := argv[index]
		if expander, ok := m.IndexToExpander[index]; ok {
			expanded, err := expander(value)
			if err != nil {
				return nil, nil, fmt.Errorf("templatebuilder: expanding argument %d: %w", index, err)
			}
			value = expanded
		}
		for _, name := range names {
			vars[name] = value
			if formSet[name] {
				formValues[name] = value
			}
		}
	}

	if m.BodyTemplate != "" {
		// body comes from the already-parsed body template in tpl; nothing
		// further to bind here beyond the shared vars map used at Resolve.
	} else if m.BodyIndex != metadata.NoIndex {
		encoder := b.bodyEncoder
		if encoder == nil {
			encoder = JSONEncoder{}
		}
		encoded, contentType, err := encoder.Encode(argv[m.BodyIndex])
		if err != nil {
			return nil, nil, fmt.Errorf("templatebuilder: encoding body: %w", err)
		}
		if err := tpl.SetBody(reqtemplate.NewLiteralBody(encoded, tpl.Charset)); err != nil {
			return nil, nil, err
		}
		if tpl.Header("Content-Type") == nil {
			if err := tpl.AppendHeaderValue("Content-Type", contentType); err != nil {
				return nil, nil, err
			}
		}
	} else if m.IsFormEncoded() {
		encoder := b.formEncoder
		if encoder == nil {
			encoder = FormEncoder{}
		}
		encoded, contentType, err := encoder.Encode(formValues)
		if err != nil {
			return nil, nil, fmt.Errorf("templatebuilder: encoding form: %w", err)
		}
		if err := tpl.SetBody(reqtemplate.NewLiteralBody(encoded, tpl.Charset)); err != nil {
			return nil, nil, err
		}
		if tpl.Header("Content-Type") == nil {
			if err := tpl.AppendHeaderValue("Content-Type", contentType); err != nil {
				return nil, nil, err
			}
		}
	}

	return tpl, vars, nil
}

// MergeMaps merges the operation's query-map/header-map arguments (if any)
// into an already-resolved request. Map entries are added after the
// declared query parameters and headers; a declared entry with the same
// name is kept, so both appear in the request.
func (b *Builder) MergeMaps(resolved *reqtemplate.Resolved, argv []interface{}) error {
	m := b.method

	if m.QueryMapIndex != metadata.NoIndex {
		queryMap, err := toStringMap(argv[m.QueryMapIndex])
		if err != nil {
			return fmt.Errorf("templatebuilder: query map: %w", err)
		}
		resolved.URL = mergeQueryMap(resolved.URL, queryMap, m.QueryMapEncoded)
	}

	if m.HeaderMapIndex != metadata.NoIndex {
		headerMap, err := toStringSliceMap(argv[m.HeaderMapIndex])
		if err != nil {
			return fmt.Errorf("templatebuilder: header map: %w", err)
		}
		for name, values := range headerMap {
			for _, v := range values {
				resolved.Headers.Add(name, v)
			}
		}
	}

	return nil
}

func stringify(v interface{}) (string, error) {
	if v == nil {
		return "", fmt.Errorf("templatebuilder: nil value where a string was required")
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return fmt.Sprint(v), nil
}

func toStringMap(v interface{}) (map[string]string, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]string); ok {
		return m, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("expected a map[string]V, got %T", v)
	}
	out := make(map[string]string, rv.Len())
	for _, key := range rv.MapKeys() {
		val, err := stringify(rv.MapIndex(key).Interface())
		if err != nil {
			return nil, err
		}
		out[key.String()] = val
	}
	return out, nil
}

func toStringSliceMap(v interface{}) (map[string][]string, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string][]string); ok {
		return m, nil
	}
	flat, err := toStringMap(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(flat))
	for k, val := range flat {
		out[k] = []string{val}
	}
	return out, nil
}

// mergeQueryMap appends queryMap's entries onto an already-resolved URL,
// after any query parameters already in it; a parameter of the same name
// already in the URL is not removed. Values are percent-encoded unless
// encoded is true. An entry with an empty value is skipped; it does not
// remove a parameter of that name already in the URL.
func mergeQueryMap(url string, queryMap map[string]string, encoded bool) string {
	hasQuery := strings.Contains(url, "?")
	for name, value := range queryMap {
		if value == "" {
			continue
		}
		v := value
		if !encoded {
			v = uritemplate.Encode(value, uritemplate.Query)
		}
		sep := "?"
		if hasQuery {
			sep = "&"
		}
		url += sep + uritemplate.Encode(name, uritemplate.Query) + "=" + v
		hasQuery = true
	}
	return url
}
