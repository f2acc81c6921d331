// Package contract walks a normalized interface description and produces
// one metadata.Method per declared operation, enforcing the invariants a
// malformed declaration would otherwise only surface at invocation time.
//
// Description is deliberately not an annotation/tag reader: per the
// "alternative front-ends" design note, annotations are one possible
// surface for this data, and a declarative config record (what Description
// is) is another. Both should produce identical metadata.Method values.
package contract

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/go-kit/feign/metadata"
	"github.com/go-kit/feign/uritemplate"
)

// validate runs the struct-tag checks on a Description that are cheaper to
// express declaratively than by hand in Parse: a nameless interface or a
// nameless HTTP operation is rejected before any of the per-operation
// parsing below ever runs.
var validate = validator.New()

// descriptionShape and operationShape mirror the struct-tag-checkable
// fields of Description/OperationSpec; Parse validates through these rather
// than tagging the public types themselves, since Description/OperationSpec
// are also filled in by hand in tests where validator's zero-value
// semantics would be awkward to satisfy for fields Parse itself defaults.
type descriptionShape struct {
	Name string `validate:"required"`
}

type operationShape struct {
	Name        string `validate:"required"`
	RequestLine string `validate:"required"`
}

// ParamKind classifies one operation parameter.
type ParamKind int

const (
	// ParamUntagged carries no explicit binding. The parser classifies it
	// as the body argument unless a body template or body index is already
	// set, per §4.4's parameter-level fallback rule.
	ParamUntagged ParamKind = iota
	// ParamNamed binds argv[Index] to one or more {name} expressions.
	ParamNamed
	// ParamQueryMap merges argv[Index] (a map[string]V) into the query
	// string after resolution.
	ParamQueryMap
	// ParamHeaderMap merges argv[Index] into the headers after resolution.
	ParamHeaderMap
	// ParamURI supplies an absolute base URI overriding the target.
	ParamURI
	// ParamOptions marks a per-call options argument; its index is recorded
	// in metadata.Method.OptionsIndex, which the invocation pipeline does
	// not read.
	ParamOptions
	// ParamBody explicitly designates the request body argument.
	ParamBody
)

// ParamSpec describes one operation parameter.
type ParamSpec struct {
	Index    int
	Kind     ParamKind
	Name     string
	Encoded  bool
	Expander metadata.Expander
	Type     reflect.Type
}

// OperationSpec describes one declared operation before parsing.
type OperationSpec struct {
	// Name identifies the operation within its interface, e.g. the method
	// signature "contributors(String,String)"; combined with the
	// interface name to form the operation's configKey.
	Name string

	// RequestLine is "METHOD uri-template", e.g.
	// "GET /repos/{owner}/{repo}/contributors". Empty for Default.
	RequestLine string
	Headers     []string
	Body        string

	ReturnType       reflect.Type
	Params           []ParamSpec
	DecodeSlash      bool
	HasDecodeSlash   bool
	CollectionFormat metadata.CollectionFormat

	// Default marks a default-method operation carrying its own
	// implementation; it is skipped by the HTTP pipeline entirely (§4.6).
	Default bool
	// Static marks a static operation, also skipped.
	Static bool
}

// Description is one interface's normalized declaration.
type Description struct {
	Name       string
	Super      *Description
	Headers    []string
	Operations []OperationSpec
}

// Parsed is the output of Parse: metadata for every HTTP operation plus the
// names of default operations, which a caller binds directly (e.g. via
// Client.BindStatic) instead of through the HTTP pipeline.
type Parsed struct {
	Methods           []*metadata.Method
	DefaultOperations []string
}

var requestLinePattern = regexp.MustCompile(`^([A-Z]+)\s*(.*)$`)

// Error is a contract (parse-time) error, distinguished from the runtime
// error taxonomy so builder construction can fail fast.
type Error struct {
	Interface string
	Operation string
	Reason    string
}

func (e *Error) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("contract: %s: %s", e.Interface, e.Reason)
	}
	return fmt.Sprintf("contract: %s#%s: %s", e.Interface, e.Operation, e.Reason)
}

func fail(iface, op, reason string, args ...interface{}) error {
	return &Error{Interface: iface, Operation: op, Reason: fmt.Sprintf(reason, args...)}
}

// Parse validates d and produces its metadata.
func Parse(d Description) (*Parsed, error) {
	if err := validate.Struct(descriptionShape{Name: d.Name}); err != nil {
		return nil, fail(d.Name, "", "interface name is required: %v", err)
	}
	if d.Super != nil && d.Super.Super != nil {
		return nil, fail(d.Name, "", "at most one super-interface is permitted, and it must itself have none")
	}

	classHeaders := mergeHeaders(nil, d.Super, &d)

	seen := map[string]bool{}
	p := &Parsed{}

	allOps := append(append([]OperationSpec{}, superOps(d.Super)...), d.Operations...)
	for _, op := range allOps {
		key := d.Name + "#" + op.Name
		if seen[key] {
			return nil, fail(d.Name, op.Name, "duplicate configKey across super-interface and interface (overrides are not permitted)")
		}
		seen[key] = true

		if op.Static {
			continue
		}
		if op.Default {
			p.DefaultOperations = append(p.DefaultOperations, op.Name)
			continue
		}
		if err := validate.Struct(operationShape{Name: op.Name, RequestLine: op.RequestLine}); err != nil {
			return nil, fail(d.Name, op.Name, "operation name and request line are required: %v", err)
		}

		m, err := parseOperation(d.Name, op, classHeaders)
		if err != nil {
			return nil, err
		}
		p.Methods = append(p.Methods, m)
	}

	return p, nil
}

func superOps(super *Description) []OperationSpec {
	if super == nil {
		return nil
	}
	return super.Operations
}

// mergeHeaders applies super-interface headers first, then the interface's
// own class-level headers, later entries overriding earlier ones by header
// name (case-insensitively) — the header precedence policy applied one
// level up here for class-level inheritance and again in parseOperation
// for method-over-class.
func mergeHeaders(base map[string][]string, super, self *Description) map[string][]string {
	merged := map[string][]string{}
	order := map[string]string{}
	apply := func(headers []string) {
		for _, h := range headers {
			name, value, ok := strings.Cut(h, ":")
			if !ok {
				continue
			}
			name = strings.TrimSpace(name)
			value = strings.TrimSpace(value)
			key := strings.ToLower(name)
			order[key] = name
			merged[key] = append(merged[key][:0:0], value)
		}
	}
	if super != nil {
		apply(super.Headers)
	}
	if self != nil {
		apply(self.Headers)
	}
	out := map[string][]string{}
	for key, values := range merged {
		out[order[key]] = values
	}
	return out
}

func parseOperation(ifaceName string, op OperationSpec, classHeaders map[string][]string) (*metadata.Method, error) {
	m := metadata.New(ifaceName + "#" + op.Name)
	m.ReturnType = op.ReturnType
	m.DecodeSlash = true
	if op.HasDecodeSlash {
		m.DecodeSlash = op.DecodeSlash
	}
	m.CollectionFormat = op.CollectionFormat

	match := requestLinePattern.FindStringSubmatch(strings.TrimSpace(op.RequestLine))
	if err := mustBeTrue(ifaceName, op.Name, match != nil && match[1] != "",
		"missing HTTP method in request line %q", op.RequestLine); err != nil {
		return nil, err
	}
	m.HTTPMethod = match[1]
	m.URITemplate = match[2]

	// Method-level headers override class-level headers by name,
	// case-insensitively.
	byLower := map[string]string{}
	headers := map[string][]string{}
	setHeader := func(name string, values []string) {
		lower := strings.ToLower(name)
		if existing, ok := byLower[lower]; ok {
			delete(headers, existing)
		}
		byLower[lower] = name
		headers[name] = values
	}
	for name, values := range classHeaders {
		setHeader(name, append([]string(nil), values...))
	}
	for name, values := range selfHeaders(op.Headers) {
		setHeader(name, values)
	}
	m.Headers = headers

	if op.Body != "" {
		m.BodyTemplate = op.Body
	}

	uriNames, err := expressionNames(m.URITemplate)
	if err != nil {
		return nil, fail(ifaceName, op.Name, "parsing request line: %v", err)
	}
	headerNames := map[string]bool{}
	for _, values := range headers {
		for _, v := range values {
			names, err := expressionNames(v)
			if err != nil {
				return nil, fail(ifaceName, op.Name, "parsing header value %q: %v", v, err)
			}
			for n := range names {
				headerNames[n] = true
			}
		}
	}

	var untagged *ParamSpec
	for i := range op.Params {
		p := &op.Params[i]
		switch p.Kind {
		case ParamQueryMap:
			if m.QueryMapIndex != metadata.NoIndex {
				return nil, fail(ifaceName, op.Name, "at most one QueryMap argument is permitted")
			}
			if p.Type != nil && (p.Type.Kind() != reflect.Map || p.Type.Key().Kind() != reflect.String) {
				return nil, fail(ifaceName, op.Name, "QueryMap argument must have a string key type")
			}
			m.QueryMapIndex = p.Index
			m.QueryMapEncoded = p.Encoded

		case ParamHeaderMap:
			if m.HeaderMapIndex != metadata.NoIndex {
				return nil, fail(ifaceName, op.Name, "at most one HeaderMap argument is permitted")
			}
			if p.Type != nil && (p.Type.Kind() != reflect.Map || p.Type.Key().Kind() != reflect.String) {
				return nil, fail(ifaceName, op.Name, "HeaderMap argument must have a string key type")
			}
			m.HeaderMapIndex = p.Index

		case ParamURI:
			if m.URIIndex != metadata.NoIndex {
				return nil, fail(ifaceName, op.Name, "at most one URI argument is permitted")
			}
			m.URIIndex = p.Index

		case ParamOptions:
			m.OptionsIndex = p.Index

		case ParamBody:
			if m.BodyIndex != metadata.NoIndex || m.BodyTemplate != "" {
				return nil, fail(ifaceName, op.Name, "at most one body source is permitted")
			}
			m.BodyIndex = p.Index
			m.BodyType = p.Type

		case ParamNamed:
			if err := mustNotBlank(ifaceName, op.Name, p.Name,
				"named parameter at index %d has no name", p.Index); err != nil {
				return nil, err
			}
			m.IndexToName[p.Index] = append(m.IndexToName[p.Index], p.Name)
			if p.Expander != nil {
				m.IndexToExpander[p.Index] = p.Expander
			}
			if uriNames[p.Name] || headerNames[p.Name] {
				continue
			}
			m.FormParams = append(m.FormParams, p.Name)

		case ParamUntagged:
			if untagged != nil {
				return nil, fail(ifaceName, op.Name, "at most one untagged (body-fallback) argument is permitted")
			}
			untagged = p
		}
	}

	if untagged != nil {
		if m.BodyIndex == metadata.NoIndex && m.BodyTemplate == "" {
			m.BodyIndex = untagged.Index
			m.BodyType = untagged.Type
		} else {
			return nil, fail(ifaceName, op.Name, "untagged argument at index %d found no role: body is already bound", untagged.Index)
		}
	}

	if m.BodyIndex != metadata.NoIndex && len(m.FormParams) > 0 {
		return nil, fail(ifaceName, op.Name, "Body parameters cannot be used with form parameters")
	}

	for name := range uriNames {
		if !boundSomewhere(m, name) {
			return nil, fail(ifaceName, op.Name, "URI variable %q is not bound by any parameter", name)
		}
	}

	return m, nil
}

func boundSomewhere(m *metadata.Method, name string) bool {
	for _, names := range m.IndexToName {
		for _, n := range names {
			if n == name {
				return true
			}
		}
	}
	return m.QueryMapIndex != metadata.NoIndex
}

// selfHeaders indexes method-level "Name: value" headers by their original
// (non-lower-cased) name, matching classHeaders' key shape; parseOperation's
// setHeader then applies them over the class-level entries by lower-cased
// name.
func selfHeaders(headers []string) map[string][]string {
	out := map[string][]string{}
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(name)] = []string{strings.TrimSpace(value)}
	}
	return out
}

func expressionNames(s string) (map[string]bool, error) {
	tpl, err := uritemplate.Parse(s, uritemplate.Query)
	if err != nil {
		return nil, err
	}
	out := map[string]bool{}
	for _, n := range tpl.Names() {
		out[n] = true
	}
	return out, nil
}
