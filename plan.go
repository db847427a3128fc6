package typroxy

import (
	"encoding"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/broady/typroxy/routetemplate"
	"github.com/gorilla/schema"
)

var queryEncoder = newQueryEncoder()

func newQueryEncoder() *schema.Encoder {
	enc := schema.NewEncoder()
	enc.SetAliasTag("json")
	return enc
}

// RequestPlan is what a dispatch layer needs to issue one call. Planning
// performs no I/O and does not serialize the body.
type RequestPlan struct {
	Method string

	// Path is relative to the region's base address and has no leading
	// separator.
	Path        string
	Query       url.Values
	Header      http.Header
	ContentType string

	// Timeout is zero when the operation declares none.
	Timeout time.Duration

	// Body holds the arguments bound to the request body, by property
	// name. It is empty for GET and DELETE.
	Body map[string]any
}

// Plan resolves the operation under the contract's base route for one
// call, with one argument per declared parameter.
func (c *ContractDescriptor) Plan(operation string, args ...any) (*RequestPlan, error) {
	op, ok := c.Operation(operation)
	if !ok {
		return nil, Errorf(CodeUnknownOperation, "no operation %q", operation).at(c.qualifiedName, operation)
	}
	return op.Plan(c.route, args...)
}

// Plan resolves the operation for one call under route.
//
// Template parameters take the leading arguments positionally for PUT and
// the argument with the matching property name otherwise. Remaining
// arguments go to the query for GET and DELETE, composite ones encoded
// field by field, and to Body for POST and PUT.
func (o *OperationDescriptor) Plan(route string, args ...any) (*RequestPlan, error) {
	fail := func(err *Error) (*RequestPlan, error) {
		return nil, err.at(o.contract, o.id.Name)
	}
	if len(args) != len(o.params) {
		return fail(Errorf(CodeInvalidArgument, "got %d arguments, want %d", len(args), len(o.params)))
	}

	plan := &RequestPlan{
		Method:      o.verb.String(),
		Query:       url.Values{},
		Header:      make(http.Header, len(o.headers)),
		ContentType: o.contentType,
		Body:        make(map[string]any),
	}
	for name, value := range o.headers {
		plan.Header.Set(name, value)
	}
	if o.hasTimeout {
		plan.Timeout = o.timeout
	}

	bound := make([]bool, len(args))
	values := make(map[string]string, len(o.templateParameterKeys))
	for i, key := range o.templateParameterKeys {
		idx := i
		if o.verb != VerbPut {
			idx = o.paramIndex(key)
		}
		if idx < 0 || idx >= len(args) {
			if part, _ := o.routeTemplate.Parameter(key); part.IsOptional || part.Default != "" {
				continue
			}
			return fail(Errorf(CodeInvalidArgument, "no argument binds route parameter %q", key).param(key))
		}
		s, ok, err := formatSimple(args[idx])
		if err != nil {
			return fail(Errorf(CodeInvalidArgument, "route parameter %q: %w", key, err).param(key))
		}
		if ok {
			values[key] = s
		}
		bound[idx] = true
	}

	path := o.id.Name
	if o.routeTemplate != nil {
		path = expandTemplate(o.routeTemplate.Segments, values)
	}
	plan.Path = joinRoute(route, path)

	for i, md := range o.params {
		if bound[i] {
			continue
		}
		if o.verb == VerbPost || o.verb == VerbPut {
			plan.Body[md.PropertyName] = args[i]
			continue
		}
		if md.IsSimpleType {
			if s, ok, err := formatSimple(args[i]); err != nil {
				return fail(Errorf(CodeInvalidArgument, "parameter %q: %w", md.PropertyName, err).param(md.PropertyName))
			} else if ok {
				plan.Query.Add(md.PropertyName, s)
			}
			continue
		}
		if isNil(args[i]) {
			continue
		}
		if err := queryEncoder.Encode(args[i], plan.Query); err != nil {
			return fail(Errorf(CodeInvalidArgument, "parameter %q: %w", md.PropertyName, err).param(md.PropertyName))
		}
	}
	return plan, nil
}

func (o *OperationDescriptor) paramIndex(name string) int {
	for i, md := range o.params {
		if md.PropertyName == name {
			return i
		}
	}
	return -1
}

// expandTemplate writes the segments with parameter values substituted.
// A missing optional parameter that ends a segment takes the literal
// separator before it along, so "{name}.{ext?}" expands to "x", not "x.".
// Segments left empty by missing optional parameters are dropped.
func expandTemplate(segments []routetemplate.Segment, values map[string]string) string {
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts := make([]string, 0, len(seg.Parts))
		for i, part := range seg.Parts {
			switch {
			case part.IsLiteral:
				texts = append(texts, part.Text)
			case part.IsParameter:
				v, ok := values[part.Name]
				if !ok {
					v = part.Default
				}
				if v == "" && part.IsOptional && i == len(seg.Parts)-1 && i > 0 && seg.Parts[i-1].IsLiteral {
					texts = texts[:len(texts)-1]
					continue
				}
				if part.IsCatchAll {
					texts = append(texts, escapeCatchAll(v))
				} else {
					texts = append(texts, url.PathEscape(v))
				}
			}
		}
		if text := strings.Join(texts, ""); text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "/")
}

func escapeCatchAll(v string) string {
	parts := strings.Split(v, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func joinRoute(route, path string) string {
	route = strings.Trim(route, "/")
	path = strings.Trim(path, "/")
	switch {
	case route == "":
		return path
	case path == "":
		return route
	default:
		return route + "/" + path
	}
}

// formatSimple renders a simple argument as text. ok is false for nil.
func formatSimple(v any) (s string, ok bool, err error) {
	if isNil(v) {
		return "", false, nil
	}
	if tm, isText := v.(encoding.TextMarshaler); isText {
		b, err := tm.MarshalText()
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true, nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true, nil
	}
	if tm, isText := rv.Interface().(encoding.TextMarshaler); isText {
		b, err := tm.MarshalText()
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	}
	return "", false, fmt.Errorf("%T is not a simple value", v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
