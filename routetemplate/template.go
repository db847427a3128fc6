// Package routetemplate parses route templates into literal and parameter parts.
//
// Templates use the familiar brace syntax:
//
//	items/{id}
//	files/{name}.{ext?}
//	search/{term:minlength(2)}/{page=1}
//	assets/{*path}
//
// Segments are separated by "/". Within a segment, literal text and
// parameters alternate; two parameters may not be adjacent. Braces are
// escaped by doubling them ("{{" and "}}").
package routetemplate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidTemplate is wrapped by every error returned from Parse.
var ErrInvalidTemplate = errors.New("invalid route template")

// Part is either literal text or a named parameter within a segment.
type Part struct {
	IsLiteral   bool
	IsParameter bool

	// Text is the literal text. Empty for parameters.
	Text string

	// Name is the parameter name. Empty for literals.
	Name        string
	IsOptional  bool
	IsCatchAll  bool
	Default     string
	Constraints []string
}

// Segment is the text between two separators.
type Segment struct {
	Parts []Part
}

// Template is a parsed route template.
type Template struct {
	// Raw is the template string as passed to Parse.
	Raw      string
	Segments []Segment

	// Parameters lists every parameter part in template order.
	Parameters []Part
}

// ParameterNames returns the parameter names in segment order, then part order.
func (t *Template) ParameterNames() []string {
	var names []string
	for _, seg := range t.Segments {
		for _, p := range seg.Parts {
			if p.IsParameter {
				names = append(names, p.Name)
			}
		}
	}
	return names
}

// Literals returns the literal texts of every segment in order.
func (t *Template) Literals() []string {
	var lits []string
	for _, seg := range t.Segments {
		for _, p := range seg.Parts {
			if p.IsLiteral {
				lits = append(lits, p.Text)
			}
		}
	}
	return lits
}

// Parameter returns the parameter part with the given name.
func (t *Template) Parameter(name string) (Part, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Part{}, false
}

// Clone returns a deep copy of t.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := &Template{
		Raw:        t.Raw,
		Segments:   make([]Segment, len(t.Segments)),
		Parameters: clonePartList(t.Parameters),
	}
	for i, seg := range t.Segments {
		out.Segments[i] = Segment{Parts: clonePartList(seg.Parts)}
	}
	return out
}

func clonePartList(parts []Part) []Part {
	if parts == nil {
		return nil
	}
	out := make([]Part, len(parts))
	for i, p := range parts {
		p.Constraints = slices.Clone(p.Constraints)
		out[i] = p
	}
	return out
}

// Parse parses a route template. A leading "/" or "~/" and a single
// trailing "/" are ignored. An empty template parses to a Template with
// no segments.
func Parse(template string) (*Template, error) {
	t := &Template{Raw: template}

	body := template
	switch {
	case strings.HasPrefix(body, "~/"):
		body = body[2:]
	case strings.HasPrefix(body, "/"):
		body = body[1:]
	}
	body = strings.TrimSuffix(body, "/")
	if body == "" {
		return t, nil
	}
	raw, err := splitSegments(body)
	if err != nil {
		return nil, invalid(template, err.Error())
	}

	seen := make(map[string]bool)
	for i, s := range raw {
		if s == "" {
			return nil, invalid(template, "separator '/' cannot appear consecutively")
		}
		parts, err := parseSegment(s)
		if err != nil {
			return nil, invalid(template, err.Error())
		}
		for _, p := range parts {
			if !p.IsParameter {
				continue
			}
			key := strings.ToLower(p.Name)
			if seen[key] {
				return nil, invalid(template, fmt.Sprintf("parameter %q appears more than once", p.Name))
			}
			seen[key] = true
			if p.IsCatchAll && i != len(raw)-1 {
				return nil, invalid(template, fmt.Sprintf("catch-all parameter %q must be in the last segment", p.Name))
			}
			if p.IsCatchAll && len(parts) > 1 {
				return nil, invalid(template, fmt.Sprintf("catch-all parameter %q must be alone in its segment", p.Name))
			}
			t.Parameters = append(t.Parameters, p)
		}
		t.Segments = append(t.Segments, Segment{Parts: parts})
	}
	return t, nil
}

func invalid(template, reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidTemplate, template, reason)
}

// splitSegments splits on '/' outside of parameter braces.
func splitSegments(s string) ([]string, error) {
	var segs []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if depth == 0 && i+1 < len(s) && s[i+1] == '{' {
				i++
				continue
			}
			depth++
		case '}':
			if depth == 0 {
				if i+1 < len(s) && s[i+1] == '}' {
					i++
					continue
				}
				return nil, errors.New("unbalanced '}'")
			}
			depth--
		case '/':
			if depth == 0 {
				segs = append(segs, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced '{'")
	}
	return append(segs, s[start:]), nil
}

func parseSegment(s string) ([]Part, error) {
	var parts []Part
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, Part{IsLiteral: true, Text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			lit.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			lit.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, errors.New("unbalanced '{'")
			}
			inner := s[i+1 : i+1+end]
			if strings.ContainsRune(inner, '{') {
				return nil, errors.New("nested '{' inside a parameter")
			}
			flush()
			if n := len(parts); n > 0 && parts[n-1].IsParameter {
				return nil, fmt.Errorf("parameters %q and %q must be separated by literal text", parts[n-1].Name, inner)
			}
			p, err := parseParameter(inner)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
			i += end + 2
		case c == '}':
			return nil, errors.New("unbalanced '}'")
		case c == '?':
			return nil, errors.New("query strings are not allowed")
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return parts, nil
}

func parseParameter(inner string) (Part, error) {
	p := Part{IsParameter: true}
	body := strings.TrimSpace(inner)

	switch {
	case strings.HasPrefix(body, "**"):
		p.IsCatchAll = true
		body = body[2:]
	case strings.HasPrefix(body, "*"):
		p.IsCatchAll = true
		body = body[1:]
	}

	if head, def, ok := strings.Cut(body, "="); ok {
		body = head
		p.Default = def
	}
	if strings.HasSuffix(body, "?") {
		p.IsOptional = true
		body = strings.TrimSuffix(body, "?")
	}

	name, constraints, _ := strings.Cut(body, ":")
	if constraints != "" {
		p.Constraints = strings.Split(constraints, ":")
	}
	p.Name = strings.TrimSpace(name)

	switch {
	case p.Name == "":
		return Part{}, errors.New("parameter name cannot be empty")
	case strings.ContainsAny(p.Name, "/?*{}="):
		return Part{}, fmt.Errorf("parameter name %q contains an invalid character", p.Name)
	case p.IsOptional && p.Default != "":
		return Part{}, fmt.Errorf("optional parameter %q cannot have a default value", p.Name)
	case p.IsOptional && p.IsCatchAll:
		return Part{}, fmt.Errorf("catch-all parameter %q cannot be marked optional", p.Name)
	}
	return p, nil
}
