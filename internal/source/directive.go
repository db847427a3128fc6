package source

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"
	"time"

	"github.com/broady/typroxy"
)

const prefix = "//typroxy:"

// Kind is the name of a directive.
type Kind string

const (
	KindRoute    Kind = "route"
	KindContract Kind = "contract"
	KindGet      Kind = "get"
	KindPost     Kind = "post"
	KindPut      Kind = "put"
	KindDelete   Kind = "delete"
	KindTimeout  Kind = "timeout"
	KindHeader   Kind = "header"
	KindBody     Kind = "body"
)

// Directive is one parsed //typroxy: line comment.
type Directive struct {
	Kind Kind

	// Text is everything after the directive name, trimmed.
	Text string
	Args []string
	Pos  token.Position
}

func (k Kind) typeLevel() bool {
	return k == KindRoute || k == KindContract
}

func (k Kind) known() bool {
	switch k {
	case KindRoute, KindContract, KindGet, KindPost, KindPut, KindDelete, KindTimeout, KindHeader, KindBody:
		return true
	}
	return false
}

// parseDirectives extracts the directives of a doc comment group.
func parseDirectives(fset *token.FileSet, cg *ast.CommentGroup) ([]Directive, error) {
	if cg == nil {
		return nil, nil
	}
	var out []Directive
	for _, c := range cg.List {
		if !strings.HasPrefix(c.Text, prefix) {
			continue
		}
		text := strings.TrimPrefix(c.Text, prefix)
		name, rest, _ := strings.Cut(text, " ")
		pos := fset.Position(c.Pos())
		if name == "" {
			return nil, fmt.Errorf("%s: empty directive", pos)
		}
		d := Directive{
			Kind: Kind(name),
			Text: strings.TrimSpace(rest),
			Args: strings.Fields(rest),
			Pos:  pos,
		}
		if !d.Kind.known() {
			return nil, fmt.Errorf("%s: unknown directive %s%s", pos, prefix, name)
		}
		out = append(out, d)
	}
	return out, nil
}

// typeAnnotation is the result of the directives on an interface type.
type typeAnnotation struct {
	contract bool
	route    *typroxy.Route
}

func applyTypeDirectives(ds []Directive) (typeAnnotation, error) {
	var a typeAnnotation
	for _, d := range ds {
		switch d.Kind {
		case KindContract:
			a.contract = true
		case KindRoute:
			if a.route != nil {
				return a, fmt.Errorf("%s: duplicate %sroute directive", d.Pos, prefix)
			}
			route, err := parseRoute(d)
			if err != nil {
				return a, err
			}
			a.contract = true
			a.route = route
		default:
			return a, fmt.Errorf("%s: %s%s applies to interface methods", d.Pos, prefix, d.Kind)
		}
	}
	return a, nil
}

// parseRoute reads "region=<key> [template=<tpl>]".
func parseRoute(d Directive) (*typroxy.Route, error) {
	route := &typroxy.Route{}
	for _, arg := range d.Args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%s: route argument %q must be key=value", d.Pos, arg)
		}
		switch key {
		case "region":
			route.RegionKey = value
		case "template":
			route.Template = value
		default:
			return nil, fmt.Errorf("%s: unknown route argument %q", d.Pos, key)
		}
	}
	return route, nil
}

// applyMethodDirectives annotates m with its doc directives.
func applyMethodDirectives(m *typroxy.Method, ds []Directive) error {
	for _, d := range ds {
		switch d.Kind {
		case KindGet, KindPost, KindPut, KindDelete:
			if m.Verb != nil {
				return fmt.Errorf("%s: %s already has a verb directive", d.Pos, m.Name)
			}
			marker, err := parseVerb(d)
			if err != nil {
				return err
			}
			m.Verb = marker
		case KindTimeout:
			if len(d.Args) != 1 {
				return fmt.Errorf("%s: %stimeout takes exactly one duration", d.Pos, prefix)
			}
			timeout, err := time.ParseDuration(d.Args[0])
			if err != nil {
				return fmt.Errorf("%s: invalid timeout: %w", d.Pos, err)
			}
			m.Timeout = timeout
			m.HasTimeout = true
		case KindHeader:
			m.Headers = append(m.Headers, d.Text)
		case KindBody:
			if len(d.Args) != 1 {
				return fmt.Errorf("%s: %sbody takes exactly one parameter name", d.Pos, prefix)
			}
			found := false
			for i := range m.Params {
				if m.Params[i].Name == d.Args[0] {
					m.Params[i].FromBody = true
					found = true
				}
			}
			if !found {
				return fmt.Errorf("%s: %s has no parameter %q", d.Pos, m.Name, d.Args[0])
			}
		default:
			return fmt.Errorf("%s: %s%s applies to interface types", d.Pos, prefix, d.Kind)
		}
	}
	return nil
}

// parseVerb reads "[template]" for get and delete and
// "[template] [type=<content-type>]" for post and put.
func parseVerb(d Directive) (*typroxy.VerbMarker, error) {
	var template, contentType string
	for _, arg := range d.Args {
		if ct, ok := strings.CutPrefix(arg, "type="); ok {
			if d.Kind != KindPost && d.Kind != KindPut {
				return nil, fmt.Errorf("%s: %s%s does not take a content type", d.Pos, prefix, d.Kind)
			}
			contentType = ct
			continue
		}
		if template != "" {
			return nil, fmt.Errorf("%s: unexpected argument %q", d.Pos, arg)
		}
		template = arg
	}

	switch d.Kind {
	case KindGet:
		return typroxy.Get(template), nil
	case KindPost:
		return typroxy.Post(template, contentType), nil
	case KindPut:
		return typroxy.Put(template, contentType), nil
	default:
		return typroxy.Delete(template), nil
	}
}
