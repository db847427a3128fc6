package typroxy

import "github.com/broady/typroxy/routetemplate"

// TemplateParser parses verb marker templates. A nil template with a nil
// error means the template resolved to nothing; the operation then keeps
// its raw template but no parsed artifacts.
type TemplateParser interface {
	Parse(template string) (*routetemplate.Template, error)
}

// TemplateParserFunc adapts a function to TemplateParser.
type TemplateParserFunc func(template string) (*routetemplate.Template, error)

// Parse implements TemplateParser.
func (f TemplateParserFunc) Parse(template string) (*routetemplate.Template, error) {
	return f(template)
}

// DefaultTemplateParser parses templates with routetemplate.Parse.
var DefaultTemplateParser TemplateParser = TemplateParserFunc(routetemplate.Parse)
