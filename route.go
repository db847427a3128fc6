package typroxy

import "strings"

// BaseRoute combines a contract name with its route template.
//
// Generic instantiation brackets and a trailing "API" or "Api" are
// stripped from the name. "[controller]" and "{controller}" in the
// template are replaced by the stripped name; otherwise the name is
// appended as the last segment. Exactly one leading "/" is removed from
// the result.
func BaseRoute(contractName, template string) string {
	name := routeName(contractName)

	var route string
	switch {
	case strings.Contains(template, "[controller]"):
		route = strings.ReplaceAll(template, "[controller]", name)
	case strings.Contains(template, "{controller}"):
		route = strings.ReplaceAll(template, "{controller}", name)
	case strings.TrimSpace(template) == "":
		route = name
	default:
		route = strings.TrimSuffix(template, "/") + "/" + name
	}
	return strings.TrimPrefix(route, "/")
}

func routeName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	for _, suffix := range []string{"API", "Api"} {
		if len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
