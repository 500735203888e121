package pipeline

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// route matches request paths against one path template.
type route struct {
	template string
	pattern  *regexp.Regexp
	params   []string
	// specificity counts literal characters minus parameters; higher wins.
	specificity int
	// methods maps an upper-case HTTP method to its operation.
	methods map[string]*Operation
}

func newRoute(template string) (*route, error) {
	if template == "" || template[0] != '/' {
		return nil, fmt.Errorf("path template %q must start with '/'", template)
	}

	var b strings.Builder
	b.WriteString("^")
	var params []string
	specificity := 0

	for i := 0; i < len(template); {
		if template[i] != '{' {
			c := template[i]
			b.WriteString(regexp.QuoteMeta(string(c)))
			if c != '/' {
				specificity++
			}
			i++
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unclosed path parameter at position %d in template %q", i, template)
		}
		name := template[i+1 : i+end]
		if name == "" {
			return nil, fmt.Errorf("empty path parameter at position %d in template %q", i, template)
		}
		if slices.Contains(params, name) {
			return nil, fmt.Errorf("duplicate path parameter %q in template %q", name, template)
		}
		params = append(params, name)
		b.WriteString("([^/]+)")
		specificity--
		i += end + 1
	}
	b.WriteString("$")

	pattern, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("path template %q: %w", template, err)
	}
	return &route{
		template:    template,
		pattern:     pattern,
		params:      params,
		specificity: specificity,
		methods:     make(map[string]*Operation),
	}, nil
}

// match reports whether path fits the template and returns the raw,
// still-escaped parameter values.
func (r *route) match(path string) (map[string]string, bool) {
	m := r.pattern.FindStringSubmatch(path)
	if m == nil || len(m) != len(r.params)+1 {
		return nil, false
	}
	values := make(map[string]string, len(r.params))
	for i, name := range r.params {
		values[name] = m[i+1]
	}
	return values, true
}

// sortRoutes orders routes so that concrete templates are tried before
// templated ones: higher specificity first, then longer templates, then
// alphabetically for a stable order.
func sortRoutes(routes []*route) {
	slices.SortFunc(routes, func(a, b *route) int {
		if c := cmp.Compare(b.specificity, a.specificity); c != 0 {
			return c
		}
		if c := cmp.Compare(len(b.template), len(a.template)); c != 0 {
			return c
		}
		return strings.Compare(a.template, b.template)
	})
}
