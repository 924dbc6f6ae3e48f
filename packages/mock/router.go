package mock

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Route answers one method and path pattern. Patterns may contain {name}
// segments, which match a single path segment and can be echoed back in
// the body as {name}.
type Route struct {
	Method  string            `json:"method" yaml:"method"`
	Path    string            `json:"path" yaml:"path"`
	Status  int               `json:"status,omitempty" yaml:"status,omitempty"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	regex *regexp.Regexp
}

var paramPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func (r *Route) compile() error {
	if r.Method == "" {
		return fmt.Errorf("route %q: method is required", r.Path)
	}
	r.Method = strings.ToUpper(r.Method)
	r.Path = normalizePath(r.Path)
	if r.Status == 0 {
		r.Status = 200
	}

	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, m := range paramPattern.FindAllStringSubmatchIndex(r.Path, -1) {
		b.WriteString(regexp.QuoteMeta(r.Path[last:m[0]]))
		b.WriteString("(?P<" + r.Path[m[2]:m[3]] + ">[^/]+)")
		last = m[1]
	}
	b.WriteString(regexp.QuoteMeta(r.Path[last:]))
	b.WriteString("$")

	regex, err := regexp.Compile(b.String())
	if err != nil {
		return fmt.Errorf("route %s %s: %w", r.Method, r.Path, err)
	}
	r.regex = regex
	return nil
}

func (r *Route) render(params map[string]string) string {
	body := r.Body
	for k, v := range params {
		body = strings.ReplaceAll(body, "{"+k+"}", v)
	}
	return body
}

// Router matches incoming requests to routes, first match wins. Routes
// may be added while the server is running.
type Router struct {
	mu     sync.RWMutex
	routes []*Route
}

func NewRouter() *Router {
	return &Router{}
}

func (r *Router) Add(route *Route) error {
	if err := route.compile(); err != nil {
		return err
	}
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
	return nil
}

// Match finds a route for method and path along with its path parameters.
func (r *Router) Match(method, path string) (*Route, map[string]string) {
	path = normalizePath(path)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, route := range r.routes {
		if route.Method != strings.ToUpper(method) {
			continue
		}
		matches := route.regex.FindStringSubmatch(path)
		if matches == nil {
			continue
		}
		params := make(map[string]string)
		for i, name := range route.regex.SubexpNames() {
			if i > 0 && name != "" {
				params[name] = matches[i]
			}
		}
		return route, params
	}

	return nil, nil
}

// Routes returns a snapshot of the registered routes.
func (r *Router) Routes() []*Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Route, len(r.routes))
	copy(out, r.routes)
	return out
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}
