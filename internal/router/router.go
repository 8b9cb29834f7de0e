// Package router names the application's routes and records navigation.
package router

import (
	"net/url"
	"strings"
)

// Route patterns. Parameters are written gin-style (":name").
const (
	Login           = "/login"
	Projects        = "/projects"
	Executions      = "/project/:name/executions"
	ExecutionDetail = "/project/:name/executions/:id"
	Thread          = "/project/:name/threads/:id"
	Template        = "/project/:name/templates/:id"
)

// Patterns lists every route in registration order.
var Patterns = []string{Login, Projects, Executions, ExecutionDetail, Thread, Template}

func ExecutionsPath(project string) string {
	return Build(Executions, map[string]string{"name": project})
}

func ExecutionPath(project, id string) string {
	return Build(ExecutionDetail, map[string]string{"name": project, "id": id})
}

func ThreadPath(project, threadID string) string {
	return Build(Thread, map[string]string{"name": project, "id": threadID})
}

func TemplatePath(project, templateID string) string {
	return Build(Template, map[string]string{"name": project, "id": templateID})
}

// Build substitutes params into pattern, escaping each value as a path
// segment. Missing params are left as-is.
func Build(pattern string, params map[string]string) string {
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		if v, ok := params[seg[1:]]; ok {
			segs[i] = url.PathEscape(v)
		}
	}
	return strings.Join(segs, "/")
}

// Match reports whether path matches pattern and returns the unescaped
// parameters.
func Match(pattern, path string) (map[string]string, bool) {
	ps := strings.Split(strings.TrimSuffix(pattern, "/"), "/")
	xs := strings.Split(strings.TrimSuffix(path, "/"), "/")
	if len(ps) != len(xs) {
		return nil, false
	}

	params := map[string]string{}
	for i, seg := range ps {
		if strings.HasPrefix(seg, ":") {
			if xs[i] == "" {
				return nil, false
			}
			v, err := url.PathUnescape(xs[i])
			if err != nil {
				return nil, false
			}
			params[seg[1:]] = v
			continue
		}
		if seg != xs[i] {
			return nil, false
		}
	}
	return params, true
}

// Resolve finds the first pattern matching path.
func Resolve(path string) (pattern string, params map[string]string, ok bool) {
	for _, p := range Patterns {
		if params, ok := Match(p, path); ok {
			return p, params, true
		}
	}
	return "", nil, false
}
