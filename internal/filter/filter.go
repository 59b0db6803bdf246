// Package filter implements the --filter pattern language: a glob-like
// pattern restricted to "*" as wildcard matched against a project's
// workspace-relative path, supplemented per §2.3 with a small
// key<=value / key=value grammar for dependency-count comparisons.
package filter

import (
	"strconv"
	"strings"

	"github.com/joshharrison/shuttle/internal/graph"
	"github.com/joshharrison/shuttle/internal/manifest"
)

// Apply restricts affected to the projects matching pattern. An empty
// pattern matches everything.
func Apply(ws *manifest.Workspace, g *graph.DependencyGraph, affected map[string]bool, pattern string) map[string]bool {
	if pattern == "" {
		return affected
	}

	if key, op, value, ok := parseComparison(pattern); ok {
		return applyComparison(g, affected, key, op, value)
	}

	out := make(map[string]bool)
	for name := range affected {
		project := ws.Projects[name]
		path := name
		if project != nil {
			path = project.Path
		}
		if globMatch(pattern, path) {
			out[name] = true
		}
	}
	return out
}

// globMatch matches pattern against s, where "*" matches any run of
// characters (including none) and every other character is literal.
func globMatch(pattern, s string) bool {
	segments := strings.Split(pattern, "*")
	if len(segments) == 1 {
		return pattern == s
	}

	if !strings.HasPrefix(s, segments[0]) {
		return false
	}
	s = s[len(segments[0]):]

	for i := 1; i < len(segments)-1; i++ {
		idx := strings.Index(s, segments[i])
		if idx < 0 {
			return false
		}
		s = s[idx+len(segments[i]):]
	}

	last := segments[len(segments)-1]
	return strings.HasSuffix(s, last)
}

// parseComparison recognizes "key<=value" or "key=value" against a small
// fixed set of keys ("deps", "rdeps") for filtering by dependency count.
func parseComparison(pattern string) (key, op string, value int, ok bool) {
	for _, candidate := range []string{"<=", "="} {
		if idx := strings.Index(pattern, candidate); idx > 0 {
			k := pattern[:idx]
			if k != "deps" && k != "rdeps" {
				continue
			}
			v, err := strconv.Atoi(pattern[idx+len(candidate):])
			if err != nil {
				continue
			}
			return k, candidate, v, true
		}
	}
	return "", "", 0, false
}

func applyComparison(g *graph.DependencyGraph, affected map[string]bool, key, op string, value int) map[string]bool {
	out := make(map[string]bool)
	for name := range affected {
		count := len(g.Deps[name])
		if key == "rdeps" {
			count = len(g.RDeps[name])
		}
		match := count == value
		if op == "<=" {
			match = count <= value
		}
		if match {
			out[name] = true
		}
	}
	return out
}
