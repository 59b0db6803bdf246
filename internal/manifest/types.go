package manifest

import "encoding/json"

// Project is a single workspace member: a directory with its own manifest
// declaring a name and dependency edges to other projects.
type Project struct {
	Name         string `json:"name"`
	Path         string `json:"path"`         // workspace-relative
	AbsolutePath string `json:"absolutePath"`
	Manifest     Manifest `json:"manifest"`
}

// Manifest is the normalized view of a project (or root) manifest file.
// Runtime/Dev/Peer/Optional are the four dependency maps a manifest may
// declare; for graph construction they are unioned by name regardless of
// which map they came from.
type Manifest struct {
	Name            string            `json:"name"`
	Workspaces      []string          `json:"workspaces,omitempty"`
	PackageManager  string            `json:"packageManager,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	Scripts         map[string]string `json:"scripts,omitempty"`

	// Sources holds the raw, not-yet-normalized generator declarations
	// under the reserved "sources" key. Each value is either a bare
	// string (shorthand) or an object; internal/generator classifies and
	// normalizes each entry.
	Sources map[string]json.RawMessage `json:"sources,omitempty"`
}

// AllDependencyNames returns the union of all four dependency maps' keys,
// exactly as the graph builder needs them: identical treatment regardless
// of dependency kind.
func (m Manifest) AllDependencyNames() []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(deps map[string]string) {
		for name := range deps {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	add(m.Dependencies)
	add(m.DevDependencies)
	add(m.PeerDependencies)
	add(m.OptionalDependencies)
	return names
}
