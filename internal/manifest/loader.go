// Package manifest discovers workspace projects by expanding the root
// manifest's workspace globs and loading each member's manifest file.
//
// Grounded on the teacher's internal/bd/client.go JSON-struct-plus-error-
// wrapping style. Every typed field, "sources" included, is decoded with
// encoding/json; gjson is used only in parseManifest, to peek the alternate
// {"packages": [...]} shape of "workspaces" when the typed array is empty.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"
)

const ManifestFileName = "project.json"
const RootManifestFileName = "workspace.json"

// ErrNoRootManifest is returned when the workspace root has no manifest.
var ErrNoRootManifest = fmt.Errorf("no root manifest found (expected %s)", RootManifestFileName)

// DuplicateProjectError reports two paths that declare the same project name.
type DuplicateProjectError struct {
	Name        string
	FirstPath   string
	SecondPath  string
}

func (e *DuplicateProjectError) Error() string {
	return fmt.Sprintf("duplicate project name %q declared at %s and %s", e.Name, e.FirstPath, e.SecondPath)
}

// Workspace is the loaded root manifest plus every discovered project.
type Workspace struct {
	Root         string
	RootManifest Manifest
	Projects     map[string]*Project // keyed by project name
}

// Load reads the root manifest at root, expands its workspace globs, and
// constructs a Project for every match containing a manifest with a
// non-empty name. Duplicate names are a fatal error citing both paths.
func Load(root string) (*Workspace, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	rootManifestPath := filepath.Join(absRoot, RootManifestFileName)
	rootData, err := os.ReadFile(rootManifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRootManifest
		}
		return nil, fmt.Errorf("read root manifest %s: %w", rootManifestPath, err)
	}

	rootManifest, err := parseManifest(rootManifestPath, rootData)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		Root:         absRoot,
		RootManifest: rootManifest,
		Projects:     make(map[string]*Project),
	}

	byName := make(map[string]string) // name -> first path seen

	for _, glob := range rootManifest.Workspaces {
		matches, err := filepath.Glob(filepath.Join(absRoot, glob))
		if err != nil {
			return nil, fmt.Errorf("expand workspace glob %q: %w", glob, err)
		}
		sort.Strings(matches)

		for _, dir := range matches {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
			manifestPath := filepath.Join(dir, ManifestFileName)
			data, err := os.ReadFile(manifestPath)
			if err != nil {
				continue // no manifest here, not a project
			}
			m, err := parseManifest(manifestPath, data)
			if err != nil {
				return nil, err
			}
			if m.Name == "" {
				continue
			}

			relPath, err := filepath.Rel(absRoot, dir)
			if err != nil {
				relPath = dir
			}

			if firstPath, ok := byName[m.Name]; ok {
				return nil, &DuplicateProjectError{Name: m.Name, FirstPath: firstPath, SecondPath: relPath}
			}
			byName[m.Name] = relPath

			ws.Projects[m.Name] = &Project{
				Name:         m.Name,
				Path:         relPath,
				AbsolutePath: dir,
				Manifest:     m,
			}
		}
	}

	return ws, nil
}

// SortedNames returns every project name in the workspace, lexicographically
// sorted; discovery order is not part of the contract so callers that need
// determinism go through this.
func (w *Workspace) SortedNames() []string {
	names := make([]string, 0, len(w.Projects))
	for name := range w.Projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseManifest(path string, data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("malformed manifest %s: %w", path, err)
	}

	// "workspaces" is conventionally an array of globs, but some workspace
	// tooling nests it as {"packages": [...]}. The typed field above only
	// catches the array form; gjson lets us peek at the alternate shape
	// without committing a second struct type to the schema.
	if len(m.Workspaces) == 0 {
		ws := gjson.GetBytes(data, "workspaces")
		if ws.IsObject() {
			if packages := ws.Get("packages"); packages.IsArray() {
				for _, p := range packages.Array() {
					m.Workspaces = append(m.Workspaces, p.String())
				}
			}
		}
	}

	return m, nil
}
