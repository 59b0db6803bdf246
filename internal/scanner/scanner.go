// Package scanner walks each project's source tree, extracts literal import
// specifiers via regexp, and reports specifiers whose resolved target is
// missing on disk.
//
// Grounded on jinterlante1206-AleutianLocal's file_watcher.go addRecursive
// (filepath.WalkDir plus a SkipDir-returning ignore predicate) for the
// directory walk, reused here for source discovery instead of watch
// registration. Literal-specifier extraction uses plain regexp rather than
// a real parser (e.g. the pool's tree-sitter bindings) — justified in
// DESIGN.md as disproportionate for pulling quoted strings out of
// import/require statements. A project's tsconfig.json, when present, is
// peeked with gjson for its "exclude" array — the same ad-hoc field-peek
// gjson does for internal/manifest's "workspaces" key, here supplementing
// the fixed vendoredDirs skip list rather than committing to a tsconfig
// schema.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/shuttle/internal/manifest"
)

// sourceExtensions lists the extensions walked for import statements.
var sourceExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
}

// declarationSuffixes are skipped even though they share a source extension.
var declarationSuffixes = []string{".d.ts"}

var vendoredDirs = map[string]bool{
	"node_modules": true, ".git": true, "dist": true, "build": true, ".nx": true, ".angular": true,
}

// specifierPattern extracts the literal string argument of import/export…
// from/require() statements.
var specifierPattern = regexp.MustCompile(`(?:\bimport\b[^'"]*?\bfrom\s*|\bexport\b[^'"]*?\bfrom\s*|\brequire\(\s*|\bimport\(\s*)['"]([^'"]+)['"]`)

// UnknownDependency is one specifier whose resolved target could not be
// found on disk, aggregated across every file that imports it.
type UnknownDependency struct {
	Project      string   `json:"project"`
	Specifier    string   `json:"specifier"`
	ResolvedPath string   `json:"resolvedPath"`
	ImportedBy   []string `json:"importedBy"`
}

// Result is the full scan outcome.
type Result struct {
	Unknown []UnknownDependency `json:"unknown"`
}

// Scan walks every project in ws and reports unknown dependencies. generatorOutputs
// is the set of absolute generator output paths (each generator's key
// resolved under the workspace root) — they are expected to be absent on a
// clean checkout and are filtered from the report.
func Scan(ws *manifest.Workspace, generatorOutputs map[string]bool) (*Result, error) {
	byResolved := make(map[string]*UnknownDependency)

	for _, name := range ws.SortedNames() {
		project := ws.Projects[name]
		if err := scanProject(project, byResolved, generatorOutputs); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(byResolved))
	for k := range byResolved {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := &Result{}
	for _, k := range keys {
		result.Unknown = append(result.Unknown, *byResolved[k])
	}
	return result, nil
}

func scanProject(project *manifest.Project, byResolved map[string]*UnknownDependency, generatorOutputs map[string]bool) error {
	excludeDirs := tsconfigExcludeDirs(project.AbsolutePath)

	return filepath.WalkDir(project.AbsolutePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if vendoredDirs[d.Name()] || excludeDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !isScannableSource(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		for _, match := range specifierPattern.FindAllStringSubmatch(string(data), -1) {
			specifier := match[1]
			if !strings.HasPrefix(specifier, ".") {
				continue // only relative specifiers are resolvable on disk
			}

			resolved, ok := resolve(filepath.Dir(path), specifier)
			if ok {
				continue
			}
			if generatorOutputs[resolved] {
				continue
			}

			key := resolved
			entry, exists := byResolved[key]
			if !exists {
				entry = &UnknownDependency{Project: project.Name, Specifier: specifier, ResolvedPath: resolved}
				byResolved[key] = entry
			}
			entry.ImportedBy = append(entry.ImportedBy, path)
		}

		return nil
	})
}

// tsconfigExcludeDirs peeks projectPath's tsconfig.json, if one exists, for
// its "exclude" array and returns the base directory names found there. A
// missing or unparsable tsconfig yields an empty set rather than an error —
// this is a best-effort supplement to vendoredDirs, not a requirement.
func tsconfigExcludeDirs(projectPath string) map[string]bool {
	data, err := os.ReadFile(filepath.Join(projectPath, "tsconfig.json"))
	if err != nil {
		return nil
	}

	dirs := make(map[string]bool)
	for _, entry := range gjson.GetBytes(data, "exclude").Array() {
		pattern := strings.Trim(entry.String(), "*/")
		if pattern != "" {
			dirs[filepath.Base(pattern)] = true
		}
	}
	return dirs
}

func isScannableSource(path string) bool {
	ext := filepath.Ext(path)
	if !sourceExtensions[ext] {
		return false
	}
	for _, suffix := range declarationSuffixes {
		if strings.HasSuffix(path, suffix) {
			return false
		}
	}
	return true
}

// resolve probes specifier against dir the way a bundler's relative-module
// resolver does: the literal path, each known extension appended, and each
// known extension appended to an index file inside it as a directory.
func resolve(dir, specifier string) (resolvedPath string, exists bool) {
	candidate := filepath.Join(dir, specifier)

	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, true
	}

	for ext := range sourceExtensions {
		withExt := candidate + ext
		if _, err := os.Stat(withExt); err == nil {
			return withExt, true
		}
	}

	for ext := range sourceExtensions {
		indexPath := filepath.Join(candidate, "index"+ext)
		if _, err := os.Stat(indexPath); err == nil {
			return indexPath, true
		}
	}

	return candidate, false
}
