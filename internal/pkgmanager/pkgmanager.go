// Package pkgmanager maps a workspace-detected package manager to the
// concrete program/args pair that builds a single project.
//
// Grounded on the teacher's internal/bd/client.go Client pattern of wrapping
// an external binary behind a small typed surface, redirected here from a
// single fixed binary ("bd") to one of four candidate binaries chosen by
// detection, and on §4.7/§9's explicit instruction to express buildCommand
// as an enum with a RenderBuild method rather than a raw shell-string
// callback.
package pkgmanager

import (
	"os"
	"path/filepath"
)

// PackageManager identifies which JS package manager a workspace uses.
type PackageManager int

const (
	Unknown PackageManager = iota
	NPM
	Yarn
	PNPM
	Bun
)

func (pm PackageManager) String() string {
	switch pm {
	case NPM:
		return "npm"
	case Yarn:
		return "yarn"
	case PNPM:
		return "pnpm"
	case Bun:
		return "bun"
	default:
		return "unknown"
	}
}

// FromField maps the manifest's "packageManager" field (e.g. "pnpm@8.6.0")
// to a PackageManager, taking only the part before "@". An unrecognized or
// empty value yields Unknown, letting the caller fall through to lockfile
// detection.
func FromField(field string) PackageManager {
	name := field
	for i, c := range field {
		if c == '@' {
			name = field[:i]
			break
		}
	}
	switch name {
	case "npm":
		return NPM
	case "yarn":
		return Yarn
	case "pnpm":
		return PNPM
	case "bun":
		return Bun
	default:
		return Unknown
	}
}

// lockfiles lists, in priority order, the lockfile whose presence at the
// workspace root identifies the package manager in use.
var lockfiles = []struct {
	name string
	pm   PackageManager
}{
	{"pnpm-lock.yaml", PNPM},
	{"yarn.lock", Yarn},
	{"bun.lockb", Bun},
	{"package-lock.json", NPM},
}

// Detect resolves the effective package manager for a workspace: the
// manifest's packageManager field wins if present, otherwise the first
// lockfile found at root wins, otherwise npm is assumed.
func Detect(root, manifestField string) PackageManager {
	if pm := FromField(manifestField); pm != Unknown {
		return pm
	}
	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(root, lf.name)); err == nil {
			return lf.pm
		}
	}
	return NPM
}

// RenderBuild returns the program and argument list that builds project
// name's "build" script via pm, following the "<pm> run build -w <name>"
// family of templates.
func (pm PackageManager) RenderBuild(name string) (string, []string) {
	switch pm {
	case Yarn:
		return "yarn", []string{"workspace", name, "run", "build"}
	case PNPM:
		return "pnpm", []string{"--filter", name, "run", "build"}
	case Bun:
		return "bun", []string{"run", "--filter", name, "build"}
	default: // NPM, Unknown
		return "npm", []string{"run", "build", "-w", name}
	}
}
