package generator

// Spec is a normalized generator declaration, regardless of whether the
// manifest wrote it as a shorthand string or a full object.
type Spec struct {
	Key     string   // the manifest key the declaration was found under
	Command string   // shell command to run
	Deps    []string // identifiers that, when affected, trigger this generator
	Target  string   // the project this generator is considered to belong to
	Cwd     string   // absolute directory to run Command in
	Source  string   // "root" or the project name that declared it, for diagnostics
}

// rawObject mirrors the object form of a sources entry:
// { command, deps?, target?, cwd? }.
type rawObject struct {
	Command string   `json:"command"`
	Deps    []string `json:"deps,omitempty"`
	Target  string   `json:"target,omitempty"`
	Cwd     string   `json:"cwd,omitempty"`
}
