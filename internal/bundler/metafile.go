package bundler

// Metafile is the part of the esbuild metafile the build report uses.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is an input file in the metafile.
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
}

// MetafileImport is an import in the metafile.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// MetafileOutput is an output file in the metafile.
type MetafileOutput struct {
	Bytes      int              `json:"bytes"`
	Imports    []MetafileImport `json:"imports"`
	EntryPoint string           `json:"entryPoint,omitempty"`
}

// externals returns the distinct external imports of an output.
func (o MetafileOutput) externals() []string {
	seen := make(map[string]bool)
	var out []string
	for _, imp := range o.Imports {
		if imp.External && !seen[imp.Path] {
			seen[imp.Path] = true
			out = append(out, imp.Path)
		}
	}
	return out
}
