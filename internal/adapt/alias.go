// Package adapt turns bundler output into modules for the namespaced AMD
// loader: internal require calls become parameters of a loader envelope and
// the alias table of each bundle is recorded in a manifest.
package adapt

import (
	"strconv"
	"strings"
)

// ModuleReference is one distinct module requested by a bundle.
type ModuleReference struct {
	// Request is the literal string passed to the require marker.
	Request string `json:"request"`
	// ModuleID is what the loader is asked for.
	ModuleID string `json:"module"`
	// Alias is the envelope parameter bound to the module.
	Alias string `json:"alias"`
}

// AliasTable holds the references of one bundle in first-seen order.
type AliasTable struct {
	refs  []ModuleReference
	index map[string]int
}

// NewAliasTable returns an empty table.
func NewAliasTable() *AliasTable {
	return &AliasTable{index: make(map[string]int)}
}

// Lookup returns the reference recorded for request.
func (t *AliasTable) Lookup(request string) (ModuleReference, bool) {
	i, ok := t.index[request]
	if !ok {
		return ModuleReference{}, false
	}
	return t.refs[i], true
}

// Add returns the reference for request, creating it on first sight. The
// alias of a new reference is its sanitized name followed by the number of
// requests seen before it.
func (t *AliasTable) Add(request, moduleID string) ModuleReference {
	if ref, ok := t.Lookup(request); ok {
		return ref
	}
	ref := ModuleReference{
		Request:  request,
		ModuleID: moduleID,
		Alias:    sanitizedName(request) + "_" + strconv.Itoa(len(t.refs)),
	}
	t.index[request] = len(t.refs)
	t.refs = append(t.refs, ref)
	return ref
}

// Len returns the number of distinct requests.
func (t *AliasTable) Len() int {
	return len(t.refs)
}

// References returns a copy of the references in first-seen order.
func (t *AliasTable) References() []ModuleReference {
	return append([]ModuleReference(nil), t.refs...)
}

// ModuleIDs returns the module ids in first-seen order.
func (t *AliasTable) ModuleIDs() []string {
	ids := make([]string, len(t.refs))
	for i, r := range t.refs {
		ids[i] = r.ModuleID
	}
	return ids
}

// Aliases returns the aliases in first-seen order.
func (t *AliasTable) Aliases() []string {
	aliases := make([]string, len(t.refs))
	for i, r := range t.refs {
		aliases[i] = r.Alias
	}
	return aliases
}

// sanitizedName reduces a request to a name usable inside an identifier:
// the provider namespace and everything up to the last path segment are
// dropped, and every character that is not an ASCII letter becomes '_'.
func sanitizedName(request string) string {
	name := RemoveNamespace(request)
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
