package tree

import "sync"

// Node-type and node-tag tables are two of the process-wide registries the
// framework relies on: the reduction VM's COMBINE and SETTAGMARK look tags
// up here by name. The AVR front end's grammar actions use their *NodeTag
// values directly.
var (
	registryMu sync.Mutex
	typesByID  = map[string]*NodeType{}
	tagsByID   = map[string]*NodeTag{}
)

// RegisterNodeType installs t under t.Name, returning the previously
// registered type of that name if one already exists (idempotent, matching
// the *_init-time registration discipline every global table here follows).
func RegisterNodeType(t *NodeType) *NodeType {
	registryMu.Lock()
	defer registryMu.Unlock()
	if existing, ok := typesByID[t.Name]; ok {
		return existing
	}
	typesByID[t.Name] = t
	return t
}

// LookupNodeType returns the registered NodeType for name, if any.
func LookupNodeType(name string) (*NodeType, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	t, ok := typesByID[name]
	return t, ok
}

// RegisterNodeTag installs t under t.Name, returning the previously
// registered tag of that name if one already exists.
func RegisterNodeTag(t *NodeTag) *NodeTag {
	registryMu.Lock()
	defer registryMu.Unlock()
	if existing, ok := tagsByID[t.Name]; ok {
		return existing
	}
	tagsByID[t.Name] = t
	return t
}

// LookupNodeTag returns the registered NodeTag for name, if any.
func LookupNodeTag(name string) (*NodeTag, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	t, ok := tagsByID[name]
	return t, ok
}
