package tree

import "sync"

// PassFunc is the calling convention for a standard compile pass hook:
// fixed shape (node slot, pass-state) -> walker-descent control. Passes
// such as prescope/scopein/typecheck/constprop/... are all PassFuncs keyed
// by name on a CompOps table.
type PassFunc func(node **Node, state any) int

// LangFunc is the calling convention for a language-semantic operation
// (gettype, isconst, typereduce, ...): it takes the node plus pass-specific
// arguments and returns a single polymorphic result.
type LangFunc func(node *Node, args ...any) (any, error)

var (
	internMu    sync.Mutex
	internByStr = map[string]int{}
	internByID  []string
)

// intern maps an operation name to a stable small integer, compiling the
// string lookup to an opcode on first use as described in the dispatch
// design: subsequent Call()s hit the integer-keyed map directly.
func intern(name string) int {
	internMu.Lock()
	defer internMu.Unlock()
	if id, ok := internByStr[name]; ok {
		return id
	}
	id := len(internByID)
	internByStr[name] = id
	internByID = append(internByID, name)
	return id
}

// CompOps is a per-NodeType vtable of PassFuncs keyed by operation name.
// Installing an Override prepends a new layer that may call through to
// next (passthrough), which lets a back end intercept an operation such as
// constprop on some node types without editing the original table.
type CompOps struct {
	fns  map[int]PassFunc
	next *CompOps
}

// NewCompOps returns an empty operations table.
func NewCompOps() *CompOps { return &CompOps{fns: map[int]PassFunc{}} }

// Set registers fn under name on this table (mutates in place).
func (c *CompOps) Set(name string, fn PassFunc) *CompOps {
	c.fns[intern(name)] = fn
	return c
}

// Override returns a new table that handles name via fn and forwards every
// other lookup to c.
func (c *CompOps) Override(name string, fn PassFunc) *CompOps {
	return &CompOps{fns: map[int]PassFunc{intern(name): fn}, next: c}
}

// Call looks up name, walking the passthrough chain outer-to-inner-most
// recently installed first. Returns ok=false if no layer provides it — the
// standard behaviour then is for the walker to continue unchanged.
func (c *CompOps) Call(name string, node **Node, state any) (result int, ok bool) {
	id := intern(name)
	for t := c; t != nil; t = t.next {
		if fn, present := t.fns[id]; present {
			return fn(node, state), true
		}
	}
	return 0, false
}

// LangOps mirrors CompOps for language-semantic operations (different
// calling convention, same passthrough-chain dispatch).
type LangOps struct {
	fns  map[int]LangFunc
	next *LangOps
}

// NewLangOps returns an empty operations table.
func NewLangOps() *LangOps { return &LangOps{fns: map[int]LangFunc{}} }

// Set registers fn under name on this table (mutates in place).
func (l *LangOps) Set(name string, fn LangFunc) *LangOps {
	l.fns[intern(name)] = fn
	return l
}

// Override returns a new table that handles name via fn and forwards every
// other lookup to l.
func (l *LangOps) Override(name string, fn LangFunc) *LangOps {
	return &LangOps{fns: map[int]LangFunc{intern(name): fn}, next: l}
}

// Call looks up name on the passthrough chain.
func (l *LangOps) Call(name string, node *Node, args ...any) (result any, ok bool, err error) {
	id := intern(name)
	for t := l; t != nil; t = t.next {
		if fn, present := t.fns[id]; present {
			res, callErr := fn(node, args...)
			return res, true, callErr
		}
	}
	return nil, false, nil
}
