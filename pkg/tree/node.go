// Package tree implements the generic typed tree nodes that every front-end
// and back-end pass in this module operates on: node types (tndef), node
// tags (ntdef) and tree nodes (tnode) themselves, plus their copy/free/walk
// semantics.
//
// The shape follows its-hmny's pkg/vm, pkg/asm and pkg/hack: a small closed
// set of struct-shaped constructs (there called Operation/Instruction), here
// generalized into one flat, reflection-free node representation shared by
// every language the framework hosts.
package tree

import "fmt"

// Flags records shape/role information about a NodeType beyond its arity.
type Flags uint8

const (
	FlagLongDecl Flags = 1 << iota
	FlagLongProc
	FlagShortDecl
	FlagTransparent // subnodes are not exclusively owned
)

// HookDef is the lifecycle of one opaque per-node hook slot: a copy
// callback invoked by Copy, a free callback invoked once when the owning
// node is freed, and a dump callback used for debug/plugin introspection.
type HookDef struct {
	Copy func(any) any
	Free func(any)
	Dump func(any) string
}

// NodeType is a registered description of a family of nodes (tndef):
// a fixed number of subnodes, name slots and hooks, plus the compile/
// language operation vtables dispatched by tag.
type NodeType struct {
	Name     string
	NSub     int
	NName    int
	NHooks   int
	HookDefs []HookDef // len == NHooks; may be nil entries for untyped hooks
	Compops  *CompOps
	Langops  *LangOps
	Flags    Flags
}

func (t *NodeType) arity() int { return t.NSub + t.NName + t.NHooks }

// Arity returns the fixed number of item slots (subnodes + names + hooks) a
// node of this type carries — the quantity COMBINE's n argument must match.
func (t *NodeType) Arity() int { return t.arity() }

// NodeTag is a leaf of the type system (ntdef): it names one tag and points
// at the NodeType describing its shape and dispatch tables.
type NodeTag struct {
	Name string
	Type *NodeType
}

// Origin is a source-location record (file, line) attached to a node.
type Origin struct {
	File string
	Line int
}

func (o *Origin) String() string {
	if o == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// Name is the minimal interface tree needs from pkg/names, to avoid an
// import cycle between tree (which stores name slots) and names (which
// stores back-references into declaring nodes).
type Name interface {
	Ref() Name
	Unref()
}

// Node is a tree node (tnode): a tag, an optional origin, and a flat items
// array holding, in order, NSub subnodes, NName name slots and NHooks
// hooks. CHooks holds globally-registered compiler hooks (chook), indexed
// sparsely by hook id, distinct from the node type's own per-slot hooks.
type Node struct {
	Tag    *NodeTag
	Org    *Origin
	Items  []any // *Node | Name | hook payload, per Tag.Type layout
	CHooks map[int]any
}

// New allocates a node of the given tag with all item slots zeroed.
func New(tag *NodeTag, org *Origin) *Node {
	if tag == nil || tag.Type == nil {
		panic("tree.New: nil tag or node type")
	}
	return &Node{
		Tag:   tag,
		Org:   org,
		Items: make([]any, tag.Type.arity()),
	}
}

func (n *Node) checkSubRange(i int) {
	if n.Tag == nil || n.Tag.Type == nil || i < 0 || i >= n.Tag.Type.NSub {
		panic(fmt.Sprintf("tree: subnode index %d out of range for tag %q", i, n.tagName()))
	}
}

func (n *Node) checkNameRange(i int) {
	t := n.Tag.Type
	if i < 0 || i >= t.NName {
		panic(fmt.Sprintf("tree: name index %d out of range for tag %q", i, n.tagName()))
	}
}

func (n *Node) checkHookRange(i int) {
	t := n.Tag.Type
	if i < 0 || i >= t.NHooks {
		panic(fmt.Sprintf("tree: hook index %d out of range for tag %q", i, n.tagName()))
	}
}

func (n *Node) tagName() string {
	if n.Tag == nil {
		return "<nil>"
	}
	return n.Tag.Name
}

// NthSub returns subnode i, or nil if unset.
func (n *Node) NthSub(i int) *Node {
	n.checkSubRange(i)
	v := n.Items[i]
	if v == nil {
		return nil
	}
	return v.(*Node)
}

// SetNthSub assigns subnode i. The previous occupant, if any and if this
// node's type is not transparent, is considered detached (caller-owned).
func (n *Node) SetNthSub(i int, sub *Node) {
	n.checkSubRange(i)
	if sub == nil {
		n.Items[i] = nil
		return
	}
	n.Items[i] = sub
}

// NthName returns name slot i, or nil if unset.
func (n *Node) NthName(i int) Name {
	n.checkNameRange(i)
	v := n.Items[n.Tag.Type.NSub+i]
	if v == nil {
		return nil
	}
	return v.(Name)
}

// SetNthName assigns name slot i, taking a reference on the new name and
// releasing the slot's previous occupant.
func (n *Node) SetNthName(i int, nm Name) {
	n.checkNameRange(i)
	idx := n.Tag.Type.NSub + i
	if old, ok := n.Items[idx].(Name); ok && old != nil {
		old.Unref()
	}
	if nm != nil {
		nm = nm.Ref()
	}
	n.Items[idx] = nm
}

// NthHook returns hook slot i's opaque payload, or nil if unset.
func (n *Node) NthHook(i int) any {
	n.checkHookRange(i)
	return n.Items[n.Tag.Type.NSub+n.Tag.Type.NName+i]
}

// SetNthHook assigns hook slot i, freeing any previous payload via the
// node type's registered free callback for that slot.
func (n *Node) SetNthHook(i int, payload any) {
	n.checkHookRange(i)
	idx := n.Tag.Type.NSub + n.Tag.Type.NName + i
	if old := n.Items[idx]; old != nil {
		if def := n.hookDef(i); def != nil && def.Free != nil {
			def.Free(old)
		}
	}
	n.Items[idx] = payload
}

func (n *Node) hookDef(i int) *HookDef {
	defs := n.Tag.Type.HookDefs
	if i < 0 || i >= len(defs) {
		return nil
	}
	return &defs[i]
}

// GetCHook returns the globally-registered compiler hook value for id, if
// present on this node.
func (n *Node) GetCHook(id int) (any, bool) {
	if n.CHooks == nil {
		return nil, false
	}
	v, ok := n.CHooks[id]
	return v, ok
}

// SetCHook installs (or replaces, freeing the old value) a compiler hook.
func (n *Node) SetCHook(id int, value any) {
	if n.CHooks == nil {
		n.CHooks = make(map[int]any)
	}
	if old, ok := n.CHooks[id]; ok {
		if def, ok := LookupChook(id); ok && def.Free != nil {
			def.Free(old)
		}
	}
	n.CHooks[id] = value
}

// Copy produces a deep copy of n: subnodes are copied recursively, name
// slots are reference-counted (not duplicated), and hooks are copied via
// their registered Copy callback (or shared by reference if none is
// registered).
func Copy(n *Node) *Node {
	if n == nil {
		return nil
	}
	cp := &Node{Tag: n.Tag, Org: n.Org, Items: make([]any, len(n.Items))}
	t := n.Tag.Type
	for i := 0; i < t.NSub; i++ {
		if sub, ok := n.Items[i].(*Node); ok && sub != nil {
			cp.Items[i] = Copy(sub)
		}
	}
	for i := 0; i < t.NName; i++ {
		idx := t.NSub + i
		if nm, ok := n.Items[idx].(Name); ok && nm != nil {
			cp.Items[idx] = nm.Ref()
		}
	}
	for i := 0; i < t.NHooks; i++ {
		idx := t.NSub + t.NName + i
		payload := n.Items[idx]
		if payload == nil {
			continue
		}
		if def := n.hookDef(i); def != nil && def.Copy != nil {
			cp.Items[idx] = def.Copy(payload)
		} else {
			cp.Items[idx] = payload
		}
	}
	if n.CHooks != nil {
		cp.CHooks = make(map[int]any, len(n.CHooks))
		for id, v := range n.CHooks {
			if def, ok := LookupChook(id); ok && def.Copy != nil {
				cp.CHooks[id] = def.Copy(v)
			} else {
				cp.CHooks[id] = v
			}
		}
	}
	return cp
}

// AliasDecider is called once per node during CopyAliased; it decides
// whether the node should be shared by reference (true) or deep-copied
// (false, continuing recursively with the same decider).
type AliasDecider func(n *Node) bool

// CopyAliased copies n like Copy, except that for any subtree where decide
// returns true the original pointer is reused instead of being duplicated.
func CopyAliased(n *Node, decide AliasDecider) *Node {
	if n == nil {
		return nil
	}
	if decide(n) {
		return n
	}
	cp := &Node{Tag: n.Tag, Org: n.Org, Items: make([]any, len(n.Items))}
	t := n.Tag.Type
	for i := 0; i < t.NSub; i++ {
		if sub, ok := n.Items[i].(*Node); ok && sub != nil {
			cp.Items[i] = CopyAliased(sub, decide)
		}
	}
	for i := 0; i < t.NName; i++ {
		idx := t.NSub + i
		if nm, ok := n.Items[idx].(Name); ok && nm != nil {
			cp.Items[idx] = nm.Ref()
		}
	}
	for i := 0; i < t.NHooks; i++ {
		idx := t.NSub + t.NName + i
		payload := n.Items[idx]
		if payload == nil {
			continue
		}
		if def := n.hookDef(i); def != nil && def.Copy != nil {
			cp.Items[idx] = def.Copy(payload)
		} else {
			cp.Items[idx] = payload
		}
	}
	if n.CHooks != nil {
		cp.CHooks = make(map[int]any, len(n.CHooks))
		for id, v := range n.CHooks {
			if def, ok := LookupChook(id); ok && def.Copy != nil {
				cp.CHooks[id] = def.Copy(v)
			} else {
				cp.CHooks[id] = v
			}
		}
	}
	return cp
}

// Substitute replaces *slot's contents in place with replacement, without
// touching parent bookkeeping; callers are responsible for freeing the
// displaced node if it is no longer reachable.
func Substitute(slot **Node, replacement *Node) {
	*slot = replacement
}

// Free releases n and, recursively, its owned subnodes: name slots are
// unreferenced and hooks are freed via their registered callbacks exactly
// once. Transparent node types are freed the same way; neither Free nor
// the walkers in walk.go treat FlagTransparent specially.
func Free(n *Node) {
	if n == nil {
		return
	}
	t := n.Tag.Type
	for i := 0; i < t.NSub; i++ {
		if sub, ok := n.Items[i].(*Node); ok && sub != nil {
			Free(sub)
		}
	}
	for i := 0; i < t.NName; i++ {
		idx := t.NSub + i
		if nm, ok := n.Items[idx].(Name); ok && nm != nil {
			nm.Unref()
		}
	}
	for i := 0; i < t.NHooks; i++ {
		idx := t.NSub + t.NName + i
		payload := n.Items[idx]
		if payload == nil {
			continue
		}
		if def := n.hookDef(i); def != nil && def.Free != nil {
			def.Free(payload)
		}
	}
	for id, v := range n.CHooks {
		if def, ok := LookupChook(id); ok && def.Free != nil {
			def.Free(v)
		}
	}
	n.Items = nil
	n.CHooks = nil
}
