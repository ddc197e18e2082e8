// Package names implements the name/scope manager: reference-counted Names
// bound to declaring nodes, per-identifier namelists, and the
// mark/descope stack discipline block-structured constructs use around
// their bodies.
package names

import (
	"fmt"

	"github.com/nocc-avr/nocc/pkg/tree"
)

// Name binds an identifier to its declaring node, type node, and canonical
// name-node, with an optional namespace prefix. It is reference-counted:
// every name-node that references it (via tree.Node.SetNthName) holds one
// reference, released on Unref.
type Name struct {
	Ident     string
	Namespace string
	Decl      *tree.Node
	Type      *tree.Node
	NameNode  *tree.Node
	refs      int32
}

// Ref increments the reference count and returns the same Name, satisfying
// tree.Name so Names can be stored directly in node name slots.
func (n *Name) Ref() tree.Name {
	n.refs++
	return n
}

// Unref decrements the reference count. It does not free n itself — the
// owning Manager retains Names for the lifetime of the scope that
// introduced them; Unref exists purely to keep the accounting the
// framework's ownership rules require (§5: "holding a name-node counts as
// one reference").
func (n *Name) Unref() {
	if n.refs > 0 {
		n.refs--
	}
}

// Refs reports the current reference count (exported for diagnostics/tests).
func (n *Name) Refs() int32 { return n.refs }

// Mark is an opaque snapshot of scope depth, returned by Manager.Mark and
// consumed by Manager.Descope.
type Mark int

type pushRecord struct{ ident string }

// Manager is the name/scope manager (§4.5): it owns one namelist stack per
// identifier and a single global order-of-introduction log used to
// implement mark/descope without walking every identifier's stack.
type Manager struct {
	lists map[string][]*Name
	order []pushRecord

	namespaces       map[string]bool // currently-hidden namespace prefixes
}

// NewManager returns an empty scope manager.
func NewManager() *Manager {
	return &Manager{
		lists:      make(map[string][]*Name),
		namespaces: make(map[string]bool),
	}
}

// AddScopeName pushes a new Name onto ident's namelist, making it the
// innermost (currently visible) binding, and records it in the global
// order log so a later Descope can remove it again.
func (m *Manager) AddScopeName(ident string, decl, typ, nameNode *tree.Node) *Name {
	nm := &Name{Ident: ident, Decl: decl, Type: typ, NameNode: nameNode, refs: 1}
	m.lists[ident] = append(m.lists[ident], nm)
	m.order = append(m.order, pushRecord{ident: ident})
	return nm
}

// Mark returns a snapshot of the current scope depth.
func (m *Manager) Mark() Mark { return Mark(len(m.order)) }

// Descope pops every name introduced since mark, in reverse order,
// restoring whatever binding (if any) was previously innermost for each
// identifier.
func (m *Manager) Descope(mark Mark) {
	for len(m.order) > int(mark) {
		last := m.order[len(m.order)-1]
		m.order = m.order[:len(m.order)-1]
		lst := m.lists[last.ident]
		if len(lst) > 0 {
			m.lists[last.ident] = lst[:len(lst)-1]
		}
	}
}

// Lookup returns the innermost visible Name bound to ident, honouring any
// currently-hidden namespace.
func (m *Manager) Lookup(ident string) (*Name, bool) {
	lst := m.lists[ident]
	for i := len(lst) - 1; i >= 0; i-- {
		nm := lst[i]
		if nm.Namespace != "" && m.namespaces[nm.Namespace] {
			continue // namespace currently hidden
		}
		return nm, true
	}
	return nil, false
}

// HideNamespace removes prefix from active lookup until ShowNamespace is
// called with the same prefix.
func (m *Manager) HideNamespace(prefix string) { m.namespaces[prefix] = true }

// ShowNamespace re-activates a previously hidden namespace prefix.
func (m *Manager) ShowNamespace(prefix string) { delete(m.namespaces, prefix) }

// ErrUnresolved is returned by callers that wrap Lookup failures with a
// scope error (§7, "scope error: unresolved ... name").
func ErrUnresolved(ident string) error {
	return fmt.Errorf("unresolved name %q", ident)
}
