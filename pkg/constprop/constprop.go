// Package constprop provides the constant-folding toolkit that individual
// NodeTypes' "constprop" compop handlers build on: constructing canonical
// constant nodes, querying constness/value through langops, and threading
// an explicit fold state through a tree instead of a process-global one.
//
// The original tool kept this state in a thread-local so the AVR back-end's
// label fix-up logic could reach it from deep inside the instruction
// encoder without threading a parameter through every call. Go has no
// implicit thread-locals and the pipeline is single-threaded anyway, so
// here it is just an explicit argument (*State) passed down through
// pass.Pipeline.Run's state slot — the same information, reached the plain
// way instead of the magic way.
package constprop

import (
	"fmt"

	"github.com/nocc-avr/nocc/pkg/tree"
)

// State is the constprop-state threaded through a fold: when installed,
// folding a reference whose value is not yet known (typically an AVR label
// whose address has not been assigned) should record a fix-up instead of
// reporting a hard "not constant" error.
type State struct {
	// OnUnresolved is called when a node wants to fold but isConst reports
	// false; a back end can use it to append the node to the referenced
	// label's pending fix-up list (pkg/avrasm does not use this package; it
	// records fix-ups through pkg/avr.Resolver). Returning true tells the
	// caller a fix-up was recorded and folding should be deferred instead of
	// failing; returning false means the caller should report a normal
	// "not constant" error.
	OnUnresolved func(node *tree.Node) (deferred bool, err error)
}

// NewConst builds a canonical constant node of tag, stamping value into
// hook slot 0 — the convention every constant-shaped NodeType in this
// module follows (NHooks >= 1, hook 0 holds the literal Go value: int64,
// bool, or string).
func NewConst(tag *tree.NodeTag, org *tree.Origin, value any) *tree.Node {
	n := tree.New(tag, org)
	n.SetNthHook(0, value)
	return n
}

// IsConst asks n whether it is already a constant, via its type's "isconst"
// langop. A node with no such langop is treated as non-constant.
func IsConst(n *tree.Node) bool {
	if n == nil || n.Tag == nil || n.Tag.Type == nil || n.Tag.Type.Langops == nil {
		return false
	}
	result, ok, err := n.Tag.Type.Langops.Call("isconst", n)
	if !ok || err != nil {
		return false
	}
	b, _ := result.(bool)
	return b
}

// IntValOf extracts n's integer value via its type's "intvalof" langop.
func IntValOf(n *tree.Node) (int64, error) {
	if n == nil || n.Tag == nil || n.Tag.Type == nil || n.Tag.Type.Langops == nil {
		return 0, fmt.Errorf("constprop: %v has no intvalof langop", tagName(n))
	}
	result, ok, err := n.Tag.Type.Langops.Call("intvalof", n)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("constprop: %v has no intvalof langop", tagName(n))
	}
	switch v := result.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("constprop: intvalof returned non-integer %T", result)
	}
}

func tagName(n *tree.Node) string {
	if n == nil || n.Tag == nil {
		return "<nil>"
	}
	return n.Tag.Name
}

// FoldAllConst is a helper for a NodeType's "constprop" compop: it checks
// whether every one of the node's NSub subnodes is already constant and, if
// so, calls combine with their integer values and replaces *slot with the
// canonical constant combine produces. If any subnode is not constant it
// leaves the tree untouched and returns 1 (continue normally) — the caller
// gets another chance once its operands fold on a later bottom-up pass.
func FoldAllConst(slot **tree.Node, resultTag *tree.NodeTag, combine func(vals []int64) (int64, error)) int {
	n := *slot
	if n == nil || n.Tag == nil || n.Tag.Type == nil {
		return 1
	}
	nsub := n.Tag.Type.NSub
	vals := make([]int64, nsub)
	for i := 0; i < nsub; i++ {
		sub := n.NthSub(i)
		if !IsConst(sub) {
			return 1
		}
		v, err := IntValOf(sub)
		if err != nil {
			return 1
		}
		vals[i] = v
	}
	result, err := combine(vals)
	if err != nil {
		return 1
	}
	*slot = NewConst(resultTag, n.Org, result)
	return 1
}
