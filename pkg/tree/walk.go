package tree

// WalkFunc is invoked once per visited node during a read-only walk.
// Returning false skips that node's children.
type WalkFunc func(n *Node) bool

// Prewalk visits n before its children (pre-order). The callback's return
// value gates descent into n's subnodes.
func Prewalk(n *Node, fn WalkFunc) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := 0; i < n.Tag.Type.NSub; i++ {
		Prewalk(n.NthSub(i), fn)
	}
}

// Postwalk visits n after its children (post-order). fn's return value is
// only meaningful for symmetry with Prewalk/caller expectations; since
// children are already visited by the time fn runs, it has no effect on
// descent but is kept so callers can share one WalkFunc shape.
func Postwalk(n *Node, fn WalkFunc) {
	if n == nil {
		return
	}
	for i := 0; i < n.Tag.Type.NSub; i++ {
		Postwalk(n.NthSub(i), fn)
	}
	fn(n)
}

// ModWalkFunc is invoked with the address of the slot holding *n, so that
// the callback may replace the node in place (substitution). It returns
// whether to descend into whatever node now occupies the slot.
type ModWalkFunc func(n **Node) bool

// ModPrewalk runs fn before descending; descent follows whatever pointer
// is left in *slot after fn returns.
func ModPrewalk(slot **Node, fn ModWalkFunc) {
	if slot == nil || *slot == nil {
		return
	}
	if !fn(slot) {
		return
	}
	n := *slot
	if n == nil {
		return
	}
	for i := 0; i < n.Tag.Type.NSub; i++ {
		sub := n.NthSub(i)
		ModPrewalk(&sub, fn)
		n.SetNthSub(i, sub)
	}
}

// ModPostwalk descends first, then runs fn on the (possibly now different)
// children's parent slot.
func ModPostwalk(slot **Node, fn ModWalkFunc) {
	if slot == nil || *slot == nil {
		return
	}
	n := *slot
	for i := 0; i < n.Tag.Type.NSub; i++ {
		sub := n.NthSub(i)
		ModPostwalk(&sub, fn)
		n.SetNthSub(i, sub)
	}
	fn(slot)
}

// ModPrePostwalk runs pre before descending and post after, both able to
// substitute the node; descent follows pre's resulting pointer.
func ModPrePostwalk(slot **Node, pre, post ModWalkFunc) {
	if slot == nil || *slot == nil {
		return
	}
	if pre != nil && !pre(slot) {
		if post != nil {
			post(slot)
		}
		return
	}
	n := *slot
	if n != nil {
		for i := 0; i < n.Tag.Type.NSub; i++ {
			sub := n.NthSub(i)
			ModPrePostwalk(&sub, pre, post)
			n.SetNthSub(i, sub)
		}
	}
	if post != nil {
		post(slot)
	}
}
