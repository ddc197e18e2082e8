package tree_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/tree"
)

func leafType() *tree.NodeType {
	return &tree.NodeType{Name: "leaf", NSub: 0, NName: 0, NHooks: 0}
}

func pairType() *tree.NodeType {
	return &tree.NodeType{Name: "pair", NSub: 2, NName: 0, NHooks: 0}
}

func TestArityInvariant(t *testing.T) {
	leafTag := &tree.NodeTag{Name: "LEAF", Type: leafType()}
	pairTag := &tree.NodeTag{Name: "PAIR", Type: pairType()}

	leaf := tree.New(leafTag, nil)
	if len(leaf.Items) != 0 {
		t.Fatalf("expected 0 items, got %d", len(leaf.Items))
	}

	pair := tree.New(pairTag, nil)
	if len(pair.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(pair.Items))
	}

	pair.SetNthSub(0, tree.New(leafTag, nil))
	pair.SetNthSub(1, tree.New(leafTag, nil))
	if pair.NthSub(0) == nil || pair.NthSub(1) == nil {
		t.Fatal("expected both subnodes set")
	}
}

func TestSubRangePanics(t *testing.T) {
	leafTag := &tree.NodeTag{Name: "LEAF", Type: leafType()}
	leaf := tree.New(leafTag, nil)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-range subnode access")
		}
	}()
	leaf.NthSub(0)
}

func TestPrewalkSkipsChildrenOnFalse(t *testing.T) {
	pairTag := &tree.NodeTag{Name: "PAIR", Type: pairType()}
	leafTag := &tree.NodeTag{Name: "LEAF", Type: leafType()}

	root := tree.New(pairTag, nil)
	root.SetNthSub(0, tree.New(leafTag, nil))
	root.SetNthSub(1, tree.New(leafTag, nil))

	visited := 0
	tree.Prewalk(root, func(n *tree.Node) bool {
		visited++
		return n.Tag.Name != "PAIR" // stop descent at the root
	})
	if visited != 1 {
		t.Fatalf("expected descent to be skipped, visited=%d", visited)
	}
}

func TestPostwalkVisitsChildrenFirst(t *testing.T) {
	pairTag := &tree.NodeTag{Name: "PAIR", Type: pairType()}
	leafTag := &tree.NodeTag{Name: "LEAF", Type: leafType()}

	root := tree.New(pairTag, nil)
	root.SetNthSub(0, tree.New(leafTag, nil))
	root.SetNthSub(1, tree.New(leafTag, nil))

	var order []string
	tree.Postwalk(root, func(n *tree.Node) bool {
		order = append(order, n.Tag.Name)
		return true
	})
	if len(order) != 3 || order[2] != "PAIR" {
		t.Fatalf("expected children before parent, got %v", order)
	}
}

func TestCompOpsPassthrough(t *testing.T) {
	base := tree.NewCompOps().Set("constprop", func(n **tree.Node, s any) int { return 1 })
	overridden := base.Override("constprop", func(n **tree.Node, s any) int { return 2 })

	if r, ok := base.Call("constprop", nil, nil); !ok || r != 1 {
		t.Fatalf("base: got %d, %v", r, ok)
	}
	if r, ok := overridden.Call("constprop", nil, nil); !ok || r != 2 {
		t.Fatalf("overridden: got %d, %v", r, ok)
	}
	if r, ok := overridden.Call("typecheck", nil, nil); ok {
		t.Fatalf("expected no handler for typecheck, got %d", r)
	}
}

func TestChookRegistration(t *testing.T) {
	id := tree.RegisterChook(tree.ChookDef{Name: "test.chook"})
	if got, ok := tree.ChookIDByName("test.chook"); !ok || got != id {
		t.Fatalf("expected chook id %d, got %d (%v)", id, got, ok)
	}
	// Re-registering the same name is idempotent.
	id2 := tree.RegisterChook(tree.ChookDef{Name: "test.chook"})
	if id2 != id {
		t.Fatalf("expected idempotent registration, got %d != %d", id2, id)
	}
}
