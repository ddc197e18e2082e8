package constprop_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/constprop"
	"github.com/nocc-avr/nocc/pkg/tree"
)

func constTag() *tree.NodeTag {
	langops := tree.NewLangOps().
		Set("isconst", func(n *tree.Node, args ...any) (any, error) { return true, nil }).
		Set("intvalof", func(n *tree.Node, args ...any) (any, error) { return n.NthHook(0).(int64), nil })
	typ := &tree.NodeType{Name: "constprop.const", NHooks: 1, Langops: langops}
	return &tree.NodeTag{Name: "constprop.CONST", Type: typ}
}

func addTag(sub *tree.NodeType) *tree.NodeType {
	return &tree.NodeType{Name: "constprop.add", NSub: 2}
}

func TestNewConstAndIsConst(t *testing.T) {
	tag := constTag()
	n := constprop.NewConst(tag, nil, int64(42))
	if !constprop.IsConst(n) {
		t.Fatal("expected a freshly built const node to report isconst")
	}
	v, err := constprop.IntValOf(n)
	if err != nil || v != 42 {
		t.Fatalf("expected 42, got %d, %v", v, err)
	}
}

func TestFoldAllConst(t *testing.T) {
	ctag := constTag()
	addType := addTag(ctag.Type)
	addTagv := &tree.NodeTag{Name: "constprop.ADD", Type: addType}

	left := constprop.NewConst(ctag, nil, int64(2))
	right := constprop.NewConst(ctag, nil, int64(3))
	add := tree.New(addTagv, nil)
	add.SetNthSub(0, left)
	add.SetNthSub(1, right)

	var slot *tree.Node = add
	constprop.FoldAllConst(&slot, ctag, func(vals []int64) (int64, error) {
		return vals[0] + vals[1], nil
	})

	if !constprop.IsConst(slot) {
		t.Fatal("expected the add node to fold into a const node")
	}
	v, err := constprop.IntValOf(slot)
	if err != nil || v != 5 {
		t.Fatalf("expected 5, got %d, %v", v, err)
	}
}

func TestFoldAllConstLeavesNonConstAlone(t *testing.T) {
	ctag := constTag()
	addType := addTag(ctag.Type)
	addTagv := &tree.NodeTag{Name: "constprop.ADD2", Type: addType}

	left := constprop.NewConst(ctag, nil, int64(2))
	nonConstTag := &tree.NodeTag{Name: "constprop.VAR", Type: &tree.NodeType{Name: "constprop.var"}}
	right := tree.New(nonConstTag, nil)

	add := tree.New(addTagv, nil)
	add.SetNthSub(0, left)
	add.SetNthSub(1, right)

	var slot *tree.Node = add
	constprop.FoldAllConst(&slot, ctag, func(vals []int64) (int64, error) {
		return vals[0] + vals[1], nil
	})

	if slot != add {
		t.Fatal("expected the node to be left untouched when an operand isn't constant")
	}
}
