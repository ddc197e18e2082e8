package tree_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/tree"
)

func TestNodeTypeAndTagRegistry(t *testing.T) {
	typ := tree.RegisterNodeType(&tree.NodeType{Name: "test.pair", NSub: 2})
	if typ.Arity() != 2 {
		t.Fatalf("expected arity 2, got %d", typ.Arity())
	}

	tag := tree.RegisterNodeTag(&tree.NodeTag{Name: "test.PAIR", Type: typ})

	gotType, ok := tree.LookupNodeType("test.pair")
	if !ok || gotType != typ {
		t.Fatal("expected to look up the registered type")
	}
	gotTag, ok := tree.LookupNodeTag("test.PAIR")
	if !ok || gotTag != tag {
		t.Fatal("expected to look up the registered tag")
	}

	// Re-registration under the same name is idempotent and returns the
	// first-registered value, mirroring the *_init-once discipline.
	other := tree.RegisterNodeType(&tree.NodeType{Name: "test.pair", NSub: 99})
	if other != typ {
		t.Fatal("expected idempotent registration to return the original type")
	}
}
