package typecheck_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/tree"
	"github.com/nocc-avr/nocc/pkg/typecheck"
)

func intType() *tree.Node {
	typ := &tree.NodeType{Name: "typecheck.int"}
	tag := &tree.NodeTag{Name: "typecheck.INT", Type: typ}
	return tree.New(tag, nil)
}

func TestTypeActualExactMatch(t *testing.T) {
	formal := intType()
	actual := intType()
	// Give actual the same tag as formal so the default exact-match path
	// succeeds (TypeActual compares tags, not node identity).
	actual.Tag = formal.Tag

	got, err := typecheck.TypeActual(formal, actual, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != actual {
		t.Fatal("expected the actual node back on success")
	}
}

func TestTypeActualMismatch(t *testing.T) {
	formal := intType()
	other := &tree.NodeTag{Name: "typecheck.BOOL", Type: &tree.NodeType{Name: "typecheck.bool"}}
	actual := tree.New(other, nil)

	if _, err := typecheck.TypeActual(formal, actual, nil, nil); err == nil {
		t.Fatal("expected a type mismatch error")
	}
}

func TestTypeActualListLengthMismatch(t *testing.T) {
	formal := intType()
	_, err := typecheck.TypeActualList([]*tree.Node{formal, formal}, []*tree.Node{formal}, nil, nil)
	if err == nil {
		t.Fatal("expected an argument-count mismatch error")
	}
}

func TestGetTypeFallsBackToDefault(t *testing.T) {
	noLangops := tree.New(&tree.NodeTag{Name: "typecheck.plain", Type: &tree.NodeType{Name: "typecheck.plain"}}, nil)
	def := intType()
	if got := typecheck.GetType(noLangops, def); got != def {
		t.Fatal("expected fallback to the provided default type")
	}
}
