package reduce_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/lex"
	"github.com/nocc-avr/nocc/pkg/reduce"
	"github.com/nocc-avr/nocc/pkg/tree"
)

func pairTag(t *testing.T) *tree.NodeTag {
	typ := tree.RegisterNodeType(&tree.NodeType{Name: "reduce.pair", NSub: 2})
	return tree.RegisterNodeTag(&tree.NodeTag{Name: "reduce.PAIR", Type: typ})
}

func TestCombineBuildsNodeFromLocal(t *testing.T) {
	tag := pairTag(t)

	prog, err := reduce.Compile("NSPOP NSPOP REV COMBINE 2 reduce.PAIR NSPUSH END")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	left := tree.New(&tree.NodeTag{Name: "leaf", Type: &tree.NodeType{Name: "leaf"}}, nil)
	right := tree.New(&tree.NodeTag{Name: "leaf", Type: &tree.NodeType{Name: "leaf"}}, nil)

	m := reduce.NewMachine()
	m.Nodes = []*tree.Node{left, right}

	if err := m.Run(prog); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(m.Nodes) != 1 {
		t.Fatalf("expected one node pushed back, got %d", len(m.Nodes))
	}
	got := m.Nodes[0]
	if got.Tag != tag {
		t.Fatalf("expected tag %v, got %v", tag, got.Tag)
	}
	if got.NthSub(0) != left || got.NthSub(1) != right {
		t.Fatal("expected subnodes in original left/right order")
	}
}

func TestCombineArityMismatchIsError(t *testing.T) {
	pairTag(t)
	prog, err := reduce.Compile("NULL COMBINE 1 reduce.PAIR END")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	m := reduce.NewMachine()
	if err := m.Run(prog); err == nil {
		t.Fatal("expected an arity-invariant error")
	}
}

func TestCompileRejectsUnderflow(t *testing.T) {
	if _, err := reduce.Compile("NSPUSH END"); err == nil {
		t.Fatal("expected underflow to be rejected at compile time")
	}
}

func TestTSPopAndConsumeT(t *testing.T) {
	prog, err := reduce.Compile("TSPOP CONSUME_T END")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	m := reduce.NewMachine()
	m.Tokens = []lex.Token{{Kind: lex.NAME, Value: "x"}}
	if err := m.Run(prog); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(m.Tokens) != 0 {
		t.Fatalf("expected token-stack drained, got %d left", len(m.Tokens))
	}
}

func TestMakelistLeavesListOnLocal(t *testing.T) {
	prog, err := reduce.Compile("NSPOP NSPOP MAKELIST 2 END")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	a := tree.New(&tree.NodeTag{Name: "leaf", Type: &tree.NodeType{Name: "leaf"}}, nil)
	b := tree.New(&tree.NodeTag{Name: "leaf", Type: &tree.NodeType{Name: "leaf"}}, nil)
	m := reduce.NewMachine()
	m.Nodes = []*tree.Node{a, b}
	if err := m.Run(prog); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(m.Local) != 1 {
		t.Fatalf("expected list left on local, got %d entries", len(m.Local))
	}
	list, ok := m.Local[0].(*reduce.ListNode)
	if !ok || len(list.Items) != 2 {
		t.Fatalf("expected a 2-item list, got %+v", m.Local[0])
	}
}

func TestRegistryRejectsDuplicateRegistration(t *testing.T) {
	r := reduce.NewRegistry()
	if err := r.Register("noop", "END"); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := r.Register("noop", "END"); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
