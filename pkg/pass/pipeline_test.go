package pass_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/pass"
	"github.com/nocc-avr/nocc/pkg/tree"
)

func TestPipelineDispatchesByName(t *testing.T) {
	var seen []string
	ops := tree.NewCompOps().
		Set(pass.Prescope, func(n **tree.Node, s any) int { seen = append(seen, pass.Prescope); return 1 }).
		Set(pass.TypeCheck, func(n **tree.Node, s any) int { seen = append(seen, pass.TypeCheck); return 1 })

	typ := &tree.NodeType{Name: "pass.leaf", Compops: ops}
	tag := &tree.NodeTag{Name: "pass.LEAF", Type: typ}
	root := tree.New(tag, nil)

	p := pass.NewPipeline()
	var rootAny *tree.Node = root
	if err := p.Run(&rootAny, nil); err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}

	if len(seen) != 2 || seen[0] != pass.Prescope || seen[1] != pass.TypeCheck {
		t.Fatalf("expected prescope then typecheck in pipeline order, got %v", seen)
	}
}

func TestPipelineStopsOnError(t *testing.T) {
	calls := 0
	ops := tree.NewCompOps().
		Set(pass.Prescope, func(n **tree.Node, s any) int {
			diag := s.(*pass.Diagnostics)
			diag.Error(nil, "forced failure")
			return 1
		}).
		Set(pass.ScopeIn, func(n **tree.Node, s any) int { calls++; return 1 })

	typ := &tree.NodeType{Name: "pass.leaf2", Compops: ops}
	tag := &tree.NodeTag{Name: "pass.LEAF2", Type: typ}
	root := tree.New(tag, nil)

	p := pass.NewPipeline()
	var rootAny *tree.Node = root
	err := p.Run(&rootAny, p.Diag)
	if err == nil {
		t.Fatal("expected the pipeline to stop with an error")
	}
	if calls != 0 {
		t.Fatalf("expected scopein to never run after prescope failed, got %d calls", calls)
	}
}
