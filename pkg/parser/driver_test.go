package parser_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/dfa"
	"github.com/nocc-avr/nocc/pkg/lex"
	"github.com/nocc-avr/nocc/pkg/parser"
	"github.com/nocc-avr/nocc/pkg/reduce"
	"github.com/nocc-avr/nocc/pkg/tree"
)

// TestParseSingleNameStatement drives a two-state DFA — NAME then END —
// that keeps the NAME token and fires a reduction building a one-name node
// from it, exercising dfa_advance, reduction firing, and tokenStack plumbing
// together.
func TestParseSingleNameStatement(t *testing.T) {
	typ := tree.RegisterNodeType(&tree.NodeType{Name: "parser.ident", NName: 0, NSub: 0, NHooks: 1})
	tag := tree.RegisterNodeTag(&tree.NodeTag{Name: "parser.IDENT", Type: typ})

	dfas := dfa.NewRegistry()
	dfas.AddTable(dfa.Table{
		Rule: "ident-stmt", Kind: dfa.Principle, NStates: 2,
		Entries: []dfa.Entry{
			{SState: 0, EState: 1, Match: dfa.Matcher{Kind: lex.NAME}, Flags: dfa.Keep, Reduce: "build-ident"},
			{SState: 1, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},
		},
	})
	if err := dfas.Compile(); err != nil {
		t.Fatalf("dfa compile failed: %v", err)
	}

	reducers := reduce.NewRegistry()
	if err := reducers.Register("build-ident", "TSPOP MOD totext COMBINE 1 parser.IDENT NSPUSH END"); err != nil {
		t.Fatalf("rule compile failed: %v", err)
	}

	drv := parser.NewDriver(dfas, reducers)
	drv.UserFuncs["totext"] = reduce.ModFunc(func(v any) (any, error) {
		tok := v.(lex.Token)
		return tok.Value, nil
	})

	toks := []lex.Token{{Kind: lex.NAME, Value: "loop"}, {Kind: lex.END}}
	root, err := drv.Parse("ident-stmt", toks)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if root.Tag != tag {
		t.Fatalf("expected tag %v, got %v", tag, root.Tag)
	}
	if got := root.NthHook(0); got != "loop" {
		t.Fatalf("expected hook payload \"loop\", got %v", got)
	}
}

func TestParseReportsStuckDFA(t *testing.T) {
	dfas := dfa.NewRegistry()
	dfas.AddTable(dfa.Table{
		Rule: "strict", Kind: dfa.Principle, NStates: 1,
		Entries: []dfa.Entry{
			{SState: 0, EState: -1, Match: dfa.Matcher{Kind: lex.NAME}},
		},
	})
	if err := dfas.Compile(); err != nil {
		t.Fatalf("dfa compile failed: %v", err)
	}
	drv := parser.NewDriver(dfas, reduce.NewRegistry())

	_, err := drv.Parse("strict", []lex.Token{{Kind: lex.INTEGER, Value: "1"}})
	if err == nil {
		t.Fatal("expected a stuck-DFA parse error")
	}
}
