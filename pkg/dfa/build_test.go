package dfa_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/dfa"
	"github.com/nocc-avr/nocc/pkg/lex"
)

func TestCompileSimpleRule(t *testing.T) {
	r := dfa.NewRegistry()
	r.AddTable(dfa.Table{
		Rule: "number", Kind: dfa.Principle, NStates: 2,
		Entries: []dfa.Entry{
			{SState: 0, EState: 1, Match: dfa.Matcher{Kind: lex.INTEGER}, Flags: dfa.Keep},
			{SState: 1, EState: -1, Match: dfa.Matcher{Any: true}},
		},
	})

	if err := r.Compile(); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	d, ok := r.Lookup("number")
	if !ok {
		t.Fatal("expected compiled DFA for 'number'")
	}

	step, err := dfa.Advance(d.NodeAt(0), lex.Token{Kind: lex.INTEGER, Value: "42"})
	if err != nil {
		t.Fatalf("unexpected no-match: %v", err)
	}
	if step.Outcome != dfa.Consumed || step.Target != 1 {
		t.Fatalf("unexpected step: %+v", step)
	}
}

func TestAdvanceNoMatch(t *testing.T) {
	r := dfa.NewRegistry()
	r.AddTable(dfa.Table{
		Rule: "strict", Kind: dfa.Principle, NStates: 1,
		Entries: []dfa.Entry{
			{SState: 0, EState: -1, Match: dfa.Matcher{Kind: lex.NAME}},
		},
	})
	if err := r.Compile(); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	d, _ := r.Lookup("strict")

	_, err := dfa.Advance(d.NodeAt(0), lex.Token{Kind: lex.INTEGER, Value: "1"})
	if err == nil {
		t.Fatal("expected a no-match parse error")
	}
}

func TestUnresolvedPushIsBuildError(t *testing.T) {
	r := dfa.NewRegistry()
	r.AddTable(dfa.Table{
		Rule: "outer", Kind: dfa.Principle, NStates: 1,
		Entries: []dfa.Entry{
			{SState: 0, EState: 0, Match: dfa.Matcher{Kind: lex.NAME}, Flags: dfa.Push, PushTo: "missing"},
		},
	})

	err := r.Compile()
	if err == nil {
		t.Fatal("expected unresolved push to surface as a build error")
	}
}

func TestAdditivePrefixSharing(t *testing.T) {
	r := dfa.NewRegistry()
	r.AddTable(dfa.Table{
		Rule: "stmt", Kind: dfa.Principle, NStates: 2,
		Entries: []dfa.Entry{
			{SState: 0, EState: 1, Match: dfa.Matcher{Kind: lex.NAME, Value: "ldi"}},
		},
	})
	r.AddTable(dfa.Table{
		Rule: "stmt", Kind: dfa.Additive, NStates: 2,
		Entries: []dfa.Entry{
			{SState: 0, EState: 1, Match: dfa.Matcher{Kind: lex.NAME, Value: "ldi"}},
		},
	})

	if err := r.Compile(); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	d, _ := r.Lookup("stmt")
	if len(d.NodeAt(0).Transitions) != 1 {
		t.Fatalf("expected the additive's identical leading edge to share the principle's, got %d transitions", len(d.NodeAt(0).Transitions))
	}
}

func TestMatchAnySortsLast(t *testing.T) {
	r := dfa.NewRegistry()
	r.AddTable(dfa.Table{
		Rule: "fallback", Kind: dfa.Principle, NStates: 1,
		Entries: []dfa.Entry{
			{SState: 0, EState: -1, Match: dfa.Matcher{Any: true}},
			{SState: 0, EState: -1, Match: dfa.Matcher{Kind: lex.NAME}},
		},
	})
	if err := r.Compile(); err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	d, _ := r.Lookup("fallback")
	trans := d.NodeAt(0).Transitions
	if trans[len(trans)-1].Match.Any != true {
		t.Fatalf("expected match-any transition last, got %+v", trans)
	}
}
