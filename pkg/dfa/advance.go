package dfa

import (
	"fmt"

	"github.com/nocc-avr/nocc/pkg/lex"
)

// Outcome is the result of a single dfa_advance step.
type Outcome int

const (
	Consumed   Outcome = iota // moved to Target, token consumed per flags
	Pushed                    // descended into PushTo; caller must save Target to resume at
	EndOfDFA                  // Target was -1: this DFA run ends here
	NoMatch                   // no transition accepted the token
)

// Step is the decision produced by Advance for one (node, token) pair.
type Step struct {
	Outcome Outcome
	Target  int
	PushTo  string
	Flags   Flags
	Reduce  *ReduceRef
}

// Advance scans node's transitions in order (specific matches before any
// match-any fallback, per the compiled ordering) and returns the first one
// that accepts tok.
func Advance(node *Node, tok lex.Token) (Step, error) {
	for _, t := range node.Transitions {
		if !t.Match.Matches(tok) {
			continue
		}
		if t.Flags&Push != 0 {
			return Step{Outcome: Pushed, Target: t.Target, PushTo: t.PushTo, Flags: t.Flags}, nil
		}
		if t.Target < 0 {
			return Step{Outcome: EndOfDFA, Target: -1, Flags: t.Flags}, nil
		}
		return Step{Outcome: Consumed, Target: t.Target, Flags: t.Flags}, nil
	}
	return Step{Outcome: NoMatch}, &NoMatchError{Node: node, Token: tok}
}

// NoMatchError reports a stuck DFA: no transition out of Node accepted
// Token, together with the matchers that would have been accepted.
type NoMatchError struct {
	Node  *Node
	Token lex.Token
}

func (e *NoMatchError) Error() string {
	expected := make([]string, 0, len(e.Node.Transitions))
	for _, t := range e.Node.Transitions {
		expected = append(expected, t.Match.String())
	}
	loc := ""
	if e.Token.Org != nil {
		loc = fmt.Sprintf("%s:%d: ", e.Token.Org.File, e.Token.Org.Line)
	}
	return fmt.Sprintf("%sparse error: unexpected %s %q, expected one of %v", loc, e.Token.Kind, e.Token.Value, expected)
}
