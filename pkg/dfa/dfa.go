// Package dfa implements the table-driven DFA engine: textual transition
// tables (dfattbl) are merged and compiled into linked dfanode graphs that
// pkg/parser walks token by token.
package dfa

import (
	"fmt"

	"github.com/nocc-avr/nocc/pkg/lex"
)

// Flags are the per-transition behaviour bits.
type Flags uint8

const (
	Keep      Flags = 1 << iota // matched token is pushed onto the token-stack
	NoConsume                   // token is not eaten; stays for the next transition
	Push                        // descend into a named sub-DFA, resuming at Target on return
	Deferred                    // placeholder until cross-DFA resolution completes
)

// Matcher describes what a transition accepts: a token kind and, optionally,
// a specific literal value. The zero Matcher with Any set matches anything
// (NOTOKEN) and is used for default/fallback transitions.
type Matcher struct {
	Kind  lex.Kind
	Value string
	Any   bool
}

// Matches reports whether tok satisfies m.
func (m Matcher) Matches(tok lex.Token) bool {
	if m.Any {
		return true
	}
	if tok.Kind != m.Kind {
		return false
	}
	return m.Value == "" || m.Value == tok.Value
}

// String renders m for "expected one of ..." parse-error diagnostics.
func (m Matcher) String() string {
	if m.Any {
		return "<any>"
	}
	if m.Value != "" {
		return fmt.Sprintf("%s %q", m.Kind, m.Value)
	}
	return m.Kind.String()
}

// ReduceRef names a registered reduction rule plus its constant argument,
// resolved against pkg/reduce's rule table by the parser driver.
type ReduceRef struct {
	Name string
	Arg  int
}

// Transition is one compiled edge out of a Node.
type Transition struct {
	Match  Matcher
	Target int    // node index within the same DFA, or -1 if this ends the DFA
	PushTo string // name of the sub-DFA to descend into, empty if not a Push edge
	Flags  Flags
}

// Node is one compiled DFA state.
type Node struct {
	ID          int
	Transitions []Transition
	Reduce      *ReduceRef
	Incoming    int // incoming-edge count, for diagnostics/dumps
}

// DFA is a fully compiled, named transition graph.
type DFA struct {
	Name  string
	Nodes []*Node
	Start int
}

// NodeAt returns the Node at the given state index.
func (d *DFA) NodeAt(i int) *Node { return d.Nodes[i] }
