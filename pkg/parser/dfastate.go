// Package parser implements the DFA-driven parser driver: dfa_advance
// walks a compiled DFA graph (pkg/dfa) consuming tokens (pkg/lex), pushing
// nested sub-DFAs as dfastates and firing reductions (pkg/reduce) that
// build tree nodes (pkg/tree) on each dfastate's node-stack.
package parser

import "github.com/nocc-avr/nocc/pkg/tree"
import "github.com/nocc-avr/nocc/pkg/dfa"

// DFAState (dfastate) is one level of DFA nesting: the DFA it is currently
// walking, the state it is in, its own node-stack, and — for every state
// but the outermost — the caller to return to and the state to resume at
// there once this sub-DFA ends.
type DFAState struct {
	DFA    *dfa.DFA
	Node   int
	Nodes  []*tree.Node
	Caller *DFAState
	Resume int
}

// pushNode appends n to this state's node-stack.
func (s *DFAState) pushNode(n *tree.Node) { s.Nodes = append(s.Nodes, n) }

// popToCaller moves the top of this state's node-stack onto its caller's,
// per §4.3's "return to the parent dfastate" rule.
func (s *DFAState) popToCaller() {
	if s.Caller == nil || len(s.Nodes) == 0 {
		return
	}
	top := s.Nodes[len(s.Nodes)-1]
	s.Nodes = s.Nodes[:len(s.Nodes)-1]
	s.Caller.pushNode(top)
}
