package parser

import (
	"fmt"

	"github.com/nocc-avr/nocc/pkg/dfa"
	"github.com/nocc-avr/nocc/pkg/lex"
	"github.com/nocc-avr/nocc/pkg/reduce"
	"github.com/nocc-avr/nocc/pkg/tree"
)

// Driver owns the compiled-DFA registry and reduction-rule registry and
// runs the dfa_advance loop over one token stream per Parse call.
type Driver struct {
	DFAs      *dfa.Registry
	Reducers  *reduce.Registry
	UserFuncs map[string]any // installed onto every reduce.Machine this driver creates
}

// NewDriver returns a driver over the given already-compiled registries.
func NewDriver(dfas *dfa.Registry, reducers *reduce.Registry) *Driver {
	return &Driver{DFAs: dfas, Reducers: reducers, UserFuncs: map[string]any{}}
}

// Parse runs the named start rule over tokens, driving dfa_advance until
// the top-level DFA ends, and returns the single resulting tree node.
func (d *Driver) Parse(startRule string, tokens []lex.Token) (*tree.Node, error) {
	start, ok := d.DFAs.Lookup(startRule)
	if !ok {
		return nil, fmt.Errorf("parser: unknown start rule %q", startRule)
	}

	state := &DFAState{DFA: start, Node: start.Start}
	var tokenStack []lex.Token
	pos := 0

	nextToken := func() lex.Token {
		if pos >= len(tokens) {
			return lex.Token{Kind: lex.END}
		}
		return tokens[pos]
	}

	for {
		tok := nextToken()
		node := state.DFA.NodeAt(state.Node)
		step, err := dfa.Advance(node, tok)
		if err != nil {
			return nil, err
		}

		switch step.Outcome {
		case dfa.Consumed, dfa.EndOfDFA, dfa.Pushed:
			if step.Flags&dfa.Keep != 0 {
				tokenStack = append(tokenStack, tok)
			}
			if step.Flags&dfa.NoConsume == 0 && pos < len(tokens) {
				pos++
			}
		}

		fireReduce := func() error {
			reduced := state.DFA.NodeAt(state.Node).Reduce
			if reduced == nil {
				return nil
			}
			prog, ok := d.Reducers.Lookup(reduced.Name)
			if !ok {
				return fmt.Errorf("parser: reduction %q not registered", reduced.Name)
			}
			m := reduce.NewMachine()
			m.Tokens = tokenStack
			m.Nodes = state.Nodes
			for name, fn := range d.UserFuncs {
				m.Funcs[name] = fn
			}
			if err := m.Run(prog); err != nil {
				return fmt.Errorf("parser: reduction %q: %w", reduced.Name, err)
			}
			tokenStack = m.Tokens
			state.Nodes = m.Nodes
			if len(m.Rewound) > 0 {
				pos -= len(m.Rewound)
				if pos < 0 {
					pos = 0
				}
			}
			return nil
		}

		switch step.Outcome {
		case dfa.Pushed:
			sub, ok := d.DFAs.Lookup(step.PushTo)
			if !ok {
				return nil, fmt.Errorf("parser: push target %q not compiled", step.PushTo)
			}
			state = &DFAState{DFA: sub, Node: sub.Start, Caller: state, Resume: step.Target}
			continue

		case dfa.EndOfDFA:
			if state.Caller == nil {
				if len(state.Nodes) == 0 {
					return nil, fmt.Errorf("parser: %q produced no tree node", startRule)
				}
				return state.Nodes[len(state.Nodes)-1], nil
			}
			state.popToCaller()
			state = state.Caller
			state.Node = state.Resume
			if err := fireReduce(); err != nil {
				return nil, err
			}
			continue

		case dfa.Consumed:
			state.Node = step.Target
			if err := fireReduce(); err != nil {
				return nil, err
			}
		}
	}
}
