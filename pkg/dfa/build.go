package dfa

import (
	"fmt"
	"sort"
)

// BuildError aggregates every problem found while merging and compiling the
// registered tables, mirroring the way back-end codegen errors are
// collected rather than stopping at the first one.
type BuildError []error

func (e BuildError) Error() string {
	s := ""
	for i, err := range e {
		if i > 0 {
			s += "; "
		}
		s += err.Error()
	}
	return s
}

// Registry accumulates source tables and compiles them into named DFA
// graphs, resolving push references by name across rules.
type Registry struct {
	tables  map[string][]Table // rule name -> tables in registration order
	order   []string           // rule names in first-seen order
	dfas    map[string]*DFA
	pending []pendingPush // deferred push targets not yet resolved
}

type pendingPush struct {
	dfaName  string
	nodeID   int
	transIdx int
	wantName string
}

// NewRegistry returns an empty table registry.
func NewRegistry() *Registry {
	return &Registry{tables: map[string][]Table{}, dfas: map[string]*DFA{}}
}

// AddTable registers a source table for later merge/compile. Multiple
// tables for the same rule are merged in Compile: the principle table (if
// any) always merges first regardless of registration order.
func (r *Registry) AddTable(t Table) {
	if _, ok := r.tables[t.Rule]; !ok {
		r.order = append(r.order, t.Rule)
	}
	r.tables[t.Rule] = append(r.tables[t.Rule], t)
}

// Compile merges and compiles every registered rule, then resolves deferred
// push references. It returns a BuildError listing every rule that could
// not be merged and every push reference left unresolved.
func (r *Registry) Compile() error {
	var errs BuildError

	names := append([]string(nil), r.order...)
	sort.Strings(names)

	for _, name := range names {
		d, err := r.compileRule(name, r.tables[name])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r.dfas[name] = d
	}

	var stillPending []pendingPush
	for _, p := range r.pending {
		if _, ok := r.dfas[p.wantName]; ok {
			d := r.dfas[p.dfaName]
			d.Nodes[p.nodeID].Transitions[p.transIdx].PushTo = p.wantName
			d.Nodes[p.nodeID].Transitions[p.transIdx].Flags &^= Deferred
		} else {
			stillPending = append(stillPending, p)
		}
	}
	r.pending = stillPending
	for _, p := range r.pending {
		errs = append(errs, fmt.Errorf("dfa: unresolved push target %q referenced from rule %q", p.wantName, p.dfaName))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Lookup returns the compiled DFA for name, if Compile has produced one.
func (r *Registry) Lookup(name string) (*DFA, bool) {
	d, ok := r.dfas[name]
	return d, ok
}

// compileRule merges all tables registered for one rule name (principle
// first, additive tables in registration order, per §4.3 item 2) and
// compiles the result into a linked Node graph.
func (r *Registry) compileRule(name string, tables []Table) (*DFA, error) {
	var principle *Table
	var additives []*Table
	for i := range tables {
		if tables[i].Kind == Principle && principle == nil {
			principle = &tables[i]
		} else {
			additives = append(additives, &tables[i])
		}
	}
	if principle == nil {
		if len(tables) == 0 {
			return nil, fmt.Errorf("dfa: rule %q has no tables", name)
		}
		// No explicit principle was marked; treat the first-registered
		// table as the principle, same as a single-table rule would be.
		principle = &tables[0]
		rest := tables[1:]
		additives = additives[:0]
		for i := range rest {
			additives = append(additives, &rest[i])
		}
	}

	nstates := principle.NStates
	nodes := make([]*Node, nstates)
	for i := range nodes {
		nodes[i] = &Node{ID: i}
	}

	addEntry := func(e Entry) {
		t := Transition{Match: e.Match, Target: e.EState, Flags: e.Flags}
		if e.Flags&Push != 0 {
			t.PushTo = e.PushTo
		}
		nodes[e.SState].Transitions = append(nodes[e.SState].Transitions, t)
		if e.EState >= 0 && e.EState < len(nodes) {
			nodes[e.EState].Incoming++
			if e.Reduce != "" {
				nodes[e.EState].Reduce = &ReduceRef{Name: e.Reduce, Arg: e.RArg}
			}
		}
	}
	for _, e := range principle.Entries {
		addEntry(e)
	}

	offset := nstates
	for _, add := range additives {
		// Additive state 0 is the rule's entry point and is folded onto the
		// principle's state 0 so its leading transitions can prefix-share;
		// every other additive state is renumbered past the existing graph.
		remap := make([]int, add.NStates)
		for s := 0; s < add.NStates; s++ {
			if s == 0 {
				remap[s] = 0
				continue
			}
			remap[s] = offset
			offset++
			nodes = append(nodes, &Node{ID: remap[s]})
		}

		for _, e := range add.Entries {
			ss := remap[e.SState]
			es := -1
			if e.EState >= 0 {
				es = remap[e.EState]
			}

			if shared := findSharedTransition(nodes[ss], e.Match); shared != nil && ss == 0 {
				// Prefix sharing: an identical leading match out of the
				// shared entry state reuses the principle's existing edge
				// instead of adding a parallel one.
				continue
			}

			t := Transition{Match: e.Match, Target: es, Flags: e.Flags}
			if e.Flags&Push != 0 {
				t.PushTo = e.PushTo
			}
			nodes[ss].Transitions = append(nodes[ss].Transitions, t)
			if es >= 0 {
				nodes[es].Incoming++
			}
			if e.Reduce != "" && es >= 0 {
				nodes[es].Reduce = &ReduceRef{Name: e.Reduce, Arg: e.RArg}
			}
		}
	}

	for _, n := range nodes {
		if err := sortTransitions(n); err != nil {
			return nil, fmt.Errorf("dfa: rule %q: %w", name, err)
		}
	}

	d := &DFA{Name: name, Nodes: nodes, Start: 0}

	for _, n := range nodes {
		for i, t := range n.Transitions {
			if t.Flags&Push != 0 && t.PushTo != "" {
				if _, ok := r.dfas[t.PushTo]; !ok {
					r.pending = append(r.pending, pendingPush{dfaName: name, nodeID: n.ID, transIdx: i, wantName: t.PushTo})
				}
			}
		}
	}

	return d, nil
}

// findSharedTransition reports an existing transition out of n whose
// matcher equals m, used to detect additive prefix sharing.
func findSharedTransition(n *Node, m Matcher) *Transition {
	for i := range n.Transitions {
		if n.Transitions[i].Match == m {
			return &n.Transitions[i]
		}
	}
	return nil
}

// sortTransitions enforces the invariant that a match-any (NOTOKEN)
// transition, if present, is unique and sorts last so specific matches are
// always tried first.
func sortTransitions(n *Node) error {
	anyCount := 0
	for _, t := range n.Transitions {
		if t.Match.Any {
			anyCount++
		}
	}
	if anyCount > 1 {
		return fmt.Errorf("node %d has %d match-any transitions, want at most 1", n.ID, anyCount)
	}
	sort.SliceStable(n.Transitions, func(i, j int) bool {
		return !n.Transitions[i].Match.Any && n.Transitions[j].Match.Any
	})
	return nil
}
