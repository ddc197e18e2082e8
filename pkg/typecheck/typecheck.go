// Package typecheck implements type querying and subsumption: every node
// answers "what is your type" through a langop, and a formal/actual
// subsumption check supports generic parameterised types via a per-type
// "typereduce" reducer.
package typecheck

import (
	"fmt"

	"github.com/nocc-avr/nocc/pkg/tree"
)

// GetType queries node's "gettype" langop, falling back to def if node has
// none or the langop declines to answer.
func GetType(node *tree.Node, def *tree.Node) *tree.Node {
	if node == nil || node.Tag == nil || node.Tag.Type == nil || node.Tag.Type.Langops == nil {
		return def
	}
	result, ok, err := node.Tag.Type.Langops.Call("gettype", node)
	if !ok || err != nil {
		return def
	}
	t, ok := result.(*tree.Node)
	if !ok || t == nil {
		return def
	}
	return t
}

// Instance binds generic type-parameter names to concrete type nodes while
// a subsumption check is in progress.
type Instance map[string]*tree.Node

// Checker carries whatever cross-check state a front end's type rules need
// (e.g. a symbol table to resolve named types); typecheck itself is
// stateless and only forwards tc to the langops it calls through.
type Checker struct {
	State any
}

// TypeActual checks whether actual satisfies formal, returning the concrete
// type to use in its place. A formal tagged as a type parameter resolves
// through its "typereduce" langop (binding or checking consistency against
// instance); any other formal simply compares its tag against actual's,
// requiring an exact match — front ends that need real subtyping install a
// richer "typereduce" langop on their own formal-type nodes instead of
// relying on this default.
func TypeActual(formal, actual *tree.Node, instance Instance, tc *Checker) (*tree.Node, error) {
	if formal == nil {
		return actual, nil
	}
	if actual == nil {
		return nil, fmt.Errorf("typecheck: missing actual for formal %s", formalName(formal))
	}

	if formal.Tag != nil && formal.Tag.Type != nil && formal.Tag.Type.Langops != nil {
		if result, ok, err := formal.Tag.Type.Langops.Call("typereduce", formal, actual, instance, tc); ok {
			if err != nil {
				return nil, err
			}
			t, _ := result.(*tree.Node)
			if t == nil {
				return nil, fmt.Errorf("typecheck: typereduce for %s produced no type", formalName(formal))
			}
			return t, nil
		}
	}

	if formal.Tag != actual.Tag {
		return nil, fmt.Errorf("typecheck: expected %s, got %s", formalName(formal), formalName(actual))
	}
	return actual, nil
}

// TypeActualList checks a list of actuals against a list of formals
// element-wise, per §4.7's "lists are typed element-wise against a list of
// formals". Mismatched lengths are always an error.
func TypeActualList(formals, actuals []*tree.Node, instance Instance, tc *Checker) ([]*tree.Node, error) {
	if len(formals) != len(actuals) {
		return nil, fmt.Errorf("typecheck: expected %d argument(s), got %d", len(formals), len(actuals))
	}
	resolved := make([]*tree.Node, len(formals))
	for i := range formals {
		t, err := TypeActual(formals[i], actuals[i], instance, tc)
		if err != nil {
			return nil, fmt.Errorf("typecheck: argument %d: %w", i, err)
		}
		resolved[i] = t
	}
	return resolved, nil
}

func formalName(n *tree.Node) string {
	if n == nil || n.Tag == nil {
		return "<nil>"
	}
	return n.Tag.Name
}
