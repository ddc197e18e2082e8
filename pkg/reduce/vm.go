package reduce

import (
	"fmt"

	"github.com/nocc-avr/nocc/pkg/lex"
	"github.com/nocc-avr/nocc/pkg/tree"
)

// maxLocal is the bound on the local operand stack, enforced at run time by
// pushLocal.
const maxLocal = 16

// ListNode is the generic list-shaped value MAKELIST produces: a plain
// ordered run of subnodes with no fixed arity, distinct from a tagged
// tree.Node (whose item count is always tag.Type.Arity()).
type ListNode struct {
	Org   *tree.Origin
	Items []*tree.Node
}

// ModFunc transforms local's top value in place (MOD).
type ModFunc func(v any) (any, error)

// ModPtrFunc mutates local's top value through a pointer (MODPTR).
type ModPtrFunc func(v *any) error

// UserModFunc transforms the entire local stack (USERMOD).
type UserModFunc func(stack []any) ([]any, error)

// Machine is the execution context a reduction Program runs against: the
// parser's token-stack, the current dfastate's node-stack, a bounded local
// operand stack, and the single result slot.
type Machine struct {
	Tokens []lex.Token
	Nodes  []*tree.Node
	Local  []any
	Result any

	TagMarks map[string]*tree.NodeTag
	Funcs    map[string]any // one of ModFunc, ModPtrFunc, UserModFunc

	Rewound []lex.Token // tokens TSREWIND/TS1REWIND hand back to the parser

	pendingOrigin *tree.Origin
}

// NewMachine returns an empty execution context.
func NewMachine() *Machine {
	return &Machine{TagMarks: map[string]*tree.NodeTag{}, Funcs: map[string]any{}}
}

func (m *Machine) pushLocal(v any) error {
	if len(m.Local) >= maxLocal {
		return fmt.Errorf("reduce: local stack overflow (max %d)", maxLocal)
	}
	m.Local = append(m.Local, v)
	return nil
}

func (m *Machine) popLocal() (any, error) {
	if len(m.Local) == 0 {
		return nil, fmt.Errorf("reduce: local stack underflow")
	}
	v := m.Local[len(m.Local)-1]
	m.Local = m.Local[:len(m.Local)-1]
	return v, nil
}

func (m *Machine) popLocalN(n int) ([]any, error) {
	if n < 0 || n > len(m.Local) {
		return nil, fmt.Errorf("reduce: cannot pop %d items, have %d", n, len(m.Local))
	}
	items := append([]any(nil), m.Local[len(m.Local)-n:]...)
	m.Local = m.Local[:len(m.Local)-n]
	return items, nil
}

// Run executes p against m. A Program always ends in END; Run returns early
// with an error on any stack-discipline violation or unresolved reference.
func (m *Machine) Run(p Program) error {
	for _, instr := range p {
		if err := m.step(instr); err != nil {
			return err
		}
		if instr.Op == END {
			break
		}
	}
	return nil
}

func (m *Machine) step(instr Instr) error {
	switch instr.Op {
	case NSPOP:
		if len(m.Nodes) == 0 {
			return fmt.Errorf("reduce: NSPOP on empty node-stack")
		}
		n := m.Nodes[len(m.Nodes)-1]
		m.Nodes = m.Nodes[:len(m.Nodes)-1]
		return m.pushLocal(n)

	case NSPUSH:
		v, err := m.popLocal()
		if err != nil {
			return err
		}
		n, ok := v.(*tree.Node)
		if !ok {
			return fmt.Errorf("reduce: NSPUSH expected *tree.Node, got %T", v)
		}
		m.Nodes = append(m.Nodes, n)
		return nil

	case TSPOP:
		if len(m.Tokens) == 0 {
			return fmt.Errorf("reduce: TSPOP on empty token-stack")
		}
		tok := m.Tokens[len(m.Tokens)-1]
		m.Tokens = m.Tokens[:len(m.Tokens)-1]
		return m.pushLocal(tok)

	case TSREWIND:
		m.Rewound = append(m.Rewound, m.Tokens...)
		m.Tokens = nil
		return nil

	case TS1REWIND:
		if len(m.Tokens) == 0 {
			return fmt.Errorf("reduce: TS1REWIND on empty token-stack")
		}
		m.Rewound = append(m.Rewound, m.Tokens[len(m.Tokens)-1])
		m.Tokens = m.Tokens[:len(m.Tokens)-1]
		return nil

	case NULL:
		return m.pushLocal(nil)

	case REV:
		if len(m.Local) < 2 {
			return fmt.Errorf("reduce: REV needs 2 local entries")
		}
		i, j := len(m.Local)-1, len(m.Local)-2
		m.Local[i], m.Local[j] = m.Local[j], m.Local[i]
		return nil

	case ALLREV:
		for i, j := 0, len(m.Local)-1; i < j; i, j = i+1, j-1 {
			m.Local[i], m.Local[j] = m.Local[j], m.Local[i]
		}
		return nil

	case ROTLEFT:
		if len(m.Local) < 2 {
			return nil
		}
		first := m.Local[0]
		m.Local = append(m.Local[1:], first)
		return nil

	case ROTRIGHT:
		if len(m.Local) < 2 {
			return nil
		}
		last := m.Local[len(m.Local)-1]
		m.Local = append([]any{last}, m.Local[:len(m.Local)-1]...)
		return nil

	case MODPTR:
		fn, ok := m.Funcs[instr.Name].(ModPtrFunc)
		if !ok {
			return fmt.Errorf("reduce: MODPTR: no registered function %q", instr.Name)
		}
		if len(m.Local) == 0 {
			return fmt.Errorf("reduce: MODPTR on empty local stack")
		}
		return fn(&m.Local[len(m.Local)-1])

	case MOD:
		fn, ok := m.Funcs[instr.Name].(ModFunc)
		if !ok {
			return fmt.Errorf("reduce: MOD: no registered function %q", instr.Name)
		}
		v, err := m.popLocal()
		if err != nil {
			return err
		}
		out, err := fn(v)
		if err != nil {
			return err
		}
		return m.pushLocal(out)

	case USERMOD:
		fn, ok := m.Funcs[instr.Name].(UserModFunc)
		if !ok {
			return fmt.Errorf("reduce: USERMOD: no registered function %q", instr.Name)
		}
		out, err := fn(m.Local)
		if err != nil {
			return err
		}
		m.Local = out
		return nil

	case RGET:
		return m.pushLocal(m.Result)

	case RSET:
		v, err := m.popLocal()
		if err != nil {
			return err
		}
		m.Result = v
		return nil

	case COMBINE:
		tag, ok := tree.LookupNodeTag(instr.Name)
		if !ok {
			return fmt.Errorf("reduce: COMBINE: unknown tag %q", instr.Name)
		}
		return m.combine(instr.N, tag)

	case SETTAGMARK:
		tag, ok := tree.LookupNodeTag(instr.Name)
		if !ok {
			return fmt.Errorf("reduce: SETTAGMARK: unknown tag %q", instr.Name)
		}
		m.TagMarks[markKey(instr.N)] = tag
		return nil

	case COMBINETAG:
		tag, ok := m.TagMarks[markKey(instr.N)]
		if !ok {
			return fmt.Errorf("reduce: COMBINETAG: unbound tag marker %d", instr.N)
		}
		return m.combine(len(m.Local), tag)

	case SETORIGIN_N:
		return m.setOriginFrom(m.Local, instr.N)
	case SETORIGIN_T:
		return m.setOriginFromTokens(instr.N)
	case SETORIGIN_NS:
		return m.setOriginFromNodes(instr.N)
	case SETORIGIN_TS:
		return m.setOriginFromTokenStack(instr.N)

	case CONSUME_N:
		v, err := m.popLocal()
		if err != nil {
			return err
		}
		if _, ok := v.(*tree.Node); !ok && v != nil {
			return fmt.Errorf("reduce: CONSUME_N expected a node, got %T", v)
		}
		return nil

	case CONSUME_T:
		v, err := m.popLocal()
		if err != nil {
			return err
		}
		if _, ok := v.(lex.Token); !ok {
			return fmt.Errorf("reduce: CONSUME_T expected a token, got %T", v)
		}
		return nil

	case MAKELIST:
		items, err := m.popLocalN(instr.N)
		if err != nil {
			return err
		}
		list := &ListNode{Org: m.pendingOrigin}
		m.pendingOrigin = nil
		for _, it := range items {
			n, ok := it.(*tree.Node)
			if !ok && it != nil {
				return fmt.Errorf("reduce: MAKELIST expected *tree.Node items, got %T", it)
			}
			list.Items = append(list.Items, n)
		}
		return m.pushLocal(list)

	case EXTRACT:
		if len(m.Local) == 0 {
			return fmt.Errorf("reduce: EXTRACT on empty local stack")
		}
		v := m.Local[len(m.Local)-1]
		switch top := v.(type) {
		case *ListNode:
			if instr.N < 0 || instr.N >= len(top.Items) {
				return fmt.Errorf("reduce: EXTRACT %d out of range for list of %d", instr.N, len(top.Items))
			}
			return m.pushLocal(top.Items[instr.N])
		case *tree.Node:
			sub := top.NthSub(instr.N)
			return m.pushLocal(sub)
		default:
			return fmt.Errorf("reduce: EXTRACT expected a node or list, got %T", v)
		}

	case FOLDINTO:
		popped, err := m.popLocal()
		if err != nil {
			return err
		}
		if len(m.Local) == 0 {
			return fmt.Errorf("reduce: FOLDINTO needs a second-from-top entry")
		}
		target := m.Local[len(m.Local)-1]
		switch dst := target.(type) {
		case *ListNode:
			if instr.N < 0 || instr.N >= len(dst.Items) {
				return fmt.Errorf("reduce: FOLDINTO %d out of range for list of %d", instr.N, len(dst.Items))
			}
			n, ok := popped.(*tree.Node)
			if !ok && popped != nil {
				return fmt.Errorf("reduce: FOLDINTO expected *tree.Node, got %T", popped)
			}
			dst.Items[instr.N] = n
		case *tree.Node:
			n, ok := popped.(*tree.Node)
			if !ok && popped != nil {
				return fmt.Errorf("reduce: FOLDINTO expected *tree.Node, got %T", popped)
			}
			dst.SetNthSub(instr.N, n)
		default:
			return fmt.Errorf("reduce: FOLDINTO target must be a node or list, got %T", target)
		}
		return nil

	case END:
		return nil

	default:
		return fmt.Errorf("reduce: unknown opcode %d", instr.Op)
	}
}

func markKey(mark int) string { return fmt.Sprintf("mark#%d", mark) }

func (m *Machine) combine(n int, tag *tree.NodeTag) error {
	if want := tag.Type.Arity(); n != want {
		return fmt.Errorf("reduce: COMBINE %d for tag %q: arity invariant violated, want %d", n, tag.Name, want)
	}
	items, err := m.popLocalN(n)
	if err != nil {
		return err
	}
	org := m.pendingOrigin
	m.pendingOrigin = nil
	node := tree.New(tag, org)
	copy(node.Items, items)
	return m.pushLocal(node)
}

func (m *Machine) setOriginFrom(stack []any, k int) error {
	idx := len(stack) - 1 - k
	if idx < 0 || idx >= len(stack) {
		return fmt.Errorf("reduce: SETORIGIN_N %d out of range", k)
	}
	if n, ok := stack[idx].(*tree.Node); ok && n != nil {
		m.pendingOrigin = n.Org
	}
	return nil
}

func (m *Machine) setOriginFromTokens(k int) error {
	idx := len(m.Local) - 1 - k
	if idx < 0 || idx >= len(m.Local) {
		return fmt.Errorf("reduce: SETORIGIN_T %d out of range", k)
	}
	if tok, ok := m.Local[idx].(lex.Token); ok {
		m.pendingOrigin = tok.Org
	}
	return nil
}

func (m *Machine) setOriginFromNodes(k int) error {
	idx := len(m.Nodes) - 1 - k
	if idx < 0 || idx >= len(m.Nodes) {
		return fmt.Errorf("reduce: SETORIGIN_NS %d out of range", k)
	}
	m.pendingOrigin = m.Nodes[idx].Org
	return nil
}

func (m *Machine) setOriginFromTokenStack(k int) error {
	idx := len(m.Tokens) - 1 - k
	if idx < 0 || idx >= len(m.Tokens) {
		return fmt.Errorf("reduce: SETORIGIN_TS %d out of range", k)
	}
	m.pendingOrigin = m.Tokens[idx].Org
	return nil
}
