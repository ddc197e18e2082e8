package reduce

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// opcodeNames maps the textual mnemonic used in a rule's DSL source to its
// Op value.
var opcodeNames = map[string]Op{
	"NSPOP": NSPOP, "NSPUSH": NSPUSH, "TSPOP": TSPOP,
	"TSREWIND": TSREWIND, "TS1REWIND": TS1REWIND, "NULL": NULL,
	"REV": REV, "ALLREV": ALLREV, "ROTLEFT": ROTLEFT, "ROTRIGHT": ROTRIGHT,
	"MODPTR": MODPTR, "MOD": MOD, "USERMOD": USERMOD,
	"RGET": RGET, "RSET": RSET,
	"COMBINE": COMBINE, "COMBINETAG": COMBINETAG, "SETTAGMARK": SETTAGMARK,
	"SETORIGIN_N": SETORIGIN_N, "SETORIGIN_T": SETORIGIN_T,
	"SETORIGIN_NS": SETORIGIN_NS, "SETORIGIN_TS": SETORIGIN_TS,
	"CONSUME_N": CONSUME_N, "CONSUME_T": CONSUME_T,
	"MAKELIST": MAKELIST, "EXTRACT": EXTRACT, "FOLDINTO": FOLDINTO,
	"END": END,
}

// Compile parses a rule's textual form — a whitespace-separated sequence of
// opcode mnemonics and their inline operands — into a Program, statically
// rejecting a rule that pops the local stack below empty. The depth left at
// END is not checked, and USERMOD and COMBINETAG are not counted. The arity
// invariant for COMBINE/COMBINETAG is checked at Run time, once the tag is
// known.
//
// This is an original rendering of the mini-DSL described in the reduction
// engine's design, not a transcription of any particular textual grammar:
// only the opcode vocabulary and stack-balance discipline are load-bearing.
func Compile(src string) (Program, error) {
	fields := strings.Fields(src)
	var prog Program
	depth := 0
	minDepth := 0

	for i := 0; i < len(fields); i++ {
		name := fields[i]
		op, ok := opcodeNames[name]
		if !ok {
			return nil, fmt.Errorf("reduce: unknown opcode %q", name)
		}

		instr := Instr{Op: op}
		switch op {
		case COMBINE:
			n, tag, err := takeIntName(fields, &i)
			if err != nil {
				return nil, err
			}
			instr.N, instr.Name = n, tag
			depth -= n
			depth++
		case COMBINETAG:
			mark, err := takeInt(fields, &i)
			if err != nil {
				return nil, err
			}
			instr.N = mark
			// arity unknown until the tag marker resolves; do not track depth
		case SETTAGMARK:
			mark, tag, err := takeIntName(fields, &i)
			if err != nil {
				return nil, err
			}
			instr.N, instr.Name = mark, tag
		case SETORIGIN_N, SETORIGIN_T, SETORIGIN_NS, SETORIGIN_TS, MAKELIST, EXTRACT, FOLDINTO:
			k, err := takeInt(fields, &i)
			if err != nil {
				return nil, err
			}
			instr.N = k
			switch op {
			case MAKELIST:
				depth -= k
				depth++
			case EXTRACT:
				depth++
			case FOLDINTO:
				depth -= 2
				depth++
			}
		case MOD, MODPTR, USERMOD:
			fn, err := takeName(fields, &i)
			if err != nil {
				return nil, err
			}
			instr.Name = fn
		case NSPOP, TSPOP, NULL, RGET:
			depth++
		case NSPUSH, RSET, CONSUME_N, CONSUME_T:
			depth--
		}

		if depth < minDepth {
			minDepth = depth
		}
		prog = append(prog, instr)
	}

	if minDepth < 0 {
		return nil, fmt.Errorf("reduce: rule underflows local stack by %d", -minDepth)
	}
	if len(prog) == 0 || prog[len(prog)-1].Op != END {
		prog = append(prog, Instr{Op: END})
	}
	return prog, nil
}

func takeInt(fields []string, i *int) (int, error) {
	*i++
	if *i >= len(fields) {
		return 0, fmt.Errorf("reduce: %s: missing numeric operand", fields[*i-1])
	}
	n, err := strconv.Atoi(fields[*i])
	if err != nil {
		return 0, fmt.Errorf("reduce: expected integer, got %q", fields[*i])
	}
	return n, nil
}

func takeName(fields []string, i *int) (string, error) {
	*i++
	if *i >= len(fields) {
		return "", fmt.Errorf("reduce: %s: missing name operand", fields[*i-1])
	}
	return fields[*i], nil
}

func takeIntName(fields []string, i *int) (int, string, error) {
	n, err := takeInt(fields, i)
	if err != nil {
		return 0, "", err
	}
	name, err := takeName(fields, i)
	if err != nil {
		return 0, "", err
	}
	return n, name, nil
}

// Registry is a named-rule table (one per NewRegistry call): symbolic rule names
// resolved by `{<name>}` references inside DFA descriptions.
type Registry struct {
	mu    sync.Mutex
	rules map[string]Program
}

// NewRegistry returns an empty named-rule table.
func NewRegistry() *Registry { return &Registry{rules: map[string]Program{}} }

// Register compiles src and binds it to name. Re-registering the same name
// is an error — rules, like node types and tags, are expected to be set up
// once during initialisation.
func (r *Registry) Register(name, src string) error {
	prog, err := Compile(src)
	if err != nil {
		return fmt.Errorf("reduce: rule %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[name]; exists {
		return fmt.Errorf("reduce: rule %q already registered", name)
	}
	r.rules[name] = prog
	return nil
}

// Lookup returns the compiled program bound to name.
func (r *Registry) Lookup(name string) (Program, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rules[name]
	return p, ok
}
