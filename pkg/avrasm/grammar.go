package avrasm

import (
	"fmt"
	"strings"

	"github.com/nocc-avr/nocc/pkg/avr"
	"github.com/nocc-avr/nocc/pkg/dfa"
	"github.com/nocc-avr/nocc/pkg/lex"
	"github.com/nocc-avr/nocc/pkg/parser"
	"github.com/nocc-avr/nocc/pkg/reduce"
	"github.com/nocc-avr/nocc/pkg/tree"
)

// statementTable is the one-line AVR assembly grammar: a directive
// (KEYWORD), a label declaration (NAME ':'), or an instruction (NAME plus
// zero, one or two operands), always terminated by NEWLINE. The Assembler
// pre-filters blank and comment-only lines before ever calling Parse, so
// this grammar only ever sees lines with real content.
var statementTable = dfa.Table{
	Rule: "statement", Kind: dfa.Principle, NStates: 14,
	Entries: []dfa.Entry{
		{SState: 0, EState: 1, Match: dfa.Matcher{Kind: lex.KEYWORD}, Flags: dfa.Keep},
		{SState: 0, EState: 5, Match: dfa.Matcher{Kind: lex.NAME}, Flags: dfa.Keep},

		// directive, zero operands (.text/.data/.eeprom)
		{SState: 1, EState: 2, Match: dfa.Matcher{Kind: lex.NEWLINE}, Reduce: "directive0"},
		{SState: 1, EState: 3, Match: dfa.Matcher{Any: true}, Flags: dfa.Push | dfa.NoConsume, PushTo: "operand"},
		{SState: 2, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},

		// directive, one operand (.mcu/.org/.space/.space16/.const/.const16)
		{SState: 3, EState: 4, Match: dfa.Matcher{Kind: lex.NEWLINE}, Reduce: "directive1"},
		{SState: 4, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},

		// label declaration: NAME ':'
		{SState: 5, EState: 6, Match: dfa.Matcher{Kind: lex.SYMBOL, Value: ":"}, Flags: dfa.Keep},
		{SState: 6, EState: 7, Match: dfa.Matcher{Kind: lex.NEWLINE}, Reduce: "label_stmt"},
		{SState: 7, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},

		// instruction, zero operands (ret, nop, ...)
		{SState: 5, EState: 8, Match: dfa.Matcher{Kind: lex.NEWLINE}, Reduce: "instr0"},
		{SState: 8, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},

		// instruction, one operand
		{SState: 5, EState: 9, Match: dfa.Matcher{Any: true}, Flags: dfa.Push | dfa.NoConsume, PushTo: "operand"},
		{SState: 9, EState: 10, Match: dfa.Matcher{Kind: lex.SYMBOL, Value: ","}},
		{SState: 9, EState: 12, Match: dfa.Matcher{Kind: lex.NEWLINE}, Reduce: "instr1"},
		{SState: 12, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},

		// instruction, two operands
		{SState: 10, EState: 11, Match: dfa.Matcher{Any: true}, Flags: dfa.Push | dfa.NoConsume, PushTo: "operand"},
		{SState: 11, EState: 13, Match: dfa.Matcher{Kind: lex.NEWLINE}, Reduce: "instr2"},
		{SState: 13, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},
	},
}

// operandTable recognises one instruction/directive operand: a bare
// register/index/label identifier, a bare integer constant, predecrement
// (-X/-Y/-Z), postincrement (X+/Y+/Z+) or Y/Z-plus-displacement (Y+5). Each
// shape's reduce fires the instant its defining token is consumed (never on
// the trailing lookahead that ends the rule), so a shape that turns out to
// need amending — a bare ident that is actually the start of "X+" or
// "Y+5" — is built optimistically and then corrected in place by the next
// shape's reduce. A reduce belongs to the state it enters, so the integer
// and string shapes end in separate states (6 and 10).
var operandTable = dfa.Table{
	Rule: "operand", Kind: dfa.Principle, NStates: 11,
	Entries: []dfa.Entry{
		{SState: 0, EState: 1, Match: dfa.Matcher{Kind: lex.SYMBOL, Value: "-"}, Flags: dfa.Keep},
		{SState: 0, EState: 3, Match: dfa.Matcher{Kind: lex.NAME}, Flags: dfa.Keep, Reduce: "op_bare_ident"},
		{SState: 0, EState: 6, Match: dfa.Matcher{Kind: lex.INTEGER}, Flags: dfa.Keep, Reduce: "op_bare_int"},
		{SState: 0, EState: 10, Match: dfa.Matcher{Kind: lex.STRING}, Flags: dfa.Keep, Reduce: "op_bare_string"},

		{SState: 1, EState: 2, Match: dfa.Matcher{Kind: lex.NAME}, Flags: dfa.Keep, Reduce: "op_predec"},
		{SState: 2, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},

		{SState: 3, EState: 4, Match: dfa.Matcher{Kind: lex.SYMBOL, Value: "+"}, Reduce: "op_amend_postinc"},
		// "low(label)"/"high(label)": the leading NAME was decoded optimistically
		// as a bare label reference by op_bare_ident above; seeing "(" means it
		// was actually a function name, corrected in place by op_amend_funccall.
		{SState: 3, EState: 7, Match: dfa.Matcher{Kind: lex.SYMBOL, Value: "("}, Flags: dfa.Keep},
		{SState: 3, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},

		{SState: 4, EState: 5, Match: dfa.Matcher{Kind: lex.INTEGER}, Flags: dfa.Keep, Reduce: "op_amend_disp"},
		{SState: 4, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},

		{SState: 5, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},
		{SState: 6, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},
		{SState: 10, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},

		{SState: 7, EState: 8, Match: dfa.Matcher{Kind: lex.NAME}, Flags: dfa.Keep},
		{SState: 8, EState: 9, Match: dfa.Matcher{Kind: lex.SYMBOL, Value: ")"}, Flags: dfa.Keep, Reduce: "op_amend_funccall"},
		{SState: 9, EState: -1, Match: dfa.Matcher{Any: true}, Flags: dfa.NoConsume},
	},
}

// directiveArg converts a directive's single decoded operand into the value
// assemble.go expects for that directive: .mcu names a target by a string or
// a bare identifier, .const takes a string or an integer, and the rest take
// a resolved integer.
func directiveArg(name string, op Operand) (any, error) {
	switch name {
	case ".mcu":
		switch op.Kind {
		case avr.OperString:
			return op.Str, nil
		case avr.OperLabel:
			return op.Label, nil
		default:
			return nil, fmt.Errorf("avrasm: %s expects a target name, got %v", name, op)
		}
	case ".const":
		switch op.Kind {
		case avr.OperString:
			return []byte(op.Str), nil
		case avr.OperConst:
			return op.Const, nil
		default:
			return nil, fmt.Errorf("avrasm: %s expects a string or integer constant, got %v", name, op)
		}
	case ".org", ".space", ".space16", ".const16":
		if op.Kind != avr.OperConst || !op.Have {
			return nil, fmt.Errorf("avrasm: %s expects an integer constant, got %v", name, op)
		}
		return op.Const, nil
	default:
		return nil, fmt.Errorf("avrasm: %s takes no operand", name)
	}
}

// tokStr, tok are small conveniences for the UserFuncs below.
func tokStr(v any) (lex.Token, error) {
	t, ok := v.(lex.Token)
	if !ok {
		return lex.Token{}, fmt.Errorf("avrasm: expected a token, got %T", v)
	}
	return t, nil
}

func opNode(v any) (*tree.Node, error) {
	n, ok := v.(*tree.Node)
	if !ok {
		return nil, fmt.Errorf("avrasm: expected a node, got %T", v)
	}
	return n, nil
}

// NewGrammar compiles this package's DFA tables and reduction rules and
// returns a ready-to-use parser.Driver; NewAssembler calls it once and the
// driver is reused for every source file that Assembler assembles.
func NewGrammar() (*parser.Driver, error) {
	dfas := dfa.NewRegistry()
	dfas.AddTable(statementTable)
	dfas.AddTable(operandTable)
	if err := dfas.Compile(); err != nil {
		return nil, fmt.Errorf("avrasm: compiling grammar: %w", err)
	}

	reducers := reduce.NewRegistry()
	rules := map[string]string{
		"op_bare_ident":     "TSPOP MOD op_bare_ident_fn NSPUSH END",
		"op_bare_int":       "TSPOP MOD op_bare_int_fn NSPUSH END",
		"op_bare_string":    "TSPOP MOD op_bare_string_fn NSPUSH END",
		"op_predec":         "TSPOP TSPOP USERMOD op_predec_fn NSPUSH END",
		"op_amend_postinc":  "NSPOP MOD op_amend_postinc_fn NSPUSH END",
		"op_amend_disp":     "TSPOP NSPOP USERMOD op_amend_disp_fn NSPUSH END",
		"op_amend_funccall": "TSPOP TSPOP TSPOP NSPOP USERMOD op_amend_funccall_fn NSPUSH END",
		"directive0":        "TSPOP MOD directive0_fn NSPUSH END",
		"directive1":        "NSPOP TSPOP USERMOD directive1_fn NSPUSH END",
		"label_stmt":        "TSPOP TSPOP USERMOD label_fn NSPUSH END",
		"instr0":            "TSPOP MOD instr0_fn NSPUSH END",
		"instr1":            "NSPOP TSPOP USERMOD instr1_fn NSPUSH END",
		"instr2":            "NSPOP NSPOP TSPOP USERMOD instr2_fn NSPUSH END",
	}
	for name, src := range rules {
		if err := reducers.Register(name, src); err != nil {
			return nil, fmt.Errorf("avrasm: %w", err)
		}
	}

	d := parser.NewDriver(dfas, reducers)
	d.UserFuncs["op_bare_ident_fn"] = reduce.ModFunc(func(v any) (any, error) {
		tok, err := tokStr(v)
		if err != nil {
			return nil, err
		}
		return newOperandNode(decodeBareIdent(tok.Value), tok.Org), nil
	})
	d.UserFuncs["op_bare_int_fn"] = reduce.ModFunc(func(v any) (any, error) {
		tok, err := tokStr(v)
		if err != nil {
			return nil, err
		}
		op, err := decodeBareInt(tok.Value)
		if err != nil {
			return nil, err
		}
		return newOperandNode(op, tok.Org), nil
	})
	d.UserFuncs["op_bare_string_fn"] = reduce.ModFunc(func(v any) (any, error) {
		tok, err := tokStr(v)
		if err != nil {
			return nil, err
		}
		return newOperandNode(decodeBareString(tok.Value), tok.Org), nil
	})
	d.UserFuncs["op_predec_fn"] = reduce.UserModFunc(func(stack []any) ([]any, error) {
		nameTok, err := tokStr(stack[0])
		if err != nil {
			return nil, err
		}
		op, err := decodePredec(nameTok.Value)
		if err != nil {
			return nil, err
		}
		return []any{newOperandNode(op, nameTok.Org)}, nil
	})
	d.UserFuncs["op_amend_postinc_fn"] = reduce.ModFunc(func(v any) (any, error) {
		n, err := opNode(v)
		if err != nil {
			return nil, err
		}
		op := n.NthHook(0).(Operand)
		if op.Kind != avr.OperIndex || op.PrePost != 0 || op.Disp != 0 {
			return nil, fmt.Errorf("avrasm: %q cannot take postincrement addressing", op.Label)
		}
		op.PrePost = 1
		n.SetNthHook(0, op)
		return n, nil
	})
	d.UserFuncs["op_amend_disp_fn"] = reduce.UserModFunc(func(stack []any) ([]any, error) {
		intTok, err := tokStr(stack[0])
		if err != nil {
			return nil, err
		}
		n, err := opNode(stack[1])
		if err != nil {
			return nil, err
		}
		op := n.NthHook(0).(Operand)
		disp, err := parseIntLiteral(intTok.Value)
		if err != nil {
			return nil, err
		}
		if op.Kind != avr.OperIndex || op.Index == avr.IndexX {
			return nil, fmt.Errorf("avrasm: displacement addressing requires Y or Z, got %q", op.Label)
		}
		op.Disp = disp
		op.PrePost = 0
		n.SetNthHook(0, op)
		return []any{n}, nil
	})
	d.UserFuncs["op_amend_funccall_fn"] = reduce.UserModFunc(func(stack []any) ([]any, error) {
		argTok, err := tokStr(stack[1])
		if err != nil {
			return nil, err
		}
		n, err := opNode(stack[3])
		if err != nil {
			return nil, err
		}
		op := n.NthHook(0).(Operand)
		if op.Kind != avr.OperLabel || op.Func != "" {
			return nil, fmt.Errorf("avrasm: %q is not a function name", op.Label)
		}
		fnName := strings.ToLower(op.Label)
		if fnName != "low" && fnName != "high" {
			return nil, fmt.Errorf("avrasm: unknown operand function %q", op.Label)
		}
		arg := decodeBareIdent(argTok.Value)
		if arg.Kind != avr.OperLabel {
			return nil, fmt.Errorf("avrasm: %s() expects a label argument, got %q", fnName, argTok.Value)
		}
		arg.Func = fnName
		n.SetNthHook(0, arg)
		return []any{n}, nil
	})
	d.UserFuncs["directive0_fn"] = reduce.ModFunc(func(v any) (any, error) {
		tok, err := tokStr(v)
		if err != nil {
			return nil, err
		}
		return newDirectiveNode(tok.Value, nil, tok.Org), nil
	})
	d.UserFuncs["directive1_fn"] = reduce.UserModFunc(func(stack []any) ([]any, error) {
		n, err := opNode(stack[0])
		if err != nil {
			return nil, err
		}
		kwTok, err := tokStr(stack[1])
		if err != nil {
			return nil, err
		}
		op := n.NthHook(0).(Operand)
		arg, err := directiveArg(kwTok.Value, op)
		if err != nil {
			return nil, err
		}
		return []any{newDirectiveNode(kwTok.Value, arg, kwTok.Org)}, nil
	})
	d.UserFuncs["label_fn"] = reduce.UserModFunc(func(stack []any) ([]any, error) {
		_, err := tokStr(stack[0]) // ':' token, unused
		if err != nil {
			return nil, err
		}
		nameTok, err := tokStr(stack[1])
		if err != nil {
			return nil, err
		}
		return []any{newLabelDeclNode(nameTok.Value, nameTok.Org)}, nil
	})
	d.UserFuncs["instr0_fn"] = reduce.ModFunc(func(v any) (any, error) {
		tok, err := tokStr(v)
		if err != nil {
			return nil, err
		}
		return newInstrNode(tok.Value, nil, tok.Org), nil
	})
	d.UserFuncs["instr1_fn"] = reduce.UserModFunc(func(stack []any) ([]any, error) {
		n, err := opNode(stack[0])
		if err != nil {
			return nil, err
		}
		mnemTok, err := tokStr(stack[1])
		if err != nil {
			return nil, err
		}
		op := n.NthHook(0).(Operand)
		return []any{newInstrNode(mnemTok.Value, []Operand{op}, mnemTok.Org)}, nil
	})
	d.UserFuncs["instr2_fn"] = reduce.UserModFunc(func(stack []any) ([]any, error) {
		op2Node, err := opNode(stack[0])
		if err != nil {
			return nil, err
		}
		op1Node, err := opNode(stack[1])
		if err != nil {
			return nil, err
		}
		mnemTok, err := tokStr(stack[2])
		if err != nil {
			return nil, err
		}
		op1 := op1Node.NthHook(0).(Operand)
		op2 := op2Node.NthHook(0).(Operand)
		return []any{newInstrNode(mnemTok.Value, []Operand{op1, op2}, mnemTok.Org)}, nil
	})

	return d, nil
}
