package avrasm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nocc-avr/nocc/pkg/avr"
)

// registerOf reports whether name is a plain register reference (r0..r31)
// and, if so, its number.
func registerOf(name string) (int, bool) {
	if len(name) < 2 || (name[0] != 'r' && name[0] != 'R') {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 || n > 31 {
		return 0, false
	}
	return n, true
}

// indexRegOf reports whether name bare-names one of the X/Y/Z index
// registers.
func indexRegOf(name string) (avr.IndexReg, bool) {
	switch strings.ToUpper(name) {
	case "X":
		return avr.IndexX, true
	case "Y":
		return avr.IndexY, true
	case "Z":
		return avr.IndexZ, true
	default:
		return 0, false
	}
}

// parseIntLiteral parses a decimal, 0x-hex or 0b-binary integer literal.
func parseIntLiteral(s string) (int64, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var v int64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		v, err = strconv.ParseInt(s[2:], 2, 64)
	default:
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("avrasm: invalid integer literal %q", s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// decodeBareIdent turns a single NAME token into a register, bare index, or
// label-reference operand — the three shapes a lone identifier can mean.
func decodeBareIdent(text string) Operand {
	if n, ok := registerOf(text); ok {
		return Operand{Kind: avr.OperReg, Reg: n}
	}
	if idx, ok := indexRegOf(text); ok {
		return Operand{Kind: avr.OperIndex, Index: idx}
	}
	return Operand{Kind: avr.OperLabel, Label: text}
}

// decodeBareInt turns a single INTEGER token into a constant operand.
func decodeBareInt(text string) (Operand, error) {
	v, err := parseIntLiteral(text)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Kind: avr.OperConst, Have: true, Const: v}, nil
}

// decodeBareString turns a single STRING token (already de-quoted by
// pkg/lex) into a string-literal operand, used by the ".mcu" and ".const"
// directives.
func decodeBareString(text string) Operand {
	return Operand{Kind: avr.OperString, Str: text}
}

// decodePredec decodes "-X"/"-Y"/"-Z".
func decodePredec(name string) (Operand, error) {
	idx, ok := indexRegOf(name)
	if !ok {
		return Operand{}, fmt.Errorf("avrasm: predecrement addressing requires X, Y or Z, got %q", name)
	}
	return Operand{Kind: avr.OperIndex, Index: idx, PrePost: -1}, nil
}

// Postincrement ("X+") and displacement ("Y+5") addressing are not decoded
// here: by the time the '+' is seen, op_bare_ident has already pushed a
// provisional OperIndex node, and the grammar's op_amend_postinc_fn /
// op_amend_disp_fn (grammar.go) mutate that node's PrePost/Disp fields in
// place rather than redecoding it from raw token text.
