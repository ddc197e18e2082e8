// Package avrasm is the AVR assembler front end: it scans and parses one
// line of assembly at a time through pkg/lex, pkg/dfa and pkg/reduce (the
// generic grammar-and-reduction engine pkg/tree's tndef/tnode model is built
// for), then drives pkg/avr's instruction encoder, label resolver and hex
// writer over the resulting flat statement sequence. An AVR source file has
// no nested scoping the way a procedural-language AST would (no block
// structure, no generic types), so unlike a hypothetical Jack- or C-style
// front end this one has no use for pkg/names, pkg/typecheck or
// pkg/constprop: label addressing is entirely handled by pkg/avr.Resolver's
// fix-up arena, which already solves the forward-reference problem those
// packages exist to solve for more general languages — see DESIGN.md.
package avrasm

import (
	"github.com/nocc-avr/nocc/pkg/avr"
	"github.com/nocc-avr/nocc/pkg/tree"
)

// Operand is this package's name for the back end's resolved-argument type.
type Operand = avr.Operand

// NodeType names for this front end's three statement shapes plus the
// operand carrier every instruction/directive statement is built from.
const (
	TypeOperand   = "avrasm.operand"
	TypeInstr     = "avrasm.instr"
	TypeDirective = "avrasm.directive"
	TypeLabelDecl = "avrasm.labeldecl"
)

var (
	operandType   *tree.NodeType
	instrType     *tree.NodeType
	directiveType *tree.NodeType
	labelDeclType *tree.NodeType

	OperandTag   *tree.NodeTag
	InstrTag     *tree.NodeTag
	DirectiveTag *tree.NodeTag
	LabelDeclTag *tree.NodeTag
)

func init() {
	operandType = tree.RegisterNodeType(&tree.NodeType{Name: TypeOperand, NHooks: 1})
	OperandTag = tree.RegisterNodeTag(&tree.NodeTag{Name: TypeOperand, Type: operandType})

	instrType = tree.RegisterNodeType(&tree.NodeType{Name: TypeInstr, NHooks: 2})
	InstrTag = tree.RegisterNodeTag(&tree.NodeTag{Name: TypeInstr, Type: instrType})

	directiveType = tree.RegisterNodeType(&tree.NodeType{Name: TypeDirective, NHooks: 2})
	DirectiveTag = tree.RegisterNodeTag(&tree.NodeTag{Name: TypeDirective, Type: directiveType})

	labelDeclType = tree.RegisterNodeType(&tree.NodeType{Name: TypeLabelDecl, NHooks: 1})
	LabelDeclTag = tree.RegisterNodeTag(&tree.NodeTag{Name: TypeLabelDecl, Type: labelDeclType})
}

// mnemonicOf/operandsOf/etc. read back what the grammar's reduce actions
// stamped into a statement node's hook slots.

func mnemonicOf(n *tree.Node) string   { return n.NthHook(0).(string) }
func operandsOf(n *tree.Node) []Operand { return n.NthHook(1).([]Operand) }

func directiveNameOf(n *tree.Node) string { return n.NthHook(0).(string) }
func directiveArgOf(n *tree.Node) any     { return n.NthHook(1) }

func labelNameOf(n *tree.Node) string { return n.NthHook(0).(string) }

func newOperandNode(op Operand, org *tree.Origin) *tree.Node {
	n := tree.New(OperandTag, org)
	n.SetNthHook(0, op)
	return n
}

func newInstrNode(mnemonic string, ops []Operand, org *tree.Origin) *tree.Node {
	n := tree.New(InstrTag, org)
	n.SetNthHook(0, mnemonic)
	n.SetNthHook(1, ops)
	return n
}

func newDirectiveNode(name string, arg any, org *tree.Origin) *tree.Node {
	n := tree.New(DirectiveTag, org)
	n.SetNthHook(0, name)
	n.SetNthHook(1, arg)
	return n
}

func newLabelDeclNode(name string, org *tree.Origin) *tree.Node {
	n := tree.New(LabelDeclTag, org)
	n.SetNthHook(0, name)
	return n
}
