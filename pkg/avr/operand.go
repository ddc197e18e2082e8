package avr

import "fmt"

// OperandKind classifies what an instruction operand slot actually carries,
// the plain-value counterpart of §4.9's operand-mode list (register,
// X/Y/Z index, immediate, program/data address, relative branch target):
// pkg/avrasm resolves its own parse-tree operand node into one of these
// before calling Encode, so the encoder itself never touches a tree.Node.
type OperandKind int

const (
	OperNone OperandKind = iota
	OperReg              // a literal register number
	OperConst            // a value already resolved to a number (possibly via constprop)
	OperLabel            // a raw, possibly-unresolved label reference
	OperIndex            // X/Y/Z register-indirect addressing
	OperString           // a quoted string literal (.const message bytes)
)

// IndexReg names the AVR's three 16-bit index registers.
type IndexReg int

const (
	IndexX IndexReg = iota
	IndexY
	IndexZ
)

// Operand is one resolved instruction argument.
type Operand struct {
	Kind    OperandKind
	Reg     int
	Const   int64
	Have    bool // Const is populated and meaningful (OperConst only)
	Label   string
	Index   IndexReg
	PrePost int   // -1 predecrement (-X/-Y/-Z), +1 postincrement (X+/Y+/Z+), 0 neither (OperIndex only)
	Disp    int64 // displacement for Y+q/Z+q addressing (OperIndex only, Y/Z)
	Str     string // literal text (OperString only)
	Func    string // "low"/"high" byte-extraction wrapper around a label reference (OperLabel only), "" for a plain reference
}

// ConstReg requires a literal register operand in [min,max] — insarg_to_constreg.
func ConstReg(op Operand, min, max int) (int, error) {
	if op.Kind != OperReg {
		return 0, fmt.Errorf("avr: expected a register operand")
	}
	if op.Reg < min || op.Reg > max {
		return 0, fmt.Errorf("avr: invalid register %d (expected %d..%d)", op.Reg, min, max)
	}
	return op.Reg, nil
}

// isPow2 reports whether n is a power of two (n > 0).
func isPow2(n int64) bool { return n > 0 && n&(n-1) == 0 }

// ConstVal requires a constant operand in [min,max] — insarg_to_constval.
// When the operand is not yet resolved it returns resolved=false so the
// caller can install a fix-up and retry once constprop folds it. When
// min==0 and max+1 is a power of two, a negative value is unsigned-wrapped
// into range before the bounds check, mirroring the original's reliance on
// 8-bit truncation (here made explicit since Go ints don't truncate
// implicitly).
func ConstVal(op Operand, min, max int) (val int64, resolved bool, err error) {
	if op.Kind != OperConst || !op.Have {
		return 0, false, nil
	}
	v := op.Const
	if min == 0 && isPow2(int64(max)+1) && v < 0 {
		v &= int64(max)
	}
	if v < int64(min) || v > int64(max) {
		return 0, true, fmt.Errorf("avr: value %d out of range [%d,%d]", v, min, max)
	}
	return v, true, nil
}

// ConstAddr resolves a label to its word (program-memory) address —
// insarg_to_constaddr. A plain already-resolved constant operand is also
// accepted, for assemblies that compute a jump target arithmetically.
func ConstAddr(op Operand, r *Resolver, min, max int) (addr int64, resolved bool, err error) {
	if op.Kind == OperConst {
		return ConstVal(op, min, max)
	}
	if op.Kind != OperLabel {
		return 0, true, fmt.Errorf("avr: expected a label or constant operand")
	}
	l := r.Label(op.Label)
	if l.Unresolved() {
		return 0, false, nil
	}
	word := int64(l.BAddr) / 2
	if word < int64(min) || word > int64(max) {
		return 0, true, fmt.Errorf("avr: program address %d out of range [%d,%d]", word, min, max)
	}
	return word, true, nil
}

// ConstAddrDiff computes a label-relative word displacement for branch/skip
// instructions — insarg_to_constaddrdiff. curOffset is the byte offset of
// the start of the referencing instruction in its segment. The displacement
// is target word address minus this instruction's own word address, per
// the worked example in §8 ("backward local label ... displacement -1
// word"): this implementation follows that concrete figure rather than the
// textbook "relative to PC+1" phrasing in §4.9's prose, which would yield
// one word more negative for the same input.
func ConstAddrDiff(op Operand, r *Resolver, curOffset int, ibytes int, min, max int) (diff int64, resolved bool, err error) {
	if op.Kind != OperLabel {
		return 0, true, fmt.Errorf("avr: expected a label operand")
	}
	l := r.Label(op.Label)
	if l.Unresolved() {
		return 0, false, nil
	}
	instrWord := int64(curOffset) / 2
	targetWord := int64(l.BAddr) / 2
	d := targetWord - instrWord
	if d < int64(min) || d > int64(max) {
		return 0, true, fmt.Errorf("avr: branch displacement %d out of range [%d,%d]", d, min, max)
	}
	return d, true, nil
}
