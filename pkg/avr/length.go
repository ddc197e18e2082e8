package avr

import "strings"

// longMnemonics names the four AVR instructions with a 32-bit (4-byte)
// encoding — the absolute-address forms JMP/CALL and the absolute-data
// forms LDS/STS (§4.9, §9's bswap_code open question). Every other
// recognised mnemonic is a fixed 16-bit (2-byte) encoding.
var longMnemonics = map[string]bool{
	"jmp": true, "call": true, "lds": true, "sts": true,
}

// InstrLen reports the fixed byte length of mnemonic's encoding, known
// statically from the mnemonic alone (AVR instruction length never depends
// on operand values). The AVR back-end uses this to advance a segment's
// cursor before an operand that references a forward label has actually
// been resolved, exactly the way §4.8's fix-up mechanism requires: the
// instruction's size, and so every later label's address, must be known
// before the label itself is.
func InstrLen(mnemonic string) (int, bool) {
	m := strings.ToLower(mnemonic)
	if !KnownMnemonic(m) {
		return 0, false
	}
	if longMnemonics[m] {
		return 4, true
	}
	return 2, true
}
