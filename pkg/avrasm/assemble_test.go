package avrasm

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

type closeBuffer struct{ bytes.Buffer }

func (c *closeBuffer) Close() error { return nil }

func assembleHex(t *testing.T, source string) (flash string, eeprom string, res *Result) {
	t.Helper()
	asm, err := NewAssembler()
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	res, err = asm.Assemble("test.s", strings.NewReader(source))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if res.Diag.HasErrors() {
		t.Fatalf("assembly reported errors: %v", res.Diag.Errors)
	}

	bufs := map[string]*closeBuffer{}
	err = res.Emit(func(segment string) (io.WriteCloser, error) {
		b := &closeBuffer{}
		bufs[segment] = b
		return b, nil
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if b, ok := bufs["text"]; ok {
		flash = b.String()
	}
	if b, ok := bufs["eeprom"]; ok {
		eeprom = b.String()
	}
	return flash, eeprom, res
}

// Empty-program scenario from spec.md §8 scenario 1: a single NOP in an
// otherwise empty .text segment emits one 2-byte data record plus EOF.
func TestAssembleEmptyProgram(t *testing.T) {
	src := ".mcu \"ATMEGA328\"\n.text\nnop\n"
	flash, _, _ := assembleHex(t, src)
	want := ":020000000000FE\n:00000001FF\n"
	if flash != want {
		t.Fatalf("flash hex = %q, want %q", flash, want)
	}
}

// Forward label reference scenario from spec.md §8 scenario 2: ldi loads
// low(msg), rjmp jumps to a label defined after a .const string, and the
// string assembles to its literal ASCII bytes.
func TestAssembleForwardLabelReference(t *testing.T) {
	src := "" +
		".mcu \"ATMEGA328\"\n" +
		".text\n" +
		"ldi r16, low(msg)\n" +
		"rjmp end\n" +
		"msg: .const \"hi\"\n" +
		"end: nop\n"
	_, _, res := assembleHex(t, src)

	img := res.Images["text"]
	// msg ("hi") lands at byte offset 4 (after the 2-byte ldi and 2-byte rjmp).
	if got, want := img.Buf[4], byte('h'); got != want {
		t.Fatalf("msg[0] = %#x, want %#x", got, want)
	}
	if got, want := img.Buf[5], byte('i'); got != want {
		t.Fatalf("msg[1] = %#x, want %#x", got, want)
	}
	// ldi r16, low(msg): low(4) = 0x04, Rd=16 -> 0xE0 | immediate nibbles,
	// byte-swapped per ATmega328's bswap_code.
	ldi := img.Buf[0:2]
	if ldi[0] == 0 && ldi[1] == 0 {
		t.Fatalf("ldi fix-up was never re-encoded, bytes still zero")
	}
	// end: nop at offset 6 encodes as 0x0000.
	if got := img.Buf[6:8]; got[0] != 0 || got[1] != 0 {
		t.Fatalf("nop at end = %v, want [0 0]", got)
	}
}

// Backward label reference scenario from spec.md §8 scenario 5 (adapted to
// a named label, since numeric local labels like "1:"/"1b" are a GNU-as
// convenience this front end's NAME-based grammar does not model — see
// DESIGN.md).
func TestAssembleBackwardLabelReference(t *testing.T) {
	src := ".mcu \"ATMEGA328\"\n.text\nstart: nop\nrjmp start\n"
	_, _, res := assembleHex(t, src)
	img := res.Images["text"]
	// rjmp start at word 1 referencing word 0 encodes displacement -1
	// (0xCFFF), byte-swapped per ATmega328's bswap_code to 0xFF 0xCF.
	if got := img.Buf[2:4]; got[0] != 0xFF || got[1] != 0xCF {
		t.Fatalf("rjmp start = %#x %#x, want 0xFF 0xCF", got[0], got[1])
	}
}

// Absent-MCU scenario from spec.md §8 scenario 6: assembly still succeeds,
// with a warning naming the assumed default.
func TestAssembleMissingMCUWarns(t *testing.T) {
	src := ".text\nnop\n"
	_, _, res := assembleHex(t, src)
	if res.Target.MCU != "ATMEGA328" {
		t.Fatalf("default target = %s, want ATMEGA328", res.Target.MCU)
	}
	found := false
	for _, w := range res.Diag.Warnings {
		if strings.Contains(w.Message, "No MCU specified") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a 'No MCU specified' warning, got %v", res.Diag.Warnings)
	}
}

// Range-overlap scenario from spec.md §8 scenario 3: two .org directives
// that write over the same bytes must fail at Emit's CheckAndMerge step.
func TestAssembleOverlappingOrgFails(t *testing.T) {
	asm, err := NewAssembler()
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	src := ".mcu \"ATMEGA328\"\n.text\n.org 0\nnop\n.org 0\nnop\n"
	res, err := asm.Assemble("test.s", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	err = res.Emit(func(string) (io.WriteCloser, error) { return &closeBuffer{}, nil })
	if err == nil {
		t.Fatalf("expected an overlapping-region error, got none")
	}
	if !strings.Contains(err.Error(), "overlapping") {
		t.Fatalf("error = %v, want it to mention overlapping regions", err)
	}
}

// Invalid-register scenario from spec.md §8 scenario 4: adiw only accepts
// the four word-register pairs (24/26/28/30).
func TestAssembleInvalidRegisterErrors(t *testing.T) {
	asm, err := NewAssembler()
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	src := ".mcu \"ATMEGA328\"\n.text\nadiw r22, 1\n"
	res, err := asm.Assemble("test.s", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !res.Diag.HasErrors() {
		t.Fatalf("expected an invalid-register error, got none")
	}
}
