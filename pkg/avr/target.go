// Package avr is the AVR back-end: MCU target descriptors, per-segment
// Images, the label/fix-up resolver, the instruction encoder table, and the
// Intel-HEX and listing writers. It knows nothing about the parser or the
// node tags a front end uses — pkg/avrasm adapts its own parse tree into the
// plain values (Operand, segment tag strings, byte slices) this package
// consumes, the same way pkg/hack's CodeGenerator takes Instruction values
// rather than reaching back into a parser.
package avr

// Target describes one AVR microcontroller variant: its memory map,
// interrupt-vector shape, and whether text-segment words get byte-swapped
// after encoding (bswap_code — set on parts whose flash is large enough to
// need the 4-byte JMP/CALL/LDS/STS encodings).
type Target struct {
	MCU        string
	Name       string
	IntrCount  int
	IntrSize   int // bytes per interrupt-vector entry
	CodeSize   int // flash, in bytes
	RAMStart   int
	RAMSize    int
	IOSize     int
	EEPROMSize int
	BswapCode  bool
}

// DefaultMCU is selected when a source carries no .mcu directive, per §4.8's
// "absent MCU mark" rule.
const DefaultMCU = "ATMEGA328"

// Targets is the static MCU descriptor table (§6 "AVR MCU descriptor table
// (static)"); values are the published Atmel/Microchip datasheet figures
// for each part named in avrmcu_e.
var Targets = map[string]*Target{
	"AT90S1200": {
		MCU: "AT90S1200", Name: "AT90S1200",
		IntrCount: 6, IntrSize: 2,
		CodeSize: 1024, RAMStart: 0, RAMSize: 0,
		IOSize: 64, EEPROMSize: 64,
		BswapCode: false,
	},
	"AT90S2313": {
		MCU: "AT90S2313", Name: "AT90S2313",
		IntrCount: 10, IntrSize: 2,
		CodeSize: 2048, RAMStart: 0x60, RAMSize: 128,
		IOSize: 64, EEPROMSize: 128,
		BswapCode: false,
	},
	"AT90S8515": {
		MCU: "AT90S8515", Name: "AT90S8515",
		IntrCount: 13, IntrSize: 2,
		CodeSize: 8192, RAMStart: 0x60, RAMSize: 512,
		IOSize: 64, EEPROMSize: 512,
		BswapCode: false,
	},
	"ATMEGA328": {
		MCU: "ATMEGA328", Name: "ATmega328",
		IntrCount: 26, IntrSize: 2,
		CodeSize: 32768, RAMStart: 0x100, RAMSize: 2048,
		IOSize: 256, EEPROMSize: 1024,
		BswapCode: true,
	},
	"ATMEGA1280": {
		MCU: "ATMEGA1280", Name: "ATmega1280",
		IntrCount: 57, IntrSize: 4,
		CodeSize: 131072, RAMStart: 0x200, RAMSize: 8192,
		IOSize: 224, EEPROMSize: 4096,
		BswapCode: true,
	},
}

// Lookup resolves an MCU tag (as named by a .mcu directive) to its target
// descriptor.
func Lookup(name string) (*Target, bool) {
	t, ok := Targets[name]
	return t, ok
}
