package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"github.com/nocc-avr/nocc/pkg/avr"
	"github.com/nocc-avr/nocc/pkg/avrasm"
)

var Description = strings.ReplaceAll(`
noccavr assembles one AVR assembler (.s) source file into Intel-HEX images,
one per writable segment (flash, eeprom), plus a plain-text listing. MCU
selection comes from the source's ".mcu" directive; when absent it warns
and assumes an ATmega328.
`, "\n", " ")

var Assembler = cli.New(Description).
	WithArg(cli.NewArg("input", "The AVR assembler source file to assemble")).
	WithOption(cli.NewOption("out", "Base path for output files (defaults to the input's path without extension)").
		WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	input, err := os.Open(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}
	defer input.Close()

	base := options["out"]
	if base == "" {
		base = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
	}

	asm, err := avrasm.NewAssembler()
	if err != nil {
		fmt.Printf("ERROR: Unable to build the AVR assembler grammar: %s\n", err)
		return -1
	}

	result, err := asm.Assemble(args[0], input)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing'/'assembling' pass: %s\n", err)
		return -1
	}

	for _, w := range result.Diag.Warnings {
		fmt.Printf("warning: %s: %s\n", w.Org, w.Message)
	}
	for _, e := range result.Diag.Errors {
		fmt.Printf("error: %s: %s\n", e.Org, e.Message)
	}
	if result.Diag.HasErrors() {
		fmt.Printf("ERROR: assembly failed with %d error(s)\n", len(result.Diag.Errors))
		return -1
	}

	suffixFor := map[string]string{"text": "flash", "eeprom": "eeprom"}
	err = result.Emit(func(segment string) (io.WriteCloser, error) {
		return os.Create(fmt.Sprintf("%s%s.hex", base, suffixFor[segment]))
	})
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass:\n\t %s\n", err)
		return -1
	}

	lst, err := os.Create(base + ".lst")
	if err != nil {
		fmt.Printf("ERROR: Unable to open listing file: %s\n", err)
		return -1
	}
	defer lst.Close()
	if err := writeListing(lst, result); err != nil {
		fmt.Printf("ERROR: Unable to write listing: %s\n", err)
		return -1
	}

	return 0
}

func writeListing(w io.Writer, result *avrasm.Result) error {
	return avr.WriteListing(w, result.Target.MCU, result.Listing)
}

func main() { os.Exit(Assembler.Run(os.Args, os.Stdout)) }
