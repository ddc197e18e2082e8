package avr

import (
	"fmt"
	"io"
)

// ListingEntry is one source line's worth of assembled output, the unit
// WriteListing formats — one per instruction or data directive that
// actually produced bytes. Supplemental feature per §6 and SPEC_FULL.md's
// listing-writer entry: not present in spec.md's core scope, but a natural
// companion to the hex writer that every assembler in original_source/
// produces (see frontend/avrasm_program.c's "-l" handling).
type ListingEntry struct {
	Segment string
	Addr    int
	Bytes   []byte
	Line    int
	Source  string
	Warning string
}

// WriteListing renders entries as a human-readable assembly listing: one
// line per entry with segment-relative address, hex bytes, and the original
// source text, followed by a trailing warning line when Warning is set.
func WriteListing(w io.Writer, target string, entries []ListingEntry) error {
	if _, err := fmt.Fprintf(w, "; noccavr listing, target=%s\n", target); err != nil {
		return err
	}
	for _, e := range entries {
		hexBytes := ""
		for _, b := range e.Bytes {
			hexBytes += fmt.Sprintf("%02x", b)
		}
		if _, err := fmt.Fprintf(w, "%-6s %06x  %-12s %4d  %s\n", e.Segment, e.Addr, hexBytes, e.Line, e.Source); err != nil {
			return err
		}
		if e.Warning != "" {
			if _, err := fmt.Fprintf(w, "       ; warning: %s\n", e.Warning); err != nil {
				return err
			}
		}
	}
	return nil
}
