package sym_test

import (
	"testing"

	"github.com/nocc-avr/nocc/pkg/sym"
)

func TestSymbolTableLongestPrefix(t *testing.T) {
	tbl := sym.NewSymbolTable(":", "::", "+", "++")

	cases := map[string]string{
		"::x":  "::",
		":x":   ":",
		"++1":  "++",
		"+1":   "+",
		"nope": "",
	}
	for in, want := range cases {
		if got := tbl.LongestPrefix(in); got != want {
			t.Errorf("LongestPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeywordTable(t *testing.T) {
	tbl := sym.NewKeywordTable(".org", ".text")
	if !tbl.Is(".org") {
		t.Error("expected .org to be a keyword")
	}
	if tbl.Is("loop") {
		t.Error("did not expect loop to be a keyword")
	}
}
