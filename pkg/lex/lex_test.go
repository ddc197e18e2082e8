package lex_test

import (
	"strings"
	"testing"

	"github.com/nocc-avr/nocc/pkg/lex"
)

func TestScanInstructionLine(t *testing.T) {
	src := "\tldi r16, 0x3F ; load mask\n"
	toks, err := lex.NewScanner("t.s").Scan(strings.NewReader(src))
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	want := []lex.Kind{lex.NAME, lex.NAME, lex.SYMBOL, lex.INTEGER, lex.COMMENT, lex.NEWLINE, lex.END}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(toks), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: expected %s, got %s (%q)", i, k, toks[i].Kind, toks[i].Value)
		}
	}
	if toks[0].Value != "ldi" || toks[1].Value != "r16" {
		t.Fatalf("unexpected mnemonic/operand text: %+v", toks[:2])
	}
}

func TestScanLabelAndDirective(t *testing.T) {
	src := "loop:\n.org 0x0000\n"
	toks, err := lex.NewScanner("t.s").Scan(strings.NewReader(src))
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	if toks[0].Kind != lex.NAME || toks[0].Value != "loop" {
		t.Fatalf("expected NAME loop, got %+v", toks[0])
	}
	if toks[1].Kind != lex.SYMBOL || toks[1].Value != ":" {
		t.Fatalf("expected SYMBOL ':', got %+v", toks[1])
	}

	var sawDirective bool
	for _, tok := range toks {
		if tok.Kind == lex.KEYWORD && tok.Value == ".org" {
			sawDirective = true
		}
	}
	if !sawDirective {
		t.Fatal("expected .org to scan as KEYWORD")
	}
}

func TestScanOrigins(t *testing.T) {
	src := "nop\nnop\n"
	toks, err := lex.NewScanner("t.s").Scan(strings.NewReader(src))
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if toks[0].Org.Line != 1 {
		t.Fatalf("expected line 1, got %d", toks[0].Org.Line)
	}
	// toks[0]=nop(line1) toks[1]=NEWLINE(line1) toks[2]=nop(line2)
	if toks[2].Org.Line != 2 {
		t.Fatalf("expected line 2, got %d", toks[2].Org.Line)
	}
}
