package lex

import "github.com/nocc-avr/nocc/pkg/sym"

// AVRDirectives is the keyword table for the AVR assembler front end: the
// dot-prefixed directives recognised alongside plain mnemonics and labels.
var AVRDirectives = sym.NewKeywordTable(
	".mcu", ".text", ".data", ".eeprom",
	".org", ".space", ".space16", ".const", ".const16",
)

// AVRSymbols is the punctuation symbol table for AVR assembly source.
var AVRSymbols = sym.NewSymbolTable(",", ":", "(", ")", "+", "-")
