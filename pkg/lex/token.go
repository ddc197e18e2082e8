// Package lex implements the token model consumed by the DFA parser driver
// and a concrete (if deliberately simple) scanner for AVR assembler source,
// built on github.com/prataprc/goparsec — the spec treats lexical scanning
// as an external collaborator, so this package is that collaborator's one
// concrete body rather than an interface no one implements.
package lex

import "github.com/nocc-avr/nocc/pkg/tree"

// Kind is a token kind, per the source-input token interface.
type Kind int

const (
	NAME    Kind = iota // identifier that is not a recognised keyword
	KEYWORD             // identifier resolved via the keyword table
	SYMBOL              // punctuation resolved via the symbol table
	INTEGER
	REAL
	STRING
	COMMENT
	NEWLINE
	INDENT
	OUTDENT
	END
	LSPECIAL // language-specific token, opaque to the generic engine
	INAME    // placeholder used only internally for deferred DFA references
	NOTOKEN  // matches anything; never produced by a scanner
)

func (k Kind) String() string {
	switch k {
	case NAME:
		return "NAME"
	case KEYWORD:
		return "KEYWORD"
	case SYMBOL:
		return "SYMBOL"
	case INTEGER:
		return "INTEGER"
	case REAL:
		return "REAL"
	case STRING:
		return "STRING"
	case COMMENT:
		return "COMMENT"
	case NEWLINE:
		return "NEWLINE"
	case INDENT:
		return "INDENT"
	case OUTDENT:
		return "OUTDENT"
	case END:
		return "END"
	case LSPECIAL:
		return "LSPECIAL"
	case INAME:
		return "INAME"
	case NOTOKEN:
		return "NOTOKEN"
	default:
		return "UNKNOWN"
	}
}

// Token is one scanned token: its kind, literal text, and source origin.
type Token struct {
	Kind  Kind
	Value string
	Org   *tree.Origin
}
