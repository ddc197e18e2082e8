package lex

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	pc "github.com/prataprc/goparsec"

	"github.com/nocc-avr/nocc/pkg/tree"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)
//
// AVR assembly is line-oriented: every statement ends at the newline, and
// goparsec's combinators have no native notion of "end of line" (whitespace,
// including newlines, is skipped between tokens). The scanner below sidesteps
// that mismatch by running one goparsec parse per source line and splicing a
// synthetic NEWLINE token between lines itself, rather than teaching the
// grammar line discipline it was never built to express.

var ast = pc.NewAST("lexer", 0)

var (
	pLine = ast.ManyUntil("line", nil, pItem, pc.End())
	pItem = ast.OrdChoice("item", nil, pComment, pString, pc.Float(), pc.Int(), pIdent, pSymbol)

	pComment = ast.And("comment", nil, pc.Atom(";", ";"), pc.Token(`(?m).*$`, "COMMENT"))
	pString  = pc.Token(`"(?:\\.|[^"\\])*"`, "STRING")
	pIdent   = pc.Token(`\.?[A-Za-z_][0-9A-Za-z_]*`, "IDENT")

	pSymbol = ast.OrdChoice("symbol", nil,
		pc.Atom(",", ","), pc.Atom(":", ":"),
		pc.Atom("(", "("), pc.Atom(")", ")"),
		pc.Atom("+", "+"), pc.Atom("-", "-"),
	)
)

// Scanner turns AVR assembler source into a flat Token stream.
type Scanner struct {
	file string
}

// NewScanner returns a scanner that stamps produced tokens with file as
// their origin filename.
func NewScanner(file string) *Scanner { return &Scanner{file: file} }

// Scan reads all of r and returns the token stream, or the first scan error
// encountered (reported with line-level origin).
func (s *Scanner) Scan(r io.Reader) ([]Token, error) {
	var out []Token

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		toks, err := s.scanLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		out = append(out, toks...)
		out = append(out, Token{Kind: NEWLINE, Value: "\n", Org: &tree.Origin{File: s.file, Line: lineNo}})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("lex: reading %s: %w", s.file, err)
	}

	out = append(out, Token{Kind: END, Org: &tree.Origin{File: s.file, Line: lineNo + 1}})
	return out, nil
}

func (s *Scanner) scanLine(line string, lineNo int) ([]Token, error) {
	root, _ := ast.Parsewith(pLine, pc.NewScanner([]byte(line)))
	if root == nil {
		return nil, fmt.Errorf("%s:%d: unrecognised input: %q", s.file, lineNo, line)
	}
	if root.GetName() != "line" {
		return nil, fmt.Errorf("%s:%d: expected node 'line', found %s", s.file, lineNo, root.GetName())
	}

	org := func() *tree.Origin { return &tree.Origin{File: s.file, Line: lineNo} }

	var toks []Token
	for _, child := range root.GetChildren() {
		switch child.GetName() {
		case "comment":
			toks = append(toks, Token{Kind: COMMENT, Value: child.GetValue(), Org: org()})
		case "STRING":
			v := child.GetValue()
			toks = append(toks, Token{Kind: STRING, Value: strings.Trim(v, `"`), Org: org()})
		case "FLOAT":
			toks = append(toks, Token{Kind: REAL, Value: child.GetValue(), Org: org()})
		case "INT":
			toks = append(toks, Token{Kind: INTEGER, Value: child.GetValue(), Org: org()})
		case "IDENT":
			v := child.GetValue()
			if AVRDirectives.Is(strings.ToLower(v)) {
				toks = append(toks, Token{Kind: KEYWORD, Value: v, Org: org()})
			} else {
				toks = append(toks, Token{Kind: NAME, Value: v, Org: org()})
			}
		case "symbol":
			sym := child.GetChildren()[0]
			toks = append(toks, Token{Kind: SYMBOL, Value: sym.GetValue(), Org: org()})
		default:
			return nil, fmt.Errorf("%s:%d: unrecognised token node %q", s.file, lineNo, child.GetName())
		}
	}
	return toks, nil
}
