// Package sym implements the symbol and keyword interning tables used by
// front-end scanners: a SymbolTable resolves punctuation by longest-prefix
// match, a KeywordTable reclassifies identifiers that happen to be reserved.
package sym

// SymbolTable interns punctuation symbols and resolves a scan position to
// the longest symbol that matches there, so a two-character operator like
// "::" is preferred over its one-character prefix.
type SymbolTable struct {
	byText map[string]bool
	maxLen int
}

// NewSymbolTable builds a table from the given literal symbol texts.
func NewSymbolTable(symbols ...string) *SymbolTable {
	t := &SymbolTable{byText: make(map[string]bool, len(symbols))}
	for _, s := range symbols {
		t.byText[s] = true
		if len(s) > t.maxLen {
			t.maxLen = len(s)
		}
	}
	return t
}

// Match reports whether text is a known symbol.
func (t *SymbolTable) Match(text string) bool { return t.byText[text] }

// LongestPrefix scans s from the front and returns the longest known symbol
// that prefixes it, or "" if none matches.
func (t *SymbolTable) LongestPrefix(s string) string {
	limit := t.maxLen
	if limit > len(s) {
		limit = len(s)
	}
	for n := limit; n > 0; n-- {
		if cand := s[:n]; t.byText[cand] {
			return cand
		}
	}
	return ""
}

// KeywordTable interns reserved identifiers: NAME tokens that match an entry
// here are reclassified as KEYWORD by the scanner.
type KeywordTable struct {
	words map[string]bool
}

// NewKeywordTable builds a table from the given reserved words.
func NewKeywordTable(words ...string) *KeywordTable {
	t := &KeywordTable{words: make(map[string]bool, len(words))}
	for _, w := range words {
		t.words[w] = true
	}
	return t
}

// Is reports whether ident is a reserved keyword.
func (t *KeywordTable) Is(ident string) bool { return t.words[ident] }
