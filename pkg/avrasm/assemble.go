package avrasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/nocc-avr/nocc/pkg/avr"
	"github.com/nocc-avr/nocc/pkg/lex"
	"github.com/nocc-avr/nocc/pkg/parser"
	"github.com/nocc-avr/nocc/pkg/pass"
	"github.com/nocc-avr/nocc/pkg/tree"
)

// Assembler ties the grammar (parser.Driver over pkg/dfa+pkg/reduce) to
// pkg/avr's image/label/encoder/hex machinery, the whole of §4.8's
// "codegen pass" in one package since the AVR front end has no scope or
// type-check stage of its own (see nodes.go's doc comment).
type Assembler struct {
	driver *parser.Driver
}

// NewAssembler compiles the grammar once; the returned Assembler may
// assemble many source files.
func NewAssembler() (*Assembler, error) {
	d, err := NewGrammar()
	if err != nil {
		return nil, err
	}
	return &Assembler{driver: d}, nil
}

// Result is one completed assembly: the selected target, every segment's
// Image keyed by tag, and the diagnostics accumulated along the way.
type Result struct {
	Target  *avr.Target
	Images  map[string]*avr.Image
	Diag    *pass.Diagnostics
	Listing []avr.ListingEntry
}

// segState is the per-segment write cursor the assembly loop advances as
// it walks statements in document order.
type segState struct {
	image  *avr.Image
	offset int
}

// Assemble scans, parses and assembles one AVR assembler source file,
// following §4.8 step-by-step: MCU pre-scan, then a single left-to-right
// walk of the statement list maintaining a current segment and write
// cursor, with label references that outrun their definition resolved via
// pkg/avr.Resolver's fix-up arena rather than a second full pass.
func (a *Assembler) Assemble(file string, r io.Reader) (*Result, error) {
	stmts, err := a.parseStatements(file, r)
	if err != nil {
		return nil, err
	}

	diag := &pass.Diagnostics{}
	target := pickTarget(stmts, diag)

	segs := map[string]*segState{}
	resolver := avr.NewResolver()
	var listing []avr.ListingEntry
	var cur string

	segFor := func(tag string) (*segState, error) {
		if s, ok := segs[tag]; ok {
			return s, nil
		}
		var size int
		var writable bool
		switch tag {
		case "text":
			size, writable = target.CodeSize, true
		case "eeprom":
			size, writable = target.EEPROMSize, true
		case "data":
			size, writable = target.RAMSize, false
		default:
			return nil, fmt.Errorf("avrasm: %s: unknown segment %q", file, tag)
		}
		s := &segState{image: avr.NewImage(tag, size, writable)}
		segs[tag] = s
		return s, nil
	}

	requireSeg := func(n *tree.Node, what string) (*segState, error) {
		if cur == "" {
			return nil, fmt.Errorf("avrasm: %s: %s outside any segment", n.Org, what)
		}
		return segFor(cur)
	}

	for _, n := range stmts {
		switch n.Tag {
		case DirectiveTag:
			name := directiveNameOf(n)
			arg := directiveArgOf(n)
			switch name {
			case ".mcu":
				// Resolved up front by pickTarget; nothing to do mid-stream.
			case ".text", ".data", ".eeprom":
				tag := strings.TrimPrefix(name, ".")
				if _, err := segFor(tag); err != nil {
					return nil, err
				}
				cur = tag
			case ".org":
				s, err := requireSeg(n, ".org")
				if err != nil {
					return nil, err
				}
				s.offset = int(arg.(int64))
			case ".space":
				s, err := requireSeg(n, ".space")
				if err != nil {
					return nil, err
				}
				s.offset += int(arg.(int64))
			case ".space16":
				s, err := requireSeg(n, ".space16")
				if err != nil {
					return nil, err
				}
				s.offset += int(arg.(int64)) * 2
			case ".const", ".const16":
				s, err := requireSeg(n, name)
				if err != nil {
					return nil, err
				}
				data, err := constBytes(name, arg, target.BswapCode)
				if err != nil {
					return nil, fmt.Errorf("avrasm: %s: %w", n.Org, err)
				}
				if cur == "text" && len(data)%2 != 0 {
					data = append(data, 0)
					diag.Warning(n.Org, "%s padded to a 16-bit boundary in .text segment", name)
				}
				addr := s.offset
				if err := s.image.Write(addr, data); err != nil {
					diag.Error(n.Org, "%v", err)
					continue
				}
				s.offset = addr + len(data)
				listing = append(listing, avr.ListingEntry{Segment: cur, Addr: addr, Bytes: data, Line: lineOf(n), Source: name})
			default:
				return nil, fmt.Errorf("avrasm: %s: unhandled directive %q", n.Org, name)
			}

		case LabelDeclTag:
			s, err := requireSeg(n, "label declaration")
			if err != nil {
				return nil, err
			}
			if err := resolver.Define(labelNameOf(n), s.offset); err != nil {
				diag.Error(n.Org, "%v", err)
			}

		case InstrTag:
			s, err := requireSeg(n, "instruction")
			if err != nil {
				return nil, err
			}
			mnemonic := mnemonicOf(n)
			ops := operandsOf(n)
			length, ok := avr.InstrLen(mnemonic)
			if !ok {
				diag.Error(n.Org, "unknown instruction mnemonic %q", mnemonic)
				continue
			}
			addr := s.offset
			img := s.image
			bytes, resolved, err := encodeAt(mnemonic, ops, resolver, addr, target.BswapCode)
			if err != nil {
				diag.Error(n.Org, "%v", err)
			} else if resolved {
				if err := img.Write(addr, bytes); err != nil {
					diag.Error(n.Org, "%v", err)
				}
				listing = append(listing, avr.ListingEntry{Segment: cur, Addr: addr, Bytes: bytes, Line: lineOf(n), Source: mnemonic})
			} else {
				labelName := pendingLabel(ops)
				bswap := target.BswapCode
				entryBytes := make([]byte, length)
				resolver.AddFixUp(labelName, func(int) error {
					b, ok2, ferr := encodeAt(mnemonic, ops, resolver, addr, bswap)
					if ferr != nil {
						return ferr
					}
					if !ok2 {
						return fmt.Errorf("avrasm: %q still unresolved after fix-up of label %q", mnemonic, labelName)
					}
					copy(entryBytes, b)
					return img.Write(addr, b)
				})
				listing = append(listing, avr.ListingEntry{Segment: cur, Addr: addr, Bytes: entryBytes, Line: lineOf(n), Source: mnemonic})
			}
			s.offset = addr + length
		}
	}

	for _, l := range resolver.Unresolved() {
		diag.Error(nil, "undefined label %q", l.Name)
	}

	images := map[string]*avr.Image{}
	for tag, s := range segs {
		images[tag] = s.image
	}

	return &Result{Target: target, Images: images, Diag: diag, Listing: listing}, nil
}

// Emit checks, merges and writes every writable image's hex file, per §4.8
// step 3 and §6; it does not write the listing. hexOf supplies the writer
// for a segment and is called once per writable segment that produced at
// least one range.
func (res *Result) Emit(hexOf func(segment string) (io.WriteCloser, error)) error {
	for _, tag := range []string{"text", "eeprom"} {
		img, ok := res.Images[tag]
		if !ok || !img.Writable {
			continue
		}
		ranges, err := img.CheckAndMerge()
		if err != nil {
			return err
		}
		if len(ranges) == 0 {
			continue
		}
		w, err := hexOf(tag)
		if err != nil {
			return err
		}
		werr := avr.WriteHex(w, img, ranges)
		cerr := w.Close()
		if werr != nil {
			return werr
		}
		if cerr != nil {
			return cerr
		}
	}
	return nil
}

func lineOf(n *tree.Node) int {
	if n.Org == nil {
		return 0
	}
	return n.Org.Line
}

// pendingLabel returns the name of the one operand an unresolved encode
// depends on, for keying the fix-up.
func pendingLabel(ops []Operand) string {
	for _, op := range ops {
		if op.Kind == avr.OperLabel {
			return op.Label
		}
	}
	return ""
}

// encodeAt resolves any low()/high() wrapped label operands against r
// before delegating to avr.Encode, since avr.ConstVal (the immediate-value
// path instructions like LDI use) takes a plain Operand with no resolver of
// its own — see DESIGN.md's note on this wrinkle.
func encodeAt(mnemonic string, ops []Operand, r *avr.Resolver, offset int, bswap bool) ([]byte, bool, error) {
	resolvedOps := make([]Operand, len(ops))
	allResolved := true
	for i, op := range ops {
		if op.Kind == avr.OperLabel && op.Func != "" {
			l := r.Label(op.Label)
			if l.Unresolved() {
				resolvedOps[i] = Operand{Kind: avr.OperConst, Have: false}
				allResolved = false
				continue
			}
			v := int64(l.BAddr)
			switch op.Func {
			case "low":
				v &= 0xff
			case "high":
				v = (v >> 8) & 0xff
			default:
				return nil, true, fmt.Errorf("avr: unknown operand function %q", op.Func)
			}
			resolvedOps[i] = Operand{Kind: avr.OperConst, Have: true, Const: v}
		} else {
			resolvedOps[i] = op
		}
	}
	if !allResolved {
		return nil, false, nil
	}
	return avr.Encode(mnemonic, resolvedOps, r, offset, bswap)
}

// constBytes renders a ".const"/".const16" directive argument to bytes: a
// string argument yields its raw ASCII bytes; an integer yields one (.const)
// or two (.const16, little- or big-endian per bswapCode) bytes.
func constBytes(directive string, arg any, bswapCode bool) ([]byte, error) {
	switch v := arg.(type) {
	case []byte:
		return v, nil
	case int64:
		switch directive {
		case ".const":
			// Accepts a signed or unsigned byte, -128..255; 256 is rejected.
			if v < -128 || v > 255 {
				return nil, fmt.Errorf(".const value %d out of range [-128,255]", v)
			}
			return []byte{byte(v)}, nil
		case ".const16":
			u := uint16(v)
			b := []byte{byte(u >> 8), byte(u)}
			if bswapCode {
				b[0], b[1] = b[1], b[0]
			}
			return b, nil
		}
	}
	return nil, fmt.Errorf("%s: unsupported argument %v", directive, arg)
}

// pickTarget implements §4.8's pre-codegen MCU scan: the first ".mcu"
// directive in document order selects the target; its absence is a
// warning, not an error, and defaults to avr.DefaultMCU.
func pickTarget(stmts []*tree.Node, diag *pass.Diagnostics) *avr.Target {
	for _, n := range stmts {
		if n.Tag != DirectiveTag || directiveNameOf(n) != ".mcu" {
			continue
		}
		name, _ := directiveArgOf(n).(string)
		if t, ok := avr.Lookup(name); ok {
			return t
		}
		diag.Error(n.Org, "unknown MCU %q", name)
		t, _ := avr.Lookup(avr.DefaultMCU)
		return t
	}
	t, _ := avr.Lookup(avr.DefaultMCU)
	diag.Warning(nil, "No MCU specified, assuming %s", avr.DefaultMCU)
	return t
}

// parseStatements scans file and parses each line independently into
// statement nodes, the shape statementTable expects (one "statement" per
// NEWLINE-terminated token run). A line that starts with a label declaration
// followed by more tokens ("end: nop") yields two statements: the label,
// then the rest of the line.
func (a *Assembler) parseStatements(file string, r io.Reader) ([]*tree.Node, error) {
	toks, err := lex.NewScanner(file).Scan(r)
	if err != nil {
		return nil, err
	}

	var stmts []*tree.Node
	var line []lex.Token
	for _, t := range toks {
		if t.Kind == lex.END {
			break
		}
		if t.Kind == lex.COMMENT {
			continue
		}
		line = append(line, t)
		if t.Kind == lex.NEWLINE {
			if onlyNewline(line) {
				line = nil
				continue
			}
			if len(line) > 3 && line[0].Kind == lex.NAME && line[1].Kind == lex.SYMBOL && line[1].Value == ":" {
				label, err := a.driver.Parse("statement", []lex.Token{line[0], line[1], t})
				if err != nil {
					return nil, err
				}
				stmts = append(stmts, label)
				line = line[2:]
			}
			stmt, err := a.driver.Parse("statement", line)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
			line = nil
		}
	}
	return stmts, nil
}

func onlyNewline(line []lex.Token) bool {
	return len(line) == 1 && line[0].Kind == lex.NEWLINE
}
