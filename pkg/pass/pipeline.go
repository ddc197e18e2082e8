// Package pass implements the ordered compile-pass pipeline: each named
// pass (prescope, scopein/scopeout, typecheck, constprop, typeresolve,
// precheck/postcheck, fetrans, mwsynctrans, betrans, premap/namemap/bemap,
// preallocate/precode/codegen) walks the tree dispatching through the
// current node's CompOps table, stopping the whole pipeline as soon as a
// pass leaves a non-zero error count on the source file.
package pass

import (
	"fmt"

	"github.com/nocc-avr/nocc/pkg/tree"
)

// Diagnostics is the per-source-file error/warning counter every pass
// consults before continuing: a non-zero error count after a pass stops
// the pipeline before the next one runs.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Diagnostic is one reported problem, carrying its node's origin.
type Diagnostic struct {
	Org     *tree.Origin
	Message string
}

func (d *Diagnostics) Error(org *tree.Origin, format string, args ...any) {
	d.Errors = append(d.Errors, Diagnostic{Org: org, Message: fmt.Sprintf(format, args...)})
}

func (d *Diagnostics) Warning(org *tree.Origin, format string, args ...any) {
	d.Warnings = append(d.Warnings, Diagnostic{Org: org, Message: fmt.Sprintf(format, args...)})
}

func (d *Diagnostics) HasErrors() bool { return len(d.Errors) > 0 }

// Standard pass names, in the order §4.2 lists them. A Pipeline need not
// use every name, but any name it does use must appear in this order.
const (
	Prescope    = "prescope"
	ScopeIn     = "scopein"
	ScopeOut    = "scopeout"
	TypeCheck   = "typecheck"
	ConstProp   = "constprop"
	TypeResolve = "typeresolve"
	PreCheck    = "precheck"
	PostCheck   = "postcheck"
	FETrans     = "fetrans"
	MWSyncTrans = "mwsynctrans"
	BETrans     = "betrans"
	PreMap      = "premap"
	NameMap     = "namemap"
	BEMap       = "bemap"
	PreAllocate = "preallocate"
	PreCode     = "precode"
	CodeGen     = "codegen"
)

// StandardOrder is the canonical pipeline order; Pipeline.Run walks exactly
// this list, skipping any pass name with no handler anywhere in the tree.
var StandardOrder = []string{
	Prescope, ScopeIn, ScopeOut, TypeCheck, ConstProp, TypeResolve,
	PreCheck, PostCheck, FETrans, MWSyncTrans, BETrans,
	PreMap, NameMap, BEMap, PreAllocate, PreCode, CodeGen,
}

// Pipeline runs a sequence of named passes over a tree, stopping early once
// a pass leaves errors on Diag.
type Pipeline struct {
	Order []string
	Diag  *Diagnostics
}

// NewPipeline returns a pipeline over StandardOrder with a fresh Diagnostics.
func NewPipeline() *Pipeline {
	return &Pipeline{Order: append([]string(nil), StandardOrder...), Diag: &Diagnostics{}}
}

// preOrderPasses are applied before descending into children: prescope and
// scopein must establish scope context that the children's own pass then
// observes. Every other pass defaults to post-order, per §5's "post-order
// for pass application where applicable" ordering guarantee — constprop in
// particular depends on this, since a node can only fold once its operands
// already have.
var preOrderPasses = map[string]bool{
	Prescope: true,
	ScopeIn:  true,
}

// Run walks root once per pass name in p.Order, invoking each node's
// CompOps entry for that pass (if any), so a pass can both inspect and
// rewrite the tree as it visits. state is passed through to every PassFunc
// unchanged — it is the pass's private working state (e.g. constprop's
// label fix-up state, see pkg/constprop).
func (p *Pipeline) Run(root **tree.Node, state any) error {
	for _, name := range p.Order {
		visit := func(slot **tree.Node) bool {
			n := *slot
			if n == nil || n.Tag == nil || n.Tag.Type == nil || n.Tag.Type.Compops == nil {
				return true
			}
			result, ok := n.Tag.Type.Compops.Call(name, slot, state)
			if !ok {
				return true
			}
			return result != 0
		}
		if preOrderPasses[name] {
			tree.ModPrewalk(root, visit)
		} else {
			tree.ModPostwalk(root, visit)
		}
		if p.Diag.HasErrors() {
			return &StoppedError{Pass: name, Diag: p.Diag}
		}
	}
	return nil
}

// StoppedError reports which pass left the pipeline with a non-zero error
// count, per §5's "non-zero counters stop the pipeline before the next
// pass" ordering guarantee.
type StoppedError struct {
	Pass string
	Diag *Diagnostics
}

func (e *StoppedError) Error() string {
	return fmt.Sprintf("pass %q reported %d error(s); pipeline stopped", e.Pass, len(e.Diag.Errors))
}
