package analyzer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/config"
	"github.com/vesper-lang/vesper/internal/diagnostics"
	"github.com/vesper-lang/vesper/internal/symbols"
	"github.com/vesper-lang/vesper/internal/typesystem"
)

// Analyzer drives checking over a whole program. Declarations are
// independent once their signatures are in scope, so they check in
// parallel up to the configured worker count.
type Analyzer struct {
	opts config.Options
}

// New creates an analyzer with the given options.
func New(opts config.Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// CheckedDeclaration is the analysis output for one declaration:
// the declaration itself plus its fully resolved inference context,
// which lowering reads for types and widening points. ParamTypes are
// the resolved parameter types, which may differ from the declared
// ones when a parameter was unannotated.
type CheckedDeclaration struct {
	Decl       *ast.FunctionDeclaration
	Ctx        *InferenceContext
	ParamTypes []typesystem.Type
}

// Result aggregates per-declaration outputs and all diagnostics in
// declaration order.
type Result struct {
	Checked     []*CheckedDeclaration
	Diagnostics []*diagnostics.DiagnosticError
}

// HasErrors reports whether any diagnostic is fatal.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if !d.IsWarning() {
			return true
		}
	}
	return false
}

// CheckProgram checks every declaration against the given global scope.
// Function signatures are installed first so calls between declarations
// resolve regardless of order. A non-nil error is an internal contract
// breach, not a user diagnostic.
func (a *Analyzer) CheckProgram(prog *ast.Program, globals *symbols.SymbolTable) (*Result, error) {
	for _, decl := range prog.Declarations {
		globals.Define(decl.Name, signatureOf(decl))
	}

	type outcome struct {
		checked *CheckedDeclaration
		bag     *diagnostics.Bag
		err     error
	}
	outcomes := make([]outcome, len(prog.Declarations))

	// Declarations with unannotated signatures are checked first, in
	// order, and re-installed generalized: their inferred schemes must
	// be in scope before any caller checks, and generalizing before the
	// body constrains the signature would quantify too much.
	for i, decl := range prog.Declarations {
		if !needsInference(decl) {
			continue
		}
		bag := diagnostics.NewBag(a.opts.MaxDiagnostics)
		checked, err := a.checkDeclaration(decl, globals, bag)
		outcomes[i] = outcome{checked: checked, bag: bag, err: err}
		if checked != nil {
			resolved := signatureOf(decl).Apply(checked.Ctx.GlobalSubst)
			globals.Define(decl.Name, Generalize(nil, resolved))
		}
	}

	workers := a.opts.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, decl := range prog.Declarations {
		if needsInference(decl) {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, decl *ast.FunctionDeclaration) {
			defer wg.Done()
			defer func() { <-sem }()
			bag := diagnostics.NewBag(a.opts.MaxDiagnostics)
			checked, err := a.checkDeclaration(decl, globals, bag)
			outcomes[i] = outcome{checked: checked, bag: bag, err: err}
		}(i, decl)
	}
	wg.Wait()

	result := &Result{}
	for _, o := range outcomes {
		if o.err != nil {
			return nil, o.err
		}
		for _, d := range o.bag.All() {
			d.File = prog.File
			if a.opts.WarningsAsErrors && d.IsWarning() {
				d.Severity = diagnostics.SeverityError
			}
			result.Diagnostics = append(result.Diagnostics, d)
			if a.opts.MaxDiagnostics > 0 && len(result.Diagnostics) >= a.opts.MaxDiagnostics {
				return result, nil
			}
		}
		if o.checked != nil {
			result.Checked = append(result.Checked, o.checked)
		}
	}
	return result, nil
}

// checkDeclaration runs the full pipeline for one declaration: collect,
// solve once, resolve the type map, then analyze matches. Diagnostics
// land in the bag; a returned error aborts the unit.
func (a *Analyzer) checkDeclaration(decl *ast.FunctionDeclaration, globals *symbols.SymbolTable, bag *diagnostics.Bag) (*CheckedDeclaration, error) {
	ctx := NewInferenceContext()
	sig := signatureOf(decl)
	scope := symbols.NewEnclosedSymbolTable(globals)
	for i, p := range decl.Params {
		scope.Define(p.Name, sig.Params[i])
	}

	bodyType, err := Collect(ctx, decl.Body, scope)
	if err != nil {
		var diag *diagnostics.DiagnosticError
		if errors.As(err, &diag) {
			bag.Add(diag)
			return nil, nil
		}
		return nil, err
	}
	ctx.addConstraint(Constraint{Kind: ConstraintEqual, Left: bodyType, Right: sig.Return, Node: decl.Body})

	Solve(ctx, bag)
	ctx.ResolveTypes()

	// Exhaustiveness over unresolved types would report nonsense; skip
	// it when the declaration already failed to check.
	if !bag.HasErrors() {
		CheckExhaustiveness(ctx, bag)
	}
	if bag.HasErrors() {
		return nil, nil
	}
	paramTypes := make([]typesystem.Type, len(sig.Params))
	for i, p := range sig.Params {
		paramTypes[i] = p.Apply(ctx.GlobalSubst)
	}
	return &CheckedDeclaration{Decl: decl, Ctx: ctx, ParamTypes: paramTypes}, nil
}

// needsInference reports whether any part of the declared signature is
// left to inference.
func needsInference(decl *ast.FunctionDeclaration) bool {
	if decl.ReturnType == nil {
		return true
	}
	for _, p := range decl.Params {
		if p.Type == nil {
			return true
		}
	}
	return false
}

// signatureOf builds a declaration's function type. Unannotated
// parameters and returns become type variables named after the
// declaration, so checking the body later reconstructs the same
// variables the installed signature carries.
func signatureOf(decl *ast.FunctionDeclaration) typesystem.TFunc {
	params := make([]typesystem.Type, len(decl.Params))
	for i, p := range decl.Params {
		if p.Type != nil {
			params[i] = p.Type
			continue
		}
		params[i] = typesystem.TVar{Name: fmt.Sprintf("%s.%s", decl.Name, p.Name)}
	}
	ret := decl.ReturnType
	if ret == nil {
		ret = typesystem.TVar{Name: decl.Name + ".return"}
	}
	return typesystem.TFunc{Params: params, Return: ret}
}
