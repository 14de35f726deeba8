// Package pipeline chains the compilation phases over a shared context:
// type checking, then lowering. Stages keep running after failures so a
// single pass reports every phase's diagnostics, but lowering never
// consumes a tree that failed to check.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/vesper-lang/vesper/internal/analyzer"
	"github.com/vesper-lang/vesper/internal/ast"
	"github.com/vesper-lang/vesper/internal/codegen"
	"github.com/vesper-lang/vesper/internal/config"
	"github.com/vesper-lang/vesper/internal/diagnostics"
	"github.com/vesper-lang/vesper/internal/symbols"
)

// Context carries one compilation unit through the stages.
type Context struct {
	// UnitID correlates this unit's artifacts and diagnostics across
	// the surrounding toolchain.
	UnitID  uuid.UUID
	File    string
	Program *ast.Program
	Globals *symbols.SymbolTable
	Options config.Options

	Analysis *analyzer.Result
	Codes    []*codegen.Code
	Errors   []*diagnostics.DiagnosticError

	// Internal records a contract breach (a malformed input tree, a
	// lowering bug) that is not a user diagnostic.
	Internal error
}

// NewContext creates a unit context with a fresh identity.
func NewContext(file string, prog *ast.Program, globals *symbols.SymbolTable, opts config.Options) *Context {
	return &Context{
		UnitID:  uuid.New(),
		File:    file,
		Program: prog,
		Globals: globals,
		Options: opts,
	}
}

// HasErrors reports whether any fatal diagnostic or internal error was
// recorded.
func (c *Context) HasErrors() bool {
	if c.Internal != nil {
		return true
	}
	for _, d := range c.Errors {
		if !d.IsWarning() {
			return true
		}
	}
	return false
}

// Processor is one compilation stage.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline is an ordered sequence of stages.
type Pipeline struct {
	processors []Processor
}

// New builds a pipeline from stages in execution order.
func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run pushes the context through every stage.
func (p *Pipeline) Run(ctx *Context) *Context {
	for _, proc := range p.processors {
		ctx = proc.Process(ctx)
	}
	return ctx
}

// CheckProcessor runs type checking and match analysis.
type CheckProcessor struct{}

func (CheckProcessor) Process(ctx *Context) *Context {
	if ctx.Program == nil || ctx.Internal != nil {
		return ctx
	}
	result, err := analyzer.New(ctx.Options).CheckProgram(ctx.Program, ctx.Globals)
	if err != nil {
		ctx.Internal = err
		return ctx
	}
	ctx.Analysis = result
	ctx.Errors = append(ctx.Errors, result.Diagnostics...)
	return ctx
}

// LowerProcessor lowers every declaration that checked cleanly.
type LowerProcessor struct{}

func (LowerProcessor) Process(ctx *Context) *Context {
	if ctx.Analysis == nil || ctx.Internal != nil || ctx.HasErrors() {
		return ctx
	}
	for _, checked := range ctx.Analysis.Checked {
		code, err := codegen.Compile(checked, ctx.File)
		if err != nil {
			ctx.Internal = err
			return ctx
		}
		ctx.Codes = append(ctx.Codes, code)
	}
	return ctx
}

// Compile is the whole front-to-back run for one unit.
func Compile(file string, prog *ast.Program, globals *symbols.SymbolTable, opts config.Options) *Context {
	return New(CheckProcessor{}, LowerProcessor{}).Run(NewContext(file, prog, globals, opts))
}
