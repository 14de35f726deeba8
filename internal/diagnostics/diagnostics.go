// Package diagnostics defines the structured errors produced by the
// checking and lowering phases.
//
// Every user-facing problem is a *DiagnosticError value with a stable code,
// a source position, and a severity. Diagnostics are returned, never
// panicked: the surrounding toolchain decides whether to halt after the
// first one or collect a batch. Internal invariant violations (substitution
// cycles, unplaced labels) are the only panics in the core; they indicate
// a compiler bug, not a user error.
package diagnostics

import (
	"fmt"

	"github.com/vesper-lang/vesper/internal/token"
)

// ErrorCode identifies a diagnostic category.
type ErrorCode string

const (
	// Type checking
	ErrTypeMismatch      ErrorCode = "T001" // two types cannot unify
	ErrOccursCheck       ErrorCode = "T002" // infinite type
	ErrUnresolvedSubtype ErrorCode = "T003" // no numeric promotion path
	ErrInvalidField      ErrorCode = "T004" // field not present on variant/product

	// Match analysis
	ErrNonExhaustiveMatch ErrorCode = "M001"
	ErrUnreachablePattern ErrorCode = "M002" // warning
)

// Severity distinguishes fatal diagnostics from warnings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// DiagnosticError is a structured, recoverable compilation diagnostic.
type DiagnosticError struct {
	Code     ErrorCode
	Severity Severity
	Token    token.Token
	File     string
	Message  string
}

func (e *DiagnosticError) Error() string {
	loc := e.Token.Pos()
	if e.File != "" {
		loc = e.File + ":" + loc
	}
	return fmt.Sprintf("%s [%s]: %s", loc, e.Code, e.Message)
}

// IsWarning reports whether the diagnostic is non-fatal.
func (e *DiagnosticError) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// NewError creates an error-severity diagnostic.
func NewError(code ErrorCode, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Token:   tok,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewWarning creates a warning-severity diagnostic.
func NewWarning(code ErrorCode, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:     code,
		Severity: SeverityWarning,
		Token:    tok,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Bag collects diagnostics across a compilation unit, deduplicating by
// position and code so repeated solver passes don't multiply reports.
type Bag struct {
	seen  map[string]bool
	all   []*DiagnosticError
	limit int
}

// NewBag creates a diagnostic collector. limit caps the number of
// collected diagnostics; 0 means unlimited.
func NewBag(limit int) *Bag {
	return &Bag{seen: make(map[string]bool), limit: limit}
}

// Add records a diagnostic unless it duplicates an earlier one or the
// bag is full.
func (b *Bag) Add(err *DiagnosticError) {
	if err == nil {
		return
	}
	if b.limit > 0 && len(b.all) >= b.limit {
		return
	}
	key := fmt.Sprintf("%d:%d:%s", err.Token.Line, err.Token.Column, err.Code)
	if b.seen[key] {
		return
	}
	b.seen[key] = true
	b.all = append(b.all, err)
}

// All returns the collected diagnostics in insertion order.
func (b *Bag) All() []*DiagnosticError {
	return b.all
}

// HasErrors reports whether any collected diagnostic is fatal.
func (b *Bag) HasErrors() bool {
	for _, e := range b.all {
		if !e.IsWarning() {
			return true
		}
	}
	return false
}
