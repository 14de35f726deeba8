package diagnostics

import (
	"strings"
	"testing"

	"github.com/vesper-lang/vesper/internal/token"
)

func TestDiagnosticErrorFormat(t *testing.T) {
	e := NewError(ErrTypeMismatch, token.At(3, 7), "cannot unify %s with %s", "Int", "Bool")
	e.File = "main.vs"
	got := e.Error()
	want := "main.vs:3:7 [T001]: cannot unify Int with Bool"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestWarningSeverity(t *testing.T) {
	w := NewWarning(ErrUnreachablePattern, token.At(1, 1), "unreachable")
	if !w.IsWarning() {
		t.Error("expected warning severity")
	}
	if NewError(ErrOccursCheck, token.At(1, 1), "x").IsWarning() {
		t.Error("errors must not report as warnings")
	}
}

func TestBagDeduplicates(t *testing.T) {
	b := NewBag(0)
	b.Add(NewError(ErrTypeMismatch, token.At(2, 4), "first"))
	b.Add(NewError(ErrTypeMismatch, token.At(2, 4), "duplicate position and code"))
	b.Add(NewError(ErrOccursCheck, token.At(2, 4), "different code, kept"))
	if len(b.All()) != 2 {
		t.Fatalf("expected 2 diagnostics after dedup, got %d", len(b.All()))
	}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(1)
	b.Add(NewError(ErrTypeMismatch, token.At(1, 1), "kept"))
	b.Add(NewError(ErrTypeMismatch, token.At(2, 2), "dropped"))
	if len(b.All()) != 1 {
		t.Fatalf("expected bag capped at 1, got %d", len(b.All()))
	}
}

func TestBagHasErrors(t *testing.T) {
	b := NewBag(0)
	b.Add(NewWarning(ErrUnreachablePattern, token.At(1, 1), "warn"))
	if b.HasErrors() {
		t.Error("warnings alone must not count as errors")
	}
	b.Add(NewError(ErrNonExhaustiveMatch, token.At(2, 1), "missing variant"))
	if !b.HasErrors() {
		t.Error("expected HasErrors after adding a fatal diagnostic")
	}
}

func TestRenderPlain(t *testing.T) {
	var sb strings.Builder
	Render(&sb, []*DiagnosticError{
		NewError(ErrNonExhaustiveMatch, token.At(5, 2), "match is not exhaustive"),
		NewWarning(ErrUnreachablePattern, token.At(6, 2), "arm is unreachable"),
	})
	out := sb.String()
	if !strings.Contains(out, "error: 5:2 [M001]") {
		t.Errorf("missing error line in output:\n%s", out)
	}
	if !strings.Contains(out, "warning: 6:2 [M002]") {
		t.Errorf("missing warning line in output:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-TTY writer must not receive ANSI escapes")
	}
}
