package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBold   = "\x1b[1m"
	ansiReset  = "\x1b[0m"
)

// Render writes diagnostics to w, one per line, colorizing severity when
// w is an interactive terminal.
func Render(w io.Writer, diags []*DiagnosticError) {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, d := range diags {
		fmt.Fprintln(w, renderOne(d, color))
	}
}

func renderOne(d *DiagnosticError, color bool) string {
	label := "error"
	tint := ansiRed
	if d.IsWarning() {
		label = "warning"
		tint = ansiYellow
	}
	if !color {
		return fmt.Sprintf("%s: %s", label, d.Error())
	}
	return fmt.Sprintf("%s%s%s%s: %s", ansiBold, tint, label, ansiReset, d.Error())
}
