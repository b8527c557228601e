package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/projecteru2/prebake/supervisor"
)

const defaultRuleWidth = 72

// PrintError writes err to w. Pipeline failures get their diagnostics
// framed by rules sized to the terminal when w is one.
func PrintError(w io.Writer, err error) {
	var f *supervisor.Failure
	if !errors.As(err, &f) || len(f.Diagnostics) == 0 {
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	rule := strings.Repeat("-", ruleWidth(w))
	_, _ = fmt.Fprintf(w, "Error: %v\n%s\n", err, rule)
	for _, l := range f.Diagnostics {
		_, _ = fmt.Fprintln(w, l)
	}
	_, _ = fmt.Fprintln(w, rule)
}

func ruleWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultRuleWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultRuleWidth
	}
	return width
}
