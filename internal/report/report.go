// Package report provides colored console output for user-facing progress
// and summary messages. It wraps fatih/color so commands and the provisioner
// share one output style: cyan info, green success, yellow warning, red error.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Reporter writes status messages to a single destination.
type Reporter struct {
	out io.Writer
}

// New returns a Reporter writing to stdout.
func New() *Reporter {
	return &Reporter{out: os.Stdout}
}

// NewWriter returns a Reporter writing to w. Used by tests.
func NewWriter(w io.Writer) *Reporter {
	return &Reporter{out: w}
}

// Infof prints an informational message.
func (r *Reporter) Infof(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(r.out, format+"\n", args...)
}

// Stepf prints a step-in-progress message.
func (r *Reporter) Stepf(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(r.out, "→ "+format+"\n", args...)
}

// Successf prints a success message.
func (r *Reporter) Successf(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(r.out, "✓ "+format+"\n", args...)
}

// Warnf prints a warning message.
func (r *Reporter) Warnf(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(r.out, "⚠ "+format+"\n", args...)
}

// Errorf prints an error message.
func (r *Reporter) Errorf(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(r.out, "✗ "+format+"\n", args...)
}

// Plainf prints without decoration.
func (r *Reporter) Plainf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format+"\n", args...)
}
