// Package prompt implements interactive confirmation for destructive
// commands. Teardown requires the literal answer "yes"; anything else is a
// clean abort, and --force skips the prompt entirely.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirmer asks the user to confirm a destructive action.
type Confirmer struct {
	in  io.Reader
	out io.Writer
}

// New returns a Confirmer reading from stdin and writing to stdout.
func New() *Confirmer {
	return &Confirmer{in: os.Stdin, out: os.Stdout}
}

// NewReadWriter returns a Confirmer over the given reader and writer.
func NewReadWriter(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{in: in, out: out}
}

// Confirm prints the message and waits for a line of input. It returns true
// only for the exact answer "yes" (case-insensitive, surrounding whitespace
// ignored). EOF and read errors count as a declined confirmation.
func (c *Confirmer) Confirm(message string) bool {
	fmt.Fprintf(c.out, "%s\nType 'yes' to continue: ", message)

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(line), "yes")
}
