// Package ui renders harvest progress and results on the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
)

// Banner is printed above interactive runs
const Banner = `
   ┌──────────────────────────────────────────────┐
   │  ██████   █████   ██████  ███████ ██    ██   │
   │ ██       ██   ██ ██       ██       ██  ██    │
   │ ██   ███ ███████ ██   ███ ███████   ████     │
   │ ██    ██ ██   ██ ██    ██      ██    ██      │
   │  ██████  ██   ██  ██████  ███████    ██  ync │
   │        feed harvester · cache · catalog      │
   └──────────────────────────────────────────────┘
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// Console writes decorated lines to an output stream
type Console struct {
	out io.Writer
}

// NewConsole returns a console on out, or stdout when out is nil
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

// Writer returns the underlying stream
func (c *Console) Writer() io.Writer {
	return c.out
}

func (c *Console) Banner() {
	fmt.Fprint(c.out, Cyan(Banner))
}

// Error prints msg, followed by err when given
func (c *Console) Error(msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	fmt.Fprintln(c.out, Red("✗ "+msg))
}

func (c *Console) Success(msg string) {
	fmt.Fprintln(c.out, Green("✓ "+msg))
}

func (c *Console) Warning(msg string) {
	fmt.Fprintln(c.out, Yellow("⚠ "+msg))
}

// Info prints a label and value pair
func (c *Console) Info(label, value string) {
	fmt.Fprintf(c.out, "%s: %s\n", Cyan(label), Yellow(value))
}
