// Package output handles user-facing output for the recommit CLI.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Splog provides structured logging and output
type Splog struct {
	writer  io.Writer
	debug   bool
	colored bool
}

// NewSplog creates a new splog instance writing to stdout
func NewSplog() *Splog {
	return &Splog{
		writer:  os.Stdout,
		colored: isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// NewSplogWriter creates a splog instance writing to w, uncolored
func NewSplogWriter(w io.Writer) *Splog {
	return &Splog{writer: w}
}

// SetDebug enables debug output
func (s *Splog) SetDebug(debug bool) {
	s.debug = debug
}

// Info writes an info message
func (s *Splog) Info(format string, args ...interface{}) {
	fmt.Fprintf(s.writer, format+"\n", args...)
}

// Newline writes a newline
func (s *Splog) Newline() {
	fmt.Fprintln(s.writer)
}

// Warn writes a warning message
func (s *Splog) Warn(format string, args ...interface{}) {
	fmt.Fprintf(s.writer, s.color("33", "warning: ")+format+"\n", args...)
}

// Error writes an error message
func (s *Splog) Error(format string, args ...interface{}) {
	fmt.Fprintf(s.writer, s.color("31", "error: ")+format+"\n", args...)
}

// Debug writes a debug message when debug output is enabled
func (s *Splog) Debug(format string, args ...interface{}) {
	if !s.debug {
		return
	}
	fmt.Fprintf(s.writer, s.color("90", "debug: ")+format+"\n", args...)
}

// Tip writes a tip message
func (s *Splog) Tip(format string, args ...interface{}) {
	fmt.Fprintf(s.writer, s.color("36", "tip: ")+format+"\n", args...)
}

func (s *Splog) color(code, text string) string {
	if !s.colored {
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}
