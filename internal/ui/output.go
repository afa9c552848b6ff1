package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/usagecal/internal/ui/highlight"
)

// ANSI color codes
const (
	Reset     = "\033[0m"
	Bold      = "\033[1m"
	Dim       = "\033[2m"
	Underline = "\033[4m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

// OutputHandler handles console output with colors
type OutputHandler struct {
	out         io.Writer
	errOut      io.Writer
	useColors   bool
	highlighter *highlight.Highlighter
}

// NewOutputHandler creates an output handler for stdout and stderr
func NewOutputHandler() *OutputHandler {
	// Check if output is a terminal
	useColors := true
	if fileInfo, err := os.Stdout.Stat(); err != nil || (fileInfo.Mode()&os.ModeCharDevice) == 0 {
		useColors = false
	}

	// Check NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		useColors = false
	}

	return NewOutputHandlerTo(os.Stdout, os.Stderr, useColors)
}

// NewOutputHandlerTo creates an output handler writing to the given writers
func NewOutputHandlerTo(out, errOut io.Writer, useColors bool) *OutputHandler {
	return &OutputHandler{
		out:         out,
		errOut:      errOut,
		useColors:   useColors,
		highlighter: highlight.New(useColors),
	}
}

// color applies color if colors are enabled
func (o *OutputHandler) color(color, text string) string {
	if !o.useColors {
		return text
	}
	return color + text + Reset
}

// Error outputs an error message
func (o *OutputHandler) Error(err error) {
	prefix := o.color(Red+Bold, "Error: ")
	fmt.Fprintln(o.errOut, prefix+err.Error())
}

// ErrorStr outputs an error string
func (o *OutputHandler) ErrorStr(msg string) {
	prefix := o.color(Red+Bold, "Error: ")
	fmt.Fprintln(o.errOut, prefix+msg)
}

// Warning outputs a warning message
func (o *OutputHandler) Warning(msg string) {
	prefix := o.color(Yellow+Bold, "Warning: ")
	fmt.Fprintln(o.errOut, prefix+msg)
}

// Success outputs a success message
func (o *OutputHandler) Success(msg string) {
	prefix := o.color(Green+Bold, "✓ ")
	fmt.Fprintln(o.out, prefix+msg)
}

// Info outputs an info message
func (o *OutputHandler) Info(msg string) {
	prefix := o.color(Blue, "ℹ ")
	fmt.Fprintln(o.out, prefix+msg)
}

// Header outputs a header
func (o *OutputHandler) Header(text string) {
	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, o.color(Bold+Underline, text))
	fmt.Fprintln(o.out)
}

// Separator outputs a horizontal line
func (o *OutputHandler) Separator() {
	fmt.Fprintln(o.out, o.color(Dim, strings.Repeat("─", 40)))
}

// Field outputs an indented "label: value" line
func (o *OutputHandler) Field(label, value string) {
	fmt.Fprintf(o.out, "   %s %s\n", o.color(Dim, label+":"), value)
}

// JSON outputs a JSON document, highlighted on a terminal
func (o *OutputHandler) JSON(doc []byte) {
	fmt.Fprintln(o.out, o.highlighter.Highlight(string(doc), "json"))
}
