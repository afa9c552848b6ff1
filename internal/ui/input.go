package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/usagecal/internal/calibration"
)

// InputHandler handles line-based user input
type InputHandler struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewInputHandler creates a new input handler on stdin
func NewInputHandler() *InputHandler {
	return NewInputHandlerFrom(os.Stdin, os.Stdout)
}

// NewInputHandlerFrom creates an input handler reading from r and printing
// prompts to out
func NewInputHandlerFrom(r io.Reader, out io.Writer) *InputHandler {
	return &InputHandler{
		reader: bufio.NewReader(r),
		out:    out,
	}
}

// ReadLine reads a single line of input
func (h *InputHandler) ReadLine(prompt string) (string, error) {
	fmt.Fprint(h.out, prompt)
	line, err := h.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPercent reads a percentage (0-100), re-prompting on invalid input.
// An empty answer returns nil when optional is set.
func (h *InputHandler) ReadPercent(prompt string, optional bool) (*float64, error) {
	for {
		response, err := h.ReadLine(prompt)
		if err != nil {
			return nil, err
		}
		if response == "" && optional {
			return nil, nil
		}

		v, err := ParsePercent(response)
		if err != nil {
			fmt.Fprintln(h.out, err.Error())
			continue
		}
		return &v, nil
	}
}

// ReadActuals prompts for the session and optional weekly percentages
func (h *InputHandler) ReadActuals() (session float64, weekly *float64, err error) {
	s, err := h.ReadPercent("Actual session usage (%): ", false)
	if err != nil {
		return 0, nil, err
	}
	weekly, err = h.ReadPercent("Actual weekly usage (%, empty to skip): ", true)
	if err != nil {
		return 0, nil, err
	}
	return *s, weekly, nil
}

// ParsePercent parses a user-typed percentage such as "42", "42.5" or "42%"
// and checks that it lies within 0-100.
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("please enter a number between 0 and 100")
	}
	if err := calibration.ValidatePercent("value", v); err != nil {
		return 0, err
	}
	return v, nil
}
