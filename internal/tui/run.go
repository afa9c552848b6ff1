package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// RunPrompt shows the calibration prompt and blocks until the user submits
// or cancels. Estimates are percentages (0-100) shown as hints.
func RunPrompt(sessionEstimate, weeklyEstimate float64) (PromptResult, error) {
	if !IsTTYAvailable() {
		return PromptResult{}, fmt.Errorf("prompt requires a terminal")
	}

	program := tea.NewProgram(newPromptModel(sessionEstimate, weeklyEstimate))
	final, err := program.Run()
	if err != nil {
		return PromptResult{}, fmt.Errorf("error running prompt: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok {
		return PromptResult{Cancelled: true}, nil
	}
	return m.result, nil
}

// IsTTYAvailable checks that both stdin and stdout are terminals.
func IsTTYAvailable() bool {
	for _, f := range []*os.File{os.Stdin, os.Stdout} {
		fileInfo, err := f.Stat()
		if err != nil {
			return false
		}
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			return false
		}
	}
	return true
}
