package tui

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/usagecal/internal/ui"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldSession = iota
	fieldWeekly
)

// PromptResult is what the user entered in the calibration prompt.
type PromptResult struct {
	Session   float64
	Weekly    *float64
	Cancelled bool
}

// promptModel asks for the actual session and weekly percentages.
type promptModel struct {
	inputs  []textinput.Model
	focus   int
	monitor [2]float64 // current estimates, shown as hints
	err     string
	result  PromptResult
	done    bool
}

func newPromptModel(sessionEstimate, weeklyEstimate float64) promptModel {
	inputs := make([]textinput.Model, 2)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.PromptStyle = inputPromptStyle
		ti.CharLimit = 6
		ti.Width = 10
		inputs[i] = ti
	}
	inputs[fieldSession].Placeholder = fmt.Sprintf("%.1f", sessionEstimate)
	inputs[fieldWeekly].Placeholder = "skip"
	inputs[fieldSession].Focus()

	return promptModel{
		inputs:  inputs,
		monitor: [2]float64{sessionEstimate, weeklyEstimate},
	}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.result.Cancelled = true
			m.done = true
			return m, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			return m.setFocus(m.focus + 1), nil
		case tea.KeyShiftTab, tea.KeyUp:
			return m.setFocus(m.focus - 1), nil
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m promptModel) setFocus(i int) promptModel {
	n := len(m.inputs)
	m.focus = ((i % n) + n) % n
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return m
}

// submit moves from the session field to the weekly one, and finishes from
// the weekly field once both values parse.
func (m promptModel) submit() (tea.Model, tea.Cmd) {
	session, err := ui.ParsePercent(m.inputs[fieldSession].Value())
	if err != nil {
		m.err = "session: " + err.Error()
		return m.setFocus(fieldSession), nil
	}
	m.err = ""

	if m.focus == fieldSession {
		return m.setFocus(fieldWeekly), nil
	}

	var weekly *float64
	if raw := strings.TrimSpace(m.inputs[fieldWeekly].Value()); raw != "" {
		v, err := ui.ParsePercent(raw)
		if err != nil {
			m.err = "weekly: " + err.Error()
			return m, nil
		}
		weekly = &v
	}

	m.result = PromptResult{Session: session, Weekly: weekly}
	m.done = true
	return m, tea.Quit
}

func (m promptModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Calibrate usage") + "\n\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Actual session usage %% (monitor shows %.1f%%)", m.monitor[fieldSession])) + "\n")
	b.WriteString(m.inputs[fieldSession].View() + "\n\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Actual weekly usage %% (monitor shows %.1f%%, optional)", m.monitor[fieldWeekly])) + "\n")
	b.WriteString(m.inputs[fieldWeekly].View() + "\n")
	if m.err != "" {
		b.WriteString("\n" + errorStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("enter: next/submit • tab: switch field • esc: cancel") + "\n")
	return b.String()
}
