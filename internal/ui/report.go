package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/usagecal/internal/calibration"
	"github.com/abdul-hamid-achik/usagecal/internal/monitor"
	"github.com/abdul-hamid-achik/usagecal/internal/window"
	"github.com/charmbracelet/lipgloss"
)

// ActionSummary prints what a positional calibration did.
func (o *OutputHandler) ActionSummary(res *calibration.ActionResult) {
	s := res.Session
	o.Success(fmt.Sprintf("Calibrated %s", s.WindowKey))
	o.Field("Monitor", fmt.Sprintf("%.1f%%", s.Monitor*100))
	o.Field("Actual", fmt.Sprintf("%.1f%%", s.Actual))
	o.Field("Offset", fmt.Sprintf("%+.1f%%", s.Sample.Offset*100))
	o.Field("Limits", fmt.Sprintf("in %s, out %s", FormatRate(s.InputLimit), FormatRate(s.OutputLimit)))
	o.Field("Override", "until "+FormatTime(s.ExpiresAt))
	o.Field("Model", fmt.Sprintf("%s (%d samples, confidence %.0f%%)", s.Model.Status, s.Model.SampleCount, s.Model.Confidence*100))

	if w := res.Weekly; w != nil {
		if w.Err != nil {
			o.Warning("weekly override not set: " + w.Err.Error())
			return
		}
		o.Separator()
		o.Success("Calibrated weekly")
		o.Field("Monitor", fmt.Sprintf("%.1f%%", w.Monitor*100))
		o.Field("Actual", fmt.Sprintf("%.1f%%", w.Actual))
		o.Field("Offset", fmt.Sprintf("%+.1f%%", w.Offset*100))
		o.Field("Limits", fmt.Sprintf("in %s, out %s", FormatRate(w.InputLimit), FormatRate(w.OutputLimit)))
		o.Field("Override", "until "+FormatTime(w.ExpiresAt))
	}
}

// LegacySummary prints what a record-only calibration did.
func (o *OutputHandler) LegacySummary(res *calibration.LegacyResult) {
	o.Success(fmt.Sprintf("Recorded sample for %s", res.WindowKey))
	o.Field("Offset", fmt.Sprintf("%+.1f%%", res.Sample.Offset*100))
	o.Field("Model", fmt.Sprintf("%s (%d samples, confidence %.0f%%)", res.Model.Status, res.Model.SampleCount, res.Model.Confidence*100))
	if res.Model.HasLimitLearning {
		o.Field("Limits", fmt.Sprintf("in %s, out %s", FormatRate(res.Model.LearnedInputLimit), FormatRate(res.Model.LearnedOutputLimit)))
	}
	if res.WeeklyOffset != nil {
		o.Field("Weekly", fmt.Sprintf("offset %+.1f%% (not stored)", *res.WeeklyOffset*100))
	}
}

// StatusCards prints one card per stored window. The card for current is
// highlighted.
func (o *OutputHandler) StatusCards(sums []calibration.WindowSummary, current window.Key, now time.Time) {
	if len(sums) == 0 {
		o.Info("No calibration data yet")
		return
	}

	cards := make([]string, 0, len(sums))
	for _, s := range sums {
		style := cardStyle
		title := s.Key.String()
		if s.Key == current {
			style = currentCardStyle
			title += " (current)"
		}

		lines := []string{cardTitleStyle.Render(title)}
		lines = append(lines, row("Samples", fmt.Sprintf("%d", s.Samples)))
		if m := s.Model; m != nil {
			lines = append(lines,
				row("Status", statusText(m.Status)),
				row("Offset", fmt.Sprintf("%+.2f%% ± %.2f%%", m.OffsetMean*100, m.OffsetStd*100)),
				row("Confidence", fmt.Sprintf("%.0f%%", m.Confidence*100)),
			)
			if m.HasLimitLearning {
				lines = append(lines, row("Limits", fmt.Sprintf("in %s, out %s", FormatRate(m.LearnedInputLimit), FormatRate(m.LearnedOutputLimit))))
			}
		} else {
			lines = append(lines, row("Status", statusText(calibration.StatusNoData)))
		}
		if !s.Newest.IsZero() {
			lines = append(lines, row("Last sample", FormatTime(s.Newest)))
		}
		if ov := s.Override; ov != nil {
			text := fmt.Sprintf("%.1f%% until %s", ov.CalibratedPercentage, FormatTime(ov.ExpiresAt))
			if ov.LearnedLimit > 0 {
				text += fmt.Sprintf(" (%d tpm)", ov.LearnedLimit)
			}
			if !now.Before(ov.ExpiresAt) {
				text += " expired"
			}
			lines = append(lines, row("Override", overrideStyle.Render(text)))
		}

		cards = append(cards, style.Render(strings.Join(lines, "\n")))
	}

	fmt.Fprintln(o.out, lipgloss.JoinVertical(lipgloss.Left, cards...))
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func statusText(s calibration.Status) string {
	switch s {
	case calibration.StatusLearned:
		return learnedStyle.Render(string(s))
	case calibration.StatusLearning, calibration.StatusLearningWithFallback:
		return learningStyle.Render(string(s))
	case calibration.StatusOverride:
		return overrideStyle.Render(string(s))
	default:
		return string(s)
	}
}

// TickLine prints one line per monitor tick.
func (o *OutputHandler) TickLine(res *monitor.TickResult, err error, at time.Time) {
	stamp := o.color(Dim, at.Format("15:04:05"))
	if err != nil {
		fmt.Fprintf(o.out, "[%s] No active session\n", stamp)
		return
	}
	s, w := res.Session, res.Weekly
	fmt.Fprintf(o.out, "[%s] Session: %s %s | Weekly: %.1f%% (%s)\n",
		stamp,
		ProgressBar(s.Percent(), 10),
		o.color(Cyan, string(s.Method)),
		w.Percent(),
		w.Method)
}

// ProgressBar renders a battery-style bar such as "[42% ====------]".
func ProgressBar(percent float64, width int) string {
	filled := width
	if percent < 100 {
		filled = int(percent / 100 * float64(width))
	}
	if filled < 0 {
		filled = 0
	}
	return fmt.Sprintf("[%d%% %s%s]", int(percent), strings.Repeat("=", filled), strings.Repeat("-", width-filled))
}

// FormatRate formats a rate limit, or "-" when there is none.
func FormatRate(r *calibration.Rate) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%d tpm", *r)
}

// FormatTime formats a timestamp for display.
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04 MST")
}
