package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/boardtune/internal/model"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	successStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skippedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warningStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// OutcomeIcon returns the glyph representing an operation outcome.
func OutcomeIcon(outcome model.Outcome) string {
	switch outcome {
	case model.OutcomeSuccess:
		return successStyle.Render("✓")
	case model.OutcomeFailed:
		return failureStyle.Render("✗")
	case model.OutcomeSkippedFlag, model.OutcomeSkippedState:
		return skippedStyle.Render("⊘")
	default:
		return skippedStyle.Render("…")
	}
}

// StatusLine renders the single-line report printed as each operation
// completes.
func StatusLine(res model.OperationResult) string {
	line := fmt.Sprintf(" %s %s", OutcomeIcon(res.Outcome), res.Name)
	if strings.TrimSpace(res.Message) != "" {
		line = fmt.Sprintf("%s: %s", line, res.Message)
	}
	if res.Duration > 0 {
		line = fmt.Sprintf("%s (%s)", line, res.Duration.Truncate(10*time.Millisecond))
	}
	if len(res.Warnings) > 0 {
		line = fmt.Sprintf("%s %s", line, warningStyle.Render(fmt.Sprintf("[%d warnings]", len(res.Warnings))))
	}
	return line
}

// Summary renders the final aggregate report from a completed recorder.
func Summary(rec *Recorder) string {
	var sections []string

	sections = append(sections, summaryTitleStyle.Render("Summary"))
	sections = append(sections, fmt.Sprintf(" applied: %d  skipped (flag): %d  skipped (state): %d  failed: %d",
		rec.SuccessCount(), len(rec.SkippedByFlag()), len(rec.SkippedByState()), rec.FailureCount()))

	if rec.WarningCount() > 0 {
		sections = append(sections, warningStyle.Render(fmt.Sprintf(" warnings: %d", rec.WarningCount())))
	}

	if names := rec.SkippedByFlag(); len(names) > 0 {
		sections = append(sections, skippedStyle.Render(fmt.Sprintf(" disabled by flags: %s", strings.Join(names, ", "))))
	}
	if names := rec.SkippedByState(); len(names) > 0 {
		sections = append(sections, skippedStyle.Render(fmt.Sprintf(" already satisfied: %s", strings.Join(names, ", "))))
	}
	if names := rec.Failed(); len(names) > 0 {
		sections = append(sections, failureStyle.Render(fmt.Sprintf(" failed: %s", strings.Join(names, ", "))))
	} else {
		sections = append(sections, successStyle.Render(" all operations completed"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
