package tui

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/boardtune/internal/engine"
)

// View renders the execution progress and, once finished, the summary.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("boardtune"))
	b.WriteString("\n\n")

	for _, name := range m.order {
		res, done := m.results[name]
		switch {
		case done:
			b.WriteString(engine.StatusLine(res))
			b.WriteString("\n")
		case name == m.running && !m.finished:
			b.WriteString(runningStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), name)))
			b.WriteString("\n")
		}
	}

	if m.cancelled {
		b.WriteString("\ninterrupted\n")
		return b.String()
	}

	if m.finished && m.recorder != nil {
		b.WriteString("\n")
		b.WriteString(engine.Summary(m.recorder))
	} else if !m.finished {
		b.WriteString(fmt.Sprintf("\n%d/%d operations completed\n", m.completed, m.total))
	}

	return b.String()
}
