package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/repository"
	"github.com/NamanBalaji/streamdl/internal/tui/styles"
)

const maxNameLen = 30

// TrackItem renders the download progress of a single track.
func TrackItem(t *plan.Track, done, total, width int) string {
	name := truncate(t.Name, maxNameLen)

	var progressPercent float64
	if total > 0 {
		progressPercent = float64(done) / float64(total)
	}

	s := repository.StatusRunning
	if total > 0 && done >= total {
		s = repository.StatusCompleted
	}

	percent := fmt.Sprintf("%.1f%%", progressPercent*100)
	label := statusLabel(s)

	percentStyle := lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
	formattedPercent := percentStyle.Render(percent)

	remainingSpace := width - maxNameLen - lipgloss.Width(label) - lipgloss.Width(formattedPercent) - 3
	if remainingSpace < 2 {
		remainingSpace = 2
	}

	line1 := fmt.Sprintf("%-*s %s%s%s",
		maxNameLen,
		name,
		label,
		strings.Repeat(" ", remainingSpace),
		formattedPercent)

	barWidth := width - 2
	if barWidth < 10 {
		barWidth = 10
	}

	line2 := styles.ListItemStyle.Render(ProgressBar(barWidth, progressPercent, s))
	line3 := styles.ListItemStyle.Faint(true).Render(fmt.Sprintf("%d / %d segments", done, total))

	return styles.ListItemStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, line1, line2, line3))
}

func statusLabel(s repository.Status) string {
	switch s {
	case repository.StatusRunning:
		return styles.StatusRunning.Render("● running")
	case repository.StatusCompleted:
		return styles.StatusCompleted.Render("✔ completed")
	case repository.StatusFailed:
		return styles.StatusFailed.Render("✖ failed")
	default:
		return styles.StatusPending.Render("○ pending")
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}

	return s
}
