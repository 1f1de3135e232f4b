package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/NamanBalaji/streamdl/internal/repository"
	"github.com/NamanBalaji/streamdl/internal/tui/styles"
)

// ProgressBar returns a styled progress bar.
func ProgressBar(width int, percent float64, s repository.Status) string {
	if width <= 0 {
		return ""
	}

	if percent < 0 {
		percent = 0
	}

	if percent > 1.0 {
		percent = 1.0
	}

	filledWidth := int(float64(width) * percent)
	emptyWidth := width - filledWidth

	filledStr := strings.Repeat("█", filledWidth)
	emptyStr := strings.Repeat("░", emptyWidth)

	var filledStyle lipgloss.Style

	switch s {
	case repository.StatusRunning:
		filledStyle = lipgloss.NewStyle().Foreground(styles.Teal)
	case repository.StatusCompleted:
		filledStyle = lipgloss.NewStyle().Foreground(styles.Green)
	case repository.StatusFailed:
		filledStyle = lipgloss.NewStyle().Foreground(styles.Red)
	default:
		filledStyle = lipgloss.NewStyle().Foreground(styles.Yellow)
	}

	bar := filledStyle.Render(filledStr) + styles.ProgressBarEmptyStyle.Render(emptyStr)

	return bar
}
