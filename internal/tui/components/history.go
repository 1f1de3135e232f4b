package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/NamanBalaji/streamdl/internal/repository"
	"github.com/NamanBalaji/streamdl/internal/tui/styles"
)

// RenderHistory lists journal records, most recent first.
func RenderHistory(records []*repository.Record, width int) string {
	if len(records) == 0 {
		return renderEmptyView(width)
	}

	rows := make([]string, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rows = append(rows, HistoryItem(records[i], width))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// HistoryItem renders a single journal record.
func HistoryItem(r *repository.Record, width int) string {
	output := r.Output
	if output == "" {
		output = r.Source
	}

	line1 := fmt.Sprintf("%-*s %s", maxNameLen, truncate(output, maxNameLen), statusLabel(r.Status))

	info := r.StartedAt.Local().Format(time.DateTime)
	if !r.FinishedAt.IsZero() {
		info += "  took " + formatDuration(r.FinishedAt.Sub(r.StartedAt))
	}

	info += fmt.Sprintf("  %d tracks", len(r.Tracks))
	line2 := styles.ListItemStyle.Faint(true).Render(info)

	rows := []string{line1, line2}
	if r.Error != "" {
		rows = append(rows, styles.StatusFailed.Render(r.Error))
	}

	return styles.SelectedItemStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// RenderRecord renders every detail of one journal record.
func RenderRecord(r *repository.Record, width int) string {
	rows := []string{
		HistoryItem(r, width),
		field("ID", r.ID.String()),
		field("Source", r.Source),
	}

	if r.Output != "" {
		rows = append(rows, field("Output", r.Output))
	}

	if len(r.Tracks) > 0 {
		rows = append(rows, "", styles.SectionStyle.Render(fmt.Sprintf("Tracks (%d)", len(r.Tracks))))
		for _, t := range r.Tracks {
			line := styles.ValueStyle.Render(t.Name) + " " + styles.LabelStyle.Render(fmt.Sprintf("%s · %d segments", t.Type, t.Segments))
			rows = append(rows, styles.ListItemStyle.Render(line))
		}
	}

	if len(r.Files) > 0 {
		rows = append(rows, "", styles.SectionStyle.Render("Files"))
		for _, f := range r.Files {
			rows = append(rows, styles.ListItemStyle.Render(f))
		}
	}

	return lipgloss.NewStyle().Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderEmptyView(width int) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Foreground(styles.Text).Italic(true).Render("No downloads yet"),
		styles.FooterStyle.Render("Run streamdl <url> to start one"),
	)

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
}

// formatDuration returns a more user-friendly duration string.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		m := d / time.Minute
		s := (d % time.Minute) / time.Second
		return fmt.Sprintf("%dm %ds", m, s)
	} else {
		h := d / time.Hour
		m := (d % time.Hour) / time.Minute
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
