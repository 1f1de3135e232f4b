package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/tui/styles"
)

// RenderPlan lists the tracks selected for a download.
func RenderPlan(p *plan.Plan, width int) string {
	rows := []string{
		styles.TitleStyle.Render(p.Name + p.Ext),
		field("Output", p.File),
		field("Temp", p.TmpDir),
	}

	if p.Video != nil {
		rows = append(rows, "", styles.SectionStyle.Render("Video"), trackLine(p.Video))
	}

	if len(p.Audio) > 0 {
		rows = append(rows, "", styles.SectionStyle.Render(fmt.Sprintf("Audio (%d)", len(p.Audio))))
		for _, t := range p.Audio {
			rows = append(rows, trackLine(t))
		}
	}

	if len(p.Subtitle) > 0 {
		rows = append(rows, "", styles.SectionStyle.Render(fmt.Sprintf("Subtitles (%d)", len(p.Subtitle))))
		for _, t := range p.Subtitle {
			rows = append(rows, trackLine(t))
		}
	}

	return lipgloss.NewStyle().Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func trackLine(t *plan.Track) string {
	var details []string
	for _, d := range []string{t.Quality, t.Language, t.Label, t.Codec} {
		if d != "" {
			details = append(details, d)
		}
	}

	if t.Bitrate.KBPS > 0 {
		details = append(details, fmt.Sprintf("%d kbps", t.Bitrate.KBPS))
	}

	details = append(details, fmt.Sprintf("%d segments", len(t.Segments)))

	line := styles.ValueStyle.Render(t.Name) + " " + styles.LabelStyle.Render(strings.Join(details, " · "))
	if t.DefaultKeyID != "" {
		line += " " + styles.StatusEncrypted.Render("encrypted")
	}

	return styles.ListItemStyle.Render(line)
}

func field(label, value string) string {
	return styles.ListItemStyle.Render(styles.LabelStyle.Render(label+": ") + styles.ValueStyle.Render(value))
}
