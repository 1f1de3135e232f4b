package styles

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	Base     = lipgloss.Color("#1e1e2e")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Surface0 = lipgloss.Color("#313244")

	Pink     = lipgloss.Color("#f5c2e7")
	Red      = lipgloss.Color("#f38ba8")
	Peach    = lipgloss.Color("#fab387")
	Yellow   = lipgloss.Color("#f9e2af")
	Green    = lipgloss.Color("#a6e3a1")
	Teal     = lipgloss.Color("#94e2d5")
	Sapphire = lipgloss.Color("#74c7ec")
	Lavender = lipgloss.Color("#b4befe")
)

var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Base).
			Background(Red).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Padding(0, 1).
			Align(lipgloss.Center)

	TitleStyle = lipgloss.NewStyle().
			Foreground(Pink).
			Bold(true).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Foreground(Lavender).
			Bold(true).
			Padding(0, 1)

	ListItemStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(Text)

	SelectedItemStyle = lipgloss.NewStyle().
				BorderLeft(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Pink).
				Padding(0, 1).
				Foreground(Text)

	LabelStyle = lipgloss.NewStyle().Foreground(Subtext0)
	ValueStyle = lipgloss.NewStyle().Foreground(Sapphire)

	ProgressBarEmptyStyle = lipgloss.NewStyle().Foreground(Surface0)

	StatusRunning   = lipgloss.NewStyle().Foreground(Teal).Bold(true)
	StatusPending   = lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	StatusCompleted = lipgloss.NewStyle().Foreground(Green).Bold(true)
	StatusFailed    = lipgloss.NewStyle().Foreground(Red).Bold(true)
	StatusEncrypted = lipgloss.NewStyle().Foreground(Peach)

	FooterStyle = lipgloss.NewStyle().
			Foreground(Subtext0).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Base).
			Background(Green).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Green).
			Padding(0, 1).
			Align(lipgloss.Center)
)
