package style

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	Gray       = lipgloss.Color("240")
	PaleYellow = lipgloss.Color("229")
	NeonPurple = lipgloss.Color("57")
	Lilac      = lipgloss.Color("105")
	Pink       = lipgloss.Color("205")
)

var (
	HorizontalPadding = 1

	errorColor = lipgloss.AdaptiveColor{Light: "#E11C9C", Dark: "#FF62DA"}

	Main = lipgloss.NewStyle().Margin(1, 0).Padding(0, HorizontalPadding)

	Padded = lipgloss.NewStyle().Padding(0, 2, 0, 1)

	Status = lipgloss.NewStyle().Padding(0, HorizontalPadding)

	Mode = lipgloss.NewStyle().Padding(0, HorizontalPadding).Foreground(Lilac)

	TableContainer = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(Gray)

	Table = table.Styles{
		Selected: lipgloss.NewStyle().Bold(true).Foreground(PaleYellow).Background(NeonPurple),
		Header:   lipgloss.NewStyle().Bold(false).Padding(0, 1).BorderStyle(lipgloss.NormalBorder()).BorderForeground(Gray).BorderBottom(true),
		Cell:     lipgloss.NewStyle().Padding(0, 1),
	}

	Help = lipgloss.NewStyle().Foreground(Lilac)

	Spinner = lipgloss.NewStyle().Foreground(Pink)

	IncidentViewer = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(Gray).Padding(2)

	// Form holds the create/edit inputs
	Form = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(Lilac).Padding(0, 1)

	FormLabel = lipgloss.NewStyle().Bold(true)

	FieldError = lipgloss.NewStyle().Foreground(errorColor).PaddingLeft(2)

	// ErrMessage is the single line used for load and delete failures
	ErrMessage = lipgloss.NewStyle().Bold(true).Foreground(errorColor).Padding(0, HorizontalPadding)

	Error = lipgloss.NewStyle().
		Bold(true).
		Width(64).
		Foreground(errorColor).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errorColor).
		Padding(1, 3, 1, 3)
)
