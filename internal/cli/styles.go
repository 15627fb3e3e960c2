package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/checkin/internal/constants"
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	OKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	WarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// StatusBadge renders an instance status in its color.
func StatusBadge(status constants.InstanceStatus) string {
	style := MutedStyle
	switch status {
	case constants.StatusOpen:
		style = OKStyle
	case constants.StatusSubmitted, constants.StatusReviewed:
		style = TitleStyle
	case constants.StatusMissed:
		style = ErrorStyle
	}
	return style.Render(string(status))
}

// SaveBadge renders a draft save status.
func SaveBadge(status constants.SaveStatus) string {
	switch status {
	case constants.SaveStatusSaved:
		return OKStyle.Render("saved")
	case constants.SaveStatusPending:
		return MutedStyle.Render("saving…")
	default:
		return WarnStyle.Render("unsaved")
	}
}
