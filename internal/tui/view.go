package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/validation"
)

func (m Model) View() string {
	if m.done {
		return ""
	}

	inst := m.session.Instance()
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render("Check-in"),
		" ",
		mutedStyle.Render(fmt.Sprintf("closes %s", inst.Window.Close.Format("Mon 2006-01-02 15:04"))),
		"  ",
		saveStatus(m.session.SaveStatus()),
	)

	parts := []string{header, "", m.form.View()}
	if remaining := validation.Remaining(m.values.Notes); remaining < 50 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("Notes: %d characters left", remaining)))
	}
	if errs := m.session.Errors(); errs.HasErrors() {
		parts = append(parts, errorStyle.Render(errorList(errs)))
	}
	if m.notice != "" {
		parts = append(parts, mutedStyle.Render(m.notice))
	}
	parts = append(parts, m.help.View(m.keys))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func saveStatus(status constants.SaveStatus) string {
	switch status {
	case constants.SaveStatusSaved:
		return savedStyle.Render("● saved")
	case constants.SaveStatusPending:
		return mutedStyle.Render("○ saving…")
	default:
		return warnStyle.Render("● unsaved (kept in memory)")
	}
}

func errorList(r validation.Result) string {
	all := r.All()
	lines := make([]string, 0, len(all))
	for _, e := range all {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\n")
}
