package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/checkin/internal/logger"
	"github.com/julianstephens/checkin/internal/session"
)

// Outcome is how the form was left.
type Outcome int

const (
	// OutcomeSaved means the client left with the draft kept.
	OutcomeSaved Outcome = iota
	// OutcomeSubmitted means the check-in was submitted.
	OutcomeSubmitted
)

const statusRefresh = 250 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(statusRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type Model struct {
	session *session.Session
	values  *FormValues
	form    *huh.Form
	keys    KeyMap
	help    help.Model
	notice  string
	outcome Outcome
	err     error
	done    bool
	width   int
}

func NewModel(s *session.Session) Model {
	values := NewFormValues(s.Payload())
	m := Model{
		session: s,
		values:  values,
		form:    NewForm(values),
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
	if s.Restored() {
		m.notice = "Restored today's draft."
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.form.Init(), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.leave()
		case key.Matches(msg, m.keys.Save):
			m.sync()
			if err := m.session.Flush(); err != nil {
				m.notice = "Draft kept in memory: " + err.Error()
			} else {
				m.notice = "Draft saved."
			}
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	m.sync()

	switch m.form.State {
	case huh.StateCompleted:
		if !m.values.Submit {
			return m.leave()
		}
		return m.submit()
	case huh.StateAborted:
		return m.leave()
	}
	return m, cmd
}

// sync pushes the form values into the session.
func (m *Model) sync() {
	if err := m.values.Apply(m.session); err != nil {
		logger.Debug("Rejected form edit", "error", err)
	}
}

// leave keeps the draft and quits.
func (m Model) leave() (tea.Model, tea.Cmd) {
	m.sync()
	if err := m.session.Flush(); err != nil {
		logger.Warn("Draft could not be written before quitting", "error", err)
	}
	m.outcome = OutcomeSaved
	m.done = true
	return m, tea.Quit
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	err := m.session.Submit(context.Background())
	if err == nil {
		m.outcome = OutcomeSubmitted
		m.done = true
		return m, tea.Quit
	}

	var vErr *session.ValidationFailedError
	var sErr *session.SubmissionError
	switch {
	case errors.As(err, &vErr):
		m.notice = fmt.Sprintf("Fix %d problem(s) before submitting.", vErr.Result.Count())
	case errors.As(err, &sErr) && sErr.Retryable:
		m.notice = "Submission failed, your draft is saved. Try again: " + sErr.Err.Error()
	default:
		m.err = err
		m.done = true
		return m, tea.Quit
	}

	m.values.Submit = false
	m.form = NewForm(m.values)
	return m, m.form.Init()
}

// Result reports how the program ended.
func (m Model) Result() (Outcome, error) {
	return m.outcome, m.err
}

// Run shows the form for s until the client submits or leaves.
func Run(s *session.Session) (Outcome, error) {
	final, err := tea.NewProgram(NewModel(s), tea.WithAltScreen()).Run()
	if err != nil {
		return OutcomeSaved, err
	}
	m, ok := final.(Model)
	if !ok {
		return OutcomeSaved, errors.New("unexpected model type")
	}
	return m.Result()
}
