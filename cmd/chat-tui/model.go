package main

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/runtime"
	"chat-sync/services"
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	authorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	ownStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// controller is what the view needs from runtime.Controller.
type controller interface {
	LoadInitial(ctx context.Context) error
	Submit(ctx context.Context, text string) (domain.Message, error)
	Snapshot() []domain.Message
}

type eventMsg runtime.Event

type doneMsg struct{ err error }

type model struct {
	ctx        context.Context
	session    services.ISessionService
	controller controller
	viewport   viewport.Model
	input      textinput.Model
	messages   []domain.Message
	state      runtime.State
	status     string
	err        error
	ready      bool
}

func newModel(ctx context.Context, session services.ISessionService, controller controller) model {
	input := textinput.New()
	input.Placeholder = "Type a message, /login <user> <password>, /logout or /quit"
	input.Focus()
	input.CharLimit = domain.MaxMessageLength
	input.Width = 40

	return model{ctx: ctx, session: session, controller: controller, input: input}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load())
}

func (m model) load() tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: m.controller.LoadInitial(m.ctx)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		inputCmd    tea.Cmd
		viewportCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			content := m.input.Value()
			m.input.SetValue("")
			return m.handleInput(content)
		}

	case tea.WindowSizeMsg:
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}
		m.input.Width = msg.Width
		m.render()

	case eventMsg:
		switch msg.Type {
		case runtime.EventStateChanged:
			m.state = msg.State
		case runtime.EventFeedUpdated:
			m.messages = m.controller.Snapshot()
			m.err = nil
			m.render()
		case runtime.EventFailed:
			m.err = msg.Err
		case runtime.EventSignedOut:
			m.messages = nil
			m.err = nil
			m.status = "Signed out. /login <user> <password>"
			m.render()
		}
		return m, nil

	case doneMsg:
		if msg.err != nil && !stderrors.Is(msg.err, errors.ErrNotAuthenticated) && !errors.IsUnauthorized(msg.err) {
			m.err = msg.err
		}
		return m, nil
	}

	m.input, inputCmd = m.input.Update(msg)
	m.viewport, viewportCmd = m.viewport.Update(msg)
	return m, tea.Batch(inputCmd, viewportCmd)
}

func (m model) handleInput(content string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(content)
	switch {
	case len(fields) == 0:
		return m, nil
	case fields[0] == "/quit":
		return m, tea.Quit
	case fields[0] == "/logout":
		m.session.Logout()
		m.messages = nil
		m.status = "Signed out. /login <user> <password>"
		m.render()
		return m, nil
	case fields[0] == "/login":
		if len(fields) != 3 {
			m.err = fmt.Errorf("usage: /login <user> <password>")
			return m, nil
		}
		username, password := fields[1], fields[2]
		return m, func() tea.Msg {
			if _, err := m.session.Login(m.ctx, username, password); err != nil {
				return doneMsg{err: err}
			}
			return doneMsg{err: m.controller.LoadInitial(m.ctx)}
		}
	}

	if _, err := services.ValidateText(content); err != nil {
		m.err = err
		return m, nil
	}
	return m, func() tea.Msg {
		_, err := m.controller.Submit(m.ctx, content)
		return doneMsg{err: err}
	}
}

func (m *model) render() {
	if !m.ready {
		return
	}
	own, _ := m.session.CurrentCredential()
	lines := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		lines = append(lines, formatMessage(msg, own.DisplayName))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// formatMessage renders "HH:MM author: text", the author highlighted when it
// is the signed in member.
func formatMessage(msg domain.Message, own string) string {
	author := authorStyle.Render(msg.Author)
	if own != "" && msg.Author == own {
		author = ownStyle.Render(msg.Author)
	}
	return fmt.Sprintf("%s %s: %s", timeStyle.Render(msg.CreatedAt.Local().Format("15:04")), author, msg.Text)
}

func (m model) statusLine() string {
	if m.err != nil {
		return errorStyle.Render(m.err.Error())
	}
	if credential, ok := m.session.CurrentCredential(); ok {
		return statusStyle.Render(fmt.Sprintf("%s · %s · %d messages", credential.DisplayName, m.state, len(m.messages)))
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return statusStyle.Render("Not signed in. /login <user> <password>")
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	return fmt.Sprintf("%s\n%s\n%s",
		m.viewport.View(),
		m.statusLine(),
		m.input.View(),
	)
}
