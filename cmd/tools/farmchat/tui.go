package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	modelchat "github.com/krishimitra/krishi-mitra/backend/internal/model/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/view"
)

type theme struct {
	header       lipgloss.Style
	panel        lipgloss.Style
	user         lipgloss.Style
	assistant    lipgloss.Style
	status       lipgloss.Style
	warning      lipgloss.Style
	muted        lipgloss.Style
	featureID    lipgloss.Style
	featureTitle lipgloss.Style
}

func newTheme() theme {
	green := lipgloss.Color("#16a34a")
	leaf := lipgloss.Color("#86efac")
	amber := lipgloss.Color("#f59e0b")
	muted := lipgloss.Color("#9ca3af")

	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f0fdf4")).
			Background(green).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(green),
		user:         lipgloss.NewStyle().Foreground(amber).Bold(true),
		assistant:    lipgloss.NewStyle().Foreground(leaf).Bold(true),
		status:       lipgloss.NewStyle().Foreground(leaf),
		warning:      lipgloss.NewStyle().Foreground(amber),
		muted:        lipgloss.NewStyle().Foreground(muted),
		featureID:    lipgloss.NewStyle().Foreground(green).Bold(true).Width(10),
		featureTitle: lipgloss.NewStyle().Bold(true),
	}
}

func newRenderer(style string, width int) *glamour.TermRenderer {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil
	}
	return r
}

func renderMarkdown(r *glamour.TermRenderer, text string) string {
	if r == nil {
		return text + "\n"
	}
	out, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

type snapshotMsg modelchat.Snapshot

type sessionClosedMsg struct{}

func waitSnapshot(ch <-chan modelchat.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return sessionClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

type chatModel struct {
	ctx         context.Context
	title       string
	ctrl        *chat.Controller
	updates     <-chan modelchat.Snapshot
	unsubscribe func()
	snap        modelchat.Snapshot

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	theme    theme

	width, height int
	status        string
}

func newChatModel(ctx context.Context, v view.View, t theme) chatModel {
	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Type your message..."
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = t.status

	updates, unsubscribe := v.Controller.Subscribe()

	return chatModel{
		ctx:         ctx,
		title:       v.Title,
		ctrl:        v.Controller,
		updates:     updates,
		unsubscribe: unsubscribe,
		snap:        v.Controller.Snapshot(),
		input:       input,
		timeline:    viewport.New(80, 20),
		spinner:     sp,
		renderer:    newRenderer(markdownTheme, 76),
		theme:       t,
		status:      "enter to send · pgup/pgdn to scroll · esc to leave",
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitSnapshot(m.updates))
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.timeline.Width = msg.Width - 2
		m.timeline.Height = max(msg.Height-6, 3)
		m.input.Width = msg.Width - 4
		m.renderer = newRenderer(markdownTheme, max(msg.Width-6, 20))
		m.refresh()
	case snapshotMsg:
		m.snap = modelchat.Snapshot(msg)
		m.refresh()
		cmds = append(cmds, waitSnapshot(m.updates))
	case sessionClosedMsg:
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.snap.State.Busy() {
			m.refresh()
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.unsubscribe()
			return m, tea.Quit
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.timeline, cmd = m.timeline.Update(msg)
			return m, cmd
		case "enter":
			text := m.input.Value()
			if strings.TrimSpace(text) == "" {
				return m, nil
			}
			if m.ctrl.Submit(m.ctx, text) {
				m.input.Reset()
				m.status = "sent"
			} else {
				m.status = "please wait for the current reply"
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *chatModel) refresh() {
	m.timeline.SetContent(m.transcript())
	m.timeline.GotoBottom()
}

func (m chatModel) transcript() string {
	var b strings.Builder
	for _, turn := range m.snap.Transcript {
		if turn.Role == modelchat.RoleUser {
			b.WriteString(m.theme.user.Render("You") + "\n")
			b.WriteString(turn.Text + "\n\n")
			continue
		}
		b.WriteString(m.theme.assistant.Render(m.title) + "\n")
		b.WriteString(renderMarkdown(m.renderer, turn.Text))
	}
	if m.snap.State.Busy() {
		b.WriteString(m.spinner.View() + " " + m.theme.muted.Render("thinking..."))
	}
	return b.String()
}

func (m chatModel) View() string {
	header := m.theme.header.Render(m.title)
	status := m.theme.muted.Render(m.status)
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.theme.panel.Render(m.timeline.View()),
		m.input.View(),
		status,
	)
}
