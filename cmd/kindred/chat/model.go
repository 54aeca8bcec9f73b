// Package chat provides the interactive TUI for talking with a companion.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"kindred/cmd/kindred/ui"
	"kindred/internal/catalog"
	"kindred/internal/config"
	"kindred/internal/conversation"
	"kindred/internal/logging"
	"kindred/internal/provider"
	"kindred/internal/session"
)

// setupStep tracks the first-run wizard: name the companion, pick a
// personality, then chat.
type setupStep int

const (
	stepName setupStep = iota
	stepPersonality
	stepChat
)

// Config carries CLI-level overrides into the chat interface.
type Config struct {
	// Name overrides the configured companion name.
	Name string
	// Personality overrides the configured personality key.
	Personality string
}

// sessionSource is what the model needs from the session layer; the
// controller is constructed over the same value.
type sessionSource interface {
	conversation.SessionSource
	PersonalityKey() string
}

// Model is the bubbletea model for the interactive chat interface.
type Model struct {
	// UI components
	textarea  textarea.Model
	viewport  viewport.Model
	spinner   spinner.Model
	nameInput textinput.Model
	styles    ui.Styles
	renderer  *glamour.TermRenderer

	cfg *config.Config

	// Wizard state
	step           setupStep
	personalities  []catalog.PersonalityInfo
	personalityIdx int
	chosenName     string

	// Backend
	manager    sessionSource
	controller *conversation.Controller

	// State
	isBooting bool
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool
}

// Messages for tea updates
type (
	// bootCompleteMsg carries the provider-backed session stack, or the
	// error that prevented it from coming up.
	bootCompleteMsg struct {
		manager    *session.Manager
		controller *conversation.Controller
		err        error
	}

	// exchangeDoneMsg signals that a Send call returned.
	exchangeDoneMsg struct{ ran bool }

	// refreshMsg signals that the controller's state changed mid-stream.
	refreshMsg struct{}
)

// InitChat creates the initial chat model. The wizard is skipped when both a
// name and a personality are already known.
func InitChat(cfg *config.Config, cliCfg Config) Model {
	styles := ui.DefaultStyles()

	ta := textarea.New()
	ta.Placeholder = "Say something..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 4000
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	ni := textinput.New()
	ni.Placeholder = "e.g. Nova"
	ni.CharLimit = 40
	ni.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	name := strings.TrimSpace(cliCfg.Name)
	if name == "" {
		name = strings.TrimSpace(cfg.Companion.DefaultName)
	}
	personality := cliCfg.Personality
	if personality == "" {
		personality = cfg.Companion.DefaultPersonality
	}

	m := Model{
		textarea:      ta,
		nameInput:     ni,
		spinner:       sp,
		styles:        styles,
		cfg:           cfg,
		personalities: catalog.Personalities(),
		step:          stepName,
		chosenName:    name,
	}

	if personality != "" {
		for i, p := range m.personalities {
			if string(p.Key) == personality {
				m.personalityIdx = i
				break
			}
		}
	}

	// Both known up front: boot straight into the conversation.
	if name != "" && personality != "" {
		if _, err := catalog.LookupPersonality(personality); err == nil {
			m.step = stepChat
			m.isBooting = true
		}
	}

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, textinput.Blink}
	if m.isBooting {
		cmds = append(cmds, m.bootCmd(m.chosenName, string(m.personalities[m.personalityIdx].Key)))
	}
	return tea.Batch(cmds...)
}

// bootCmd stands up the provider client, the session manager, and the level-1
// session, then hands back a controller bound to them.
func (m Model) bootCmd(name, personality string) tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GetLLMTimeout())
		defer cancel()

		client, err := provider.NewClient(ctx, cfg.LLM.APIKey)
		if err != nil {
			return bootCompleteMsg{err: err}
		}
		mgr, err := session.NewManager(client, cfg.LLM.Model, cfg.Companion.ReplyLanguage, name, personality)
		if err != nil {
			return bootCompleteMsg{err: err}
		}
		if err := mgr.Create(ctx, 1, nil); err != nil {
			return bootCompleteMsg{err: err}
		}
		logging.Boot("chat ready: companion=%s personality=%s model=%s", name, personality, cfg.LLM.Model)
		return bootCompleteMsg{manager: mgr, controller: conversation.NewController(mgr)}
	}
}

// sendCmd runs one blocking exchange off the UI goroutine.
func (m Model) sendCmd(text string) tea.Cmd {
	ctrl := m.controller
	timeout := m.cfg.GetLLMTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return exchangeDoneMsg{ran: ctrl.Send(ctx, text)}
	}
}

// waitForUpdate blocks until the controller reports a state change, so
// fragments repaint as they stream in.
func (m Model) waitForUpdate() tea.Cmd {
	ctrl := m.controller
	return func() tea.Msg {
		<-ctrl.Updates()
		return refreshMsg{}
	}
}

// initRenderer builds the glamour renderer sized to the viewport.
func (m *Model) initRenderer() {
	style := "light"
	if m.styles.Theme.IsDark {
		style = "dark"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(m.viewport.Width-2),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = renderer
}

// levelThreshold returns the exchange count needed at the current level, or 0
// at the terminal level where progress is unbounded.
func (m Model) levelThreshold() int {
	if m.controller == nil {
		return 0
	}
	level := m.controller.Level()
	if level >= catalog.MaxLevel {
		return 0
	}
	info, err := catalog.LevelDescriptor(level)
	if err != nil {
		return 0
	}
	return info.MessagesToAdvance
}

// RunInteractiveChat starts the interactive chat session.
func RunInteractiveChat(cfg *config.Config, cliCfg Config) error {
	model := InitChat(cfg, cliCfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}
	return nil
}
