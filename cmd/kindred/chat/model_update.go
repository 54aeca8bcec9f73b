package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"kindred/internal/catalog"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case bootCompleteMsg:
		m.isBooting = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.manager = msg.manager
		m.controller = msg.controller
		m.err = nil
		m.refreshViewport()
		return m, m.waitForUpdate()

	case refreshMsg:
		m.refreshViewport()
		return m, m.waitForUpdate()

	case exchangeDoneMsg:
		m.isLoading = false
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Route everything else to the focused component.
	switch m.step {
	case stepName:
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		cmds = append(cmds, cmd)
	case stepChat:
		var taCmd, vpCmd tea.Cmd
		m.textarea, taCmd = m.textarea.Update(msg)
		m.viewport, vpCmd = m.viewport.Update(msg)
		cmds = append(cmds, taCmd, vpCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleResize() {
	headerHeight := 4
	inputHeight := 4
	footerHeight := 2

	vpHeight := m.height - headerHeight - inputHeight - footerHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(m.width-4, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width - 4
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(m.width - 6)
	m.nameInput.Width = min(m.width-10, 40)
	m.initRenderer()
	m.refreshViewport()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		if m.controller != nil {
			m.controller.Close()
		}
		return m, tea.Quit
	}

	switch m.step {
	case stepName:
		return m.handleNameKey(msg)
	case stepPersonality:
		return m.handlePersonalityKey(msg)
	default:
		return m.handleChatKey(msg)
	}
}

func (m Model) handleNameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		m.chosenName = name
		m.step = stepPersonality
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) handlePersonalityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.personalityIdx > 0 {
			m.personalityIdx--
		}
	case "down", "j":
		if m.personalityIdx < len(m.personalities)-1 {
			m.personalityIdx++
		}
	case "enter":
		m.step = stepChat
		m.isBooting = true
		return m, tea.Batch(
			m.spinner.Tick,
			m.bootCmd(m.chosenName, string(m.personalities[m.personalityIdx].Key)),
		)
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		// The controller has its own in-flight guard; the isLoading check
		// just keeps the input from clearing on a rejected submit.
		if m.isBooting || m.isLoading || m.controller == nil {
			return m, nil
		}
		text := strings.TrimSpace(m.textarea.Value())
		if text == "" {
			return m, nil
		}
		m.textarea.Reset()
		m.isLoading = true
		return m, tea.Batch(m.sendCmd(text), m.spinner.Tick)

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// refreshViewport re-renders the conversation log and pins the view to the
// newest entry.
func (m *Model) refreshViewport() {
	if !m.ready || m.controller == nil {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// levelBadge formats the current friendship level for the header.
func (m Model) levelBadge() string {
	if m.controller == nil {
		return ""
	}
	info, err := catalog.LevelDescriptor(m.controller.Level())
	if err != nil {
		return ""
	}
	return m.styles.Badge.Render(info.DisplayName)
}
