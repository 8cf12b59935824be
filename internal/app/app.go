package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"cyberquest/internal/quest"
	"cyberquest/internal/router"
	"cyberquest/internal/screen"
	questscreen "cyberquest/internal/screens/quest"
	"cyberquest/internal/screens/welcome"
	"cyberquest/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	session *quest.Session
	router  *router.Router
	width   int
	height  int
}

// newAppModel creates a new AppModel opening on the welcome splash.
func newAppModel(session *quest.Session) AppModel {
	splash := welcome.New(func() screen.Screen {
		return questscreen.New(session)
	})
	return AppModel{
		session: session,
		router:  router.New(splash),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.session.Discard()
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	snap := m.session.Snapshot()
	header := layout.RenderHeader(title, snap.Progress.Level, snap.Progress.Coins, m.width)

	footerHints := []layout.KeyHint{
		{Key: "Tab", Description: "Switch pane"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if provider, ok := active.(screen.KeyHintProvider); ok {
		if hints := provider.KeyHints(); hints != nil {
			footerHints = hints
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program around the given session.
func Run(session *quest.Session) error {
	p := tea.NewProgram(newAppModel(session))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
