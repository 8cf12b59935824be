package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"cyberquest/internal/router"
	"cyberquest/internal/screen"
	"cyberquest/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	phase1End    = 500 * time.Millisecond
	phase2End    = 1500 * time.Millisecond
	totalDur     = 3000 * time.Millisecond
)

const terminalArt = ` ╭─────────────────╮
 │ $ whoami        │
 │ > apprentice    │
 │ $ ./quest --run │
 │ ▓▓▓▓▓▓▓▓░░░░    │
 │ ACCESS GRANTED  │
 ╰─────────────────╯`

// cursor frames blink beside the terminal
var cursorFrames = []string{"█", "▌"}

type tickMsg time.Time

// WelcomeScreen shows a splash animation before transitioning to the quest screen.
type WelcomeScreen struct {
	questFactory func() screen.Screen
	elapsed      time.Duration
	tickCount    int
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that will transition to the screen produced by questFactory.
func New(questFactory func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{
		questFactory: questFactory,
	}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.elapsed < totalDur {
			w.elapsed += tickInterval
		}
		w.tickCount++
		return w, tea.Tick(tickInterval, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})

	case tea.KeyPressMsg:
		// Skippable once the banner is up; no need to sit out the whole loop.
		if w.elapsed >= phase2End {
			return w, w.transition()
		}
		return w, nil
	}

	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	questScreen := w.questFactory()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: questScreen}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	var sections []string

	termStyle := lipgloss.NewStyle().Foreground(theme.Secondary)

	// Phase 1+: terminal art
	rendered := termStyle.Render(terminalArt)

	// Phase 2+: blinking cursor beside the prompt lines
	if w.elapsed >= phase1End {
		frame := w.tickCount % len(cursorFrames)
		cursor := lipgloss.NewStyle().Foreground(theme.Primary).Render(cursorFrames[frame])

		lines := strings.Split(rendered, "\n")
		if len(lines) > 3 {
			lines[3] = lines[3] + " " + cursor
		}
		rendered = strings.Join(lines, "\n")
	}

	sections = append(sections, rendered)

	// Phase 3+: banner + tagline
	if w.elapsed >= phase2End {
		sections = append(sections, "")
		sections = append(sections, RenderBanner(width))
		sections = append(sections, "")

		tagline := lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Render("Break in. Learn why. Patch it.")
		sections = append(sections, tagline)

		sections = append(sections, "")
		hint := lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Italic(true).
			Render("press any key to begin")
		sections = append(sections, hint)
	}

	content := strings.Join(sections, "\n")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
