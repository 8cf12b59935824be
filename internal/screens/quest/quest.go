// Package quest implements the main three-pane play screen: the task
// board, the Archmage chat, and the running labs.
package quest

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"cyberquest/internal/backend"
	"cyberquest/internal/catalog"
	qsession "cyberquest/internal/quest"
	"cyberquest/internal/screen"
	"cyberquest/internal/ui/components"
	"cyberquest/internal/ui/layout"
)

// pane identifies which region of the screen owns key input.
type pane int

const (
	paneTasks pane = iota
	paneLabs
	paneFlag
	paneChat
)

const typingTickInterval = 300 * time.Millisecond

type bootstrapDoneMsg struct{ err error }

type answerDoneMsg struct {
	res backend.AnswerResult
	err error
}

type labStartedMsg struct{ err error }
type labStoppedMsg struct{ err error }
type hintDoneMsg struct{ err error }
type chatDoneMsg struct {
	sent bool
	err  error
}
type typingTickMsg struct{}

// QuestScreen implements screen.Screen for the active quest.
type QuestScreen struct {
	session *qsession.Session

	snap   qsession.Snapshot
	booted bool

	focus      pane
	taskCursor int
	labCursor  int

	flagInput components.TextInput
	chatInput components.TextInput

	submitting bool
	labBusy    bool
	tickFrame  int
}

var _ screen.Screen = (*QuestScreen)(nil)
var _ screen.KeyHintProvider = (*QuestScreen)(nil)

// New creates a QuestScreen bound to the given session.
func New(session *qsession.Session) *QuestScreen {
	flag := components.NewTextInput("FLAG{...}", 64)
	flag.Model.Blur()
	chat := components.NewTextInput("Ask the Archmage...", 200)
	chat.Model.Blur()

	return &QuestScreen{
		session:   session,
		flagInput: flag,
		chatInput: chat,
		snap:      session.Snapshot(),
	}
}

func (q *QuestScreen) Title() string {
	return "Quest"
}

func (q *QuestScreen) Init() tea.Cmd {
	return q.bootstrapCmd()
}

func (q *QuestScreen) KeyHints() []layout.KeyHint {
	switch q.focus {
	case paneFlag, paneChat:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Tab", Description: "Next pane"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	case paneLabs:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "X", Description: "Stop lab"},
			{Key: "Tab", Description: "Next pane"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	default:
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "S", Description: "Start lab"},
			{Key: "H", Description: "Hint"},
			{Key: "Tab", Description: "Next pane"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
}

func (q *QuestScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case bootstrapDoneMsg:
		q.booted = true
		q.refresh()
		return q, nil

	case answerDoneMsg:
		q.submitting = false
		q.refresh()
		if msg.err == nil {
			if msg.res.Correct {
				q.flagInput.Reset()
			}
			q.flagInput.Submit(msg.res.Correct)
		}
		return q, nil

	case labStartedMsg, labStoppedMsg:
		q.labBusy = false
		q.refresh()
		return q, nil

	case hintDoneMsg:
		q.refresh()
		return q, nil

	case chatDoneMsg:
		q.refresh()
		return q, nil

	case typingTickMsg:
		q.tickFrame++
		q.refresh()
		if q.snap.Typing {
			return q, q.typingTick()
		}
		return q, nil

	case tea.KeyMsg:
		return q.handleKey(msg)
	}

	return q.forwardToInput(msg)
}

func (q *QuestScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if key == "tab" {
		q.cycleFocus()
		return q, nil
	}

	switch q.focus {
	case paneTasks:
		return q.handleTasksKey(key)
	case paneLabs:
		return q.handleLabsKey(key)
	case paneFlag:
		if key == "enter" {
			return q.submitFlag()
		}
		return q.forwardToInput(msg)
	case paneChat:
		if key == "enter" {
			return q.submitChat()
		}
		return q.forwardToInput(msg)
	}

	return q, nil
}

func (q *QuestScreen) handleTasksKey(key string) (screen.Screen, tea.Cmd) {
	tasks := q.snap.Catalog.Tasks
	switch key {
	case "up", "k":
		if q.taskCursor > 0 {
			q.taskCursor--
		}
	case "down", "j":
		if q.taskCursor < len(tasks)-1 {
			q.taskCursor++
		}
	case "enter":
		if q.taskCursor < len(tasks) {
			// Guarded select: locked and unknown tasks are refused by the
			// session, which is already surfaced by the lock glyph.
			q.session.SelectTask(tasks[q.taskCursor].ID)
			q.refresh()
		}
	case "s", "S":
		if id, ok := q.cursorTaskID(); ok && !q.labBusy {
			q.labBusy = true
			return q, q.startLabCmd(id)
		}
	case "h", "H":
		if id, ok := q.cursorTaskID(); ok {
			return q, q.hintCmd(id)
		}
	}
	return q, nil
}

func (q *QuestScreen) handleLabsKey(key string) (screen.Screen, tea.Cmd) {
	labs := q.snap.Labs
	switch key {
	case "up", "k":
		if q.labCursor > 0 {
			q.labCursor--
		}
	case "down", "j":
		if q.labCursor < len(labs)-1 {
			q.labCursor++
		}
	case "x", "X":
		if q.labCursor < len(labs) && !q.labBusy {
			q.labBusy = true
			return q, q.stopLabCmd(labs[q.labCursor].Key)
		}
	}
	return q, nil
}

func (q *QuestScreen) submitFlag() (screen.Screen, tea.Cmd) {
	if q.submitting {
		return q, nil
	}
	answer := q.flagInput.Value()
	if answer == "" {
		return q, nil
	}
	id, ok := q.activeTaskID()
	if !ok {
		return q, nil
	}
	q.submitting = true
	return q, q.answerCmd(id, answer)
}

func (q *QuestScreen) submitChat() (screen.Screen, tea.Cmd) {
	text := q.chatInput.Value()
	if text == "" {
		return q, nil
	}
	q.chatInput.Reset()
	return q, tea.Batch(q.chatCmd(text), q.typingTick())
}

func (q *QuestScreen) cycleFocus() {
	q.flagInput.Model.Blur()
	q.chatInput.Model.Blur()

	switch q.focus {
	case paneTasks:
		q.focus = paneLabs
	case paneLabs:
		q.focus = paneFlag
		q.flagInput.Model.Focus()
	case paneFlag:
		q.focus = paneChat
		q.chatInput.Model.Focus()
	default:
		q.focus = paneTasks
	}
}

func (q *QuestScreen) forwardToInput(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch q.focus {
	case paneFlag:
		q.flagInput, cmd = q.flagInput.Update(msg)
	case paneChat:
		q.chatInput, cmd = q.chatInput.Update(msg)
	}
	return q, cmd
}

// refresh re-reads the session snapshot and clamps the cursors.
func (q *QuestScreen) refresh() {
	q.snap = q.session.Snapshot()
	if n := len(q.snap.Catalog.Tasks); q.taskCursor >= n && n > 0 {
		q.taskCursor = n - 1
	}
	if n := len(q.snap.Labs); q.labCursor >= n && n > 0 {
		q.labCursor = n - 1
	}
	if q.labCursor < 0 {
		q.labCursor = 0
	}
}

func (q *QuestScreen) cursorTaskID() (catalog.TaskID, bool) {
	tasks := q.snap.Catalog.Tasks
	if q.taskCursor >= len(tasks) {
		return 0, false
	}
	return tasks[q.taskCursor].ID, true
}

func (q *QuestScreen) activeTaskID() (catalog.TaskID, bool) {
	if q.snap.ActiveTask != nil {
		return q.snap.ActiveTask.ID, true
	}
	return q.cursorTaskID()
}

func (q *QuestScreen) bootstrapCmd() tea.Cmd {
	return func() tea.Msg {
		err := q.session.Bootstrap(context.Background())
		return bootstrapDoneMsg{err: err}
	}
}

func (q *QuestScreen) answerCmd(id catalog.TaskID, answer string) tea.Cmd {
	return func() tea.Msg {
		res, err := q.session.SubmitAnswer(context.Background(), id, answer)
		return answerDoneMsg{res: res, err: err}
	}
}

func (q *QuestScreen) startLabCmd(id catalog.TaskID) tea.Cmd {
	return func() tea.Msg {
		_, err := q.session.StartLab(context.Background(), id)
		return labStartedMsg{err: err}
	}
}

func (q *QuestScreen) stopLabCmd(key string) tea.Cmd {
	return func() tea.Msg {
		err := q.session.StopLab(context.Background(), key)
		return labStoppedMsg{err: err}
	}
}

func (q *QuestScreen) hintCmd(id catalog.TaskID) tea.Cmd {
	return func() tea.Msg {
		_, err := q.session.RequestHint(context.Background(), id)
		return hintDoneMsg{err: err}
	}
}

func (q *QuestScreen) chatCmd(text string) tea.Cmd {
	return func() tea.Msg {
		sent, err := q.session.SendChat(context.Background(), text)
		return chatDoneMsg{sent: sent, err: err}
	}
}

func (q *QuestScreen) typingTick() tea.Cmd {
	return tea.Tick(typingTickInterval, func(time.Time) tea.Msg {
		return typingTickMsg{}
	})
}
