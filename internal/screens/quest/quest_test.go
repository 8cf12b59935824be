package quest

import (
	"net/http/httptest"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"cyberquest/internal/backend"
	"cyberquest/internal/backendstub"
	"cyberquest/internal/chat"
	qsession "cyberquest/internal/quest"
)

func newTestScreen(t *testing.T) *QuestScreen {
	t.Helper()

	stub := backendstub.New()
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)

	cfg := backend.DefaultConfig()
	cfg.BaseURL = srv.URL + "/api"
	client := backend.New(cfg, "user_deadbeef0123")

	session, err := qsession.NewSession("user_deadbeef0123", client, qsession.Options{})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	return New(session)
}

// boot runs the Init command and delivers its message, like the runtime would.
func boot(t *testing.T, q *QuestScreen) {
	t.Helper()
	cmd := q.Init()
	if cmd == nil {
		t.Fatal("Init returned no command")
	}
	q.Update(cmd())
	if !q.booted {
		t.Fatal("screen did not mark itself booted")
	}
}

func TestBootstrapFillsPanes(t *testing.T) {
	q := newTestScreen(t)
	boot(t, q)

	view := q.View(120, 36)
	for _, want := range []string{"SQL Injection", "Lv 1", "coins", "Archmage"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTabCyclesFocus(t *testing.T) {
	q := newTestScreen(t)
	boot(t, q)

	order := []pane{paneLabs, paneFlag, paneChat, paneTasks}
	for _, want := range order {
		q.cycleFocus()
		if q.focus != want {
			t.Fatalf("focus = %v, want %v", q.focus, want)
		}
	}
}

func TestCorrectFlagCompletesTask(t *testing.T) {
	q := newTestScreen(t)
	boot(t, q)

	q.flagInput.Model.SetValue("FLAG{1_or_1_equals_1}")
	_, cmd := q.submitFlag()
	if cmd == nil {
		t.Fatal("submit produced no command")
	}
	q.Update(cmd())

	task, ok := q.snap.Catalog.Get(1)
	if !ok || !task.Completed {
		t.Fatal("task 1 not completed after accepted flag")
	}
	if q.flagInput.Value() != "" {
		t.Error("flag input not cleared after accepted flag")
	}
	if q.snap.Progress.Coins <= 100 {
		t.Errorf("coins = %d, want reward folded in", q.snap.Progress.Coins)
	}
}

func TestWrongFlagKeepsInput(t *testing.T) {
	q := newTestScreen(t)
	boot(t, q)

	q.flagInput.Model.SetValue("FLAG{nope}")
	_, cmd := q.submitFlag()
	q.Update(cmd())

	if q.flagInput.Value() != "FLAG{nope}" {
		t.Error("rejected flag should stay in the input for editing")
	}
	if task, _ := q.snap.Catalog.Get(1); task.Completed {
		t.Error("task completed on wrong flag")
	}
}

func TestSubmitWhileInFlightIsDropped(t *testing.T) {
	q := newTestScreen(t)
	boot(t, q)

	q.flagInput.Model.SetValue("FLAG{nope}")
	_, first := q.submitFlag()
	if first == nil {
		t.Fatal("first submit produced no command")
	}
	_, second := q.submitFlag()
	if second != nil {
		t.Error("second submit while in flight should be a no-op")
	}
	q.Update(first())
	if q.submitting {
		t.Error("submitting marker not cleared")
	}
}

func TestLabStartAndStop(t *testing.T) {
	q := newTestScreen(t)
	boot(t, q)

	_, cmd := q.handleTasksKey("s")
	if cmd == nil {
		t.Fatal("start produced no command")
	}
	q.Update(cmd())

	if len(q.snap.Labs) != 1 {
		t.Fatalf("labs = %d, want 1 running", len(q.snap.Labs))
	}

	view := q.View(120, 36)
	if !strings.Contains(view, "running") {
		t.Error("running lab not rendered")
	}

	q.focus = paneLabs
	_, cmd = q.handleLabsKey("x")
	if cmd == nil {
		t.Fatal("stop produced no command")
	}
	q.Update(cmd())

	if len(q.snap.Labs) != 0 {
		t.Fatalf("labs = %d, want 0 after stop", len(q.snap.Labs))
	}
}

func TestHintAppearsInTranscript(t *testing.T) {
	q := newTestScreen(t)
	boot(t, q)

	_, cmd := q.handleTasksKey("h")
	if cmd == nil {
		t.Fatal("hint produced no command")
	}
	q.Update(cmd())

	msgs := q.snap.Messages
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.Text, "Hint for") {
		t.Errorf("last message = %q, want hint text", last.Text)
	}
	if q.snap.Progress.Coins != 90 {
		t.Errorf("coins = %d, want 90 after one hint", q.snap.Progress.Coins)
	}
}

func TestChatRoundTrip(t *testing.T) {
	q := newTestScreen(t)
	boot(t, q)

	q.focus = paneChat
	q.chatInput.Model.SetValue("how do I beat the guardian?")
	_, cmd := q.submitChat()
	if cmd == nil {
		t.Fatal("chat submit produced no command")
	}
	// Batch of send + typing tick; drain both.
	drainCmds(q, cmd)

	var sawUser, sawAgent bool
	for _, m := range q.snap.Messages {
		if strings.Contains(m.Text, "guardian") {
			sawUser = true
		}
		if m.Sender == chat.SenderAgent && !strings.Contains(m.Text, "guardian") {
			sawAgent = true
		}
	}
	if !sawUser || !sawAgent {
		t.Errorf("transcript incomplete: user=%v agent=%v", sawUser, sawAgent)
	}
	if q.chatInput.Value() != "" {
		t.Error("chat input not cleared after send")
	}
}

// drainCmds executes a command tree depth-first, feeding every produced
// message back into the screen.
func drainCmds(q *QuestScreen, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			drainCmds(q, c)
		}
		return
	}
	_, next := q.Update(msg)
	drainCmds(q, next)
}
