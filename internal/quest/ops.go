package quest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cyberquest/internal/backend"
	"cyberquest/internal/catalog"
	"cyberquest/internal/chat"
	"cyberquest/internal/lab"
	"cyberquest/internal/store"
)

// Bootstrap loads the catalog, progress and active labs. Catalog failure
// falls back to the seed set; the other loads keep session defaults, since
// an empty progress or lab list does not block the session.
func (s *Session) Bootstrap(ctx context.Context) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.LoadCatalog(ctx)
	s.LoadProgress(ctx)
	s.LoadActiveLabs(ctx)
	return nil
}

// LoadCatalog fetches the task catalog. The sole non-error fallback in the
// client: when the backend is unreachable the built-in seed set is loaded,
// tagged as fallback, so the session stays usable offline.
func (s *Session) LoadCatalog(ctx context.Context) catalog.Catalog {
	tasks, err := s.api.ListTasks(ctx)
	if err != nil {
		s.logger.Warn("catalog load failed, using seed",
			zap.String("kind", failureKind(err)), zap.Error(err))
		s.mu.Lock()
		s.catalog = catalog.Seed()
		out := s.catalog
		s.mu.Unlock()
		s.systemNotice("Backend unreachable. Loaded the built-in training set; progress will not be saved.")
		return out
	}

	s.mu.Lock()
	s.catalog = catalog.FromBackend(tasks)
	out := s.catalog
	s.mu.Unlock()
	return out
}

// LoadProgress folds the server's progress snapshot wholesale.
func (s *Session) LoadProgress(ctx context.Context) {
	snap, err := s.api.Progress(ctx)
	if err != nil {
		s.logger.Warn("progress load failed, keeping defaults", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.progress = s.progress.Replace(snap)
	s.catalog = s.catalog.MarkCompleted(s.progress.CompletedTaskIDs)
	s.mu.Unlock()
}

// LoadActiveLabs replaces the lab set with the backend's listing.
func (s *Session) LoadActiveLabs(ctx context.Context) {
	instances, err := s.api.ActiveLabs(ctx)
	if err != nil {
		s.logger.Warn("active labs load failed", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.labs.Replace(instances)
	s.mu.Unlock()
}

// SelectTask makes the task the target for answers and hints.
// Guarded client-side: unknown ids and locked tasks fail before any request.
func (s *Session) SelectTask(id catalog.TaskID) (catalog.Task, error) {
	if err := s.guard(); err != nil {
		return catalog.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.catalog.Select(id)
	if err != nil {
		return catalog.Task{}, err
	}
	s.activeTask = &task
	return task, nil
}

// StartLab provisions a practice environment for the task.
// Rejected with lab.ErrAlreadyRunning before any request when an instance
// for the task is already Starting or Running. On failure no instance is
// stored and the state stays Absent.
func (s *Session) StartLab(ctx context.Context, id catalog.TaskID) (lab.Instance, error) {
	if err := s.guard(); err != nil {
		return lab.Instance{}, err
	}

	// Guard and reserve in one critical section so a second start for the
	// same task is rejected while this one is in flight.
	placeholder := "pending:" + id.String()
	s.mu.Lock()
	if err := s.labs.CheckStartable(id); err != nil {
		s.mu.Unlock()
		return lab.Instance{}, err
	}
	s.labs.Put(lab.Instance{Key: placeholder, TaskID: id, Status: lab.StatusStarting})
	s.mu.Unlock()

	inst, err := s.api.StartLab(ctx, id)

	s.mu.Lock()
	s.labs.Remove(placeholder)
	if err != nil {
		s.mu.Unlock()
		s.systemNotice(fmt.Sprintf("Could not start the lab: %s.", failureReason(err)))
		s.recordLab(ctx, "start-failed", "", id)
		return lab.Instance{}, err
	}
	inst.Status = lab.StatusRunning
	s.labs.Put(inst)
	s.mu.Unlock()

	if inst.AccessPoint != "" {
		s.systemNotice(fmt.Sprintf("Lab %q is up. Access point: %s", inst.DisplayName, inst.AccessPoint))
	} else {
		s.systemNotice(fmt.Sprintf("Lab %q is up.", inst.DisplayName))
	}
	s.recordLab(ctx, "started", inst.Key, id)
	return inst, nil
}

// StopLab tears down the instance under key. Removal is never optimistic:
// the instance leaves the set only after server confirmation, so a lab that
// is still consuming resources is never shown as stopped.
func (s *Session) StopLab(ctx context.Context, key string) error {
	if err := s.guard(); err != nil {
		return err
	}

	s.mu.Lock()
	inst, ok := s.labs.Get(key)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("lab %q: %w", key, lab.ErrNotFound)
	}
	if err := s.labs.MarkStopping(key); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	err := s.api.StopLab(ctx, key)

	s.mu.Lock()
	if err != nil {
		// Failed stop: the lab is still running server-side. Restore and
		// leave any retry to the user.
		s.labs.MarkRunning(key)
		s.mu.Unlock()
		s.systemNotice(fmt.Sprintf("Could not stop lab %q: %s.", inst.DisplayName, failureReason(err)))
		s.recordLab(ctx, "stop-failed", key, inst.TaskID)
		return err
	}
	s.labs.Remove(key)
	s.mu.Unlock()

	s.systemNotice(fmt.Sprintf("Lab %q stopped.", inst.DisplayName))
	s.recordLab(ctx, "stopped", key, inst.TaskID)
	return nil
}

// SubmitAnswer scores a flag against the task. On a correct answer the
// progress store is replaced wholesale with the server snapshot; the client
// computes no reward arithmetic of its own. On a wrong answer nothing
// changes except a failure notice, and reattempts are unlimited.
func (s *Session) SubmitAnswer(ctx context.Context, id catalog.TaskID, answer string) (backend.AnswerResult, error) {
	if err := s.guard(); err != nil {
		return backend.AnswerResult{}, err
	}

	result, err := s.api.SubmitAnswer(ctx, id, answer)
	if err != nil {
		s.systemNotice(fmt.Sprintf("Could not submit the answer: %s.", failureReason(err)))
		return backend.AnswerResult{}, err
	}

	s.recordAnswer(ctx, id, result.Correct)

	if !result.Correct {
		notice := result.Message
		if notice == "" {
			notice = "Wrong flag. Try again!"
		}
		s.systemNotice(notice)
		return result, nil
	}

	s.mu.Lock()
	s.progress = s.progress.Replace(result.Progress)
	s.catalog = s.catalog.MarkCompleted(s.progress.CompletedTaskIDs)
	s.mu.Unlock()

	s.systemNotice(fmt.Sprintf("Flag accepted! You earned %d XP and %d coins.",
		result.Rewards.XP, result.Rewards.Coins))
	return result, nil
}

// RequestHint purchases a hint for the task. On success the hint arrives as
// an agent message and only the coin balance folds from the server's
// remaining total; level and XP are untouched. On rejection the reason is
// surfaced as a system notice.
func (s *Session) RequestHint(ctx context.Context, id catalog.TaskID) (string, error) {
	if err := s.guard(); err != nil {
		return "", err
	}

	result, err := s.api.Hint(ctx, id)
	if err != nil {
		reason := hintDefaultReason
		if detail, ok := backend.RejectionDetail(err); ok && detail != "" {
			reason = detail
		} else if backend.IsUnavailable(err) {
			reason = "backend unreachable"
		}
		s.systemNotice(fmt.Sprintf("Hint unavailable: %s.", reason))
		return "", err
	}

	title := id.String()
	s.mu.Lock()
	if task, ok := s.catalog.Get(id); ok {
		title = task.Title
	}
	s.progress = s.progress.FoldCoins(result.CoinsLeft)
	s.progress = s.progress.MarkHintUsed(id)
	text := fmt.Sprintf("Hint for %s: %s (coins remaining: %d)", title, result.Hint, result.CoinsLeft)
	s.chatLog.Append(chat.SenderAgent, text)
	s.mu.Unlock()

	s.recordHint(ctx, id, result.CoinsLeft)
	return result.Hint, nil
}

// SendChat submits one conversation turn. Empty or whitespace-only input
// and turns arriving while one is in flight are dropped silently: no state
// change, no request. Returns whether the turn was accepted.
//
// The in-flight and typing markers are cleared on every settlement path.
func (s *Session) SendChat(ctx context.Context, input string) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}

	text := strings.TrimSpace(input)
	if text == "" {
		return false, nil
	}

	s.mu.Lock()
	if s.sending {
		// Single-flight: a second send while one is outstanding is a no-op,
		// not an error and not a queue entry.
		s.mu.Unlock()
		return false, nil
	}
	s.sending = true
	s.typing = true
	// The user message reflects local input only, so appending it before
	// the request settles is not an optimistic server-state update.
	s.chatLog.Append(chat.SenderUser, text)
	s.mu.Unlock()

	s.recordChat(ctx, chat.SenderUser, len(text))

	reply, err := s.api.Chat(ctx, text)

	// Single finalization path: both markers clear no matter how the
	// request settled.
	s.mu.Lock()
	if err != nil {
		s.chatLog.Append(chat.SenderSystem, connectivityNotice)
	} else {
		if strings.TrimSpace(reply) == "" {
			reply = agentFallbackReply
		}
		s.chatLog.Append(chat.SenderAgent, reply)
	}
	s.sending = false
	s.typing = false
	s.mu.Unlock()

	if err != nil {
		return true, err
	}
	s.recordChat(ctx, chat.SenderAgent, len(reply))
	return true, nil
}

// failureKind names the backend error class for log fields. A seed fallback
// on a rejected or malformed response points at a contract problem, not an
// outage, and the distinction should survive into the logs.
func failureKind(err error) string {
	if backend.IsUnavailable(err) {
		return "unavailable"
	}
	if _, ok := backend.RejectionDetail(err); ok {
		return "rejected"
	}
	var me *backend.MalformedError
	if errors.As(err, &me) {
		return "malformed"
	}
	return "unknown"
}

// failureReason maps a backend error onto a short user-facing phrase.
func failureReason(err error) string {
	if detail, ok := backend.RejectionDetail(err); ok && detail != "" {
		return detail
	}
	if backend.IsUnavailable(err) {
		return "backend unreachable"
	}
	return "unexpected response"
}

// Telemetry appends are best-effort: a failed write never fails the
// user-facing operation.

func (s *Session) recordAnswer(ctx context.Context, id catalog.TaskID, correct bool) {
	if s.events == nil {
		return
	}
	err := s.events.AppendAnswerEvent(ctx, store.AnswerEventData{
		SessionID: s.id, TaskID: int(id), Correct: correct,
	})
	if err != nil {
		s.logger.Warn("record answer event", zap.Error(err))
	}
}

func (s *Session) recordHint(ctx context.Context, id catalog.TaskID, coinsLeft int) {
	if s.events == nil {
		return
	}
	err := s.events.AppendHintEvent(ctx, store.HintEventData{
		SessionID: s.id, TaskID: int(id), CoinsLeft: coinsLeft,
	})
	if err != nil {
		s.logger.Warn("record hint event", zap.Error(err))
	}
}

func (s *Session) recordLab(ctx context.Context, action, key string, id catalog.TaskID) {
	if s.events == nil {
		return
	}
	err := s.events.AppendLabEvent(ctx, store.LabEventData{
		SessionID: s.id, Action: action, InstanceKey: key, TaskID: int(id),
	})
	if err != nil {
		s.logger.Warn("record lab event", zap.Error(err))
	}
}

func (s *Session) recordChat(ctx context.Context, sender chat.Sender, chars int) {
	if s.events == nil {
		return
	}
	err := s.events.AppendChatEvent(ctx, store.ChatEventData{
		SessionID: s.id, Sender: string(sender), Chars: chars,
	})
	if err != nil {
		s.logger.Warn("record chat event", zap.Error(err))
	}
}
