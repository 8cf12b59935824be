package store

import (
	"context"
	"database/sql"
	"time"
)

// AnswerEventData records one flag submission.
type AnswerEventData struct {
	SessionID string
	TaskID    int
	Correct   bool
}

// HintEventData records one hint purchase.
type HintEventData struct {
	SessionID string
	TaskID    int
	CoinsLeft int
}

// LabEventData records a lab lifecycle transition.
type LabEventData struct {
	SessionID   string
	Action      string // "started", "start-failed", "stopped", "stop-failed"
	InstanceKey string
	TaskID      int
}

// ChatEventData records one chat turn. Message text is deliberately not
// stored; only the sender and length.
type ChatEventData struct {
	SessionID string
	Sender    string
	Chars     int
}

// EventRepo provides append access to session events.
type EventRepo interface {
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error
	AppendHintEvent(ctx context.Context, data HintEventData) error
	AppendLabEvent(ctx context.Context, data LabEventData) error
	AppendChatEvent(ctx context.Context, data ChatEventData) error
}

type eventRepo struct {
	db *sql.DB
}

var _ EventRepo = (*eventRepo)(nil)

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	correct := 0
	if data.Correct {
		correct = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO answer_events (session_id, task_id, correct, created_at) VALUES (?, ?, ?, ?)`,
		data.SessionID, data.TaskID, correct, time.Now().Unix())
	return err
}

func (r *eventRepo) AppendHintEvent(ctx context.Context, data HintEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO hint_events (session_id, task_id, coins_left, created_at) VALUES (?, ?, ?, ?)`,
		data.SessionID, data.TaskID, data.CoinsLeft, time.Now().Unix())
	return err
}

func (r *eventRepo) AppendLabEvent(ctx context.Context, data LabEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lab_events (session_id, action, instance_key, task_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		data.SessionID, data.Action, data.InstanceKey, data.TaskID, time.Now().Unix())
	return err
}

func (r *eventRepo) AppendChatEvent(ctx context.Context, data ChatEventData) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_events (session_id, sender, chars, created_at) VALUES (?, ?, ?, ?)`,
		data.SessionID, data.Sender, data.Chars, time.Now().Unix())
	return err
}

// Totals aggregates event counts across all sessions.
type Totals struct {
	Answers    int
	Correct    int
	Hints      int
	LabActions int
	ChatTurns  int
}

// Totals reads aggregate counts from the telemetry tables.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals

	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(correct), 0) FROM answer_events`)
	if err := row.Scan(&t.Answers, &t.Correct); err != nil {
		return Totals{}, err
	}

	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM hint_events`, &t.Hints},
		{`SELECT COUNT(*) FROM lab_events`, &t.LabActions},
		{`SELECT COUNT(*) FROM chat_events`, &t.ChatTurns},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Totals{}, err
		}
	}
	return t, nil
}
