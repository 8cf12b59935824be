package backend

import (
	"context"

	"cyberquest/internal/catalog"
	"cyberquest/internal/lab"
	"cyberquest/internal/progress"
)

// AnswerResult is the scored outcome of a flag submission.
// On Correct, Progress is the authoritative snapshot the store must fold
// wholesale; Rewards is display-only attribution of the delta.
type AnswerResult struct {
	Correct  bool
	Message  string
	Progress progress.Snapshot
	Rewards  catalog.Reward
}

// HintResult is a purchased hint plus the remaining coin balance.
type HintResult struct {
	Hint      string
	CoinsLeft int
}

// API is the backend surface the session orchestrator consumes.
// Every call carries the session identifier the client was built with.
type API interface {
	// ListTasks fetches the task catalog.
	ListTasks(ctx context.Context) ([]catalog.Task, error)

	// TaskDetail fetches a single task.
	TaskDetail(ctx context.Context, id catalog.TaskID) (catalog.Task, error)

	// Progress fetches the full progress snapshot.
	Progress(ctx context.Context) (progress.Snapshot, error)

	// ActiveLabs lists the session's running lab instances.
	ActiveLabs(ctx context.Context) ([]lab.Instance, error)

	// StartLab provisions a lab for the task and returns the instance.
	StartLab(ctx context.Context, id catalog.TaskID) (lab.Instance, error)

	// StopLab tears down the instance under key. Ack only.
	StopLab(ctx context.Context, key string) error

	// SubmitAnswer scores a flag submission.
	SubmitAnswer(ctx context.Context, id catalog.TaskID, answer string) (AnswerResult, error)

	// Hint purchases a hint for the task.
	Hint(ctx context.Context, id catalog.TaskID) (HintResult, error)

	// Chat sends one conversation turn and returns the agent's reply text.
	// Carries a long timeout; the agent may be slow.
	Chat(ctx context.Context, message string) (string, error)
}

// Wire DTOs for the canonical contract.

type taskWire struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      struct {
		XP    int `json:"xp"`
		Coins int `json:"coins"`
	} `json:"reward"`
	Locked    bool `json:"locked"`
	Completed bool `json:"completed"`
}

func (w taskWire) toTask() catalog.Task {
	return catalog.Task{
		ID:          catalog.TaskID(w.ID),
		Title:       w.Title,
		Description: w.Description,
		Reward:      catalog.Reward{XP: w.Reward.XP, Coins: w.Reward.Coins},
		Locked:      w.Locked,
		Completed:   w.Completed,
	}
}

type tasksResponse struct {
	Tasks []taskWire `json:"tasks"`
}

type taskDetailResponse struct {
	Task taskWire `json:"task"`
}

type progressWire struct {
	Level          int   `json:"level"`
	TotalXP        int   `json:"total_xp"`
	NextLevelXP    int   `json:"next_level_xp"`
	TotalCoins     int   `json:"total_coins"`
	CompletedTasks []int `json:"completed_tasks"`
	HintsUsed      []int `json:"hints_used"`
}

func (w progressWire) toSnapshot() progress.Snapshot {
	snap := progress.Snapshot{
		Level:         w.Level,
		XP:            w.TotalXP,
		XPToNextLevel: w.NextLevelXP,
		Coins:         w.TotalCoins,
		HintsUsed:     make(map[catalog.TaskID]bool, len(w.HintsUsed)),
	}
	for _, id := range w.CompletedTasks {
		snap.CompletedTaskIDs = append(snap.CompletedTaskIDs, catalog.TaskID(id))
	}
	for _, id := range w.HintsUsed {
		snap.HintsUsed[catalog.TaskID(id)] = true
	}
	return snap.Normalize()
}

type progressResponse struct {
	Progress progressWire `json:"progress"`
}

type labInfoWire struct {
	FriendlyName string `json:"friendly_name"`
	Description  string `json:"description"`
	TaskID       int    `json:"task_id"`
	LabURL       string `json:"lab_url"`
}

type activeLabsResponse struct {
	ActiveLabs map[string]labInfoWire `json:"active_labs"`
}

type startLabRequest struct {
	UserID string `json:"user_id"`
}

type startLabResponse struct {
	ContainerName string `json:"container_name"`
	Lab           string `json:"lab"`
	Description   string `json:"description"`
	TaskID        int    `json:"task_id"`
	LabURL        string `json:"lab_url"`
}

type stopLabRequest struct {
	UserID  string `json:"user_id"`
	LabName string `json:"lab_name"`
}

type answerRequest struct {
	UserID string `json:"user_id"`
	Answer string `json:"answer"`
}

type answerResponse struct {
	Correct      bool          `json:"correct"`
	Message      string        `json:"message"`
	UserProgress *progressWire `json:"user_progress"`
	Rewards      struct {
		XP    int `json:"xp"`
		Coins int `json:"coins"`
	} `json:"rewards"`
}

type hintRequest struct {
	UserID string `json:"user_id"`
}

type hintResponse struct {
	Hint      string `json:"hint"`
	CoinsLeft int    `json:"coins_left"`
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
