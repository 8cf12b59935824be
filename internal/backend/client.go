// Package backend is the REST client for the training backend.
//
// The backend owns grading, rewards, lab provisioning and the mentor agent;
// this client treats every response as the source of truth and limits itself
// to shape validation. No call is retried: a failed operation surfaces and
// any retry is a fresh user action.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"cyberquest/internal/catalog"
	"cyberquest/internal/lab"
	"cyberquest/internal/progress"
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000/api".
	BaseURL string

	// ChatTimeout bounds the chat call. The agent may sit behind a slow
	// model, so this is generous; every other call uses transport defaults.
	ChatTimeout time.Duration

	// HTTPClient overrides the transport. Nil means http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives request-level debug logging. Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:8000/api",
		ChatTimeout: 45 * time.Second,
	}
}

// Client implements API over HTTP.
type Client struct {
	base   string
	userID string
	chatTO time.Duration
	httpc  *http.Client
	logger *zap.Logger
}

var _ API = (*Client)(nil)

// New creates a Client bound to one session identifier.
func New(cfg Config, userID string) *Client {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	chatTO := cfg.ChatTimeout
	if chatTO <= 0 {
		chatTO = DefaultConfig().ChatTimeout
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		userID: userID,
		chatTO: chatTO,
		httpc:  httpc,
		logger: logger,
	}
}

// UserID returns the session identifier this client correlates requests with.
func (c *Client) UserID() string { return c.userID }

func (c *Client) ListTasks(ctx context.Context) ([]catalog.Task, error) {
	var resp tasksResponse
	path := fmt.Sprintf("/tasks?user_id=%s", c.userID)
	if err := c.getJSON(ctx, "list tasks", path, &resp); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		return nil, &MalformedError{Op: "list tasks", Err: fmt.Errorf("missing tasks field")}
	}
	tasks := make([]catalog.Task, 0, len(resp.Tasks))
	for _, w := range resp.Tasks {
		tasks = append(tasks, w.toTask())
	}
	return tasks, nil
}

func (c *Client) TaskDetail(ctx context.Context, id catalog.TaskID) (catalog.Task, error) {
	var resp taskDetailResponse
	path := fmt.Sprintf("/tasks/%d?user_id=%s", id, c.userID)
	if err := c.getJSON(ctx, "task detail", path, &resp); err != nil {
		return catalog.Task{}, err
	}
	return resp.Task.toTask(), nil
}

func (c *Client) Progress(ctx context.Context) (progress.Snapshot, error) {
	var resp progressResponse
	path := fmt.Sprintf("/user/%s/progress", c.userID)
	if err := c.getJSON(ctx, "progress", path, &resp); err != nil {
		return progress.Snapshot{}, err
	}
	return resp.Progress.toSnapshot(), nil
}

func (c *Client) ActiveLabs(ctx context.Context) ([]lab.Instance, error) {
	var resp activeLabsResponse
	path := fmt.Sprintf("/lab/active/%s", c.userID)
	if err := c.getJSON(ctx, "active labs", path, &resp); err != nil {
		return nil, err
	}
	instances := make([]lab.Instance, 0, len(resp.ActiveLabs))
	for key, info := range resp.ActiveLabs {
		instances = append(instances, lab.Instance{
			Key:         key,
			TaskID:      catalog.TaskID(info.TaskID),
			DisplayName: info.FriendlyName,
			Description: info.Description,
			AccessPoint: info.LabURL,
			Status:      lab.StatusRunning,
		})
	}
	return instances, nil
}

func (c *Client) StartLab(ctx context.Context, id catalog.TaskID) (lab.Instance, error) {
	var resp startLabResponse
	path := fmt.Sprintf("/lab/%d/start", id)
	if err := c.postJSON(ctx, "start lab", path, startLabRequest{UserID: c.userID}, &resp); err != nil {
		return lab.Instance{}, err
	}
	if resp.ContainerName == "" {
		return lab.Instance{}, &MalformedError{Op: "start lab", Err: fmt.Errorf("missing container_name")}
	}
	return lab.Instance{
		Key:         resp.ContainerName,
		TaskID:      id,
		DisplayName: resp.Lab,
		Description: resp.Description,
		AccessPoint: resp.LabURL,
		Status:      lab.StatusRunning,
	}, nil
}

func (c *Client) StopLab(ctx context.Context, key string) error {
	return c.postJSON(ctx, "stop lab", "/lab/stop", stopLabRequest{UserID: c.userID, LabName: key}, nil)
}

func (c *Client) SubmitAnswer(ctx context.Context, id catalog.TaskID, answer string) (AnswerResult, error) {
	var resp answerResponse
	path := fmt.Sprintf("/tasks/%d/answer", id)
	if err := c.postJSON(ctx, "submit answer", path, answerRequest{UserID: c.userID, Answer: answer}, &resp); err != nil {
		return AnswerResult{}, err
	}
	result := AnswerResult{
		Correct: resp.Correct,
		Message: resp.Message,
		Rewards: catalog.Reward{XP: resp.Rewards.XP, Coins: resp.Rewards.Coins},
	}
	if resp.Correct {
		if resp.UserProgress == nil {
			return AnswerResult{}, &MalformedError{Op: "submit answer", Err: fmt.Errorf("correct response missing user_progress")}
		}
		result.Progress = resp.UserProgress.toSnapshot()
	}
	return result, nil
}

func (c *Client) Hint(ctx context.Context, id catalog.TaskID) (HintResult, error) {
	var resp hintResponse
	path := fmt.Sprintf("/simulation/%d/hint", id)
	if err := c.postJSON(ctx, "hint", path, hintRequest{UserID: c.userID}, &resp); err != nil {
		return HintResult{}, err
	}
	if resp.Hint == "" {
		return HintResult{}, &MalformedError{Op: "hint", Err: fmt.Errorf("missing hint field")}
	}
	return HintResult{Hint: resp.Hint, CoinsLeft: resp.CoinsLeft}, nil
}

func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTO)
	defer cancel()

	var resp chatResponse
	if err := c.postJSON(ctx, "chat", "/chat", chatRequest{Message: message, UserID: c.userID}, &resp); err != nil {
		return "", err
	}
	// Empty reply is the caller's problem: the session substitutes its
	// documented fallback line rather than failing the turn.
	return resp.Response, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return &UnavailableError{Op: op, Err: err}
	}
	return c.do(op, req, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &MalformedError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return &UnavailableError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Debug("backend call failed",
			zap.String("op", op), zap.Error(err))
		return &UnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &UnavailableError{Op: op, Err: err}
	}

	c.logger.Debug("backend call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.Unmarshal(body, &er) // detail is optional
		if resp.StatusCode >= 500 {
			return &UnavailableError{Op: op, Err: fmt.Errorf("server error %d: %s", resp.StatusCode, er.Detail)}
		}
		return &RejectedError{Op: op, Status: resp.StatusCode, Detail: er.Detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedError{Op: op, Err: err}
	}
	return nil
}
