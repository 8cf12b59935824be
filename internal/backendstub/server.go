// Package backendstub is an in-process implementation of the training
// backend's wire contract. It powers demo mode and the contract tests; it is
// scaffolding, not a product server. Grading and reward arithmetic live here
// only so the client has an authority to fold from.
package backendstub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

const hintCost = 10

type taskDef struct {
	ID          int
	Title       string
	Description string
	XP          int
	Coins       int
	Flag        string
	Hint        string
	Lab         string
}

type labInfo struct {
	Lab          string `json:"lab"`
	FriendlyName string `json:"friendly_name"`
	Description  string `json:"description"`
	TaskID       int    `json:"task_id"`
	LabURL       string `json:"lab_url"`
	UserID       string `json:"-"`
}

type userState struct {
	XP        int
	Coins     int
	Completed []int
	HintsUsed []int
}

// Server holds the stub's in-memory world.
type Server struct {
	mu    sync.Mutex
	users map[string]*userState
	labs  map[string]labInfo
	tasks []taskDef
	seq   int

	calls map[string]int
}

// New returns a stub with the demo task set loaded.
func New() *Server {
	return &Server{
		users: make(map[string]*userState),
		labs:  make(map[string]labInfo),
		calls: make(map[string]int),
		tasks: []taskDef{
			{
				ID: 1, Title: "SQL Injection",
				Description: "Break into a login form by bending its SQL query.",
				XP: 25, Coins: 15,
				Flag: "FLAG{1_or_1_equals_1}",
				Hint: "Try feeding the login form a quote and watch what breaks.",
				Lab:  "sql_injection",
			},
			{
				ID: 2, Title: "XSS - Stored",
				Description: "Plant a script payload that survives the page reload.",
				XP: 30, Coins: 20,
				Flag: "FLAG{script_in_the_guestbook}",
				Hint: "Inject the payload somewhere the app stores and replays it.",
				Lab:  "xss_stored",
			},
			{
				ID: 3, Title: "Hash Cracking",
				Description: "Identify the hash algorithm, then run it down with a wordlist.",
				XP: 35, Coins: 25,
				Flag: "FLAG{rainbow_road}",
				Hint: "Recognize the algorithm from the digest length before brute forcing.",
				Lab:  "hash_cracking",
			},
		},
	}
}

// Handler returns the HTTP surface of the stub. The contract is mounted
// under /api, same as the real backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleTaskDetail)
		r.Get("/user/{id}/progress", s.handleProgress)
		r.Get("/lab/active/{id}", s.handleActiveLabs)
		r.Post("/lab/{id}/start", s.handleStartLab)
		r.Post("/lab/stop", s.handleStopLab)
		r.Post("/tasks/{id}/answer", s.handleAnswer)
		r.Post("/simulation/{id}/hint", s.handleHint)
		r.Post("/chat", s.handleChat)
	})
	return r
}

// Calls returns how many requests hit the given operation.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the total request count across operations.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *Server) count(op string) {
	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()
}

func (s *Server) user(id string) *userState {
	u, ok := s.users[id]
	if !ok {
		u = &userState{Coins: 100}
		s.users[id] = u
	}
	return u
}

func (s *Server) task(id int) (taskDef, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return taskDef{}, false
}

func (u *userState) completed(id int) bool {
	for _, c := range u.Completed {
		if c == id {
			return true
		}
	}
	return false
}

// locked mirrors the unlock ladder: the first task is open, each later task
// unlocks when its predecessor is completed.
func (s *Server) locked(u *userState, id int) bool {
	if id <= 1 {
		return false
	}
	return !u.completed(id - 1)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s.count("list-tasks")
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(r.URL.Query().Get("user_id"))
	out := make([]map[string]any, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, s.taskJSON(u, t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (s *Server) handleTaskDetail(w http.ResponseWriter, r *http.Request) {
	s.count("task-detail")
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "Task not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.task(id)
	if !ok {
		writeErr(w, http.StatusNotFound, "Task not found")
		return
	}
	u := s.user(r.URL.Query().Get("user_id"))
	writeJSON(w, http.StatusOK, map[string]any{"task": s.taskJSON(u, t)})
}

func (s *Server) taskJSON(u *userState, t taskDef) map[string]any {
	return map[string]any{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"reward":      map[string]int{"xp": t.XP, "coins": t.Coins},
		"locked":      s.locked(u, t.ID),
		"completed":   u.completed(t.ID),
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.count("progress")
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]any{"progress": progressJSON(u)})
}

// progressJSON reports raw XP totals; the client owns the level carry.
func progressJSON(u *userState) map[string]any {
	return map[string]any{
		"level":           1,
		"total_xp":        u.XP,
		"next_level_xp":   100,
		"total_coins":     u.Coins,
		"completed_tasks": u.Completed,
		"hints_used":      u.HintsUsed,
	}
}

func (s *Server) handleActiveLabs(w http.ResponseWriter, r *http.Request) {
	s.count("active-labs")
	userID := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]labInfo)
	for key, info := range s.labs {
		if info.UserID == userID {
			out[key] = info
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"active_labs": out})
}

func (s *Server) handleStartLab(w http.ResponseWriter, r *http.Request) {
	s.count("start-lab")
	body, ok := s.readBody(w, r, "start-lab")
	if !ok {
		return
	}
	userID, _ := body["user_id"].(string)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "Task not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, found := s.task(id)
	if !found {
		writeErr(w, http.StatusNotFound, "Task not found")
		return
	}

	s.seq++
	key := fmt.Sprintf("lab_%s_%s_%04d", t.Lab, userID, s.seq)
	info := labInfo{
		Lab:          t.Lab,
		FriendlyName: t.Title,
		Description:  t.Description,
		TaskID:       t.ID,
		LabURL:       fmt.Sprintf("http://localhost:%d", 40000+s.seq),
		UserID:       userID,
	}
	s.labs[key] = info

	writeJSON(w, http.StatusOK, map[string]any{
		"container_name": key,
		"lab":            info.FriendlyName,
		"description":    info.Description,
		"task_id":        info.TaskID,
		"lab_url":        info.LabURL,
	})
}

func (s *Server) handleStopLab(w http.ResponseWriter, r *http.Request) {
	s.count("stop-lab")
	body, ok := s.readBody(w, r, "stop-lab")
	if !ok {
		return
	}
	key, _ := body["lab_name"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.labs[key]; !found {
		writeErr(w, http.StatusNotFound, "Container not found")
		return
	}
	delete(s.labs, key)
	writeJSON(w, http.StatusOK, map[string]any{"stopped": true})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	s.count("answer")
	body, ok := s.readBody(w, r, "answer")
	if !ok {
		return
	}
	userID, _ := body["user_id"].(string)
	answer, _ := body["answer"].(string)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "Task not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, found := s.task(id)
	if !found {
		writeErr(w, http.StatusNotFound, "Task not found")
		return
	}
	u := s.user(userID)

	if strings.TrimSpace(answer) != t.Flag {
		writeJSON(w, http.StatusOK, map[string]any{
			"correct": false,
			"message": "Wrong flag. Try again.",
		})
		return
	}

	if !u.completed(t.ID) {
		u.Completed = append(u.Completed, t.ID)
		u.XP += t.XP
		u.Coins += t.Coins
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"correct":       true,
		"message":       "Flag accepted. Task complete.",
		"user_progress": progressJSON(u),
		"rewards":       map[string]int{"xp": t.XP, "coins": t.Coins},
	})
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	s.count("hint")
	body, ok := s.readBody(w, r, "hint")
	if !ok {
		return
	}
	userID, _ := body["user_id"].(string)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "No hint for this task")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, found := s.task(id)
	if !found {
		writeErr(w, http.StatusNotFound, "No hint for this task")
		return
	}
	u := s.user(userID)
	if u.Coins < hintCost {
		writeErr(w, http.StatusBadRequest, "Not enough coins")
		return
	}
	u.Coins -= hintCost
	u.HintsUsed = append(u.HintsUsed, t.ID)

	writeJSON(w, http.StatusOK, map[string]any{
		"hint":       t.Hint,
		"coins_left": u.Coins,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.count("chat")
	body, ok := s.readBody(w, r, "chat")
	if !ok {
		return
	}
	message, _ := body["message"].(string)
	writeJSON(w, http.StatusOK, map[string]any{"response": archmageReply(message)})
}

// archmageReply picks a canned mentor answer by topic keyword.
func archmageReply(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "sql"):
		return "The Archmage says: queries trust their inputs far too much. A single quote can unravel the whole incantation."
	case strings.Contains(m, "xss"):
		return "The Archmage says: anything the page stores and replays is a place a script can hide."
	case strings.Contains(m, "hash"):
		return "The Archmage says: name the algorithm first. A digest's length betrays its maker."
	default:
		return "The Archmage says: pick a task, start its lab, and poke at everything the page lets you touch."
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request, schema string) (map[string]any, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "unreadable body")
		return nil, false
	}
	body, err := validateBody(schema, raw)
	if err != nil {
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
