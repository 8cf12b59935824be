// Package progress holds the learner's cumulative level, XP, coin and
// completion state for one session.
//
// Numeric fields are never computed client-side: every mutation is a fold of
// server-confirmed values, either a wholesale snapshot replace (answer
// accepted) or a partial coin fold (hint purchased). That single-writer rule
// is what makes optimistic-update rollback bugs impossible here.
package progress

import "cyberquest/internal/catalog"

// BaseLevelXP is the XP needed to clear level 1. Each level needs
// BaseLevelXP * level, matching the backend's starting requirement of 100.
const BaseLevelXP = 100

// Snapshot is the learner's progress at a point in time.
type Snapshot struct {
	Level            int
	XP               int
	XPToNextLevel    int
	Coins            int
	CompletedTaskIDs []catalog.TaskID
	HintsUsed        map[catalog.TaskID]bool
}

// New returns the session-start snapshot used before the first server fold.
func New() Snapshot {
	return Snapshot{
		Level:         1,
		XP:            0,
		XPToNextLevel: BaseLevelXP,
		Coins:         100,
		HintsUsed:     make(map[catalog.TaskID]bool),
	}
}

// requirement returns the XP needed to clear the given level.
func requirement(level int) int {
	if level < 1 {
		level = 1
	}
	return BaseLevelXP * level
}

// Normalize carries XP overflow into level increments until the
// xp < xpToNextLevel invariant holds. Some backend variants return raw XP
// totals with no level field; the carry makes both shapes fold to the same
// snapshot.
func (s Snapshot) Normalize() Snapshot {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.XPToNextLevel <= 0 {
		s.XPToNextLevel = requirement(s.Level)
	}
	for s.XP >= s.XPToNextLevel {
		s.XP -= s.XPToNextLevel
		s.Level++
		s.XPToNextLevel = requirement(s.Level)
	}
	if s.XP < 0 {
		s.XP = 0
	}
	if s.Coins < 0 {
		s.Coins = 0
	}
	if s.HintsUsed == nil {
		s.HintsUsed = make(map[catalog.TaskID]bool)
	}
	return s
}

// Replace folds a full server snapshot, discarding every prior field.
// No client field survives the fold; the server is the arithmetic authority.
func (s Snapshot) Replace(next Snapshot) Snapshot {
	return next.Normalize()
}

// FoldCoins folds the server-reported remaining balance after a hint
// purchase. Hint responses are not full snapshots, so only coins move;
// level and XP are untouched.
func (s Snapshot) FoldCoins(coinsLeft int) Snapshot {
	if coinsLeft < 0 {
		coinsLeft = 0
	}
	s.Coins = coinsLeft
	return s
}

// MarkHintUsed records that a hint was revealed for the task.
// Display bookkeeping only; the coin cost arrives via FoldCoins.
func (s Snapshot) MarkHintUsed(id catalog.TaskID) Snapshot {
	used := make(map[catalog.TaskID]bool, len(s.HintsUsed)+1)
	for k, v := range s.HintsUsed {
		used[k] = v
	}
	used[id] = true
	s.HintsUsed = used
	return s
}

// Completed reports whether the task is in the completed set.
func (s Snapshot) Completed(id catalog.TaskID) bool {
	for _, c := range s.CompletedTaskIDs {
		if c == id {
			return true
		}
	}
	return false
}
