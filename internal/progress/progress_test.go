package progress

import (
	"testing"

	"cyberquest/internal/catalog"
)

func TestNewDefaults(t *testing.T) {
	s := New()
	if s.Level != 1 || s.XP != 0 || s.XPToNextLevel != BaseLevelXP || s.Coins != 100 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestNormalizeCarriesOverflow(t *testing.T) {
	// 250 raw XP clears level 1's 100 and leaves 150 toward level 2's 200.
	s := Snapshot{Level: 1, XP: 250, XPToNextLevel: 100}.Normalize()
	if s.Level != 2 || s.XP != 150 || s.XPToNextLevel != 200 {
		t.Fatalf("got level=%d xp=%d next=%d, want 2/150/200", s.Level, s.XP, s.XPToNextLevel)
	}
	if s.XP >= s.XPToNextLevel {
		t.Fatal("invariant xp < xpToNextLevel violated")
	}
}

func TestNormalizeMultiLevelCarry(t *testing.T) {
	// 700 raw XP clears 100, 200 and 300, leaving 100 toward level 4's 400.
	s := Snapshot{Level: 1, XP: 700, XPToNextLevel: 100}.Normalize()
	if s.Level != 4 || s.XP != 100 || s.XPToNextLevel != 400 {
		t.Fatalf("got level=%d xp=%d next=%d, want 4/100/400", s.Level, s.XP, s.XPToNextLevel)
	}
}

func TestNormalizeRepairsMissingFields(t *testing.T) {
	s := Snapshot{XP: 10}.Normalize()
	if s.Level != 1 || s.XPToNextLevel != BaseLevelXP {
		t.Fatalf("got %+v", s)
	}
	if s.HintsUsed == nil {
		t.Fatal("HintsUsed not initialized")
	}
}

func TestReplaceDiscardsStaleFields(t *testing.T) {
	before := New()
	before.Coins = 999
	before = before.MarkHintUsed(1)

	server := Snapshot{Level: 2, XP: 10, XPToNextLevel: 200, Coins: 40,
		CompletedTaskIDs: []catalog.TaskID{1}}
	after := before.Replace(server)

	if after.Coins != 40 || after.Level != 2 || after.XP != 10 {
		t.Fatalf("fold kept stale fields: %+v", after)
	}
	if !after.Completed(1) || after.Completed(2) {
		t.Fatal("completed set not replaced")
	}
	// Hint bookkeeping does not leak through a wholesale replace.
	if after.HintsUsed[1] {
		t.Fatal("HintsUsed survived a wholesale replace")
	}
}

func TestFoldCoinsTouchesOnlyCoins(t *testing.T) {
	s := Snapshot{Level: 3, XP: 55, XPToNextLevel: 300, Coins: 50}
	out := s.FoldCoins(40)
	if out.Coins != 40 {
		t.Fatalf("coins = %d, want 40", out.Coins)
	}
	if out.Level != 3 || out.XP != 55 || out.XPToNextLevel != 300 {
		t.Fatalf("non-coin fields changed: %+v", out)
	}
}

func TestMarkHintUsedCopies(t *testing.T) {
	a := New()
	b := a.MarkHintUsed(2)
	if a.HintsUsed[2] {
		t.Fatal("MarkHintUsed mutated the receiver's map")
	}
	if !b.HintsUsed[2] {
		t.Fatal("hint not recorded")
	}
}
