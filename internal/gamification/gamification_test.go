package gamification

import "testing"

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{1, 1},
		{99, 1},
		{100, 2},
		{105, 2},
		{199, 2},
		{200, 3},
		{950, 10},
		{-5, 1},
	}

	for _, c := range cases {
		if got := LevelForXP(c.xp); got != c.level {
			t.Errorf("LevelForXP(%d) = %d, want %d", c.xp, got, c.level)
		}
	}
}

// level == floor(xp/100)+1 must hold for any award sequence.
func TestLevelConsistentUnderAwards(t *testing.T) {
	awards := []int{0, 10, 95, 500, 1, 99, 100, 250}

	xp := 0
	level := LevelForXP(xp)
	for _, amount := range awards {
		prev := xp
		xp += amount
		if xp < prev {
			t.Fatalf("xp decreased from %d to %d", prev, xp)
		}
		newLevel := LevelForXP(xp)
		if newLevel < level {
			t.Fatalf("level decreased from %d to %d", level, newLevel)
		}
		if want := xp/XPPerLevel + 1; newLevel != want {
			t.Fatalf("level %d inconsistent with xp %d (want %d)", newLevel, xp, want)
		}
		level = newLevel
	}
}

func TestLargeAwardSkipsLevels(t *testing.T) {
	before := LevelForXP(95)
	after := LevelForXP(95 + 500)
	if after-before != 5 {
		t.Errorf("expected a 500 XP award at 95 XP to cross 5 levels, crossed %d", after-before)
	}
}
