package focus

import "testing"

func TestXPForDuration(t *testing.T) {
	cases := []struct {
		minutes int
		xp      int
	}{
		{0, 0},
		{1, 2},
		{25, 50},
		{249, 498},
		{250, 500},
		{251, 500}, // capped
		{100000, 500},
		{-10, 0},
	}

	for _, c := range cases {
		if got := XPForDuration(c.minutes); got != c.xp {
			t.Errorf("XPForDuration(%d) = %d, want %d", c.minutes, got, c.xp)
		}
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range []Category{CategoryStudy, CategoryWork, CategoryReading, CategoryMeeting} {
		if !ValidCategory(c) {
			t.Errorf("expected %q to be valid", c)
		}
	}
	if ValidCategory("gaming") {
		t.Error("expected unknown category to be invalid")
	}
}
