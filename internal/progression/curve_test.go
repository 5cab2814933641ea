package progression

import "testing"

func TestNewLevelCurve_RejectsNonPositive(t *testing.T) {
	for _, v := range []int{0, -1, -1000} {
		if _, err := NewLevelCurve(v); err == nil {
			t.Errorf("NewLevelCurve(%d) should fail", v)
		}
	}
}

func TestLevelCurve_Thresholds(t *testing.T) {
	c := MustLevelCurve(1000)
	tests := []struct {
		level int
		xp    int
	}{
		{0, 0},
		{1, 0},
		{2, 1000},
		{3, 2000},
		{10, 9000},
	}
	for _, tt := range tests {
		if got := c.XPForLevel(tt.level); got != tt.xp {
			t.Errorf("XPForLevel(%d) = %d, want %d", tt.level, got, tt.xp)
		}
	}
}

func TestLevelCurve_LevelForXP(t *testing.T) {
	c := MustLevelCurve(1000)
	tests := []struct {
		xp    int
		level int
	}{
		{-5, 1},
		{0, 1},
		{999, 1},
		{1000, 2},
		{1040, 2},
		{1999, 2},
		{2000, 3},
		{25000, 26},
	}
	for _, tt := range tests {
		if got := c.LevelForXP(tt.xp); got != tt.level {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.level)
		}
	}
}

func TestLevelCurve_MutuallyConsistent(t *testing.T) {
	for _, step := range []int{1, 100, 1000} {
		c := MustLevelCurve(step)
		for xp := 0; xp <= 5*step+3; xp++ {
			l := c.LevelForXP(xp)
			if lo, hi := c.XPForLevel(l), c.XPForLevel(l+1); lo > xp || xp >= hi {
				t.Fatalf("step %d xp %d: level %d has range [%d,%d)", step, xp, l, lo, hi)
			}
		}
	}
}

func TestLevelCurve_ZeroValueUsesDefault(t *testing.T) {
	var c LevelCurve
	if got := c.XPForLevel(2); got != DefaultXPPerLevel {
		t.Errorf("zero curve XPForLevel(2) = %d, want %d", got, DefaultXPPerLevel)
	}
}
