package progression

import "fmt"

// DefaultXPPerLevel is the XP cost of every level when config does not override it.
const DefaultXPPerLevel = 1000

// LevelCurve maps levels to cumulative XP thresholds. It is linear: reaching
// level N costs (N-1)*XPPerLevel XP in total.
//
//	level 1 at 0, level 2 at 1000, level 3 at 2000, ...
//
// A single LevelCurve is built at startup and shared by every component that
// converts between XP and levels.
type LevelCurve struct {
	xpPerLevel int
}

// NewLevelCurve builds a curve with the given per-level cost.
func NewLevelCurve(xpPerLevel int) (LevelCurve, error) {
	if xpPerLevel <= 0 {
		return LevelCurve{}, fmt.Errorf("xp per level must be positive, got %d", xpPerLevel)
	}
	return LevelCurve{xpPerLevel: xpPerLevel}, nil
}

// MustLevelCurve is NewLevelCurve for constants known to be valid.
func MustLevelCurve(xpPerLevel int) LevelCurve {
	c, err := NewLevelCurve(xpPerLevel)
	if err != nil {
		panic(err)
	}
	return c
}

// XPPerLevel returns the per-level cost.
func (c LevelCurve) XPPerLevel() int {
	if c.xpPerLevel <= 0 {
		return DefaultXPPerLevel
	}
	return c.xpPerLevel
}

// XPForLevel returns the cumulative XP needed to reach level. Levels below 1
// are treated as level 1.
func (c LevelCurve) XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * c.XPPerLevel()
}

// LevelForXP returns the largest level whose threshold is <= xp.
func (c LevelCurve) LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	return xp/c.XPPerLevel() + 1
}
