package progression

import (
	"sort"
	"time"
)

// StreakPassScore is the lowest score that keeps a streak alive.
const StreakPassScore = 70

// HistoryRecord is one credited activity as seen by the stats view.
type HistoryRecord struct {
	ActivityID       string       `json:"activityId"`
	Kind             ActivityKind `json:"activityKind"`
	Score            int          `json:"score"`
	XPEarned         int          `json:"xpEarned"`
	TimeSpentSeconds int          `json:"timeSpent"`
	CompletedAt      time.Time    `json:"completedAt"`
}

// DisplayStats is the read-only statistics view of a user.
type DisplayStats struct {
	TotalXP                   int     `json:"totalXp"`
	CurrentLevel              int     `json:"currentLevel"`
	CurrentLevelXP            int     `json:"currentLevelXp"`
	NextLevelXP               int     `json:"nextLevelXp"`
	XPIntoLevel               int     `json:"xpIntoLevel"`
	XPForNextLevel            int     `json:"xpForNextLevel"`
	LevelProgressPct          float64 `json:"levelProgressPct"`
	QuizzesCompleted          int     `json:"quizzesCompleted"`
	CodingChallengesCompleted int     `json:"codingChallengesCompleted"`
	MiniGamesCompleted        int     `json:"miniGamesCompleted"`
	PerfectScoreCount         int     `json:"perfectScores"`
	AverageScore              int     `json:"averageScore"`
	CurrentStreak             int     `json:"currentStreak"`
	LongestStreak             int     `json:"longestStreak"`
	TimeSpentMinutes          int     `json:"timeSpentLearning"`
}

// ComputeStats derives the display statistics. history is expected most
// recent first; records with timestamps are re-sorted defensively, records
// without keep their given order.
func ComputeStats(snapshot *Snapshot, history []HistoryRecord, curve LevelCurve) DisplayStats {
	recent := make([]HistoryRecord, len(history))
	copy(recent, history)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CompletedAt.After(recent[j].CompletedAt)
	})

	counts := CountCompleted(snapshot.Completed)
	level := curve.LevelForXP(snapshot.XP)
	base := curve.XPForLevel(level)
	next := curve.XPForLevel(level + 1)

	st := DisplayStats{
		TotalXP:                   snapshot.XP,
		CurrentLevel:              level,
		CurrentLevelXP:            base,
		NextLevelXP:               next,
		XPIntoLevel:               snapshot.XP - base,
		XPForNextLevel:            next - base,
		QuizzesCompleted:          counts.QuizzesCompleted,
		CodingChallengesCompleted: counts.CodingChallengesCompleted,
		MiniGamesCompleted:        len(snapshot.Completed) - counts.QuizzesCompleted - counts.CodingChallengesCompleted,
		CurrentStreak:             currentStreak(recent),
		LongestStreak:             longestStreak(recent),
		AverageScore:              averageScore(recent),
	}
	if st.XPForNextLevel > 0 {
		st.LevelProgressPct = float64(st.XPIntoLevel) / float64(st.XPForNextLevel) * 100
	}

	seconds := 0
	for _, r := range recent {
		if r.Score == PerfectScore {
			st.PerfectScoreCount++
		}
		seconds += r.TimeSpentSeconds
	}
	st.TimeSpentMinutes = roundDiv(seconds, 60)
	return st
}

func currentStreak(recent []HistoryRecord) int {
	streak := 0
	for _, r := range recent {
		if r.Score < StreakPassScore {
			break
		}
		streak++
	}
	return streak
}

// longestStreak walks oldest to newest.
func longestStreak(recent []HistoryRecord) int {
	best, run := 0, 0
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Score >= StreakPassScore {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return best
}

func averageScore(recent []HistoryRecord) int {
	if len(recent) == 0 {
		return 0
	}
	total := 0
	for _, r := range recent {
		total += r.Score
	}
	return roundDiv(total, len(recent))
}

// roundDiv divides non-negative a by b rounding halves up.
func roundDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (2*a + b) / (2 * b)
}
