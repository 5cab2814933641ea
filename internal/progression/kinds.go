package progression

// ActivityKind identifies which activity source produced a submission.
type ActivityKind string

const (
	KindQuiz            ActivityKind = "quiz"
	KindCodingChallenge ActivityKind = "coding_challenge"
	KindMiniGame        ActivityKind = "mini_game"
)

// Valid reports whether k is one of the known activity kinds.
func (k ActivityKind) Valid() bool {
	switch k {
	case KindQuiz, KindCodingChallenge, KindMiniGame:
		return true
	}
	return false
}

// CountedMetric is the completion counter an activity kind contributes to.
type CountedMetric int

const (
	CountsNothing CountedMetric = iota
	CountsQuizzes
	CountsCodingChallenges
)

// kindCounters is the one place that decides which kind feeds which counter.
// Mini-games are credited (XP, challenge count) but are neither quizzes nor
// coding challenges.
var kindCounters = map[ActivityKind]CountedMetric{
	KindQuiz:            CountsQuizzes,
	KindCodingChallenge: CountsCodingChallenges,
	KindMiniGame:        CountsNothing,
}

// Classify returns the completion counter for kind.
func Classify(kind ActivityKind) CountedMetric {
	return kindCounters[kind]
}

// DerivedCounts are the per-kind completion counters badges are evaluated against.
type DerivedCounts struct {
	QuizzesCompleted          int
	CodingChallengesCompleted int
	PerfectScoreCount         int
}

// CountCompleted partitions a completed-activity set by kind using Classify.
func CountCompleted(completed map[string]ActivityKind) DerivedCounts {
	var c DerivedCounts
	for _, kind := range completed {
		c.add(kind)
	}
	return c
}

func (c *DerivedCounts) add(kind ActivityKind) {
	switch Classify(kind) {
	case CountsQuizzes:
		c.QuizzesCompleted++
	case CountsCodingChallenges:
		c.CodingChallengesCompleted++
	}
}
