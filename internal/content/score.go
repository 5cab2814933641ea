package content

import (
	"codesikho_backend/internal/progression"
)

// ScoreInput carries whichever raw result an activity source reports.
type ScoreInput struct {
	ScorePercent   *int
	CorrectAnswers int
	TotalQuestions int
	TestResults    []bool
}

// ScorePercent resolves a 0..100 score for activity. An explicit percentage
// wins; otherwise quizzes use correct/total and coding challenges use the
// sandbox's per-test-case results. A coding challenge scores 100 only when
// every test passes. Out-of-range values are passed through so that
// validation rejects them.
func ScorePercent(a Activity, in ScoreInput) (int, bool) {
	if in.ScorePercent != nil {
		return *in.ScorePercent, true
	}
	switch a.Kind {
	case progression.KindQuiz:
		if in.TotalQuestions > 0 {
			return ratio(in.CorrectAnswers, in.TotalQuestions), true
		}
	case progression.KindCodingChallenge:
		if len(in.TestResults) > 0 {
			passed := 0
			for _, ok := range in.TestResults {
				if ok {
					passed++
				}
			}
			return ratio(passed, len(in.TestResults)), true
		}
	}
	return 0, false
}

// ratio is round(100*n/d) with halves rounded up.
func ratio(n, d int) int {
	return (200*n + d) / (2 * d)
}

// Event turns a resolved activity into a progression event.
func Event(userID string, a Activity, scorePercent, timeSpentSeconds int) progression.Event {
	return progression.Event{
		UserID:           userID,
		ActivityID:       a.ID,
		Kind:             a.Kind,
		ScorePercent:     scorePercent,
		TimeSpentSeconds: timeSpentSeconds,
		RewardBasisXP:    a.Points,
	}
}
