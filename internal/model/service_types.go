package model

// LeaderboardMetric 排行榜指标
type LeaderboardMetric string

const (
	MetricXP         LeaderboardMetric = "xp"
	MetricBadges     LeaderboardMetric = "badges"
	MetricChallenges LeaderboardMetric = "challenges"
)

func (m LeaderboardMetric) Valid() bool {
	switch m {
	case MetricXP, MetricBadges, MetricChallenges:
		return true
	}
	return false
}

// Timeframe 排行榜时间范围
type Timeframe string

const (
	TimeframeAllTime Timeframe = "all_time"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeAllTime, TimeframeWeekly, TimeframeMonthly:
		return true
	}
	return false
}

// LeaderboardRow is one user_progress row plus the ranked metric value.
type LeaderboardRow struct {
	UserID         string `json:"userId"`
	DisplayName    string `json:"displayName"`
	Avatar         string `json:"avatar"`
	Level          int    `json:"level"`
	XP             int    `json:"xp"`
	BadgeCount     int    `json:"badgeCount"`
	ChallengeCount int    `json:"challengeCount"`
	Value          int64  `json:"value"`
}
