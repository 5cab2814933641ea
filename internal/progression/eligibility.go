package progression

// MetricValue reads metric from post-event candidate values.
func MetricValue(metric Metric, xp, level int, counts DerivedCounts) int {
	switch metric {
	case MetricXP:
		return xp
	case MetricLevel:
		return level
	case MetricQuizzesCompleted:
		return counts.QuizzesCompleted
	case MetricCodingChallengesCompleted:
		return counts.CodingChallengesCompleted
	case MetricPerfectScoreCount:
		return counts.PerfectScoreCount
	default:
		return 0
	}
}

// IsNewlyEligible reports whether badge is not yet held by snapshot and its
// requirement is met by the candidate (post-event) values.
func IsNewlyEligible(snapshot *Snapshot, candidateXP, candidateLevel int, counts DerivedCounts, badge BadgeDefinition) bool {
	if snapshot.HasBadge(badge.ID) {
		return false
	}
	return MetricValue(badge.Requirement.Metric, candidateXP, candidateLevel, counts) >= badge.Requirement.Threshold
}

// BadgeProgress is the achievement view of one badge for one user.
type BadgeProgress struct {
	Badge      BadgeDefinition `json:"badge"`
	Unlocked   bool            `json:"unlocked"`
	Current    int             `json:"current"`
	Target     int             `json:"target"`
	Percentage float64         `json:"percentage"`
}

// Progress reports how far snapshot is from every badge in catalog, in catalog order.
func Progress(catalog *Catalog, snapshot *Snapshot) []BadgeProgress {
	counts := snapshot.Counts()
	out := make([]BadgeProgress, 0, catalog.Len())
	for _, b := range catalog.All() {
		current := MetricValue(b.Requirement.Metric, snapshot.XP, snapshot.Level, counts)
		p := BadgeProgress{
			Badge:    b,
			Unlocked: snapshot.HasBadge(b.ID),
			Current:  current,
			Target:   b.Requirement.Threshold,
		}
		switch {
		case p.Unlocked || p.Target <= 0:
			p.Percentage = 100
		default:
			p.Percentage = min(100, float64(current)/float64(p.Target)*100)
		}
		out = append(out, p)
	}
	return out
}
