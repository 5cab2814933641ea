package progression

import "fmt"

// Rarity orders badges from common to legendary.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityRare
	RarityEpic
	RarityLegendary
)

var rarityNames = [...]string{"common", "rare", "epic", "legendary"}

func (r Rarity) String() string {
	if r < 0 || int(r) >= len(rarityNames) {
		return fmt.Sprintf("rarity(%d)", int(r))
	}
	return rarityNames[r]
}

// MarshalText renders the rarity by name in JSON payloads.
func (r Rarity) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Metric names the progression value a badge requirement is checked against.
type Metric string

const (
	MetricXP                        Metric = "xp"
	MetricLevel                     Metric = "level"
	MetricQuizzesCompleted          Metric = "quizzes_completed"
	MetricCodingChallengesCompleted Metric = "coding_challenges_completed"
	MetricPerfectScoreCount         Metric = "perfect_score_count"
)

// Requirement is the unlock rule of a badge: Metric must reach Threshold.
type Requirement struct {
	Metric    Metric `json:"metric"`
	Threshold int    `json:"threshold"`
}

// BadgeDefinition describes a single unlockable badge.
type BadgeDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon"`
	Rarity      Rarity      `json:"rarity"`
	Requirement Requirement `json:"requirement"`
}

// Catalog is the immutable, ordered badge table. Iteration order is the
// tie-break when several badges unlock in the same submission.
type Catalog struct {
	badges []BadgeDefinition
	byID   map[string]int
}

// NewCatalog validates defs and freezes them into a Catalog.
func NewCatalog(defs []BadgeDefinition) (*Catalog, error) {
	c := &Catalog{
		badges: make([]BadgeDefinition, len(defs)),
		byID:   make(map[string]int, len(defs)),
	}
	copy(c.badges, defs)
	for i, b := range c.badges {
		if b.ID == "" {
			return nil, fmt.Errorf("badge at index %d has empty id", i)
		}
		if _, dup := c.byID[b.ID]; dup {
			return nil, fmt.Errorf("duplicate badge id %q", b.ID)
		}
		switch b.Requirement.Metric {
		case MetricXP, MetricLevel, MetricQuizzesCompleted, MetricCodingChallengesCompleted, MetricPerfectScoreCount:
		default:
			return nil, fmt.Errorf("badge %q has unknown metric %q", b.ID, b.Requirement.Metric)
		}
		c.byID[b.ID] = i
	}
	return c, nil
}

// All returns the badges in catalog order. The slice is a copy.
func (c *Catalog) All() []BadgeDefinition {
	out := make([]BadgeDefinition, len(c.badges))
	copy(out, c.badges)
	return out
}

// ByID looks up a badge.
func (c *Catalog) ByID(id string) (BadgeDefinition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return BadgeDefinition{}, false
	}
	return c.badges[i], true
}

// Len returns the number of badges.
func (c *Catalog) Len() int { return len(c.badges) }

var defaultCatalog = mustCatalog(buildDefaultBadges())

// DefaultCatalog returns the process-wide built-in badge table.
func DefaultCatalog() *Catalog { return defaultCatalog }

func mustCatalog(defs []BadgeDefinition) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

func buildDefaultBadges() []BadgeDefinition {
	return []BadgeDefinition{
		{
			ID: "first-steps", Name: "First Steps",
			Description: "Complete your first quiz", Icon: "🎯",
			Rarity:      RarityCommon,
			Requirement: Requirement{Metric: MetricQuizzesCompleted, Threshold: 1},
		},
		{
			ID: "hello-world", Name: "Hello, World",
			Description: "Solve your first coding challenge", Icon: "💻",
			Rarity:      RarityCommon,
			Requirement: Requirement{Metric: MetricCodingChallengesCompleted, Threshold: 1},
		},
		{
			ID: "knowledge-seeker", Name: "Knowledge Seeker",
			Description: "Earn 100 XP", Icon: "📚",
			Rarity:      RarityCommon,
			Requirement: Requirement{Metric: MetricXP, Threshold: 100},
		},
		{
			ID: "rising-star", Name: "Rising Star",
			Description: "Reach level 2", Icon: "🌟",
			Rarity:      RarityCommon,
			Requirement: Requirement{Metric: MetricLevel, Threshold: 2},
		},
		{
			ID: "quiz-master", Name: "Quiz Master",
			Description: "Complete 10 quizzes", Icon: "🏆",
			Rarity:      RarityRare,
			Requirement: Requirement{Metric: MetricQuizzesCompleted, Threshold: 10},
		},
		{
			ID: "algorithm-ace", Name: "Algorithm Ace",
			Description: "Solve 5 coding challenges", Icon: "🧠",
			Rarity:      RarityRare,
			Requirement: Requirement{Metric: MetricCodingChallengesCompleted, Threshold: 5},
		},
		{
			ID: "perfectionist", Name: "Perfectionist",
			Description: "Get a perfect score on any activity", Icon: "⭐",
			Rarity:      RarityEpic,
			Requirement: Requirement{Metric: MetricPerfectScoreCount, Threshold: 1},
		},
		{
			ID: "veteran", Name: "Veteran",
			Description: "Reach level 5", Icon: "🛡️",
			Rarity:      RarityEpic,
			Requirement: Requirement{Metric: MetricLevel, Threshold: 5},
		},
		{
			ID: "coding-legend", Name: "Coding Legend",
			Description: "Earn 1000 XP", Icon: "👑",
			Rarity:      RarityLegendary,
			Requirement: Requirement{Metric: MetricXP, Threshold: 1000},
		},
	}
}
