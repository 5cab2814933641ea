package content

import (
	_ "embed"
	"errors"
	"fmt"

	"codesikho_backend/internal/progression"

	"gopkg.in/yaml.v3"
)

//go:embed activities.yaml
var defaultActivities []byte

var ErrUnknownActivity = errors.New("unknown activity")

// Activity is a static quiz, coding challenge or mini-game definition.
type Activity struct {
	ID         string                   `yaml:"id" json:"id"`
	Title      string                   `yaml:"title" json:"title"`
	Kind       progression.ActivityKind `yaml:"-" json:"kind"`
	Difficulty string                   `yaml:"difficulty" json:"difficulty"`
	Topic      string                   `yaml:"topic" json:"topic"`
	Points     int                      `yaml:"points" json:"points"`
	Questions  int                      `yaml:"questions" json:"questions,omitempty"`
	TestCases  int                      `yaml:"test_cases" json:"testCases,omitempty"`
	TimeLimit  int                      `yaml:"time_limit" json:"timeLimit,omitempty"`
}

type catalogFile struct {
	Quizzes          []Activity `yaml:"quizzes"`
	CodingChallenges []Activity `yaml:"coding_challenges"`
	MiniGames        []Activity `yaml:"mini_games"`
}

// Catalog is the read-only activity table.
type Catalog struct {
	activities []Activity
	byID       map[string]int
}

// Load parses the embedded activity table.
func Load() (*Catalog, error) {
	return Parse(defaultActivities)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse activity catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]int)}
	groups := []struct {
		kind  progression.ActivityKind
		items []Activity
	}{
		{progression.KindQuiz, f.Quizzes},
		{progression.KindCodingChallenge, f.CodingChallenges},
		{progression.KindMiniGame, f.MiniGames},
	}
	for _, g := range groups {
		for _, a := range g.items {
			a.Kind = g.kind
			if a.ID == "" {
				return nil, fmt.Errorf("%s entry %q has no id", g.kind, a.Title)
			}
			if a.Points < 0 {
				return nil, fmt.Errorf("activity %q has negative points", a.ID)
			}
			if _, dup := c.byID[a.ID]; dup {
				return nil, fmt.Errorf("duplicate activity id %q", a.ID)
			}
			c.byID[a.ID] = len(c.activities)
			c.activities = append(c.activities, a)
		}
	}
	return c, nil
}

// Get returns the activity with id.
func (c *Catalog) Get(id string) (Activity, error) {
	i, ok := c.byID[id]
	if !ok {
		return Activity{}, fmt.Errorf("%w: %s", ErrUnknownActivity, id)
	}
	return c.activities[i], nil
}

// List returns activities of kind, or all when kind is empty.
func (c *Catalog) List(kind progression.ActivityKind) []Activity {
	out := make([]Activity, 0, len(c.activities))
	for _, a := range c.activities {
		if kind == "" || a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}
