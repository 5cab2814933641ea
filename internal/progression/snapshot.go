package progression

// Snapshot is the progression state of one user.
type Snapshot struct {
	UserID string
	XP     int
	Level  int
	// BadgeIDs only grows.
	BadgeIDs map[string]struct{}
	// Completed is the replay guard: activity id -> kind it was credited as.
	Completed         map[string]ActivityKind
	PerfectScoreCount int
}

// NewSnapshot returns the state of a freshly provisioned account.
func NewSnapshot(userID string) *Snapshot {
	return &Snapshot{
		UserID:    userID,
		Level:     1,
		BadgeIDs:  make(map[string]struct{}),
		Completed: make(map[string]ActivityKind),
	}
}

// HasBadge reports whether the badge is held.
func (s *Snapshot) HasBadge(id string) bool {
	_, ok := s.BadgeIDs[id]
	return ok
}

// HasCompleted reports whether the activity has already been rewarded.
func (s *Snapshot) HasCompleted(activityID string) bool {
	_, ok := s.Completed[activityID]
	return ok
}

// Counts derives the per-kind completion counters.
func (s *Snapshot) Counts() DerivedCounts {
	c := CountCompleted(s.Completed)
	c.PerfectScoreCount = s.PerfectScoreCount
	return c
}

// BadgeList returns held badge ids in catalog order; ids unknown to catalog
// are appended at the end.
func (s *Snapshot) BadgeList(catalog *Catalog) []string {
	out := make([]string, 0, len(s.BadgeIDs))
	seen := make(map[string]bool, len(s.BadgeIDs))
	for _, b := range catalog.All() {
		if s.HasBadge(b.ID) {
			out = append(out, b.ID)
			seen[b.ID] = true
		}
	}
	for id := range s.BadgeIDs {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		UserID:            s.UserID,
		XP:                s.XP,
		Level:             s.Level,
		BadgeIDs:          make(map[string]struct{}, len(s.BadgeIDs)),
		Completed:         make(map[string]ActivityKind, len(s.Completed)),
		PerfectScoreCount: s.PerfectScoreCount,
	}
	for id := range s.BadgeIDs {
		c.BadgeIDs[id] = struct{}{}
	}
	for id, kind := range s.Completed {
		c.Completed[id] = kind
	}
	return c
}
