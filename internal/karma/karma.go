// Package karma implements the reputation engine: fixed reward constants for
// content-interaction events and the pure level derivation from cumulative
// points. Nothing in this package touches storage.
package karma

// Reward deltas applied to the content author (never the acting voter).
const (
	RewardAskQuestion      = 5
	RewardPostAnswer       = 10
	RewardQuestionUpvote   = 2
	RewardQuestionDownvote = -1
	RewardAnswerUpvote     = 5
	RewardAnswerDownvote   = -2
	RewardAnswerAccepted   = 25
)

// Level is one tier of the reputation ladder.
type Level struct {
	Level     int    `json:"level"`
	Title     string `json:"title"`
	MinKarma  int    `json:"min_karma"`
	NextKarma *int   `json:"next_level_karma,omitempty"`
}

// levels is the fixed ascending threshold table. The level for a karma value
// is the highest tier whose floor does not exceed it.
var levels = []struct {
	min   int
	title string
}{
	{0, "Newcomer"},
	{25, "Contributor"},
	{100, "Regular"},
	{250, "Enthusiast"},
	{500, "Expert"},
	{1000, "Veteran"},
	{2500, "Legend"},
}

// ForKarma derives the level for a karma value. It is total and
// deterministic; negative input is treated as zero, matching the storage
// clamp. NextKarma is nil at the top tier.
func ForKarma(karma int) Level {
	if karma < 0 {
		karma = 0
	}
	idx := 0
	for i, l := range levels {
		if karma >= l.min {
			idx = i
		}
	}
	lvl := Level{
		Level:    idx + 1,
		Title:    levels[idx].title,
		MinKarma: levels[idx].min,
	}
	if idx+1 < len(levels) {
		next := levels[idx+1].min
		lvl.NextKarma = &next
	}
	return lvl
}
