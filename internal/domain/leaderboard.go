package domain

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	School string `json:"school"`
	Points int    `json:"points"`
	Level  string `json:"level,omitempty"`
}

// NormalizeLeaderboardLimit applies the default for non-positive limits and caps the rest.
func NormalizeLeaderboardLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	default:
		return limit
	}
}
