package domain

import "sort"

// LevelLadder maps point totals to display titles. The entry with the highest
// threshold not above the user's points wins.
type LevelLadder struct {
	levels []BadgeThreshold
}

func DefaultLevelLadder() LevelLadder {
	return NewLevelLadder([]BadgeThreshold{
		{Points: 0, Name: "Beginner"},
		{Points: 50, Name: "Eco Warrior"},
		{Points: 80, Name: "Green Champion"},
	})
}

func NewLevelLadder(levels []BadgeThreshold) LevelLadder {
	sorted := make([]BadgeThreshold, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Points < sorted[j].Points })

	return LevelLadder{levels: sorted}
}

func (l LevelLadder) For(points int) string {
	name := ""
	for _, lvl := range l.levels {
		if points < lvl.Points {
			break
		}
		name = lvl.Name
	}

	return name
}
