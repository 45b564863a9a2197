package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidThreshold = errors.New("badge threshold must be positive")
	ErrDuplicateBadge   = errors.New("badge threshold or name configured twice")
)

// BadgeThreshold awards Name to a user whose points reach Points.
type BadgeThreshold struct {
	Points int
	Name   string
}

// UserState is the part of a user the accrual rule reads and writes.
type UserState struct {
	Points int
	Held   map[string]bool
}

// BadgePolicy holds thresholds sorted ascending by points.
type BadgePolicy struct {
	thresholds []BadgeThreshold
}

func DefaultBadgePolicy() BadgePolicy {
	return BadgePolicy{thresholds: []BadgeThreshold{
		{Points: 100, Name: "Eco-Warrior Level 1"},
		{Points: 500, Name: "Eco-Champion"},
	}}
}

func NewBadgePolicy(thresholds []BadgeThreshold) (BadgePolicy, error) {
	sorted := make([]BadgeThreshold, len(thresholds))
	copy(sorted, thresholds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Points < sorted[j].Points })

	names := make(map[string]bool, len(sorted))
	for i, t := range sorted {
		if t.Points <= 0 || t.Name == "" {
			return BadgePolicy{}, fmt.Errorf("%q at %d: %w", t.Name, t.Points, ErrInvalidThreshold)
		}
		if names[t.Name] || (i > 0 && sorted[i-1].Points == t.Points) {
			return BadgePolicy{}, fmt.Errorf("%q at %d: %w", t.Name, t.Points, ErrDuplicateBadge)
		}
		names[t.Name] = true
	}

	return BadgePolicy{thresholds: sorted}, nil
}

func (p BadgePolicy) Thresholds() []BadgeThreshold {
	out := make([]BadgeThreshold, len(p.thresholds))
	copy(out, p.thresholds)
	return out
}

// Accrue adds reward to the state and returns every badge this reward crossed
// that the user does not already hold. Each threshold is checked on its own so
// a single large reward can award several badges. The input state is not modified.
func (p BadgePolicy) Accrue(state UserState, reward int) (UserState, []BadgeThreshold) {
	next := UserState{
		Points: state.Points + reward,
		Held:   make(map[string]bool, len(state.Held)+len(p.thresholds)),
	}
	for name := range state.Held {
		next.Held[name] = true
	}

	var awarded []BadgeThreshold
	for _, t := range p.thresholds {
		crossed := next.Points >= t.Points && next.Points-reward < t.Points
		if !crossed || next.Held[t.Name] {
			continue
		}
		next.Held[t.Name] = true
		awarded = append(awarded, t)
	}

	return next, awarded
}
