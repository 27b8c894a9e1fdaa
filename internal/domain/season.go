package domain

import (
	"fmt"
	"strings"
	"time"
)

// SeasonPolicy maps calendar months onto named seasons. Groupings[i] holds the
// months of Names[i]; Start picks the season that opens the cyclical order,
// e.g. "Fall" for a water year beginning in October.
type SeasonPolicy struct {
	Groupings [][]time.Month
	Names     []string
	Start     string

	byMonth [13]int
	order   []int
}

// DefaultSeasonPolicy groups calendar quarters as Winter, Spring, Summer, Fall
// starting in Winter.
func DefaultSeasonPolicy() *SeasonPolicy {
	p, err := NewSeasonPolicy(
		[][]time.Month{
			{time.January, time.February, time.March},
			{time.April, time.May, time.June},
			{time.July, time.August, time.September},
			{time.October, time.November, time.December},
		},
		[]string{"Winter", "Spring", "Summer", "Fall"},
		"Winter",
	)
	if err != nil {
		panic(err)
	}
	return p
}

// NewSeasonPolicy validates that every month 1-12 belongs to exactly one
// season, names are unique and non-empty, and start is one of the names. An
// empty start defaults to the first name.
func NewSeasonPolicy(groupings [][]time.Month, names []string, start string) (*SeasonPolicy, error) {
	if len(groupings) == 0 {
		return nil, fmt.Errorf("%w: no season groupings", ErrInvalidSeason)
	}
	if len(names) != len(groupings) {
		return nil, fmt.Errorf("%w: %d season names for %d groupings", ErrInvalidSeason, len(names), len(groupings))
	}

	p := &SeasonPolicy{Groupings: groupings, Names: names, Start: start}
	for i := range p.byMonth {
		p.byMonth[i] = -1
	}

	seen := make(map[string]bool, len(names))
	startIdx := -1
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty season name at position %d", ErrInvalidSeason, i)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate season name %q", ErrInvalidSeason, name)
		}
		seen[name] = true
		if name == start {
			startIdx = i
		}

		for _, m := range groupings[i] {
			if m < time.January || m > time.December {
				return nil, fmt.Errorf("%w: month %d out of range", ErrInvalidSeason, m)
			}
			if prev := p.byMonth[m]; prev >= 0 {
				return nil, fmt.Errorf("%w: %s assigned to both %q and %q", ErrInvalidSeason, m, names[prev], name)
			}
			p.byMonth[m] = i
		}
	}

	for m := time.January; m <= time.December; m++ {
		if p.byMonth[m] < 0 {
			return nil, fmt.Errorf("%w: %s not assigned to any season", ErrInvalidSeason, m)
		}
	}

	if start == "" {
		startIdx = 0
		p.Start = names[0]
	}
	if startIdx < 0 {
		return nil, fmt.Errorf("%w: start season %q is not a season name", ErrInvalidSeason, start)
	}

	p.order = make([]int, len(names))
	for i := range names {
		p.order[i] = (startIdx + i) % len(names)
	}
	return p, nil
}

// Season returns the season label for t.
func (p *SeasonPolicy) Season(t time.Time, abbreviate bool) string {
	return p.label(p.byMonth[t.Month()], abbreviate)
}

// Labels returns the season labels in cyclical order beginning at Start.
func (p *SeasonPolicy) Labels(abbreviate bool) []string {
	labels := make([]string, len(p.order))
	for i, idx := range p.order {
		labels[i] = p.label(idx, abbreviate)
	}
	return labels
}

// Validate reports ErrInvalidSeason when two labels become identical under
// the given abbreviation setting.
func (p *SeasonPolicy) Validate(abbreviate bool) error {
	seen := make(map[string]bool, len(p.order))
	for _, l := range p.Labels(abbreviate) {
		if seen[l] {
			return fmt.Errorf("%w: season label %q is ambiguous", ErrInvalidSeason, l)
		}
		seen[l] = true
	}
	return nil
}

func (p *SeasonPolicy) label(idx int, abbreviate bool) string {
	name := p.Names[idx]
	if abbreviate {
		return Abbreviate(name)
	}
	return name
}

// Abbreviate shortens a season label to its first three characters.
func Abbreviate(name string) string {
	r := []rune(name)
	if len(r) <= 3 {
		return name
	}
	return string(r[:3])
}
