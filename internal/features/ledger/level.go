// Package ledger — level.go: XP levels and reading badges.
//
// Level = floor(sqrt(xp/100)) + 1, so the XP needed for level L is
// 100*(L-1)^2. Badges are derived from the account, never stored.
package ledger

import "math"

// Level returns the level for an XP total. Minimum level is 1.
func Level(xp int64) int {
	if xp < 0 {
		return 1
	}
	return int(math.Sqrt(float64(xp)/100)) + 1
}

// NextLevelXP returns the XP total required to reach the next level
// after currentLevel.
func NextLevelXP(currentLevel int) int64 {
	return 100 * int64(currentLevel) * int64(currentLevel)
}

// Progress returns how far through the current level the XP total is,
// as a percentage clamped to [0, 100].
func Progress(xp int64, currentLevel int) float64 {
	base := 100 * int64(currentLevel-1) * int64(currentLevel-1)
	next := NextLevelXP(currentLevel)
	span := next - base
	if span <= 0 {
		return 100
	}
	p := float64(xp-base) / float64(span) * 100
	return math.Min(100, math.Max(0, p))
}

// Badge is an achievement derived from account stats.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var badges = []struct {
	Badge
	earned func(a *Account) bool
}{
	{Badge{"novice_reader", "Novice Reader", "Read your first chapter."},
		func(a *Account) bool { return a.ChaptersRead >= 1 }},
	{Badge{"avid_reader", "Avid Reader", "Read 100 chapters."},
		func(a *Account) bool { return a.ChaptersRead >= 100 }},
	{Badge{"expert_reader", "Expert Reader", "Read 500 chapters."},
		func(a *Account) bool { return a.ChaptersRead >= 500 }},
	{Badge{"veteran", "Veteran", "Reached Level 10."},
		func(a *Account) bool { return Level(a.XP) >= 10 }},
}

// EarnedBadges returns the badges the account qualifies for.
func EarnedBadges(a *Account) []Badge {
	var out []Badge
	for _, b := range badges {
		if b.earned(a) {
			out = append(out, b.Badge)
		}
	}
	return out
}
