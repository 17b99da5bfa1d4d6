// Package scoring computes the scoreboard ordering for a room's players.
package scoring

import (
	"math"
	"sort"

	"leetrace/internal/domain"
)

// Entry is one row of the scoreboard
type Entry struct {
	Position    int      `json:"position"`
	Name        string   `json:"name"`
	Solved      bool     `json:"solved"`
	CharCount   int      `json:"char_count"`
	SubmitTime  float64  `json:"submit_time"`
	LockedAt    *float64 `json:"locked_at"`
	TestsPassed int      `json:"tests_passed"`
	TestsTotal  int      `json:"tests_total"`
	Error       string   `json:"error,omitempty"`
	Code        *string  `json:"code"`
}

// Rank orders a room's players for the scoreboard, best first:
//  1. Solved before unsolved
//  2. More tests passed
//  3. Fewer characters (only meaningful among solved entries)
//  4. Earlier lock-in time (never locked sorts last among ties)
//
// Positions are 1-indexed with no gaps. Players without a submission get a
// sentinel worst record. Only pass includeCode=true for end-of-round
// payloads; live scoreboard updates must not leak opponent code mid-game.
func Rank(players map[string]*domain.Player, includeCode bool) []Entry {
	names := make([]string, 0, len(players))
	for name := range players {
		names = append(names, name)
	}
	// Deterministic base order so equal keys always rank identically.
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		player := players[name]
		entry := Entry{Name: name, LockedAt: player.LockedAt}

		if sub := player.Best; sub != nil {
			entry.Solved = sub.Solved
			entry.CharCount = sub.CharCount
			entry.SubmitTime = sub.SubmitTime
			entry.TestsPassed = sub.Passed
			entry.TestsTotal = sub.Total
			entry.Error = sub.Error
			if includeCode {
				code := sub.Code
				entry.Code = &code
			}
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		if a.Solved != b.Solved {
			return a.Solved
		}
		if a.TestsPassed != b.TestsPassed {
			return a.TestsPassed > b.TestsPassed
		}
		// Character count only separates solved entries; unsolved entries
		// contribute a neutral value so it cannot affect their order.
		ac, bc := 0, 0
		if a.Solved {
			ac = a.CharCount
		}
		if b.Solved {
			bc = b.CharCount
		}
		if ac != bc {
			return ac < bc
		}
		return lockKey(a.LockedAt) < lockKey(b.LockedAt)
	})

	for i := range entries {
		entries[i].Position = i + 1
	}

	return entries
}

func lockKey(lockedAt *float64) float64 {
	if lockedAt == nil {
		return math.Inf(1)
	}
	return *lockedAt
}
