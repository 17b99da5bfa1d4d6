package domain

// Submission is the structured result of one sandboxed code run.
// Immutable once produced.
type Submission struct {
	Code       string  `json:"code"`
	Passed     int     `json:"passed"`
	Total      int     `json:"total"`
	Error      string  `json:"error,omitempty"`
	TimeMS     int64   `json:"time_ms"`
	CharCount  int     `json:"char_count"`
	Solved     bool    `json:"solved"`
	SubmitTime float64 `json:"submit_time"` // seconds after round start
}

// BetterThan reports whether s should replace old as a player's best
// submission. Solved beats unsolved; among solved, fewer characters wins;
// among unsolved, more tests passed wins.
func (s *Submission) BetterThan(old *Submission) bool {
	if s.Solved && !old.Solved {
		return true
	}
	if !s.Solved && old.Solved {
		return false
	}
	if s.Solved && old.Solved {
		return s.CharCount < old.CharCount
	}
	return s.Passed > old.Passed
}
