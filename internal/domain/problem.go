package domain

import "strings"

// Problem is a coding problem served to a room. Test cases are hidden from
// players; only the session hands them to the sandbox.
type Problem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Difficulty  string   `json:"difficulty"`
	Description string   `json:"description"`
	EntryPoint  string   `json:"entry_point"`
	StarterCode string   `json:"starter_code"`
	Preamble    string   `json:"preamble"`
	TestCases   []string `json:"test_cases"`
	Tags        []string `json:"tags,omitempty"`
}

// AnyOrder reports whether list-valued results should be compared
// order-insensitively. This is a heuristic scan of the description text for
// the literal phrase "any order"; it has known false positives and negatives
// and is kept as-is for compatibility with the problem dataset.
func (p *Problem) AnyOrder() bool {
	return strings.Contains(strings.ToLower(p.Description), "any order")
}
