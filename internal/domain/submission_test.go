package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leetrace/internal/domain"
)

func TestSubmissionBetterThan(t *testing.T) {
	tests := []struct {
		name string
		sub  domain.Submission
		old  domain.Submission
		want bool
	}{
		{
			name: "solved beats unsolved",
			sub:  domain.Submission{Solved: true, CharCount: 500},
			old:  domain.Submission{Passed: 2, CharCount: 10},
			want: true,
		},
		{
			name: "unsolved never beats solved",
			sub:  domain.Submission{Passed: 3, CharCount: 5},
			old:  domain.Submission{Solved: true, CharCount: 900},
			want: false,
		},
		{
			name: "shorter solved beats longer solved",
			sub:  domain.Submission{Solved: true, CharCount: 40},
			old:  domain.Submission{Solved: true, CharCount: 60},
			want: true,
		},
		{
			name: "longer solved does not beat shorter solved",
			sub:  domain.Submission{Solved: true, CharCount: 60},
			old:  domain.Submission{Solved: true, CharCount: 40},
			want: false,
		},
		{
			name: "equal length solved keeps the old one",
			sub:  domain.Submission{Solved: true, CharCount: 40},
			old:  domain.Submission{Solved: true, CharCount: 40},
			want: false,
		},
		{
			name: "more tests passed beats fewer among unsolved",
			sub:  domain.Submission{Passed: 2},
			old:  domain.Submission{Passed: 1},
			want: true,
		},
		{
			name: "equal tests passed keeps the old one",
			sub:  domain.Submission{Passed: 1},
			old:  domain.Submission{Passed: 1},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.BetterThan(&tt.old))
		})
	}
}

func TestRecordSubmissionPromotesBest(t *testing.T) {
	player := domain.NewPlayer("alice", nil)

	wrong := &domain.Submission{Code: "a", Passed: 1, Total: 3, CharCount: 1}
	player.RecordSubmission(wrong)
	assert.Same(t, wrong, player.Best, "first submission is always best")

	longCorrect := &domain.Submission{Code: "b", Passed: 3, Total: 3, Solved: true, CharCount: 80}
	player.RecordSubmission(longCorrect)
	assert.Same(t, longCorrect, player.Best)

	shortWrong := &domain.Submission{Code: "c", Passed: 0, Total: 3, CharCount: 2}
	player.RecordSubmission(shortWrong)
	assert.Same(t, shortWrong, player.Submission, "latest always recorded")
	assert.Same(t, longCorrect, player.Best, "best survives a worse retry")

	shortCorrect := &domain.Submission{Code: "d", Passed: 3, Total: 3, Solved: true, CharCount: 30}
	player.RecordSubmission(shortCorrect)
	assert.Same(t, shortCorrect, player.Best)
}

func TestProblemAnyOrder(t *testing.T) {
	tests := []struct {
		description string
		want        bool
	}{
		{"Return the indices in any order.", true},
		{"You may return the answer in ANY ORDER.", true},
		{"Return the indices sorted ascending.", false},
		{"", false},
	}

	for _, tt := range tests {
		p := &domain.Problem{Description: tt.description}
		assert.Equal(t, tt.want, p.AnyOrder(), "description %q", tt.description)
	}
}
