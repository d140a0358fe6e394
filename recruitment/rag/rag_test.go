package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankByOverallRebuildsOrder(t *testing.T) {
	c := &CandidateComparison{
		Scores: []CandidateScore{
			{UID: "uid-a", OverallScore: 7.4},
			{UID: "uid-b", OverallScore: 8.1},
			{UID: "uid-c", OverallScore: 6.0},
		},
		// The model ranked by its own reasoning; scores win.
		RankedUIDs: []string{"uid-a", "uid-c", "uid-b"},
	}

	c.RankByOverall()

	assert.Equal(t, []string{"uid-b", "uid-a", "uid-c"}, c.RankedUIDs)
	// Scores themselves keep their original order.
	assert.Equal(t, "uid-a", c.Scores[0].UID)
}

func TestRankByOverallKeepsTieOrder(t *testing.T) {
	c := &CandidateComparison{
		Scores: []CandidateScore{
			{UID: "uid-a", OverallScore: 7.0},
			{UID: "uid-b", OverallScore: 7.0},
		},
	}

	c.RankByOverall()

	assert.Equal(t, []string{"uid-a", "uid-b"}, c.RankedUIDs)
}
