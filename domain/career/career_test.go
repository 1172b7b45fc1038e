package career

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortCandidates(t *testing.T) {
	c := []Candidate{
		{JobID: "b", Similarity: 0.5},
		{JobID: "c", Similarity: 0.9},
		{JobID: "a", Similarity: 0.5},
	}

	SortCandidates(c)

	assert.Equal(t, []string{"c", "a", "b"}, CandidateIDs(c))
}

func TestSortRanked(t *testing.T) {
	r := []RankedItem{
		{JobID: "x", Score: -1},
		{JobID: "z", Score: 3},
		{JobID: "y", Score: 3},
	}

	SortRanked(r)

	assert.Equal(t, "y", r[0].JobID)
	assert.Equal(t, "z", r[1].JobID)
	assert.Equal(t, "x", r[2].JobID)
}

func TestCareer_Text(t *testing.T) {
	assert.Equal(t, "Nurse. Cares for patients", Career{Title: "Nurse", Description: "Cares for patients"}.Text())
	assert.Equal(t, "Nurse", Career{Title: "Nurse"}.Text())
	assert.Equal(t, "Cares", Career{Description: "Cares"}.Text())
}
