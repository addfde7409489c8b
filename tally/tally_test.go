package tally

import (
	"math/rand"
	"testing"

	"dao-governance-backend/models"

	"github.com/stretchr/testify/assert"
)

func options() []models.ProposalOption {
	return []models.ProposalOption{
		{ProposalID: "p1", OptionID: "o2", Rank: 1, Label: "No"},
		{ProposalID: "p1", OptionID: "o1", Rank: 0, Label: "Yes"},
		{ProposalID: "p1", OptionID: "o3", Rank: 2, Label: "Abstain"},
	}
}

func TestTallyEmpty(t *testing.T) {
	result := Tally("p1", options(), nil)

	assert.Equal(t, "p1", result.ProposalID)
	assert.Equal(t, int64(0), result.VoteCount)
	assert.Equal(t, int64(0), result.VotePower)
	assert.Len(t, result.Options, 3)
	for _, opt := range result.Options {
		assert.Equal(t, 0.0, opt.Share)
	}
}

func TestTallyOrderedByRank(t *testing.T) {
	result := Tally("p1", options(), nil)

	assert.Equal(t, "o1", result.Options[0].OptionID)
	assert.Equal(t, "o2", result.Options[1].OptionID)
	assert.Equal(t, "o3", result.Options[2].OptionID)
	assert.Equal(t, "Yes", result.Options[0].Label)
}

func TestTallyWeightedShares(t *testing.T) {
	votes := []models.ProposalVote{
		{ProposalID: "p1", VoteID: "v1", OptionID: "o1", Power: 2},
		{ProposalID: "p1", VoteID: "v2", OptionID: "o1", Power: 1},
		{ProposalID: "p1", VoteID: "v3", OptionID: "o2", Power: 1},
	}

	result := Tally("p1", options(), votes)

	assert.Equal(t, int64(3), result.VoteCount)
	assert.Equal(t, int64(4), result.VotePower)
	assert.InDelta(t, 0.75, result.Options[0].Share, 1e-9)
	assert.InDelta(t, 0.25, result.Options[1].Share, 1e-9)
	assert.Equal(t, 0.0, result.Options[2].Share)

	total := 0.0
	for _, opt := range result.Options {
		total += opt.Share
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestTallySingleOptionTakesAll(t *testing.T) {
	votes := []models.ProposalVote{
		{ProposalID: "p1", VoteID: "v1", OptionID: "o1", Power: 2},
		{ProposalID: "p1", VoteID: "v2", OptionID: "o1", Power: 1},
	}

	result := Tally("p1", options(), votes)

	assert.Equal(t, int64(2), result.VoteCount)
	assert.Equal(t, int64(3), result.VotePower)
	assert.Equal(t, 1.0, result.Options[0].Share)
	assert.Equal(t, 0.0, result.Options[1].Share)
}

func TestTallyIgnoresVotesForUnknownOptions(t *testing.T) {
	votes := []models.ProposalVote{
		{ProposalID: "p1", VoteID: "v1", OptionID: "o1", Power: 1},
		{ProposalID: "p1", VoteID: "v2", OptionID: "ghost", Power: 5},
	}

	result := Tally("p1", options(), votes)

	assert.Equal(t, int64(1), result.VoteCount)
	assert.Equal(t, int64(1), result.VotePower)
	assert.Equal(t, 1.0, result.Options[0].Share)
}

func TestTallyDeterministicUnderPermutation(t *testing.T) {
	votes := []models.ProposalVote{
		{ProposalID: "p1", VoteID: "v1", OptionID: "o1", Power: 2},
		{ProposalID: "p1", VoteID: "v2", OptionID: "o2", Power: 3},
		{ProposalID: "p1", VoteID: "v3", OptionID: "o3", Power: 1},
		{ProposalID: "p1", VoteID: "v4", OptionID: "o1", Power: 4},
	}

	reference := Tally("p1", options(), votes)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffledVotes := make([]models.ProposalVote, len(votes))
		copy(shuffledVotes, votes)
		rng.Shuffle(len(shuffledVotes), func(a, b int) {
			shuffledVotes[a], shuffledVotes[b] = shuffledVotes[b], shuffledVotes[a]
		})

		shuffledOptions := options()
		rng.Shuffle(len(shuffledOptions), func(a, b int) {
			shuffledOptions[a], shuffledOptions[b] = shuffledOptions[b], shuffledOptions[a]
		})

		assert.Equal(t, reference, Tally("p1", shuffledOptions, shuffledVotes))
	}
}

func TestTallyTieBreaksOnOptionID(t *testing.T) {
	tied := []models.ProposalOption{
		{ProposalID: "p1", OptionID: "b", Rank: 0, Label: "B"},
		{ProposalID: "p1", OptionID: "a", Rank: 0, Label: "A"},
	}

	result := Tally("p1", tied, nil)

	assert.Equal(t, "a", result.Options[0].OptionID)
	assert.Equal(t, "b", result.Options[1].OptionID)
}
