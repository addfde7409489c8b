// Package tally computes proposal results. Tally is a pure function of
// the option set and the vote set: same inputs in any order give the same
// result, bit for bit.
package tally

import (
	"sort"

	"dao-governance-backend/models"
)

// Tally recomputes the full result for a proposal. Every option appears
// exactly once in the output, including options nobody voted for; the
// output is ordered by option rank (ties broken by option id) so it is
// stable regardless of input order. VoteCount counts vote records,
// VotePower counts consumed token instances; votes referencing an option
// not in the option set are skipped entirely. When no power has been
// cast every share is 0.
func Tally(proposalID string, options []models.ProposalOption, votes []models.ProposalVote) models.ProposalResult {
	powerByOption := make(map[string]int64, len(options))
	for _, opt := range options {
		powerByOption[opt.OptionID] = 0
	}

	var voteCount, totalPower int64
	for _, vote := range votes {
		if _, ok := powerByOption[vote.OptionID]; !ok {
			continue
		}
		voteCount++
		totalPower += vote.Power
		powerByOption[vote.OptionID] += vote.Power
	}

	ordered := make([]models.ProposalOption, len(options))
	copy(ordered, options)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Rank != ordered[j].Rank {
			return ordered[i].Rank < ordered[j].Rank
		}
		return ordered[i].OptionID < ordered[j].OptionID
	})

	results := make(models.ResultOptionList, 0, len(ordered))
	for _, opt := range ordered {
		share := 0.0
		if totalPower > 0 {
			share = float64(powerByOption[opt.OptionID]) / float64(totalPower)
		}
		results = append(results, models.ResultOption{
			OptionID: opt.OptionID,
			Label:    opt.Label,
			Share:    share,
		})
	}

	return models.ProposalResult{
		ProposalID: proposalID,
		VoteCount:  voteCount,
		VotePower:  totalPower,
		Options:    results,
	}
}
