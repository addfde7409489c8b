package handlers

import (
	"log"
	"net/http"

	"dao-governance-backend/database"
	"dao-governance-backend/mq"
	"dao-governance-backend/service"

	"github.com/gin-gonic/gin"
)

// CastVote records a vote on a proposal. The vote commits synchronously;
// the event published afterwards only drives live result fan-out, so a
// queue failure never rolls back a recorded vote.
func CastVote(c *gin.Context) {
	var input service.CastVoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.ProposalID = c.Param("proposalId")

	// The bloom filter rejects votes for proposals that were never
	// created without touching the database or taking the vote lock.
	if proposalFilter != nil {
		if known, err := proposalFilter.Contains(c.Request.Context(), input.ProposalID); err == nil && !known {
			abortWithError(c, database.ErrNotFound)
			return
		}
	}

	vote, result, err := service.CastVote(gate(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if mqAdapter != nil {
		proposal, perr := service.GetProposal(vote.ProposalID)
		daoID := ""
		if perr == nil {
			daoID = proposal.DaoID
		}
		event := mq.NewVoteEvent(daoID, vote.ProposalID, vote.VoteID, vote.OptionID, vote.Entity, vote.Power)
		if err := mqAdapter.PublishVote(event); err != nil {
			log.Printf("Failed to publish vote event for proposal %s: %v", vote.ProposalID, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"vote":   vote,
		"result": result,
	})
}

// GetVotes lists the votes recorded on a proposal.
func GetVotes(c *gin.Context) {
	proposal, err := service.GetProposal(c.Param("proposalId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": proposal.Votes, "count": len(proposal.Votes)})
}
