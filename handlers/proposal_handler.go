package handlers

import (
	"net/http"

	"dao-governance-backend/auth"
	"dao-governance-backend/cache"
	"dao-governance-backend/models"
	"dao-governance-backend/service"

	"github.com/gin-gonic/gin"
)

// CreateProposalRequest wraps a new proposal with the admin proof
// publishing it.
type CreateProposalRequest struct {
	Proof    auth.AdminProof             `json:"proof" binding:"required"`
	Proposal service.CreateProposalInput `json:"proposal" binding:"required"`
}

// CreateProposal publishes a proposal into a DAO's registry.
func CreateProposal(c *gin.Context) {
	var req CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Proposal.DaoID = c.Param("id")

	proposal, err := service.CreateProposal(gate(), req.Proof, req.Proposal)
	if err != nil {
		abortWithError(c, err)
		return
	}

	// Filter errors are tolerated, lookups fall through to the database.
	if proposalFilter != nil {
		_ = proposalFilter.Add(c.Request.Context(), proposal.ID)
	}

	c.JSON(http.StatusCreated, proposal)
}

// AddOptionRequest wraps a new option with the admin proof adding it.
type AddOptionRequest struct {
	Proof  auth.AdminProof        `json:"proof" binding:"required"`
	Option service.AddOptionInput `json:"option" binding:"required"`
}

// AddProposalOption appends an option to a pending proposal.
func AddProposalOption(c *gin.Context) {
	var req AddOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Option.DaoID = c.Param("id")
	req.Option.ProposalID = c.Param("proposalId")

	option, err := service.AddOption(gate(), req.Proof, req.Option)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, option)
}

// GetProposal returns a proposal with options, votes, result and its
// current phase.
func GetProposal(c *gin.Context) {
	proposal, err := service.GetProposal(c.Param("proposalId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"proposal": proposal,
		"phase":    proposal.Phase(service.CurrentEpoch()),
	})
}

// ListProposals returns a DAO's proposals.
func ListProposals(c *gin.Context) {
	proposals, err := service.ListProposals(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals, "count": len(proposals)})
}

// GetProposalResult serves the cached result when available and falls
// back to the database copy.
func GetProposalResult(c *gin.Context) {
	proposalID := c.Param("proposalId")

	var cached models.ProposalResult
	if err := cache.GetProposalResult(proposalID, &cached); err == nil {
		c.JSON(http.StatusOK, gin.H{"result": cached, "source": "cache"})
		return
	}

	proposal, err := service.GetProposal(proposalID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if proposal.Result == nil {
		c.JSON(http.StatusOK, gin.H{
			"result": models.ProposalResult{ProposalID: proposalID, Options: models.ResultOptionList{}},
			"source": "database",
		})
		return
	}

	cache.SetProposalResult(proposalID, proposal.Result)
	c.JSON(http.StatusOK, gin.H{"result": proposal.Result, "source": "database"})
}
