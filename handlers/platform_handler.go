package handlers

import (
	"net/http"

	"dao-governance-backend/auth"
	"dao-governance-backend/service"

	"github.com/gin-gonic/gin"
)

// requireOwner aborts unless the request carries the platform owner key.
func requireOwner(c *gin.Context) bool {
	if err := auth.AssertPlatformOwner(c.GetHeader("X-Owner-Key")); err != nil {
		abortWithError(c, err)
		return false
	}
	return true
}

// GetPlatformConfig returns the proposal fee settings and the amount of
// fees collected so far.
func GetPlatformConfig(c *gin.Context) {
	config, err := service.GetPlatformConfig()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// SetPriceRequest carries the new proposal creation fee.
type SetPriceRequest struct {
	Price int64 `json:"price"`
}

// SetProposalCreationPrice updates the fee charged for publishing a
// proposal. Platform owner only.
func SetProposalCreationPrice(c *gin.Context) {
	if !requireOwner(c) {
		return
	}

	var req SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := service.SetProposalCreationPrice(req.Price); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": req.Price})
}

// SetEpochRequest moves a manually driven ledger clock.
type SetEpochRequest struct {
	Epoch int64 `json:"epoch"`
}

// SetEpoch advances the manual epoch clock. Platform owner only; a 409
// means the deployment runs on a wall clock instead.
func SetEpoch(c *gin.Context) {
	if !requireOwner(c) {
		return
	}

	var req SetEpochRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !service.SetManualEpoch(req.Epoch) {
		c.JSON(http.StatusConflict, gin.H{"error": "epoch clock is not manually driven"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"epoch": service.CurrentEpoch()})
}

// WithdrawFees empties the collected fee vault. Platform owner only.
func WithdrawFees(c *gin.Context) {
	if !requireOwner(c) {
		return
	}

	amount, err := service.WithdrawFees()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawn": amount})
}
