package handlers

import (
	"net/http"

	"dao-governance-backend/service"

	"github.com/gin-gonic/gin"
)

// RegisterToken records a governance token class.
func RegisterToken(c *gin.Context) {
	var input service.RegisterTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := service.RegisterToken(input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, token)
}

// GetToken returns one token class by address.
func GetToken(c *gin.Context) {
	token, err := service.GetToken(c.Param("address"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// MintTokenInstances mints instances of a token to a holder.
func MintTokenInstances(c *gin.Context) {
	var input service.MintInstancesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.TokenAddress = c.Param("address")

	minted, err := service.MintInstances(input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"instances": minted, "count": len(minted)})
}

// TransferRequest moves one token instance between holders.
type TransferRequest struct {
	InstanceID string `json:"instance_id" binding:"required"`
	From       string `json:"from" binding:"required"`
	To         string `json:"to" binding:"required"`
}

// TransferTokenInstance reassigns an instance to a new holder.
func TransferTokenInstance(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance, err := service.TransferInstance(c.Param("address"), req.InstanceID, req.From, req.To)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, instance)
}

// ListHolderInstances returns the instances a holder owns of one token.
func ListHolderInstances(c *gin.Context) {
	instances, err := service.ListHolderInstances(c.Param("address"), c.Param("holder"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instances": instances, "count": len(instances)})
}
