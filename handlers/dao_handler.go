package handlers

import (
	"context"
	"log"
	"net/http"

	"dao-governance-backend/auth"
	"dao-governance-backend/cache"
	"dao-governance-backend/database"
	"dao-governance-backend/models"
	"dao-governance-backend/mq"
	"dao-governance-backend/service"

	"github.com/gin-gonic/gin"
)

// Package-level wiring set once at startup.
var (
	mqAdapter      *mq.MQAdapter
	authGate       *auth.Gate
	proposalFilter *cache.BloomFilter
)

// InitHandlers wires the message queue adapter into the handler layer,
// builds the authorization gate over the live database and sets up the
// proposal bloom filter when Redis is reachable.
func InitHandlers(adapter *mq.MQAdapter) {
	mqAdapter = adapter
	authGate = auth.NewGate(database.DB)
	proposalFilter = cache.InitProposalBloomFilter()
	seedProposalFilter()
	log.Println("Handlers initialized with message queue adapter")
}

// seedProposalFilter loads the known proposal ids into the bloom filter
// so a restart does not make it reject live proposals.
func seedProposalFilter() {
	if proposalFilter == nil {
		return
	}
	var ids []string
	if err := database.DB.Model(&models.Proposal{}).Pluck("id", &ids).Error; err != nil {
		log.Printf("Failed to seed proposal filter, disabling it: %v", err)
		proposalFilter = nil
		return
	}
	ctx := context.Background()
	for _, id := range ids {
		if err := proposalFilter.Add(ctx, id); err != nil {
			log.Printf("Failed to seed proposal filter, disabling it: %v", err)
			proposalFilter = nil
			return
		}
	}
}

// gate returns the authorization gate, building one lazily so tests
// that skip InitHandlers still work.
func gate() *auth.Gate {
	if authGate == nil {
		authGate = auth.NewGate(database.DB)
	}
	return authGate
}

// CreateDao registers a new DAO and mints its founding admin badge.
// Creation is a platform-owner operation.
func CreateDao(c *gin.Context) {
	if !requireOwner(c) {
		return
	}

	var input service.CreateDaoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dao, badge, err := service.CreateDao(input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"dao":         dao,
		"admin_badge": badge,
	})
}

// GetDao returns one DAO by id.
func GetDao(c *gin.Context) {
	dao, err := service.GetDao(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dao)
}

// ListDaos returns all registered DAOs.
func ListDaos(c *gin.Context) {
	daos, err := service.ListDaos()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"daos": daos, "count": len(daos)})
}

// UpdateDaoRequest wraps the field changes with the admin proof
// authorizing them.
type UpdateDaoRequest struct {
	Proof  auth.AdminProof        `json:"proof" binding:"required"`
	Fields service.UpdateDaoInput `json:"fields" binding:"required"`
}

// UpdateDao applies changes to a DAO's mutable fields.
func UpdateDao(c *gin.Context) {
	var req UpdateDaoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dao, err := service.UpdateDao(gate(), req.Proof, c.Param("id"), req.Fields)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dao)
}

// MintBadgeRequest asks for a new admin badge. Either an existing admin
// proof or the platform owner key authorizes the mint.
type MintBadgeRequest struct {
	Holder string           `json:"holder" binding:"required"`
	Proof  *auth.AdminProof `json:"proof"`
}

// MintAdminBadge mints an additional admin badge for a DAO.
func MintAdminBadge(c *gin.Context) {
	var req MintBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerAuthorized := auth.AssertPlatformOwner(c.GetHeader("X-Owner-Key")) == nil

	badge, err := service.MintAdminBadge(gate(), c.Param("id"), req.Holder, ownerAuthorized, req.Proof)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, badge)
}
