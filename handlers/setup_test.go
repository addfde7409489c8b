package handlers

import (
	"fmt"
	"log"
	"sync/atomic"
	"testing"

	"dao-governance-backend/auth"
	"dao-governance-backend/database"
	"dao-governance-backend/epoch"
	"dao-governance-backend/models"
	"dao-governance-backend/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var handlerDBCounter atomic.Int64

// SetupTestEnvironment builds the Gin router over a fresh in-memory
// SQLite database, with a manual ledger clock pinned at epoch 100.
func SetupTestEnvironment(t *testing.T) (*gin.Engine, *epoch.ManualProvider) {
	testing.Init()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handlers%d?mode=memory&cache=shared", handlerDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	database.DB = db
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	clock := epoch.NewManualProvider(100)
	service.SetEpochProvider(clock)

	// Handler wiring is rebuilt per test; the message queue and bloom
	// filter stay disabled so votes are processed synchronously.
	mqAdapter = nil
	proposalFilter = nil
	authGate = auth.NewGate(db)

	t.Cleanup(func() {
		sqlDB, _ := database.DB.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})

	router := gin.New()
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	router.Use(cors.New(config))

	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)

		daos := api.Group("/daos")
		{
			daos.POST("", CreateDao)
			daos.GET("", ListDaos)
			daos.GET("/:id", GetDao)
			daos.PUT("/:id", UpdateDao)
			daos.POST("/:id/badges", MintAdminBadge)
			daos.POST("/:id/proposals", CreateProposal)
			daos.GET("/:id/proposals", ListProposals)
			daos.POST("/:id/proposals/:proposalId/options", AddProposalOption)
		}

		proposals := api.Group("/proposals")
		{
			proposals.GET("/:proposalId", GetProposal)
			proposals.GET("/:proposalId/result", GetProposalResult)
			proposals.GET("/:proposalId/votes", GetVotes)
			proposals.POST("/:proposalId/votes", CastVote)
		}

		tokens := api.Group("/tokens")
		{
			tokens.POST("", RegisterToken)
			tokens.GET("/:address", GetToken)
			tokens.POST("/:address/instances", MintTokenInstances)
			tokens.POST("/:address/transfer", TransferTokenInstance)
			tokens.GET("/:address/holders/:holder", ListHolderInstances)
		}

		admin := api.Group("/admin")
		{
			admin.GET("/platform", GetPlatformConfig)
			admin.POST("/platform/price", SetProposalCreationPrice)
			admin.POST("/platform/withdraw", WithdrawFees)
			admin.POST("/platform/epoch", SetEpoch)
		}
	}

	return router, clock
}

// seedDaoWithProposal creates DAO d1 with founding badge for alice,
// proposal p1 with window [110, 120] and options o1/o2, and mints token
// instances t1..t3 to alice.
func seedDaoWithProposal(t *testing.T) *models.AdminBadge {
	_, badge, err := service.CreateDao(service.CreateDaoInput{
		DaoID:           "d1",
		Name:            "Test DAO",
		GovernanceToken: "tok",
		Holder:          "alice",
	})
	require.NoError(t, err)

	proof := auth.AdminProof{Holder: "alice", BadgeIDs: []string{badge.ID}}
	_, err = service.CreateProposal(authGate, proof, service.CreateProposalInput{
		DaoID:            "d1",
		ProposalID:       "p1",
		Title:            "Fund the treasury",
		VotingStartEpoch: 110,
		VotingEndEpoch:   120,
	})
	require.NoError(t, err)

	for i, opt := range []struct{ id, label string }{{"o1", "Yes"}, {"o2", "No"}} {
		_, err = service.AddOption(authGate, proof, service.AddOptionInput{
			DaoID:      "d1",
			ProposalID: "p1",
			OptionID:   opt.id,
			Rank:       uint32(i),
			Label:      opt.label,
		})
		require.NoError(t, err)
	}

	for _, instance := range []string{"t1", "t2", "t3"} {
		require.NoError(t, database.DB.Create(&models.TokenInstance{
			TokenAddress: "tok",
			InstanceID:   instance,
			Holder:       "alice",
		}).Error)
	}
	return badge
}
