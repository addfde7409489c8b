package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"dao-governance-backend/auth"
	"dao-governance-backend/database"
	"dao-governance-backend/epoch"
	"dao-governance-backend/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

// testDSN builds a distinct shared-cache in-memory database per test so
// the connection pool sees one schema and tests stay isolated.
func testDSN() string {
	return fmt.Sprintf("file:svc%d?mode=memory&cache=shared", testDBCounter.Add(1))
}

// setupServiceTest gives each test a fresh in-memory database and a
// manual ledger clock pinned at epoch 100.
func setupServiceTest(t *testing.T) (*auth.Gate, *epoch.ManualProvider) {
	db, err := gorm.Open(sqlite.Open(testDSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	clock := epoch.NewManualProvider(100)
	SetEpochProvider(clock)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	})
	return auth.NewGate(db), clock
}

// createTestDao registers a DAO governed by token "tok" whose founding
// badge is held by alice.
func createTestDao(t *testing.T) (*models.Dao, *models.AdminBadge) {
	dao, badge, err := CreateDao(CreateDaoInput{
		DaoID:           "d1",
		Name:            "Test DAO",
		GovernanceToken: "tok",
		About:           "A DAO for testing",
		Holder:          "alice",
	})
	require.NoError(t, err)
	return dao, badge
}

func adminProof(badge *models.AdminBadge) auth.AdminProof {
	return auth.AdminProof{Holder: badge.Holder, BadgeIDs: []string{badge.ID}}
}

// createTestProposal publishes proposal p1 with window [110, 120] and
// options o1/o2.
func createTestProposal(t *testing.T, gate *auth.Gate, badge *models.AdminBadge) *models.Proposal {
	proposal, err := CreateProposal(gate, adminProof(badge), CreateProposalInput{
		DaoID:            "d1",
		ProposalID:       "p1",
		Title:            "Fund the treasury",
		VotingStartEpoch: 110,
		VotingEndEpoch:   120,
	})
	require.NoError(t, err)

	for i, opt := range []struct {
		id    string
		label string
	}{{"o1", "Yes"}, {"o2", "No"}} {
		_, err := AddOption(gate, adminProof(badge), AddOptionInput{
			DaoID:      "d1",
			ProposalID: "p1",
			OptionID:   opt.id,
			Rank:       uint32(i),
			Label:      opt.label,
		})
		require.NoError(t, err)
	}
	return proposal
}

// mintTestTokens gives holder the named instances of token "tok".
func mintTestTokens(t *testing.T, holder string, instanceIDs ...string) {
	for _, id := range instanceIDs {
		require.NoError(t, database.DB.Create(&models.TokenInstance{
			TokenAddress: "tok",
			InstanceID:   id,
			Holder:       holder,
		}).Error)
	}
}
