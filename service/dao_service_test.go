package service

import (
	"testing"

	"dao-governance-backend/auth"
	"dao-governance-backend/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDao(t *testing.T) {
	setupServiceTest(t)

	dao, badge := createTestDao(t)

	assert.Equal(t, "d1", dao.ID)
	assert.Equal(t, "tok", dao.GovernanceToken)
	assert.Equal(t, int64(100), dao.CreatedEpoch)
	assert.NotEmpty(t, dao.ProposalRegistryID)
	// The description mirrors the about text.
	assert.Equal(t, "A DAO for testing", dao.Description)

	// The founding badge belongs to the holder and is scoped to the DAO.
	assert.Equal(t, "d1", badge.DaoID)
	assert.Equal(t, "alice", badge.Holder)
	assert.Equal(t, "Test DAO Admin Badge", badge.Name)
}

func TestCreateDaoDuplicateID(t *testing.T) {
	setupServiceTest(t)
	createTestDao(t)

	_, _, err := CreateDao(CreateDaoInput{
		DaoID:           "d1",
		Name:            "Impostor",
		GovernanceToken: "tok",
		Holder:          "mallory",
	})
	assert.ErrorIs(t, err, database.ErrDuplicateID)
}

func TestUpdateDao(t *testing.T) {
	gate, _ := setupServiceTest(t)
	_, badge := createTestDao(t)

	updated, err := UpdateDao(gate, adminProof(badge), "d1", UpdateDaoInput{
		Name:            "Renamed DAO",
		GovernanceToken: "tok",
		About:           "New about text",
		Rules:           []string{"be kind"},
		AdditionalData:  map[string]string{"website": "https://example.org"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed DAO", updated.Name)
	assert.Equal(t, "New about text", updated.About)
	assert.Equal(t, "New about text", updated.Description)
	assert.Equal(t, []string{"be kind"}, []string(updated.Rules))
	assert.Equal(t, "https://example.org", updated.AdditionalData["website"])
	// Creation metadata never changes.
	assert.Equal(t, int64(100), updated.CreatedEpoch)
}

func TestUpdateDaoNotAdmin(t *testing.T) {
	gate, _ := setupServiceTest(t)
	createTestDao(t)

	_, err := UpdateDao(gate, auth.AdminProof{
		Holder:   "mallory",
		BadgeIDs: []string{"forged"},
	}, "d1", UpdateDaoInput{Name: "Hijacked", GovernanceToken: "tok"})
	assert.ErrorIs(t, err, auth.ErrNotAuthorized)

	// State is untouched.
	dao, err := GetDao("d1")
	require.NoError(t, err)
	assert.Equal(t, "Test DAO", dao.Name)
}

func TestUpdateDaoMissing(t *testing.T) {
	gate, _ := setupServiceTest(t)
	_, badge := createTestDao(t)

	_, err := UpdateDao(gate, adminProof(badge), "ghost", UpdateDaoInput{
		Name: "X", GovernanceToken: "tok",
	})
	assert.ErrorIs(t, err, auth.ErrNotAuthorized)
}

func TestMintAdminBadgeByPeer(t *testing.T) {
	gate, _ := setupServiceTest(t)
	_, badge := createTestDao(t)

	proof := adminProof(badge)
	minted, err := MintAdminBadge(gate, "d1", "bob", false, &proof)
	require.NoError(t, err)

	assert.Equal(t, "bob", minted.Holder)
	assert.Equal(t, "d1", minted.DaoID)
	assert.NotEqual(t, badge.ID, minted.ID)

	// The fresh badge authorizes its holder.
	assert.NoError(t, gate.AssertAdmin(adminProof(minted), "d1"))
}

func TestMintAdminBadgeByOwner(t *testing.T) {
	gate, _ := setupServiceTest(t)
	createTestDao(t)

	minted, err := MintAdminBadge(gate, "d1", "carol", true, nil)
	require.NoError(t, err)
	assert.Equal(t, "carol", minted.Holder)
}

func TestMintAdminBadgeUnauthorized(t *testing.T) {
	gate, _ := setupServiceTest(t)
	createTestDao(t)

	_, err := MintAdminBadge(gate, "d1", "mallory", false, nil)
	assert.ErrorIs(t, err, auth.ErrNotAuthorized)

	forged := auth.AdminProof{Holder: "mallory", BadgeIDs: []string{"forged"}}
	_, err = MintAdminBadge(gate, "d1", "mallory", false, &forged)
	assert.ErrorIs(t, err, auth.ErrNotAuthorized)
}

func TestMintAdminBadgeMissingDao(t *testing.T) {
	gate, _ := setupServiceTest(t)

	_, err := MintAdminBadge(gate, "ghost", "bob", true, nil)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestListDaos(t *testing.T) {
	setupServiceTest(t)
	createTestDao(t)

	_, _, err := CreateDao(CreateDaoInput{
		DaoID:           "d2",
		Name:            "Second DAO",
		GovernanceToken: "tok2",
		Holder:          "bob",
	})
	require.NoError(t, err)

	daos, err := ListDaos()
	require.NoError(t, err)
	assert.Len(t, daos, 2)
}
