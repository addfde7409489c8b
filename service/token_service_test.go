package service

import (
	"testing"

	"dao-governance-backend/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerTestToken(t *testing.T) {
	_, err := RegisterToken(RegisterTokenInput{
		Address: "tok",
		Name:    "Governance Token",
		Symbol:  "GOV",
	})
	require.NoError(t, err)
}

func TestRegisterToken(t *testing.T) {
	setupServiceTest(t)
	registerTestToken(t)

	token, err := GetToken("tok")
	require.NoError(t, err)
	assert.Equal(t, "GOV", token.Symbol)

	_, err = RegisterToken(RegisterTokenInput{Address: "tok"})
	assert.ErrorIs(t, err, database.ErrDuplicateID)
}

func TestMintInstances(t *testing.T) {
	setupServiceTest(t)
	registerTestToken(t)

	minted, err := MintInstances(MintInstancesInput{
		TokenAddress: "tok",
		Holder:       "alice",
		InstanceIDs:  []string{"t1", "t2"},
	})
	require.NoError(t, err)
	assert.Len(t, minted, 2)

	owned, err := ListHolderInstances("tok", "alice")
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	// Instance ids are unique within the class; nothing is minted when
	// one collides.
	_, err = MintInstances(MintInstancesInput{
		TokenAddress: "tok",
		Holder:       "bob",
		InstanceIDs:  []string{"t3", "t1"},
	})
	assert.ErrorIs(t, err, database.ErrDuplicateID)

	owned, err = ListHolderInstances("tok", "bob")
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestMintInstancesUnknownToken(t *testing.T) {
	setupServiceTest(t)

	_, err := MintInstances(MintInstancesInput{
		TokenAddress: "ghost",
		Holder:       "alice",
		InstanceIDs:  []string{"t1"},
	})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestTransferInstance(t *testing.T) {
	setupServiceTest(t)
	registerTestToken(t)

	_, err := MintInstances(MintInstancesInput{
		TokenAddress: "tok",
		Holder:       "alice",
		InstanceIDs:  []string{"t1"},
	})
	require.NoError(t, err)

	moved, err := TransferInstance("tok", "t1", "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", moved.Holder)

	// A sender who no longer holds the instance cannot move it.
	_, err = TransferInstance("tok", "t1", "alice", "carol")
	assert.ErrorIs(t, err, database.ErrNotFound)
}
