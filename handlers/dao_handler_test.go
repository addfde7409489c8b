package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dao-governance-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(router *gin.Engine, method, path string, body gin.H, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func ownerHeader(t *testing.T) map[string]string {
	t.Setenv("OWNER_API_KEY", "secret")
	return map[string]string{"X-Owner-Key": "secret"}
}

func TestCreateDaoEndpoint(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	w := doJSON(router, "POST", "/api/daos", gin.H{
		"dao_id":           "d1",
		"name":             "Test DAO",
		"governance_token": "tok",
		"about":            "A DAO for testing",
		"holder":           "alice",
	}, ownerHeader(t))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Dao        models.Dao        `json:"dao"`
		AdminBadge models.AdminBadge `json:"admin_badge"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "d1", resp.Dao.ID)
	assert.Equal(t, "alice", resp.AdminBadge.Holder)
	assert.NotEmpty(t, resp.Dao.ProposalRegistryID)
}

func TestCreateDaoEndpoint_Validation(t *testing.T) {
	router, _ := SetupTestEnvironment(t)

	// Missing the required governance token.
	w := doJSON(router, "POST", "/api/daos", gin.H{
		"dao_id": "d1",
		"name":   "Test DAO",
		"holder": "alice",
	}, ownerHeader(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDaoEndpoint_RequiresOwnerKey(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	t.Setenv("OWNER_API_KEY", "secret")

	body := gin.H{
		"dao_id":           "d1",
		"name":             "Test DAO",
		"governance_token": "tok",
		"holder":           "alice",
	}

	w := doJSON(router, "POST", "/api/daos", body, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, "POST", "/api/daos", body, map[string]string{"X-Owner-Key": "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, "GET", "/api/daos/d1", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateDaoEndpoint_Duplicate(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	seedDaoWithProposal(t)

	w := doJSON(router, "POST", "/api/daos", gin.H{
		"dao_id":           "d1",
		"name":             "Impostor",
		"governance_token": "tok",
		"holder":           "mallory",
	}, ownerHeader(t))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetDaoEndpoint(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	seedDaoWithProposal(t)

	w := doJSON(router, "GET", "/api/daos/d1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dao models.Dao
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dao))
	assert.Equal(t, "Test DAO", dao.Name)

	w = doJSON(router, "GET", "/api/daos/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateDaoEndpoint(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	badge := seedDaoWithProposal(t)

	w := doJSON(router, "PUT", "/api/daos/d1", gin.H{
		"proof": gin.H{"holder": "alice", "badge_ids": []string{badge.ID}},
		"fields": gin.H{
			"name":             "Renamed DAO",
			"governance_token": "tok",
		},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dao models.Dao
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dao))
	assert.Equal(t, "Renamed DAO", dao.Name)
}

func TestUpdateDaoEndpoint_NotAdmin(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	seedDaoWithProposal(t)

	w := doJSON(router, "PUT", "/api/daos/d1", gin.H{
		"proof": gin.H{"holder": "mallory", "badge_ids": []string{"forged"}},
		"fields": gin.H{
			"name":             "Hijacked",
			"governance_token": "tok",
		},
	}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMintAdminBadgeEndpoint(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	badge := seedDaoWithProposal(t)

	// Peer path: an existing admin mints for bob.
	w := doJSON(router, "POST", "/api/daos/d1/badges", gin.H{
		"holder": "bob",
		"proof":  gin.H{"holder": "alice", "badge_ids": []string{badge.ID}},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var minted models.AdminBadge
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &minted))
	assert.Equal(t, "bob", minted.Holder)

	// No proof and no owner key is rejected.
	w = doJSON(router, "POST", "/api/daos/d1/badges", gin.H{
		"holder": "mallory",
	}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMintAdminBadgeEndpoint_OwnerKey(t *testing.T) {
	router, _ := SetupTestEnvironment(t)
	seedDaoWithProposal(t)
	t.Setenv("OWNER_API_KEY", "secret")

	w := doJSON(router, "POST", "/api/daos/d1/badges", gin.H{
		"holder": "carol",
	}, map[string]string{"X-Owner-Key": "secret"})
	assert.Equal(t, http.StatusCreated, w.Code)
}
