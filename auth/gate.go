package auth

import (
	"errors"
	"log"
	"os"

	"dao-governance-backend/models"

	"gorm.io/gorm"
)

// Authorization errors.
var (
	// ErrNotAuthorized is returned when a presented credential does not
	// resolve to an admin badge of the target DAO.
	ErrNotAuthorized = errors.New("not an admin of this DAO")
	// ErrWrongGovernanceToken is returned when an ownership proof is not of
	// the expected token class.
	ErrWrongGovernanceToken = errors.New("proof is not of the proposal's governance token")
)

// AdminProof is a caller-presented admin credential: the badge instances
// the holder claims to possess.
type AdminProof struct {
	Holder   string   `json:"holder" binding:"required"`
	BadgeIDs []string `json:"badge_ids" binding:"required,min=1"`
}

// TokenProof is a caller-presented ownership proof over governance token
// instances.
type TokenProof struct {
	Holder       string   `json:"holder" binding:"required"`
	TokenAddress string   `json:"token_address" binding:"required"`
	InstanceIDs  []string `json:"instance_ids" binding:"required,min=1"`
}

// Gate checks presented credentials against the badge and token ledgers.
// It is a pure predicate layer: it never mints anything itself.
type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

// WithTx returns a gate bound to the given transaction so credential
// checks see the same snapshot as the enclosing write.
func (g *Gate) WithTx(tx *gorm.DB) *Gate {
	return &Gate{db: tx}
}

// AssertAdmin passes when at least one presented badge exists, is held by
// the presenting holder, and is scoped to the target DAO.
func (g *Gate) AssertAdmin(proof AdminProof, daoID string) error {
	if len(proof.BadgeIDs) == 0 {
		return ErrNotAuthorized
	}
	var count int64
	err := g.db.Model(&models.AdminBadge{}).
		Where("id IN ? AND holder = ? AND dao_id = ?", proof.BadgeIDs, proof.Holder, daoID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotAuthorized
	}
	return nil
}

// ResolveTokenInstances resolves an ownership proof against the token
// ledger and returns the distinct instance ids the holder actually owns.
// The proof must be of the expected token class; instances the holder does
// not own are simply not resolved.
func (g *Gate) ResolveTokenInstances(proof TokenProof, expectedToken string) ([]string, error) {
	if proof.TokenAddress != expectedToken {
		return nil, ErrWrongGovernanceToken
	}

	var instances []models.TokenInstance
	err := g.db.
		Where("token_address = ? AND holder = ? AND instance_id IN ?",
			expectedToken, proof.Holder, proof.InstanceIDs).
		Find(&instances).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(instances))
	resolved := make([]string, 0, len(instances))
	for _, inst := range instances {
		if seen[inst.InstanceID] {
			continue
		}
		seen[inst.InstanceID] = true
		resolved = append(resolved, inst.InstanceID)
	}
	if len(resolved) < len(proof.InstanceIDs) {
		log.Printf("Ownership proof for %s resolved %d of %d instances",
			proof.Holder, len(resolved), len(proof.InstanceIDs))
	}
	return resolved, nil
}

// AssertPlatformOwner checks the platform owner credential. The owner key
// gates DAO creation and the fee operations, mirroring a platform owner
// badge.
func AssertPlatformOwner(presented string) error {
	expected := os.Getenv("OWNER_API_KEY")
	if expected == "" || presented != expected {
		return ErrNotAuthorized
	}
	return nil
}
