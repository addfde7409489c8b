package models

import "time"

// GovernanceToken is a token class whose instances confer voting
// eligibility for the DAOs referencing it.
type GovernanceToken struct {
	Address     string    `gorm:"primaryKey;size:128" json:"address"`
	Name        string    `json:"name"`
	Symbol      string    `gorm:"size:16" json:"symbol"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TokenInstance is one individually identified unit of a governance token.
// Ownership proofs resolve against these rows.
type TokenInstance struct {
	TokenAddress string    `gorm:"primaryKey;size:128" json:"token_address"`
	InstanceID   string    `gorm:"primaryKey;size:64" json:"instance_id"`
	Holder       string    `gorm:"not null;index;size:128" json:"holder"`
	CreatedAt    time.Time `json:"created_at"`
}

// PlatformConfig is the single platform settings row: the proposal
// creation fee and the fees collected so far (the custody vault).
type PlatformConfig struct {
	ID                    uint      `gorm:"primaryKey" json:"-"`
	ProposalCreationPrice int64     `gorm:"not null;default:0" json:"proposal_creation_price"`
	CollectedFees         int64     `gorm:"not null;default:0" json:"collected_fees"`
	UpdatedAt             time.Time `json:"updated_at"`
}
