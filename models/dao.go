package models

import "time"

// Dao represents a governed organization. Governance history is permanent,
// so DAO records are never deleted.
type Dao struct {
	ID              string        `gorm:"primaryKey;size:64" json:"dao_id"`
	Name            string        `gorm:"not null" json:"name"`
	Description     string        `gorm:"type:text" json:"description"`
	InfoURL         string        `json:"info_url"`
	KeyImageURL     string        `json:"key_image_url"`
	DaoType         string        `gorm:"index" json:"dao_type"`
	GovernanceToken string        `gorm:"size:128" json:"governance_token"` // token class whose instances confer voting rights
	About           string        `gorm:"type:text" json:"about"`
	General         string        `gorm:"type:text" json:"general"`
	Rules           StringList    `gorm:"type:text" json:"rules"`
	AdditionalData  StringMap     `gorm:"type:text" json:"additional_data"`
	AdditionalList  StringListMap `gorm:"type:text" json:"additional_data_vec"`

	// Immutable after creation.
	Created            string    `json:"created"` // caller-supplied human readable timestamp
	CreatedEpoch       int64     `json:"created_epoch"`
	ProposalRegistryID string    `gorm:"size:64" json:"proposal_registry_id"` // the DAO's dedicated proposal collection
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Proposals []Proposal `gorm:"foreignKey:DaoID" json:"proposals,omitempty"`
}

// AdminBadge is a credential scoping administrative rights to exactly one
// DAO. Its DaoID never changes after mint; badges are not revoked here.
type AdminBadge struct {
	ID             string    `gorm:"primaryKey;size:64" json:"badge_id"`
	DaoID          string    `gorm:"not null;index;size:64" json:"dao_id"`
	Holder         string    `gorm:"not null;index;size:128" json:"holder"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	InfoURL        string    `json:"info_url"`
	KeyImageURL    string    `json:"key_image_url"`
	AdditionalData StringMap `gorm:"type:text" json:"additional_data"`
	CreatedAt      time.Time `json:"created_at"`
}
