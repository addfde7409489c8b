package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ProposalPhase is the lifecycle state of a proposal. It is never stored;
// it is always recomputed from the voting window and the current epoch.
type ProposalPhase string

const (
	PhasePending ProposalPhase = "pending" // before voting_start_epoch: options may still be added
	PhaseOpen    ProposalPhase = "open"    // within [start, end]: votes accepted, options frozen
	PhaseClosed  ProposalPhase = "closed"  // after voting_end_epoch: result frozen
)

// Proposal is a ballot owned by one DAO. The owning DAO's type and
// governance token are copied in at creation so later DAO edits do not
// change the voting rules of an already published proposal.
type Proposal struct {
	ID    string `gorm:"primaryKey;size:64" json:"proposal_id"`
	DaoID string `gorm:"not null;index;size:64" json:"dao_id"`
	// RegistryID ties the proposal to the DAO's proposal sub-registry.
	RegistryID string `gorm:"index;size:64" json:"registry_id"`

	Title         string `gorm:"not null" json:"title"`
	Abstract      string `gorm:"type:text" json:"abstract"`
	Specification string `gorm:"type:text" json:"specification"`
	// Display mirrors, filled from title/abstract at creation.
	Name        string `json:"name"`
	Description string `gorm:"type:text" json:"description"`
	InfoURL     string `json:"info_url"`
	KeyImageURL string `json:"key_image_url"` // copied from the DAO

	// Captured from the DAO at creation, immutable afterwards.
	DaoType         string `json:"dao_type"`
	GovernanceToken string `gorm:"size:128" json:"governance_token"`

	// Voting window, inclusive on both ends.
	VotingStart      string `json:"voting_start"` // human readable mirror of the epochs
	VotingEnd        string `json:"voting_end"`
	VotingStartEpoch int64  `gorm:"not null" json:"voting_start_epoch"`
	VotingEndEpoch   int64  `gorm:"not null" json:"voting_end_epoch"`

	Created        string    `json:"created"`
	CreatedEpoch   int64     `json:"created_epoch"`
	AdditionalData StringMap `gorm:"type:text" json:"additional_data"`

	Options []ProposalOption `gorm:"foreignKey:ProposalID" json:"options"`
	Votes   []ProposalVote   `gorm:"foreignKey:ProposalID" json:"votes"`
	Result  *ProposalResult  `gorm:"foreignKey:ProposalID" json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Phase derives the lifecycle state from the current epoch.
func (p *Proposal) Phase(currentEpoch int64) ProposalPhase {
	switch {
	case currentEpoch < p.VotingStartEpoch:
		return PhasePending
	case currentEpoch > p.VotingEndEpoch:
		return PhaseClosed
	default:
		return PhaseOpen
	}
}

// ProposalOption is one rankable choice on a proposal. Options are
// append-only and frozen once voting starts; id, label and rank are each
// unique within a proposal.
type ProposalOption struct {
	ProposalID     string    `gorm:"primaryKey;size:64" json:"proposal_id"`
	OptionID       string    `gorm:"primaryKey;size:64" json:"option_id"`
	Rank           uint32    `gorm:"not null" json:"rank"`
	Label          string    `gorm:"not null" json:"label"`
	AdditionalData StringMap `gorm:"type:text" json:"additional_data"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProposalVote is one recorded vote. Votes are append-only; the power a
// vote carries equals the count of token instances it newly consumed.
type ProposalVote struct {
	ProposalID     string     `gorm:"primaryKey;size:64" json:"proposal_id"`
	VoteID         string     `gorm:"primaryKey;size:64" json:"vote_id"`
	OptionID       string     `gorm:"not null;size:64" json:"option_id"`
	Entity         string     `gorm:"not null;size:128" json:"entity"`
	Power          int64      `gorm:"not null" json:"power"`
	TokenInstances StringList `gorm:"type:text" json:"token_instances"` // instances consumed by this vote
	Created        string     `json:"created"`
	CreatedEpoch   int64      `json:"created_epoch"`
	AdditionalData StringMap  `gorm:"type:text" json:"additional_data"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ConsumedToken is one row of the per-proposal idempotency ledger
// (nfts_voted): a governance token instance that already contributed its
// voting power to this proposal. The composite primary key makes a second
// consumption of the same instance impossible.
type ConsumedToken struct {
	ProposalID string    `gorm:"primaryKey;size:64" json:"proposal_id"`
	InstanceID string    `gorm:"primaryKey;size:64" json:"instance_id"`
	VoteID     string    `gorm:"size:64" json:"vote_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ResultOption is the per-option slice of a tally result.
type ResultOption struct {
	OptionID string  `json:"option_id"`
	Label    string  `json:"label"`
	Share    float64 `json:"share"` // accumulated power / total power, 0 when no votes
}

// ResultOptionList is stored as a JSON column so the result is always
// replaced wholesale, never patched per option.
type ResultOptionList []ResultOption

func (l ResultOptionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *ResultOptionList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// ProposalResult is the live tally of a proposal, recomputed after every
// accepted vote.
type ProposalResult struct {
	ProposalID string           `gorm:"primaryKey;size:64" json:"proposal_id"`
	VoteCount  int64            `gorm:"not null" json:"vote_count"`
	VotePower  int64            `gorm:"not null" json:"vote_power"`
	Options    ResultOptionList `gorm:"type:text" json:"results"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
