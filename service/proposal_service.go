package service

import (
	"errors"
	"log"
	"time"

	"dao-governance-backend/auth"
	"dao-governance-backend/cache"
	"dao-governance-backend/database"
	"dao-governance-backend/models"
	"dao-governance-backend/tally"

	"gorm.io/gorm"
)

// voteLockExpiry bounds how long a cast-vote critical section may hold
// the per-proposal lock.
const voteLockExpiry = 10 * time.Second

// CreateProposalInput carries the fields of a new proposal.
type CreateProposalInput struct {
	// DaoID is taken from the route, not the body.
	DaoID            string            `json:"dao_id"`
	ProposalID       string            `json:"proposal_id" binding:"required"`
	Title            string            `json:"title" binding:"required"`
	Abstract         string            `json:"abstract"`
	Specification    string            `json:"specification"`
	InfoURL          string            `json:"info_url"`
	VotingStart      string            `json:"voting_start"`
	VotingEnd        string            `json:"voting_end"`
	VotingStartEpoch int64             `json:"voting_start_epoch" binding:"required"`
	VotingEndEpoch   int64             `json:"voting_end_epoch" binding:"required"`
	Created          string            `json:"created"`
	AdditionalData   map[string]string `json:"additional_data"`
}

// CreateProposal publishes a proposal into a DAO's registry. The voting
// window must start strictly in the future; the DAO's type and governance
// token are captured at this instant, so later DAO edits do not change
// this proposal's voting rules. The configured creation fee is collected
// in the same transaction.
func CreateProposal(gate *auth.Gate, proof auth.AdminProof, in CreateProposalInput) (*models.Proposal, error) {
	now := CurrentEpoch()
	if !(now < in.VotingStartEpoch && in.VotingStartEpoch <= in.VotingEndEpoch) {
		return nil, ErrInvalidWindow
	}

	var proposal *models.Proposal
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := gate.WithTx(tx).AssertAdmin(proof, in.DaoID); err != nil {
			return err
		}

		var dao models.Dao
		if err := database.Get(tx, &dao, in.DaoID); err != nil {
			return err
		}

		if err := chargeProposalFee(tx); err != nil {
			return err
		}

		proposal = &models.Proposal{
			ID:               in.ProposalID,
			DaoID:            dao.ID,
			RegistryID:       dao.ProposalRegistryID,
			Title:            in.Title,
			Abstract:         in.Abstract,
			Specification:    in.Specification,
			Name:             in.Title,
			Description:      in.Abstract,
			InfoURL:          in.InfoURL,
			KeyImageURL:      dao.KeyImageURL,
			DaoType:          dao.DaoType,
			GovernanceToken:  dao.GovernanceToken,
			VotingStart:      in.VotingStart,
			VotingEnd:        in.VotingEnd,
			VotingStartEpoch: in.VotingStartEpoch,
			VotingEndEpoch:   in.VotingEndEpoch,
			Created:          in.Created,
			CreatedEpoch:     now,
			AdditionalData:   in.AdditionalData,
		}
		return database.Create(tx, proposal)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Created proposal %s in DAO %s, window [%d, %d]",
		proposal.ID, proposal.DaoID, proposal.VotingStartEpoch, proposal.VotingEndEpoch)
	return proposal, nil
}

// AddOptionInput carries one rankable option.
type AddOptionInput struct {
	// DaoID and ProposalID are taken from the route, not the body.
	DaoID          string            `json:"dao_id"`
	ProposalID     string            `json:"proposal_id"`
	OptionID       string            `json:"option_id" binding:"required"`
	Rank           uint32            `json:"rank"`
	Label          string            `json:"label" binding:"required"`
	AdditionalData map[string]string `json:"additional_data"`
}

// AddOption appends an option to a pending proposal. Options freeze the
// moment the voting window opens; id, label and rank must each be unique
// among the proposal's options.
func AddOption(gate *auth.Gate, proof auth.AdminProof, in AddOptionInput) (*models.ProposalOption, error) {
	var option *models.ProposalOption
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := gate.WithTx(tx).AssertAdmin(proof, in.DaoID); err != nil {
			return err
		}

		var proposal models.Proposal
		if err := database.Get(tx, &proposal, in.ProposalID); err != nil {
			return err
		}
		if proposal.DaoID != in.DaoID {
			return database.ErrNotFound
		}

		if proposal.Phase(CurrentEpoch()) != models.PhasePending {
			return ErrOptionsFrozen
		}

		var existing []models.ProposalOption
		if err := tx.Where("proposal_id = ?", proposal.ID).Find(&existing).Error; err != nil {
			return err
		}
		for _, opt := range existing {
			if opt.OptionID == in.OptionID || opt.Label == in.Label || opt.Rank == in.Rank {
				return ErrDuplicateOption
			}
		}

		option = &models.ProposalOption{
			ProposalID:     proposal.ID,
			OptionID:       in.OptionID,
			Rank:           in.Rank,
			Label:          in.Label,
			AdditionalData: in.AdditionalData,
		}
		return database.Create(tx, option)
	})
	if err != nil {
		return nil, err
	}
	return option, nil
}

// CastVoteInput carries one vote and the ownership proof backing it.
type CastVoteInput struct {
	// ProposalID is taken from the route, not the body.
	ProposalID     string            `json:"proposal_id"`
	VoteID         string            `json:"vote_id" binding:"required"`
	OptionID       string            `json:"option_id" binding:"required"`
	Entity         string            `json:"entity" binding:"required"`
	Created        string            `json:"created"`
	Proof          auth.TokenProof   `json:"proof" binding:"required"`
	AdditionalData map[string]string `json:"additional_data"`
}

// CastVote records a weighted vote and recomputes the proposal result.
// Each governance token instance contributes power at most once over the
// proposal's lifetime: instances already consumed are dropped from the
// new vote's weight, and the whole call fails only when nothing usable
// remains. All checks and writes happen in one transaction under a
// per-proposal lock, so either every step commits or none do.
func CastVote(gate *auth.Gate, in CastVoteInput) (*models.ProposalVote, *models.ProposalResult, error) {
	var (
		vote   *models.ProposalVote
		result *models.ProposalResult
	)

	lockName := "vote_lock:" + in.ProposalID
	err := cache.GetLockService().WithLock(lockName, voteLockExpiry, func() error {
		return database.DB.Transaction(func(tx *gorm.DB) error {
			var proposal models.Proposal
			if err := database.Get(tx, &proposal, in.ProposalID); err != nil {
				return err
			}

			var options []models.ProposalOption
			if err := tx.Where("proposal_id = ?", proposal.ID).Find(&options).Error; err != nil {
				return err
			}
			known := false
			for _, opt := range options {
				if opt.OptionID == in.OptionID {
					known = true
					break
				}
			}
			if !known {
				return ErrUnknownOption
			}

			var dupCount int64
			err := tx.Model(&models.ProposalVote{}).
				Where("proposal_id = ? AND vote_id = ?", proposal.ID, in.VoteID).
				Count(&dupCount).Error
			if err != nil {
				return err
			}
			if dupCount > 0 {
				return ErrDuplicateVoteID
			}

			now := CurrentEpoch()
			if proposal.Phase(now) != models.PhaseOpen {
				return ErrVotingNotOpen
			}

			resolved, err := gate.WithTx(tx).ResolveTokenInstances(in.Proof, proposal.GovernanceToken)
			if err != nil {
				return err
			}
			if len(resolved) == 0 {
				return ErrNoTokensProvided
			}

			fresh, err := filterConsumed(tx, proposal.ID, resolved)
			if err != nil {
				return err
			}
			if len(fresh) == 0 {
				return ErrAllTokensAlreadyVoted
			}

			for _, instanceID := range fresh {
				consumed := &models.ConsumedToken{
					ProposalID: proposal.ID,
					InstanceID: instanceID,
					VoteID:     in.VoteID,
				}
				if err := tx.Create(consumed).Error; err != nil {
					return err
				}
			}

			vote = &models.ProposalVote{
				ProposalID:     proposal.ID,
				VoteID:         in.VoteID,
				OptionID:       in.OptionID,
				Entity:         in.Entity,
				Power:          int64(len(fresh)),
				TokenInstances: fresh,
				Created:        in.Created,
				CreatedEpoch:   now,
				AdditionalData: in.AdditionalData,
			}
			if err := tx.Create(vote).Error; err != nil {
				return err
			}

			result, err = recomputeResult(tx, proposal.ID, options)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	// The database copy is committed; the cache is best effort.
	cache.SetProposalResult(in.ProposalID, result)

	return vote, result, nil
}

// filterConsumed partitions resolved instances into fresh ones and ones
// already present in the proposal's consumed set. Already-spent instances
// are logged and skipped, not an error.
func filterConsumed(tx *gorm.DB, proposalID string, resolved []string) ([]string, error) {
	var spent []models.ConsumedToken
	err := tx.Where("proposal_id = ? AND instance_id IN ?", proposalID, resolved).
		Find(&spent).Error
	if err != nil {
		return nil, err
	}

	spentSet := make(map[string]bool, len(spent))
	for _, row := range spent {
		spentSet[row.InstanceID] = true
	}

	fresh := make([]string, 0, len(resolved))
	for _, instanceID := range resolved {
		if spentSet[instanceID] {
			log.Printf("Token instance %s already voted on proposal %s, skipping", instanceID, proposalID)
			continue
		}
		fresh = append(fresh, instanceID)
	}
	return fresh, nil
}

// recomputeResult replaces the proposal's result wholesale from the
// current vote set.
func recomputeResult(tx *gorm.DB, proposalID string, options []models.ProposalOption) (*models.ProposalResult, error) {
	var votes []models.ProposalVote
	if err := tx.Where("proposal_id = ?", proposalID).Find(&votes).Error; err != nil {
		return nil, err
	}

	result := tally.Tally(proposalID, options, votes)

	if err := tx.Where("proposal_id = ?", proposalID).Delete(&models.ProposalResult{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Create(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProposal loads a proposal with its options, votes and result.
func GetProposal(proposalID string) (*models.Proposal, error) {
	var proposal models.Proposal
	err := database.DB.
		Preload("Options").
		Preload("Votes").
		Preload("Result").
		First(&proposal, "id = ?", proposalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &proposal, nil
}

// ListProposals returns a DAO's proposals, newest first.
func ListProposals(daoID string) ([]models.Proposal, error) {
	if _, err := GetDao(daoID); err != nil {
		return nil, err
	}
	var proposals []models.Proposal
	err := database.DB.
		Preload("Options").
		Preload("Result").
		Where("dao_id = ?", daoID).
		Order("created_at desc").
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}
