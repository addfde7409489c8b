package service

import (
	"fmt"
	"log"

	"dao-governance-backend/auth"
	"dao-governance-backend/database"
	"dao-governance-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateDaoInput carries the fields of a new DAO. The identifier is
// caller-supplied and globally unique.
type CreateDaoInput struct {
	DaoID           string              `json:"dao_id" binding:"required"`
	Name            string              `json:"name" binding:"required"`
	InfoURL         string              `json:"info_url"`
	KeyImageURL     string              `json:"key_image_url"`
	DaoType         string              `json:"dao_type"`
	GovernanceToken string              `json:"governance_token" binding:"required"`
	About           string              `json:"about"`
	General         string              `json:"general"`
	Created         string              `json:"created"`
	Rules           []string            `json:"rules"`
	AdditionalData  map[string]string   `json:"additional_data"`
	AdditionalList  map[string][]string `json:"additional_data_vec"`
	// Holder receives the DAO's first admin badge.
	Holder string `json:"holder" binding:"required"`
}

// CreateDao writes the DAO record, allocates its proposal sub-registry
// and mints the founding admin badge, all in one transaction.
func CreateDao(in CreateDaoInput) (*models.Dao, *models.AdminBadge, error) {
	dao := &models.Dao{
		ID:                 in.DaoID,
		Name:               in.Name,
		Description:        in.About,
		InfoURL:            in.InfoURL,
		KeyImageURL:        in.KeyImageURL,
		DaoType:            in.DaoType,
		GovernanceToken:    in.GovernanceToken,
		About:              in.About,
		General:            in.General,
		Rules:              in.Rules,
		AdditionalData:     in.AdditionalData,
		AdditionalList:     in.AdditionalList,
		Created:            in.Created,
		CreatedEpoch:       CurrentEpoch(),
		ProposalRegistryID: uuid.New().String(),
	}

	badge := newAdminBadge(dao, in.Holder)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.Create(tx, dao); err != nil {
			return err
		}
		return database.Create(tx, badge)
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("Created DAO %s with proposal registry %s", dao.ID, dao.ProposalRegistryID)
	return dao, badge, nil
}

// UpdateDaoInput carries the mutable DAO fields. The update is
// all-or-nothing: every field is overwritten in one statement.
type UpdateDaoInput struct {
	Name            string              `json:"name" binding:"required"`
	InfoURL         string              `json:"info_url"`
	KeyImageURL     string              `json:"key_image_url"`
	DaoType         string              `json:"dao_type"`
	GovernanceToken string              `json:"governance_token" binding:"required"`
	About           string              `json:"about"`
	General         string              `json:"general"`
	Rules           []string            `json:"rules"`
	AdditionalData  map[string]string   `json:"additional_data"`
	AdditionalList  map[string][]string `json:"additional_data_vec"`
}

// UpdateDao overwrites the mutable fields of a DAO. The caller must hold
// an admin badge of that DAO.
func UpdateDao(gate *auth.Gate, proof auth.AdminProof, daoID string, in UpdateDaoInput) (*models.Dao, error) {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := gate.WithTx(tx).AssertAdmin(proof, daoID); err != nil {
			return err
		}
		return database.UpdateFields(tx, &models.Dao{}, database.KindDao, daoID, map[string]interface{}{
			"name":             in.Name,
			"description":      in.About,
			"info_url":         in.InfoURL,
			"key_image_url":    in.KeyImageURL,
			"dao_type":         in.DaoType,
			"governance_token": in.GovernanceToken,
			"about":            in.About,
			"general":          in.General,
			"rules":            models.StringList(in.Rules),
			"additional_data":  models.StringMap(in.AdditionalData),
			"additional_list":  models.StringListMap(in.AdditionalList),
		})
	})
	if err != nil {
		return nil, err
	}
	return GetDao(daoID)
}

// MintAdminBadge mints another badge for an existing DAO. ownerAuthorized
// marks the platform-owner path; otherwise peerProof must resolve to an
// existing admin badge of the same DAO. The badge's dao_id is copied
// verbatim from the target DAO record.
func MintAdminBadge(gate *auth.Gate, daoID, holder string, ownerAuthorized bool, peerProof *auth.AdminProof) (*models.AdminBadge, error) {
	var badge *models.AdminBadge
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var dao models.Dao
		if err := database.Get(tx, &dao, daoID); err != nil {
			return err
		}
		if !ownerAuthorized {
			if peerProof == nil {
				return auth.ErrNotAuthorized
			}
			if err := gate.WithTx(tx).AssertAdmin(*peerProof, dao.ID); err != nil {
				return err
			}
		}
		badge = newAdminBadge(&dao, holder)
		return database.Create(tx, badge)
	})
	if err != nil {
		return nil, err
	}
	return badge, nil
}

func newAdminBadge(dao *models.Dao, holder string) *models.AdminBadge {
	return &models.AdminBadge{
		ID:          uuid.New().String(),
		DaoID:       dao.ID,
		Holder:      holder,
		Name:        fmt.Sprintf("%s Admin Badge", dao.Name),
		Description: fmt.Sprintf("This badge allows administrating the DAO %s.", dao.Name),
		InfoURL:     dao.InfoURL,
		KeyImageURL: dao.KeyImageURL,
	}
}

// GetDao loads one DAO.
func GetDao(daoID string) (*models.Dao, error) {
	var dao models.Dao
	if err := database.Get(database.DB, &dao, daoID); err != nil {
		return nil, err
	}
	return &dao, nil
}

// ListDaos returns all DAOs, newest first.
func ListDaos() ([]models.Dao, error) {
	var daos []models.Dao
	if err := database.DB.Order("created_at desc").Find(&daos).Error; err != nil {
		return nil, err
	}
	return daos, nil
}
