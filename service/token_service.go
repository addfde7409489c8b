package service

import (
	"errors"

	"dao-governance-backend/database"
	"dao-governance-backend/models"

	"gorm.io/gorm"
)

// RegisterTokenInput describes a governance token class.
type RegisterTokenInput struct {
	Address     string `json:"address" binding:"required"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

// RegisterToken records a governance token class so that instances of it
// can be minted to holders.
func RegisterToken(in RegisterTokenInput) (*models.GovernanceToken, error) {
	token := &models.GovernanceToken{
		Address:     in.Address,
		Name:        in.Name,
		Symbol:      in.Symbol,
		Description: in.Description,
	}
	if err := database.Create(database.DB, token); err != nil {
		return nil, err
	}
	return token, nil
}

// GetToken loads a token class by address.
func GetToken(address string) (*models.GovernanceToken, error) {
	var token models.GovernanceToken
	err := database.DB.First(&token, "address = ?", address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// MintInstancesInput mints concrete token instances to a holder.
type MintInstancesInput struct {
	// TokenAddress is taken from the route, not the body.
	TokenAddress string   `json:"token_address"`
	Holder       string   `json:"holder" binding:"required"`
	InstanceIDs  []string `json:"instance_ids" binding:"required"`
}

// MintInstances creates token instances owned by a holder. Instance ids
// are unique within a token class.
func MintInstances(in MintInstancesInput) ([]models.TokenInstance, error) {
	if _, err := GetToken(in.TokenAddress); err != nil {
		return nil, err
	}

	minted := make([]models.TokenInstance, 0, len(in.InstanceIDs))
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, instanceID := range in.InstanceIDs {
			instance := models.TokenInstance{
				TokenAddress: in.TokenAddress,
				InstanceID:   instanceID,
				Holder:       in.Holder,
			}
			if err := database.Create(tx, &instance); err != nil {
				return err
			}
			minted = append(minted, instance)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// TransferInstance moves one token instance to a new holder. The caller
// must currently hold it.
func TransferInstance(tokenAddress, instanceID, from, to string) (*models.TokenInstance, error) {
	var instance models.TokenInstance
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&instance, "token_address = ? AND instance_id = ?", tokenAddress, instanceID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return database.ErrNotFound
			}
			return err
		}
		if instance.Holder != from {
			return database.ErrNotFound
		}
		instance.Holder = to
		return tx.Model(&models.TokenInstance{}).
			Where("token_address = ? AND instance_id = ?", tokenAddress, instanceID).
			Update("holder", to).Error
	})
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// ListHolderInstances returns the instances of one token class a holder
// currently owns.
func ListHolderInstances(tokenAddress, holder string) ([]models.TokenInstance, error) {
	var instances []models.TokenInstance
	err := database.DB.
		Where("token_address = ? AND holder = ?", tokenAddress, holder).
		Order("instance_id").
		Find(&instances).Error
	if err != nil {
		return nil, err
	}
	return instances, nil
}
