package service

import (
	"errors"
	"log"

	"dao-governance-backend/database"
	"dao-governance-backend/models"

	"gorm.io/gorm"
)

// ErrNegativePrice rejects a negative proposal creation fee.
var ErrNegativePrice = errors.New("proposal creation price must not be negative")

func platformConfig(tx *gorm.DB) (*models.PlatformConfig, error) {
	var cfg models.PlatformConfig
	if err := tx.FirstOrCreate(&cfg, models.PlatformConfig{ID: 1}).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetPlatformConfig returns the fee settings and the collected balance.
func GetPlatformConfig() (*models.PlatformConfig, error) {
	return platformConfig(database.DB)
}

// SetProposalCreationPrice updates the fee charged on proposal creation.
// Platform-owner gated at the handler.
func SetProposalCreationPrice(price int64) error {
	if price < 0 {
		return ErrNegativePrice
	}
	return database.DB.Transaction(func(tx *gorm.DB) error {
		cfg, err := platformConfig(tx)
		if err != nil {
			return err
		}
		return tx.Model(cfg).Update("proposal_creation_price", price).Error
	})
}

// WithdrawFees empties the fee vault and returns the withdrawn amount.
// Platform-owner gated at the handler.
func WithdrawFees() (int64, error) {
	var withdrawn int64
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		cfg, err := platformConfig(tx)
		if err != nil {
			return err
		}
		withdrawn = cfg.CollectedFees
		return tx.Model(cfg).Update("collected_fees", 0).Error
	})
	if err != nil {
		return 0, err
	}
	log.Printf("Withdrew %d collected fees", withdrawn)
	return withdrawn, nil
}

// chargeProposalFee moves the configured creation fee into the vault.
func chargeProposalFee(tx *gorm.DB) error {
	cfg, err := platformConfig(tx)
	if err != nil {
		return err
	}
	if cfg.ProposalCreationPrice == 0 {
		return nil
	}
	return tx.Model(cfg).
		Update("collected_fees", gorm.Expr("collected_fees + ?", cfg.ProposalCreationPrice)).Error
}
