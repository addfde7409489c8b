package migrations

import (
	"log"

	"gorm.io/gorm"
)

// AddSpecificationToProposal adds the specification column to proposals
// created before full proposal texts were stored.
func AddSpecificationToProposal(db *gorm.DB) error {
	if db.Migrator().HasColumn(&Proposal{}, "specification") {
		log.Println("Migration skipped: specification column already exists")
		return nil
	}

	if err := db.Exec("ALTER TABLE proposals ADD COLUMN specification TEXT").Error; err != nil {
		log.Printf("Migration failed: %v", err)
		return err
	}
	log.Println("Migration done: specification column added to proposals")
	return nil
}

// Minimal struct for the column check only.
type Proposal struct {
	Specification string
}

func (Proposal) TableName() string {
	return "proposals"
}
