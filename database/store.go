package database

import (
	"errors"

	"gorm.io/gorm"
)

// Entity store errors.
var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateID is returned when creating a record whose identifier
	// already exists.
	ErrDuplicateID = errors.New("identifier already exists")
	// ErrFieldNotMutable is returned when an update touches a field outside
	// the kind's mutable allowlist.
	ErrFieldNotMutable = errors.New("field is not mutable")
)

// Record kinds of the governance store.
const (
	KindDao      = "daos"
	KindProposal = "proposals"
)

// mutableFields is the per-kind allowlist. Records are immutable by
// default; only the columns listed here may be rewritten after creation.
// Identifiers, creation time/epoch and registry references are absent on
// purpose.
var mutableFields = map[string]map[string]bool{
	KindDao: {
		"name":             true,
		"description":      true,
		"info_url":         true,
		"key_image_url":    true,
		"dao_type":         true,
		"governance_token": true,
		"about":            true,
		"general":          true,
		"rules":            true,
		"additional_data":  true,
		"additional_list":  true,
	},
	KindProposal: {
		"info_url":        true,
		"key_image_url":   true,
		"additional_data": true,
	},
}

// Create inserts a record, translating a primary-key collision into
// ErrDuplicateID.
func Create(db *gorm.DB, record interface{}) error {
	if err := db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

// Get loads a record by primary key into dest, translating a miss into
// ErrNotFound.
func Get(db *gorm.DB, dest interface{}, id string) error {
	if err := db.First(dest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// UpdateFields overwrites the given columns of one record in a single
// statement. Every field must be on the kind's mutable allowlist; the
// whole call is rejected before any write if one is not, so the update is
// all-or-nothing.
func UpdateFields(db *gorm.DB, model interface{}, kind, id string, fields map[string]interface{}) error {
	allowed, ok := mutableFields[kind]
	if !ok {
		return ErrFieldNotMutable
	}
	for name := range fields {
		if !allowed[name] {
			return ErrFieldNotMutable
		}
	}

	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	return db.Model(model).Where("id = ?", id).Updates(fields).Error
}
