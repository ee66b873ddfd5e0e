package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

// NextReference allocates the next zero-padded reference for a prefix, e.g.
// DNV-B-00042. It must be called inside the transaction that creates the
// referencing row: the counter row is taken with a row lock so two writers
// cannot hand out the same suffix, and a rolled-back sale rolls the counter
// back with it.
//
// The counter seeds itself lazily from the highest existing reference, which
// keeps pre-existing data numbering where it left off.
func NextReference(tx *gorm.DB, prefix string) (string, error) {
	var seq models.ReferenceSequence
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ?", prefix).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq = models.ReferenceSequence{Prefix: prefix, NextNumber: seedFromExisting(tx, prefix)}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq)
		if res.Error != nil {
			return "", res.Error
		}
		if res.RowsAffected == 0 {
			// another writer created the counter first; take theirs under the lock
			seq = models.ReferenceSequence{}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("prefix = ?", prefix).
				First(&seq).Error; err != nil {
				return "", err
			}
		}
	} else if err != nil {
		return "", err
	}

	n := seq.NextNumber
	if err := tx.Model(&models.ReferenceSequence{}).
		Where("prefix = ?", prefix).
		Update("next_number", n+1).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, n), nil
}

// seedFromExisting finds the highest suffix already issued under the prefix.
// Suffixes are zero padded, so lexicographic max is numeric max.
func seedFromExisting(tx *gorm.DB, prefix string) int {
	var last string
	tx.Model(&models.Sale{}).
		Where("reference_number LIKE ?", prefix+"%").
		Order("reference_number DESC").
		Limit(1).
		Pluck("reference_number", &last)
	if last == "" {
		return 1
	}
	suffix := strings.TrimPrefix(last, prefix)
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 1
	}
	return n + 1
}
