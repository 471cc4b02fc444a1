package scope

import "gorm.io/gorm"

// Ordering by id as a tie-breaker keeps repeated reads identical when rows
// share a creation timestamp.
func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
