package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Timestamps contains the audit columns shared by most tables.
type Timestamps struct {
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// newID fills an empty primary key so callers can use the id before the row
// is flushed, e.g. in notification metadata.
func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// idsOf plucks one uuid column from a filtered table.
func idsOf(db *gorm.DB, model any, column, where string, args ...any) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(model).Where(where, args...).Pluck(column, &ids).Error
	return ids, err
}
