package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Color     string    `gorm:"column:color" json:"color,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Tag) TableName() string {
	return "tags"
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	t.Name = strings.TrimSpace(t.Name)
	return nil
}

type TagManager struct {
	db *gorm.DB
}

func NewTagManager(db *gorm.DB) *TagManager {
	return &TagManager{db: db}
}

func (m *TagManager) Create(tag *Tag) error {
	return m.db.Create(tag).Error
}

func (m *TagManager) All() ([]Tag, error) {
	var tags []Tag
	err := m.db.Order("name ASC").Find(&tags).Error
	return tags, err
}
