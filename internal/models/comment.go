package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID   uuid.UUID `gorm:"type:uuid;not null" json:"taskId"`
	AuthorID uuid.UUID `gorm:"type:uuid;column:author_id;not null" json:"authorId"`
	Content  string    `gorm:"column:content;not null" json:"content"`
	Timestamps

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

type CommentManager struct {
	db *gorm.DB
}

func NewCommentManager(db *gorm.DB) *CommentManager {
	return &CommentManager{db: db}
}

func (m *CommentManager) Create(comment *Comment) error {
	return m.db.Create(comment).Error
}

func (m *CommentManager) ForTask(taskID uuid.UUID) ([]Comment, error) {
	var comments []Comment
	err := m.db.Preload("Author").
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// AuthorIDs returns the distinct authors who have commented on the task.
func (m *CommentManager) AuthorIDs(taskID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := m.db.Model(&Comment{}).
		Distinct().
		Where("task_id = ?", taskID).
		Pluck("author_id", &ids).Error
	return ids, err
}
