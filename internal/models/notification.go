package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"taskflex/internal/policy"
)

// Notification is one inbox entry, owned by UserID.
type Notification struct {
	ID        uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID               `gorm:"type:uuid;column:user_id;not null" json:"userId"`
	Type      policy.NotificationType `gorm:"column:type;not null" json:"type"`
	Title     string                  `gorm:"column:title;not null" json:"title"`
	Message   string                  `gorm:"column:message;not null" json:"message"`
	Metadata  datatypes.JSONMap       `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	Read      bool                    `gorm:"column:read;not null;default:false" json:"read"`
	CreatedAt time.Time               `gorm:"column:created_at" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	newID(&n.ID)
	if n.Metadata == nil {
		n.Metadata = datatypes.JSONMap{}
	}
	return nil
}

// NotificationFromDraft builds the row persisted for a fanout draft.
func NotificationFromDraft(d policy.Draft) *Notification {
	return &Notification{
		UserID:   d.RecipientID,
		Type:     d.Type,
		Title:    d.Title,
		Message:  d.Message,
		Metadata: datatypes.JSONMap(d.Metadata),
	}
}

// NotificationFilter narrows a user's inbox listing.
type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}

type NotificationManager struct {
	db *gorm.DB
}

func NewNotificationManager(db *gorm.DB) *NotificationManager {
	return &NotificationManager{db: db}
}

func (m *NotificationManager) Create(n *Notification) error {
	return m.db.Create(n).Error
}

// ForUser lists newest first.
func (m *NotificationManager) ForUser(userID uuid.UUID, f NotificationFilter) ([]Notification, error) {
	q := m.db.Where("user_id = ?", userID)
	if f.UnreadOnly {
		q = q.Where("read = ?", false)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []Notification
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (m *NotificationManager) UnreadCount(userID uuid.UUID) (int64, error) {
	var n int64
	err := m.db.Model(&Notification{}).Where("user_id = ? AND read = ?", userID, false).Count(&n).Error
	return n, err
}

// MarkRead only touches rows owned by userID.
func (m *NotificationManager) MarkRead(userID, id uuid.UUID) error {
	res := m.db.Model(&Notification{}).Where("id = ? AND user_id = ?", id, userID).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (m *NotificationManager) MarkAllRead(userID uuid.UUID) (int64, error) {
	res := m.db.Model(&Notification{}).Where("user_id = ? AND read = ?", userID, false).Update("read", true)
	return res.RowsAffected, res.Error
}

func (m *NotificationManager) Delete(userID, id uuid.UUID) error {
	res := m.db.Where("id = ? AND user_id = ?", id, userID).Delete(&Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
