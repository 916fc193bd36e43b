package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflex/internal/policy"
)

// Attachment is a file stored in object storage. StorageKey is the S3 key.
type Attachment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null" json:"taskId"`
	UploaderID  uuid.UUID `gorm:"type:uuid;column:uploader_id;not null" json:"uploaderId"`
	FileName    string    `gorm:"column:file_name;not null" json:"fileName"`
	ContentType string    `gorm:"column:content_type" json:"contentType"`
	Size        int64     `gorm:"column:size" json:"size"`
	StorageKey  string    `gorm:"column:storage_key;not null" json:"-"`
	Checksum    string    `gorm:"column:checksum" json:"checksum"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Attachment) TableName() string {
	return "attachments"
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	newID(&a.ID)
	return nil
}

func (a *Attachment) Policy() *policy.Attachment {
	return &policy.Attachment{ID: a.ID, TaskID: a.TaskID, UploaderID: a.UploaderID}
}

type AttachmentManager struct {
	db *gorm.DB
}

func NewAttachmentManager(db *gorm.DB) *AttachmentManager {
	return &AttachmentManager{db: db}
}

func (m *AttachmentManager) Create(a *Attachment) error {
	return m.db.Create(a).Error
}

func (m *AttachmentManager) Get(id uuid.UUID) (*Attachment, error) {
	return First[Attachment](m.db, "id = ?", id)
}

func (m *AttachmentManager) ForTask(taskID uuid.UUID) ([]Attachment, error) {
	var out []Attachment
	err := m.db.Where("task_id = ?", taskID).Order("created_at ASC").Find(&out).Error
	return out, err
}
