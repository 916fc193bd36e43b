package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflex/internal/policy"
)

type Meeting struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID      uuid.UUID `gorm:"type:uuid;not null" json:"teamId"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	StartTime   time.Time `gorm:"column:start_time;not null" json:"startTime"`
	EndTime     time.Time `gorm:"column:end_time;not null" json:"endTime"`
	MeetLink    string    `gorm:"column:meet_link" json:"meetLink,omitempty"`
	CreatedByID uuid.UUID `gorm:"type:uuid;column:created_by_id;not null" json:"createdById"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Meeting) TableName() string {
	return "meetings"
}

func (mt *Meeting) BeforeCreate(tx *gorm.DB) error {
	newID(&mt.ID)
	return nil
}

func (mt *Meeting) Ref() policy.MeetingRef {
	return policy.MeetingRef{
		ID:        mt.ID,
		Title:     mt.Title,
		StartTime: mt.StartTime,
		EndTime:   mt.EndTime,
		MeetLink:  mt.MeetLink,
	}
}

type MeetingManager struct {
	db *gorm.DB
}

func NewMeetingManager(db *gorm.DB) *MeetingManager {
	return &MeetingManager{db: db}
}

func (m *MeetingManager) Create(meeting *Meeting) error {
	return m.db.Create(meeting).Error
}

// GetForTeam fetches a meeting only if it belongs to teamID.
func (m *MeetingManager) GetForTeam(teamID, id uuid.UUID) (*Meeting, error) {
	return First[Meeting](m.db, "id = ? AND team_id = ?", id, teamID)
}

func (m *MeetingManager) ForTeam(teamID uuid.UUID) ([]Meeting, error) {
	var meetings []Meeting
	err := m.db.Where("team_id = ?", teamID).Order("start_time ASC").Find(&meetings).Error
	return meetings, err
}

func (m *MeetingManager) Delete(id uuid.UUID) error {
	res := m.db.Delete(&Meeting{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
