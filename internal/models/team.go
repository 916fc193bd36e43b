package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflex/internal/policy"
)

// Team groups users inside (optionally) an organization. OwnerID is the
// user who created it and can always manage it.
type Team struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string     `gorm:"column:name;not null" json:"name"`
	Description    string     `gorm:"column:description" json:"description"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;column:organization_id" json:"organizationId,omitempty"`
	OwnerID        uuid.UUID  `gorm:"type:uuid;column:owner_id;not null" json:"ownerId"`
	Timestamps
}

func (Team) TableName() string {
	return "teams"
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}

func (t *Team) Policy() *policy.Team {
	return &policy.Team{ID: t.ID, Name: t.Name, OwnerID: t.OwnerID}
}

func (t *Team) Ref() policy.TeamRef {
	return policy.TeamRef{ID: t.ID, Name: t.Name, OwnerID: t.OwnerID}
}

// TeamManager provides Django-like ORM methods for Team
type TeamManager struct {
	db *gorm.DB
}

func NewTeamManager(db *gorm.DB) *TeamManager {
	return &TeamManager{db: db}
}

// CreateWithOwner creates the team and its ACTIVE OWNER membership together.
func (m *TeamManager) CreateWithOwner(team *Team) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Create(&TeamMembership{
			TeamID:   team.ID,
			UserID:   team.OwnerID,
			Role:     policy.TeamOwner,
			Status:   policy.StatusActive,
			JoinedAt: &now,
		}).Error
	})
}

func (m *TeamManager) Get(id uuid.UUID) (*Team, error) {
	return First[Team](m.db, "id = ?", id)
}

// ForUser lists teams the user owns or is an active member of.
func (m *TeamManager) ForUser(userID uuid.UUID) ([]Team, error) {
	var teams []Team
	err := m.db.
		Where("owner_id = ? OR id IN (?)", userID,
			m.db.Model(&TeamMembership{}).Select("team_id").
				Where("user_id = ? AND status = ?", userID, policy.StatusActive)).
		Order("created_at ASC").
		Find(&teams).Error
	return teams, err
}

func (m *TeamManager) UpdateDetails(team *Team) error {
	return m.db.Model(team).Select("name", "description", "updated_at").Updates(team).Error
}
