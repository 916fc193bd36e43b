package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflex/internal/policy"
)

// TeamMembership represents the relationship between users and teams. A
// PENDING row carries the invitation token until it is accepted.
type TeamMembership struct {
	ID          uuid.UUID               `gorm:"type:uuid;primaryKey" json:"id"`
	TeamID      uuid.UUID               `gorm:"type:uuid;not null" json:"teamId"`
	UserID      uuid.UUID               `gorm:"type:uuid;not null" json:"userId"`
	Role        policy.TeamRole         `gorm:"column:role;not null;default:MEMBER" json:"role"`
	Status      policy.MembershipStatus `gorm:"column:status;not null;default:PENDING" json:"status"`
	InvitedByID *uuid.UUID              `gorm:"type:uuid;column:invited_by_id" json:"invitedById,omitempty"`
	Token       *string                 `gorm:"column:token;uniqueIndex" json:"-"`
	ExpiresAt   *time.Time              `gorm:"column:expires_at" json:"expiresAt,omitempty"`
	JoinedAt    *time.Time              `gorm:"column:joined_at" json:"joinedAt,omitempty"`
	CreatedAt   time.Time               `gorm:"column:created_at" json:"createdAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Team *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

// TableName specifies the table name for the TeamMembership model
func (TeamMembership) TableName() string {
	return "team_memberships"
}

// Policy converts the row for the access evaluator. Nil-safe.
func (tm *TeamMembership) Policy() *policy.TeamMembership {
	if tm == nil {
		return nil
	}
	return &policy.TeamMembership{
		ID:     tm.ID,
		TeamID: tm.TeamID,
		UserID: tm.UserID,
		Role:   tm.Role,
		Status: tm.Status,
	}
}

// IsActive checks if the membership is active
func (tm *TeamMembership) IsActive() bool {
	return tm.Status == policy.StatusActive
}

// IsOwner checks if the membership has owner role
func (tm *TeamMembership) IsOwner() bool {
	return tm.Role == policy.TeamOwner
}

// TeamMembershipManager provides Django-like ORM methods for TeamMembership
type TeamMembershipManager struct {
	db *gorm.DB
}

// NewTeamMembershipManager creates a new TeamMembershipManager instance
func NewTeamMembershipManager(db *gorm.DB) *TeamMembershipManager {
	return &TeamMembershipManager{db: db}
}

// Get retrieves a membership by ID
func (m *TeamMembershipManager) Get(id uuid.UUID) (*TeamMembership, error) {
	return First[TeamMembership](m.db, "id = ?", id)
}

// GetByUserAndTeam retrieves a membership by user and team
func (m *TeamMembershipManager) GetByUserAndTeam(userID, teamID uuid.UUID) (*TeamMembership, error) {
	return First[TeamMembership](m.db, "user_id = ? AND team_id = ?", userID, teamID)
}

// ForTeam lists every membership of a team, pending ones included.
func (m *TeamMembershipManager) ForTeam(teamID uuid.UUID) ([]TeamMembership, error) {
	var memberships []TeamMembership
	err := m.db.Preload("User").
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&memberships).Error
	return memberships, err
}

// ActiveUserIDs returns the user ids of the team's ACTIVE members.
func (m *TeamMembershipManager) ActiveUserIDs(teamID uuid.UUID) ([]uuid.UUID, error) {
	return idsOf(m.db, &TeamMembership{}, "user_id", "team_id = ? AND status = ?", teamID, policy.StatusActive)
}

// UpdateRole writes the role column only; concurrent edits are last-write-wins.
func (m *TeamMembershipManager) UpdateRole(id uuid.UUID, role policy.TeamRole) error {
	res := m.db.Model(&TeamMembership{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete deletes a membership
func (m *TeamMembershipManager) Delete(id uuid.UUID) error {
	res := m.db.Delete(&TeamMembership{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
