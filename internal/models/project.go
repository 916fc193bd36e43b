package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflex/internal/policy"
)

// Project holds tasks. Key is a short unique code such as "OPS".
type Project struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Key            string     `gorm:"column:key;uniqueIndex;not null" json:"key"`
	Name           string     `gorm:"column:name;not null" json:"name"`
	Description    string     `gorm:"column:description" json:"description"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;column:organization_id" json:"organizationId,omitempty"`
	TeamID         *uuid.UUID `gorm:"type:uuid;column:team_id" json:"teamId,omitempty"`
	CreatedByID    uuid.UUID  `gorm:"type:uuid;column:created_by_id;not null" json:"createdById"`
	Timestamps
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	p.Key = strings.ToUpper(strings.TrimSpace(p.Key))
	return nil
}

func (p *Project) Policy() *policy.Project {
	return &policy.Project{
		ID:             p.ID,
		Key:            p.Key,
		Name:           p.Name,
		OrganizationID: p.OrganizationID,
		TeamID:         p.TeamID,
	}
}

// ProjectMember is a direct project membership.
type ProjectMember struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey" json:"projectId"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	AddedAt   time.Time `gorm:"column:added_at" json:"addedAt"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

func (pm *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	if pm.AddedAt.IsZero() {
		pm.AddedAt = time.Now()
	}
	return nil
}

type ProjectManager struct {
	db *gorm.DB
}

func NewProjectManager(db *gorm.DB) *ProjectManager {
	return &ProjectManager{db: db}
}

// CreateWithMember creates the project and makes the creator a direct member.
func (m *ProjectManager) CreateWithMember(project *Project) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		return tx.Create(&ProjectMember{ProjectID: project.ID, UserID: project.CreatedByID}).Error
	})
}

func (m *ProjectManager) Get(id uuid.UUID) (*Project, error) {
	return First[Project](m.db, "id = ?", id)
}

func (m *ProjectManager) IsDirectMember(projectID, userID uuid.UUID) (bool, error) {
	return Exists[ProjectMember](m.db, "project_id = ? AND user_id = ?", projectID, userID)
}

// IsTeamMember reports whether userID is an active member of the project's
// owning team.
func (m *ProjectManager) IsTeamMember(project *Project, userID uuid.UUID) (bool, error) {
	if project.TeamID == nil {
		return false, nil
	}
	return Exists[TeamMembership](m.db, "team_id = ? AND user_id = ? AND status = ?",
		*project.TeamID, userID, policy.StatusActive)
}

// Accessible lists the projects the user can see without a global role.
func (m *ProjectManager) Accessible(userID uuid.UUID) ([]Project, error) {
	var projects []Project
	err := m.db.
		Where("id IN (?) OR team_id IN (?)",
			m.db.Model(&ProjectMember{}).Select("project_id").Where("user_id = ?", userID),
			m.db.Model(&TeamMembership{}).Select("team_id").
				Where("user_id = ? AND status = ?", userID, policy.StatusActive)).
		Order("created_at ASC").
		Find(&projects).Error
	return projects, err
}

func (m *ProjectManager) All() ([]Project, error) {
	var projects []Project
	err := m.db.Order("created_at ASC").Find(&projects).Error
	return projects, err
}

func (m *ProjectManager) AddMember(projectID, userID uuid.UUID) error {
	return m.db.Create(&ProjectMember{ProjectID: projectID, UserID: userID}).Error
}

// Delete removes the project; tasks and their children cascade.
func (m *ProjectManager) Delete(id uuid.UUID) error {
	return m.db.Delete(&Project{}, "id = ?", id).Error
}
