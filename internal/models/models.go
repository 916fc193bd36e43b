// Package models provides GORM-based models with a Django ORM-like interface
// for users, organizations, teams, projects, tasks and their satellites.
//
// Every table has a Manager holding a *gorm.DB; DB bundles them and
// WithContext rebinds the whole set to a request context.
package models

import (
	"github.com/google/uuid"

	"taskflex/internal/policy"
)

// TeamDetail is a team together with its member list.
type TeamDetail struct {
	Team
	Members []TeamMembership `json:"members"`
}

// OrganizationDetail is an organization together with its members.
type OrganizationDetail struct {
	Organization
	Members []OrganizationMember `json:"members"`
}

// CreatedOrganization is returned once on creation; AdminKey is never
// retrievable afterwards.
type CreatedOrganization struct {
	Organization
	AdminKey string `json:"adminKey"`
}

// TaskDetail is a task with its comments and attachments.
type TaskDetail struct {
	Task
	Comments    []Comment    `json:"comments"`
	Attachments []Attachment `json:"attachments"`
}

// Access reduces the task to what the attachment rule needs.
func (t *Task) Access() *policy.TaskAccess {
	return &policy.TaskAccess{CreatorID: t.CreatorID, AssigneeIDs: append([]uuid.UUID(nil), t.AssigneeIDs...)}
}
