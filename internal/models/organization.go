package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflex/internal/policy"
)

// Organization is the top-level tenant. AdminKeyHash never leaves the server.
type Organization struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Description  string    `gorm:"column:description" json:"description"`
	AdminKeyHash []byte    `gorm:"column:admin_key_hash;not null" json:"-"`
	CreatedByID  uuid.UUID `gorm:"type:uuid;column:created_by_id" json:"createdById"`
	Timestamps
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	newID(&o.ID)
	return nil
}

// Policy converts the row for the access evaluator.
func (o *Organization) Policy() *policy.Org {
	return &policy.Org{ID: o.ID, Name: o.Name, AdminKeyHash: o.AdminKeyHash}
}

// OrganizationMember links a user to an organization with a role.
type OrganizationMember struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null" json:"organizationId"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null" json:"userId"`
	Role           policy.OrgRole `gorm:"column:role;not null;default:MEMBER" json:"role"`
	JoinedAt       time.Time      `gorm:"column:joined_at" json:"joinedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}

func (om *OrganizationMember) BeforeCreate(tx *gorm.DB) error {
	newID(&om.ID)
	if om.JoinedAt.IsZero() {
		om.JoinedAt = time.Now()
	}
	return nil
}

// OrganizationManager provides Django-like ORM methods for Organization
type OrganizationManager struct {
	db *gorm.DB
}

func NewOrganizationManager(db *gorm.DB) *OrganizationManager {
	return &OrganizationManager{db: db}
}

// CreateWithOwner creates the organization and the creator's OWNER row in
// one transaction.
func (m *OrganizationManager) CreateWithOwner(org *Organization, ownerID uuid.UUID) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		org.CreatedByID = ownerID
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		return tx.Create(&OrganizationMember{
			OrganizationID: org.ID,
			UserID:         ownerID,
			Role:           policy.OrgOwner,
		}).Error
	})
}

func (m *OrganizationManager) Get(id uuid.UUID) (*Organization, error) {
	return First[Organization](m.db, "id = ?", id)
}

// ForUser lists the organizations the user belongs to.
func (m *OrganizationManager) ForUser(userID uuid.UUID) ([]Organization, error) {
	var orgs []Organization
	err := m.db.
		Joins("JOIN organization_members om ON om.organization_id = organizations.id").
		Where("om.user_id = ?", userID).
		Order("organizations.created_at ASC").
		Find(&orgs).Error
	return orgs, err
}

// UpdateDetails writes name and description only.
func (m *OrganizationManager) UpdateDetails(org *Organization) error {
	return m.db.Model(org).Select("name", "description", "updated_at").Updates(org).Error
}

func (m *OrganizationManager) SetAdminKeyHash(id uuid.UUID, hash []byte) error {
	res := m.db.Model(&Organization{}).Where("id = ?", id).Update("admin_key_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the organization; member rows cascade.
func (m *OrganizationManager) Delete(id uuid.UUID) error {
	return m.db.Delete(&Organization{}, "id = ?", id).Error
}

// OrganizationMemberManager provides Django-like ORM methods for OrganizationMember
type OrganizationMemberManager struct {
	db *gorm.DB
}

func NewOrganizationMemberManager(db *gorm.DB) *OrganizationMemberManager {
	return &OrganizationMemberManager{db: db}
}

func (m *OrganizationMemberManager) Create(member *OrganizationMember) error {
	return m.db.Create(member).Error
}

// GetByUserAndOrganization retrieves the caller's own membership row.
func (m *OrganizationMemberManager) GetByUserAndOrganization(userID, orgID uuid.UUID) (*OrganizationMember, error) {
	return First[OrganizationMember](m.db, "user_id = ? AND organization_id = ?", userID, orgID)
}

func (m *OrganizationMemberManager) ForOrganization(orgID uuid.UUID) ([]OrganizationMember, error) {
	var members []OrganizationMember
	err := m.db.Preload("User").
		Where("organization_id = ?", orgID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (m *OrganizationMemberManager) IsMember(userID, orgID uuid.UUID) (bool, error) {
	return Exists[OrganizationMember](m.db, "user_id = ? AND organization_id = ?", userID, orgID)
}
