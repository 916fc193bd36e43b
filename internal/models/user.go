package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskflex/internal/policy"
)

// User represents a user in the system
type User struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Provider   string            `gorm:"column:provider;not null" json:"provider"`
	ProviderID string            `gorm:"column:provider_id;not null" json:"-"`
	Email      string            `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Name       string            `gorm:"column:name;not null" json:"name"`
	AvatarURL  string            `gorm:"column:avatar_url" json:"avatarUrl"`
	Role       policy.GlobalRole `gorm:"column:role;not null;default:MEMBER" json:"role"`
	Status     policy.UserStatus `gorm:"column:status;not null;default:ACTIVE" json:"status"`
	Timestamps
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = policy.GlobalMember
	}
	if u.Status == "" {
		u.Status = policy.UserActive
	}
	return nil
}

// Principal is the identity the access evaluator sees for this user.
func (u *User) Principal() *policy.Principal {
	return &policy.Principal{UserID: u.ID, Role: u.Role, Email: u.Email, Name: u.Name}
}

// UserManager provides Django-like ORM methods for User
type UserManager struct {
	db *gorm.DB
}

// NewUserManager creates a new UserManager instance
func NewUserManager(db *gorm.DB) *UserManager {
	return &UserManager{db: db}
}

// Upsert creates the user on first login and refreshes the profile fields on
// every later one. Role and status are never touched.
func (m *UserManager) Upsert(user *User) error {
	err := m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "avatar_url", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return err
	}
	// On conflict the generated id is not the stored one.
	stored, err := m.GetByProvider(user.Provider, user.ProviderID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// Get retrieves a user by ID
func (m *UserManager) Get(id uuid.UUID) (*User, error) {
	return First[User](m.db, "id = ?", id)
}

// GetByEmail retrieves a user by email
func (m *UserManager) GetByEmail(email string) (*User, error) {
	return First[User](m.db, "email = ?", strings.ToLower(email))
}

// GetByProvider retrieves a user by provider and provider ID
func (m *UserManager) GetByProvider(provider, providerID string) (*User, error) {
	return First[User](m.db, "provider = ? AND provider_id = ?", provider, providerID)
}

// ByEmails maps each known lower-cased address to its user id. Unknown
// addresses are simply absent.
func (m *UserManager) ByEmails(emails []string) (map[string]uuid.UUID, error) {
	out := make(map[string]uuid.UUID, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	var rows []struct {
		ID    uuid.UUID
		Email string
	}
	err := m.db.Model(&User{}).
		Select("id, email").
		Where("email IN ? AND status = ?", emails, policy.UserActive).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[strings.ToLower(r.Email)] = r.ID
	}
	return out, nil
}

// Names returns display names keyed by user id.
func (m *UserManager) Names(ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []User
	if err := m.db.Select("id, name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.Name
	}
	return out, nil
}
