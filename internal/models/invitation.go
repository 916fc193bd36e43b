package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflex/internal/policy"
)

// InvitationTTL is how long a team invitation token stays valid.
const InvitationTTL = 7 * 24 * time.Hour

// BeforeCreate generates the id and, for pending rows, a single-use token
// and its expiry.
func (tm *TeamMembership) BeforeCreate(tx *gorm.DB) error {
	newID(&tm.ID)
	if tm.Status == "" {
		tm.Status = policy.StatusPending
	}
	if tm.Status != policy.StatusPending || tm.Token != nil {
		return nil
	}

	// Generate a secure random token
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return err
	}
	token := hex.EncodeToString(tokenBytes)
	tm.Token = &token

	if tm.ExpiresAt == nil {
		exp := time.Now().Add(InvitationTTL)
		tm.ExpiresAt = &exp
	}
	return nil
}

// Invite creates a PENDING membership for userID. A second invitation for
// the same user and team violates the (team_id, user_id) unique index.
func (m *TeamMembershipManager) Invite(teamID, userID, inviterID uuid.UUID, role policy.TeamRole) (*TeamMembership, error) {
	tm := &TeamMembership{
		TeamID:      teamID,
		UserID:      userID,
		Role:        role,
		Status:      policy.StatusPending,
		InvitedByID: &inviterID,
	}
	if err := m.db.Create(tm).Error; err != nil {
		return nil, err
	}
	return tm, nil
}

// GetPendingByToken retrieves a pending, unexpired invitation by token
func (m *TeamMembershipManager) GetPendingByToken(token string) (*TeamMembership, error) {
	var tm TeamMembership
	err := m.db.Where("token = ? AND status = ? AND expires_at > ?", token, policy.StatusPending, time.Now()).
		Preload("Team").
		First(&tm).Error
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

// Accept activates the membership and burns the token.
func (tm *TeamMembership) Accept(db *gorm.DB) error {
	if !tm.IsValid() {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	res := db.Model(&TeamMembership{}).
		Where("id = ? AND status = ?", tm.ID, policy.StatusPending).
		Updates(map[string]any{
			"status":    policy.StatusActive,
			"token":     nil,
			"joined_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	tm.Status = policy.StatusActive
	tm.Token = nil
	tm.JoinedAt = &now
	return nil
}

// IsValid checks if the invitation is still valid
func (tm *TeamMembership) IsValid() bool {
	return tm.Status == policy.StatusPending && tm.Token != nil &&
		tm.ExpiresAt != nil && time.Now().Before(*tm.ExpiresAt)
}

// InvitationLink generates the link the invitee follows.
func (tm *TeamMembership) InvitationLink(baseURL string) string {
	if tm.Token == nil {
		return ""
	}
	return baseURL + "/team-invitations/" + *tm.Token
}
