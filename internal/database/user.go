package database

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"taskflex/internal/models"
)

// UpsertOAuthUser creates a new user or refreshes an existing one's profile.
func (s *service) UpsertOAuthUser(ctx context.Context, user *models.User) error {
	if user.Provider == "" || user.ProviderID == "" || user.Email == "" {
		return translate("upsert user", ErrValidation)
	}
	return translate("upsert user", s.with(ctx).Users.Upsert(user))
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.with(ctx).Users.Get(id)
	return u, translate("get user", err)
}

func (s *service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.with(ctx).Users.GetByEmail(strings.TrimSpace(email))
	return u, translate("get user by email", err)
}

// ResolveEmails maps lower-cased addresses to active user ids. Addresses
// with no matching user are left out.
func (s *service) ResolveEmails(ctx context.Context, emails []string) (map[string]uuid.UUID, error) {
	lowered := make([]string, 0, len(emails))
	for _, e := range emails {
		lowered = append(lowered, strings.ToLower(e))
	}
	m, err := s.with(ctx).Users.ByEmails(lowered)
	return m, translate("resolve emails", err)
}

func (s *service) UserNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	m, err := s.with(ctx).Users.Names(ids)
	return m, translate("user names", err)
}
