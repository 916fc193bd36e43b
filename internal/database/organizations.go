package database

import (
	"context"

	"github.com/google/uuid"

	"taskflex/internal/models"
	"taskflex/internal/policy"
)

func (s *service) CreateOrganization(ctx context.Context, org *models.Organization, ownerID uuid.UUID) error {
	return translate("create organization", s.with(ctx).Organizations.CreateWithOwner(org, ownerID))
}

func (s *service) ListOrganizations(ctx context.Context, userID uuid.UUID) ([]models.Organization, error) {
	orgs, err := s.with(ctx).Organizations.ForUser(userID)
	return orgs, translate("list organizations", err)
}

func (s *service) OrganizationMembers(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationMember, error) {
	members, err := s.with(ctx).OrganizationMembers.ForOrganization(orgID)
	return members, translate("list organization members", err)
}

func (s *service) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	return translate("update organization", s.with(ctx).Organizations.UpdateDetails(org))
}

func (s *service) SetOrganizationAdminKey(ctx context.Context, orgID uuid.UUID, hash []byte) error {
	return translate("rotate admin key", s.with(ctx).Organizations.SetAdminKeyHash(orgID, hash))
}

func (s *service) DeleteOrganization(ctx context.Context, orgID uuid.UUID) error {
	return translate("delete organization", s.with(ctx).Organizations.Delete(orgID))
}

// AddOrganizationMember adds an existing user. Adding someone twice is a
// conflict. OWNER cannot be granted this way.
func (s *service) AddOrganizationMember(ctx context.Context, orgID, userID uuid.UUID, role policy.OrgRole) (*models.OrganizationMember, error) {
	if role == "" {
		role = policy.OrgMember
	}
	if !role.Valid() || role == policy.OrgOwner {
		return nil, translate("add organization member", ErrValidation)
	}
	m := &models.OrganizationMember{OrganizationID: orgID, UserID: userID, Role: role}
	if err := s.with(ctx).OrganizationMembers.Create(m); err != nil {
		return nil, translate("add organization member", err)
	}
	return m, nil
}
