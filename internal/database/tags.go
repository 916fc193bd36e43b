package database

import (
	"context"
	"strings"

	"taskflex/internal/models"
)

func (s *service) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.with(ctx).Tags.All()
	return tags, translate("list tags", err)
}

// CreateTag fails with ErrConflict when the name is taken.
func (s *service) CreateTag(ctx context.Context, tag *models.Tag) error {
	if strings.TrimSpace(tag.Name) == "" {
		return translate("create tag", ErrValidation)
	}
	return translate("create tag", s.with(ctx).Tags.Create(tag))
}
