package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/models"
	"github.com/comit-io/galaxyapi/internal/repository"
)

// LookupService provides the read-only lists used by the CoMIT front end.
// Every call reads storage; nothing is cached between requests.
type LookupService struct {
	systemName  string
	categories  *repository.CategoryRepository
	tags        *repository.TagRepository
	components  *repository.ComponentRepository
	alerts      *repository.AlertRepository
	groups      *repository.GroupRepository
	permissions *repository.PermissionRepository
}

// NewLookupService creates a new lookup service
func NewLookupService(db *sqlx.DB, systemName string) *LookupService {
	return &LookupService{
		systemName:  systemName,
		categories:  repository.NewCategoryRepository(db),
		tags:        repository.NewTagRepository(db),
		components:  repository.NewComponentRepository(db),
		alerts:      repository.NewAlertRepository(db),
		groups:      repository.NewGroupRepository(db),
		permissions: repository.NewPermissionRepository(db),
	}
}

func (s *LookupService) SearchCategories(ctx context.Context, term string) ([]models.Category, error) {
	return s.categories.Search(ctx, strings.TrimSpace(term))
}

func (s *LookupService) Tags(ctx context.Context) ([]models.Tag, error) {
	return s.tags.List(ctx)
}

func (s *LookupService) SearchTags(ctx context.Context, term string) ([]models.Tag, error) {
	return s.tags.Search(ctx, strings.TrimSpace(term))
}

func (s *LookupService) Components(ctx context.Context) ([]models.Component, error) {
	return s.components.List(ctx)
}

func (s *LookupService) ComponentAlerts(ctx context.Context, componentID string) ([]models.Alert, error) {
	if !models.IsValidID(componentID) {
		return nil, apperrors.Validation("LookupService.ComponentAlerts", "component id must be a valid identifier")
	}
	if _, err := s.components.GetByID(ctx, nil, componentID); err != nil {
		return nil, err
	}
	return s.alerts.ListForComponent(ctx, nil, componentID)
}

// PermissionTypes lists the permission types of this system.
func (s *LookupService) PermissionTypes(ctx context.Context) ([]models.PermissionType, error) {
	return s.permissions.ListTypes(ctx, s.systemName)
}

func (s *LookupService) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

// GroupPermissions returns a group with its stored grants.
func (s *LookupService) GroupPermissions(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.SystemPermissions, err = s.permissions.SystemPermissions(ctx, groupID, s.systemName); err != nil {
		return nil, err
	}
	if group.ComponentTagPermissions, err = s.permissions.ComponentTagPermissions(ctx, groupID, s.systemName); err != nil {
		return nil, err
	}
	return group, nil
}
