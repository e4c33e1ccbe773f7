package auth

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/config"
	"github.com/comit-io/galaxyapi/internal/models"
)

// GroupStore loads stored group records.
type GroupStore interface {
	GetByID(ctx context.Context, id string) (*models.Group, error)
}

// PermissionStore loads permission grants of a group.
type PermissionStore interface {
	ListTypes(ctx context.Context, systemName string) ([]models.PermissionType, error)
	SystemPermissions(ctx context.Context, groupID, systemName string) ([]models.Permission, error)
	ComponentTagPermissions(ctx context.Context, groupID, systemName string) ([]models.ComponentTagPermission, error)
}

// Aggregator merges the grants of a set of groups into one profile.
type Aggregator struct {
	groups        GroupStore
	perms         PermissionStore
	systemName    string
	unknownPolicy string
	concurrency   int
	log           *logrus.Logger
}

func NewAggregator(groups GroupStore, perms PermissionStore, systemName string, cfg config.AuthConfig, log *logrus.Logger) *Aggregator {
	concurrency := cfg.AggregateConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	policy := cfg.UnknownGroupPolicy
	if policy == "" {
		policy = config.UnknownGroupGrant
	}
	return &Aggregator{
		groups:        groups,
		perms:         perms,
		systemName:    systemName,
		unknownPolicy: policy,
		concurrency:   concurrency,
		log:           log,
	}
}

// Aggregate fetches each group's grants concurrently and merges them. The
// first failure cancels the remaining fetches and no profile is returned.
func (a *Aggregator) Aggregate(ctx context.Context, groupIDs []string) (models.AuthorizationProfile, error) {
	if len(groupIDs) == 0 {
		return models.MergeGrants(nil, nil), nil
	}

	grants := make([]models.GroupGrant, len(groupIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.concurrency)

	var catalog []models.PermissionType
	eg.Go(func() error {
		types, err := a.perms.ListTypes(egCtx, a.systemName)
		catalog = types
		return err
	})

	for i, id := range groupIDs {
		i, id := i, id
		eg.Go(func() error {
			grant, err := a.grant(egCtx, id)
			if err != nil {
				return err
			}
			grants[i] = grant
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return models.AuthorizationProfile{}, err
	}
	return models.MergeGrants(grants, catalog), nil
}

func (a *Aggregator) grant(ctx context.Context, groupID string) (models.GroupGrant, error) {
	grant := models.GroupGrant{GroupID: groupID}

	group, err := a.groups.GetByID(ctx, groupID)
	switch {
	case apperrors.KindOf(err) == apperrors.KindNotFound:
		if a.unknownPolicy == config.UnknownGroupIgnore {
			return models.GroupGrant{}, nil
		}
		if a.log != nil {
			a.log.WithField("group_id", groupID).Warn("Directory group has no stored record; granting all permissions")
		}
		grant.AllPermissions = true
		return grant, nil
	case err != nil:
		return grant, err
	case group.IsAdmin:
		grant.AllPermissions = true
		return grant, nil
	}

	if grant.SystemPermissions, err = a.perms.SystemPermissions(ctx, groupID, a.systemName); err != nil {
		return grant, err
	}
	if grant.ComponentTagPermissions, err = a.perms.ComponentTagPermissions(ctx, groupID, a.systemName); err != nil {
		return grant, err
	}
	return grant, nil
}
