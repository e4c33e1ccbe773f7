package auth

import (
	"context"

	"github.com/comit-io/galaxyapi/internal/models"
)

// ContextBuilder produces the authorization profile embedded in tokens.
type ContextBuilder struct {
	resolver   *MembershipResolver
	aggregator *Aggregator
}

func NewContextBuilder(resolver *MembershipResolver, aggregator *Aggregator) *ContextBuilder {
	return &ContextBuilder{resolver: resolver, aggregator: aggregator}
}

// Build resolves the user's groups and aggregates their permissions.
func (b *ContextBuilder) Build(ctx context.Context, username string) (models.AuthorizationProfile, error) {
	groups, err := b.resolver.ResolveGroups(ctx, username)
	if err != nil {
		return models.AuthorizationProfile{}, err
	}
	profile, err := b.aggregator.Aggregate(ctx, groups)
	if err != nil {
		return models.AuthorizationProfile{}, err
	}
	profile.UserID = username
	return profile, nil
}
