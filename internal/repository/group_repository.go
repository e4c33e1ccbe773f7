package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/models"
)

// GroupRepository reads application groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// GetByID returns the group, or a NotFound error when no row exists.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	err := getOne(ctx, r.db, &g, `SELECT Id, Name, IsAdmin FROM SecurityGroup WHERE Id = ?`, id)
	if err != nil {
		return nil, classify("GroupRepository.GetByID", "group", err)
	}
	return &g, nil
}

// List returns every group ordered by name.
func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	groups := []models.Group{}
	if err := selectAll(ctx, r.db, &groups, `SELECT Id, Name, IsAdmin FROM SecurityGroup ORDER BY Name`); err != nil {
		return nil, classify("GroupRepository.List", "groups", err)
	}
	return groups, nil
}
