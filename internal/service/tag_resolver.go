package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/database"
	"github.com/comit-io/galaxyapi/internal/models"
	"github.com/comit-io/galaxyapi/internal/repository"
)

// TagResolver stores a tag and links it to a component.
type TagResolver struct {
	tags  *repository.TagRepository
	newID func() string
}

func NewTagResolver(tags *repository.TagRepository, newID func() string) *TagResolver {
	return &TagResolver{tags: tags, newID: newID}
}

// UpsertForComponent forces the tag to the Component type, assigns an id when
// it has no valid one, upserts it and inserts one link row. Existing links are
// not removed; callers clear them first.
func (r *TagResolver) UpsertForComponent(ctx context.Context, tx *sqlx.Tx, tag models.Tag, componentID string) (models.Tag, error) {
	tag.Type = database.ComponentTagType
	tag.Components = nil
	if !models.IsValidID(tag.ID) {
		tag.ID = r.newID()
	}

	typeID, err := r.tags.TagTypeID(ctx, tx, database.ComponentTagType)
	if err != nil {
		return models.Tag{}, err
	}
	if err := r.tags.Upsert(ctx, tx, tag, typeID); err != nil {
		return models.Tag{}, err
	}
	if err := r.tags.Link(ctx, tx, tag.ID, componentID); err != nil {
		return models.Tag{}, err
	}
	return tag, nil
}
