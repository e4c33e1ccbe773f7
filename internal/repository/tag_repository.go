package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/database"
	"github.com/comit-io/galaxyapi/internal/models"
)

const tagSelect = `
	SELECT t.Id, t.Name, tt.Name AS Type
	FROM Tag t
	JOIN TagType tt ON tt.Id = t.TagTypeId`

// TagRepository handles tags and their component links.
type TagRepository struct {
	db *sqlx.DB
}

func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// TagTypeID looks up a tag type id by name.
func (r *TagRepository) TagTypeID(ctx context.Context, tx *sqlx.Tx, name string) (string, error) {
	var id string
	err := getOne(ctx, executor(r.db, tx), &id, `SELECT Id FROM TagType WHERE Name = ?`, name)
	if err != nil {
		return "", classify("TagRepository.TagTypeID", "tag type "+name, err)
	}
	return id, nil
}

// Upsert updates the tag by id, inserting it when no row exists.
func (r *TagRepository) Upsert(ctx context.Context, tx *sqlx.Tx, tag models.Tag, tagTypeID string) error {
	const op = "TagRepository.Upsert"
	q := executor(r.db, tx)

	n, err := exec(ctx, q, `UPDATE Tag SET Name = ?, TagTypeId = ? WHERE Id = ?`, tag.Name, tagTypeID, tag.ID)
	if err != nil {
		return classify(op, "tag", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := exec(ctx, q, `INSERT INTO Tag (Id, Name, TagTypeId) VALUES (?, ?, ?)`, tag.ID, tag.Name, tagTypeID); err != nil {
		return classify(op, "tag", err)
	}
	return nil
}

// Link inserts one tag/component link row. Existing links are left alone.
func (r *TagRepository) Link(ctx context.Context, tx *sqlx.Tx, tagID, componentID string) error {
	_, err := exec(ctx, executor(r.db, tx), `INSERT INTO TagComponent (TagId, ComponentId) VALUES (?, ?)`, tagID, componentID)
	if err != nil {
		return classify("TagRepository.Link", "tag link", err)
	}
	return nil
}

// UnlinkComponent removes every tag link of the component.
func (r *TagRepository) UnlinkComponent(ctx context.Context, tx *sqlx.Tx, componentID string) error {
	_, err := exec(ctx, executor(r.db, tx), `DELETE FROM TagComponent WHERE ComponentId = ?`, componentID)
	if err != nil {
		return classify("TagRepository.UnlinkComponent", "tag links", err)
	}
	return nil
}

// ListForComponent returns the tags currently linked to the component.
func (r *TagRepository) ListForComponent(ctx context.Context, tx *sqlx.Tx, componentID string) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := selectAll(ctx, executor(r.db, tx), &tags, tagSelect+`
		JOIN TagComponent tc ON tc.TagId = t.Id
		WHERE tc.ComponentId = ?
		ORDER BY t.Name, t.Id`, componentID)
	if err != nil {
		return nil, classify("TagRepository.ListForComponent", "tags", err)
	}
	return tags, nil
}

// CountLinks returns the number of link rows between the tag and the component.
func (r *TagRepository) CountLinks(ctx context.Context, tagID, componentID string) (int, error) {
	var n int
	err := getOne(ctx, r.db, &n, `SELECT COUNT(*) FROM TagComponent WHERE TagId = ? AND ComponentId = ?`, tagID, componentID)
	if err != nil {
		return 0, classify("TagRepository.CountLinks", "tag links", err)
	}
	return n, nil
}

// List returns all tags with the components linked to them at query time.
func (r *TagRepository) List(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	if err := selectAll(ctx, r.db, &tags, tagSelect+` ORDER BY t.Name, t.Id`); err != nil {
		return nil, classify("TagRepository.List", "tags", err)
	}
	return r.attachComponents(ctx, tags)
}

// Search returns tags whose name contains term literally.
func (r *TagRepository) Search(ctx context.Context, term string) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := selectAll(ctx, r.db, &tags, tagSelect+`
		WHERE t.Name LIKE ? ESCAPE '!'
		ORDER BY t.Name, t.Id`, database.ContainsPattern(term))
	if err != nil {
		return nil, classify("TagRepository.Search", "tags", err)
	}
	return r.attachComponents(ctx, tags)
}

type tagComponentRow struct {
	TagID string `db:"TagId"`
	models.ComponentRef
}

func (r *TagRepository) attachComponents(ctx context.Context, tags []models.Tag) ([]models.Tag, error) {
	if len(tags) == 0 {
		return tags, nil
	}

	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	query, args, err := sqlx.In(`
		SELECT DISTINCT tc.TagId, c.Id, c.Name
		FROM TagComponent tc
		JOIN Component c ON c.Id = tc.ComponentId
		WHERE tc.TagId IN (?)
		ORDER BY c.Name, c.Id`, ids)
	if err != nil {
		return nil, classify("TagRepository.attachComponents", "tag components", err)
	}

	var rows []tagComponentRow
	if err := selectAll(ctx, r.db, &rows, query, args...); err != nil {
		return nil, classify("TagRepository.attachComponents", "tag components", err)
	}

	byTag := map[string][]models.ComponentRef{}
	for _, row := range rows {
		byTag[row.TagID] = append(byTag[row.TagID], row.ComponentRef)
	}
	for i := range tags {
		tags[i].Components = byTag[tags[i].ID]
	}
	return tags, nil
}
