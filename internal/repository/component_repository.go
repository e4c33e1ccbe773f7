package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/models"
)

const componentSelect = `
	SELECT c.Id, c.Name, COALESCE(c.Type, '') AS Type, c.CategoryId, c.ModifiedDate,
		COALESCE(c.AlertEmail, '') AS AlertEmail, COALESCE(c.AlertPhone, '') AS AlertPhone,
		c.NotifyDisabled, COALESCE(c.StageStatus, '') AS StageStatus, c.AutoStart,
		cat.Id AS CatId, cat.Name AS CatName
	FROM Component c
	LEFT JOIN Category cat ON cat.Id = c.CategoryId`

type componentRow struct {
	models.Component
	CatID   *string `db:"CatId"`
	CatName *string `db:"CatName"`
}

func (r componentRow) component() models.Component {
	c := r.Component
	if r.CatID != nil {
		c.Category = &models.Category{ID: *r.CatID}
		if r.CatName != nil {
			c.Category.Name = *r.CatName
		}
	}
	return c
}

// ComponentRepository handles monitored components.
type ComponentRepository struct {
	db *sqlx.DB
}

func NewComponentRepository(db *sqlx.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

// GetByID returns the component with its category.
func (r *ComponentRepository) GetByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.Component, error) {
	var row componentRow
	if err := getOne(ctx, executor(r.db, tx), &row, componentSelect+` WHERE c.Id = ?`, id); err != nil {
		return nil, classify("ComponentRepository.GetByID", "component", err)
	}
	c := row.component()
	return &c, nil
}

// List returns every component ordered by name.
func (r *ComponentRepository) List(ctx context.Context) ([]models.Component, error) {
	var rows []componentRow
	if err := selectAll(ctx, r.db, &rows, componentSelect+` ORDER BY c.Name, c.Id`); err != nil {
		return nil, classify("ComponentRepository.List", "components", err)
	}
	components := make([]models.Component, 0, len(rows))
	for _, row := range rows {
		components = append(components, row.component())
	}
	return components, nil
}

// UpdateSettings writes the editable attributes and stamps ModifiedDate.
// A missing component is reported as NotFound.
func (r *ComponentRepository) UpdateSettings(ctx context.Context, tx *sqlx.Tx, c models.Component, modified time.Time) error {
	const op = "ComponentRepository.UpdateSettings"

	n, err := exec(ctx, executor(r.db, tx), `
		UPDATE Component
		SET CategoryId = ?, ModifiedDate = ?, AlertEmail = ?, AlertPhone = ?,
			NotifyDisabled = ?, StageStatus = ?, AutoStart = ?
		WHERE Id = ?`,
		c.CategoryID, modified, c.AlertEmail, c.AlertPhone,
		c.NotifyDisabled, c.StageStatus, c.AutoStart, c.ID)
	if err != nil {
		return classify(op, "component", err)
	}
	if n == 0 {
		return apperrors.NotFound(op, "component not found")
	}
	return nil
}
