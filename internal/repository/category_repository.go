package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/database"
	"github.com/comit-io/galaxyapi/internal/models"
)

// CategoryRepository handles component categories.
type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Search returns categories whose name contains term literally. An empty
// term lists every category.
func (r *CategoryRepository) Search(ctx context.Context, term string) ([]models.Category, error) {
	categories := []models.Category{}
	err := selectAll(ctx, r.db, &categories, `
		SELECT Id, Name FROM Category
		WHERE Name LIKE ? ESCAPE '!'
		ORDER BY Name, Id`, database.ContainsPattern(term))
	if err != nil {
		return nil, classify("CategoryRepository.Search", "categories", err)
	}
	return categories, nil
}
