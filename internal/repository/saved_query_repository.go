package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/models"
)

// SavedQueryRepository stores per-user searches.
type SavedQueryRepository struct {
	db *sqlx.DB
}

func NewSavedQueryRepository(db *sqlx.DB) *SavedQueryRepository {
	return &SavedQueryRepository{db: db}
}

func (r *SavedQueryRepository) ListForUser(ctx context.Context, userID string) ([]models.SavedQuery, error) {
	queries := []models.SavedQuery{}
	err := selectAll(ctx, r.db, &queries, `
		SELECT Id, UserId, Name, Body, CreatedDate
		FROM SavedQuery
		WHERE UserId = ?
		ORDER BY Name, Id`, userID)
	if err != nil {
		return nil, classify("SavedQueryRepository.ListForUser", "saved queries", err)
	}
	return queries, nil
}

func (r *SavedQueryRepository) Create(ctx context.Context, q models.SavedQuery) error {
	_, err := exec(ctx, r.db, `
		INSERT INTO SavedQuery (Id, UserId, Name, Body, CreatedDate)
		VALUES (?, ?, ?, ?, ?)`, q.ID, q.UserID, q.Name, q.Body, q.CreatedDate)
	if err != nil {
		return classify("SavedQueryRepository.Create", "saved query", err)
	}
	return nil
}

// Delete removes the query when it belongs to userID.
func (r *SavedQueryRepository) Delete(ctx context.Context, id, userID string) error {
	const op = "SavedQueryRepository.Delete"

	n, err := exec(ctx, r.db, `DELETE FROM SavedQuery WHERE Id = ? AND UserId = ?`, id, userID)
	if err != nil {
		return classify(op, "saved query", err)
	}
	if n == 0 {
		return apperrors.NotFound(op, "saved query not found")
	}
	return nil
}
