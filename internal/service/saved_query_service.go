package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/models"
	"github.com/comit-io/galaxyapi/internal/repository"
)

// SavedQueryService manages the searches a user keeps.
type SavedQueryService struct {
	queries *repository.SavedQueryRepository
	now     func() time.Time
}

func NewSavedQueryService(db *sqlx.DB) *SavedQueryService {
	return &SavedQueryService{
		queries: repository.NewSavedQueryRepository(db),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *SavedQueryService) List(ctx context.Context, userID string) ([]models.SavedQuery, error) {
	return s.queries.ListForUser(ctx, userID)
}

// Create validates the body and stores the query for userID.
func (s *SavedQueryService) Create(ctx context.Context, userID, name string, body models.QueryBody) (*models.SavedQuery, error) {
	const op = "SavedQueryService.Create"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation(op, "query name is required")
	}
	if len(name) > 255 {
		return nil, apperrors.Validation(op, "query name is too long")
	}
	if body == nil {
		return nil, apperrors.Validation(op, "query body is required")
	}
	if err := body.Validate(); err != nil {
		return nil, apperrors.Validation(op, "query body: "+err.Error())
	}

	q := models.SavedQuery{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Body:        body,
		CreatedDate: s.now(),
	}
	if err := s.queries.Create(ctx, q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *SavedQueryService) Delete(ctx context.Context, userID, id string) error {
	return s.queries.Delete(ctx, id, userID)
}
