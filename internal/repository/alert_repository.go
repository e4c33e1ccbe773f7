package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/models"
)

// AlertRepository handles component alert definitions.
type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// ListForComponent returns the component's alerts ordered by type.
func (r *AlertRepository) ListForComponent(ctx context.Context, tx *sqlx.Tx, componentID string) ([]models.Alert, error) {
	alerts := []models.Alert{}
	err := selectAll(ctx, executor(r.db, tx), &alerts, `
		SELECT Id, ComponentId, Type, COALESCE(Severity, '') AS Severity,
			MessageThreshold, RetryWaitTime, AlertSchedule, Notify
		FROM Alert
		WHERE ComponentId = ?
		ORDER BY Type`, componentID)
	if err != nil {
		return nil, classify("AlertRepository.ListForComponent", "alerts", err)
	}
	return alerts, nil
}

// DeleteForComponent removes every alert of the component.
func (r *AlertRepository) DeleteForComponent(ctx context.Context, tx *sqlx.Tx, componentID string) error {
	if _, err := exec(ctx, executor(r.db, tx), `DELETE FROM Alert WHERE ComponentId = ?`, componentID); err != nil {
		return classify("AlertRepository.DeleteForComponent", "alerts", err)
	}
	return nil
}

// Insert stores one alert.
func (r *AlertRepository) Insert(ctx context.Context, tx *sqlx.Tx, a models.Alert) error {
	_, err := exec(ctx, executor(r.db, tx), `
		INSERT INTO Alert (Id, ComponentId, Type, Severity, MessageThreshold, RetryWaitTime, AlertSchedule, Notify)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ComponentID, a.Type, a.Severity, a.MessageThreshold, a.RetryWaitTime, a.AlertSchedule, a.Notify)
	if err != nil {
		return classify("AlertRepository.Insert", "alert", err)
	}
	return nil
}
