// Package service implements GalaxyAPI's business operations on top of the
// repositories.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/database"
	"github.com/comit-io/galaxyapi/internal/models"
	"github.com/comit-io/galaxyapi/internal/repository"
)

// SettingsService reads and writes the full settings of a component: its
// attributes, help record, tag links and alert definitions.
type SettingsService struct {
	db         *sqlx.DB
	components *repository.ComponentRepository
	help       *repository.ComponentHelpRepository
	tags       *repository.TagRepository
	alerts     *repository.AlertRepository
	resolver   *TagResolver
	log        *logrus.Logger

	now   func() time.Time
	newID func() string
}

func NewSettingsService(db *sqlx.DB, log *logrus.Logger) *SettingsService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	tags := repository.NewTagRepository(db)
	s := &SettingsService{
		db:         db,
		components: repository.NewComponentRepository(db),
		help:       repository.NewComponentHelpRepository(db),
		tags:       tags,
		alerts:     repository.NewAlertRepository(db),
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
	s.resolver = NewTagResolver(tags, func() string { return s.newID() })
	return s
}

// Get assembles the current settings of a component.
func (s *SettingsService) Get(ctx context.Context, componentID string) (*models.ComponentSettings, error) {
	if !models.IsValidID(componentID) {
		return nil, apperrors.Validation("SettingsService.Get", "component id must be a valid identifier")
	}

	component, err := s.components.GetByID(ctx, nil, componentID)
	if err != nil {
		return nil, err
	}
	help, err := s.help.GetForComponent(ctx, nil, componentID)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.ListForComponent(ctx, nil, componentID)
	if err != nil {
		return nil, err
	}
	alerts, err := s.alerts.ListForComponent(ctx, nil, componentID)
	if err != nil {
		return nil, err
	}

	settings := &models.ComponentSettings{Component: *component, Help: help, Tags: tags}
	settings.ApplyAlerts(alerts)
	return settings, nil
}

// Update writes the payload in one transaction: component attributes, help
// upsert, tag unlink, tag upserts, alert delete and alert inserts, in that
// order. Any failure rolls back every step. The returned settings carry the
// identifiers assigned during the update.
func (s *SettingsService) Update(ctx context.Context, payload *models.ComponentSettings) (*models.ComponentSettings, error) {
	const op = "SettingsService.Update"

	if payload == nil {
		return nil, apperrors.Validation(op, "settings payload is required")
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	result := *payload
	componentID := result.Component.ID
	now := s.now()

	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.components.UpdateSettings(ctx, tx, result.Component, now); err != nil {
			return err
		}

		help, err := s.upsertHelp(ctx, tx, componentID, result.Help)
		if err != nil {
			return err
		}
		result.Help = help

		if err := s.tags.UnlinkComponent(ctx, tx, componentID); err != nil {
			return err
		}
		tags := uniqueTags(payload.Tags)
		result.Tags = make([]models.Tag, 0, len(tags))
		for _, tag := range tags {
			linked, err := s.resolver.UpsertForComponent(ctx, tx, tag, componentID)
			if err != nil {
				return err
			}
			result.Tags = append(result.Tags, linked)
		}

		if err := s.alerts.DeleteForComponent(ctx, tx, componentID); err != nil {
			return err
		}
		for _, alert := range result.Alerts() {
			alert.ID = s.newID()
			if err := s.alerts.Insert(ctx, tx, alert); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Transaction(op, err)
	}

	result.Component.ModifiedDate = &now
	s.log.WithFields(logrus.Fields{
		"component_id": componentID,
		"tags":         len(result.Tags),
		"alerts":       len(result.Alerts()),
	}).Info("Component settings updated")

	return &result, nil
}

// upsertHelp keeps a single help record per component. A valid id owned by
// the component updates that row. Otherwise the component's existing record is
// updated in place, and only a component without one gets an insert. The
// insert keeps a pre-assigned id unless another record already holds it.
func (s *SettingsService) upsertHelp(ctx context.Context, tx *sqlx.Tx, componentID string, help models.ComponentHelp) (models.ComponentHelp, error) {
	help.ComponentID = componentID

	if models.IsValidID(help.ID) {
		updated, err := s.help.Update(ctx, tx, help)
		if err != nil || updated {
			return help, err
		}
	}

	existing, err := s.help.GetForComponent(ctx, tx, componentID)
	if err != nil {
		return help, err
	}
	if existing.Exists() {
		help.ID = existing.ID
		_, err := s.help.Update(ctx, tx, help)
		return help, err
	}

	if models.IsValidID(help.ID) {
		taken, err := s.help.IDTaken(ctx, tx, help.ID)
		if err != nil {
			return help, err
		}
		if taken {
			help.ID = ""
		}
	}
	if !models.IsValidID(help.ID) {
		help.ID = s.newID()
	}
	return help, s.help.Insert(ctx, tx, help)
}

// uniqueTags drops repeated tags, keeping the first. Tags with a valid id are
// keyed by id, new tags by case-insensitive name. Linking one tag twice would
// leave a duplicate link row.
func uniqueTags(tags []models.Tag) []models.Tag {
	seen := make(map[string]struct{}, len(tags))
	out := make([]models.Tag, 0, len(tags))
	for _, tag := range tags {
		key := "name:" + strings.ToLower(strings.TrimSpace(tag.Name))
		if models.IsValidID(tag.ID) {
			key = "id:" + strings.ToLower(tag.ID)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
