package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/models"
)

// ComponentHelpRepository handles the 1:1 help record of a component.
type ComponentHelpRepository struct {
	db *sqlx.DB
}

func NewComponentHelpRepository(db *sqlx.DB) *ComponentHelpRepository {
	return &ComponentHelpRepository{db: db}
}

// GetForComponent returns the stored help record, or the empty default
// instance when the component has none.
func (r *ComponentHelpRepository) GetForComponent(ctx context.Context, tx *sqlx.Tx, componentID string) (models.ComponentHelp, error) {
	var h models.ComponentHelp
	err := getOne(ctx, executor(r.db, tx), &h, `
		SELECT Id, ComponentId,
			COALESCE(SupportGroup, '') AS SupportGroup, COALESCE(ContactName, '') AS ContactName,
			COALESCE(ContactEmail, '') AS ContactEmail, COALESCE(ContactPhone, '') AS ContactPhone,
			COALESCE(Description, '') AS Description, COALESCE(InactivityNotes, '') AS InactivityNotes,
			COALESCE(ResolutionNotes, '') AS ResolutionNotes, HelpSchedule
		FROM ComponentHelp
		WHERE ComponentId = ?`, componentID)
	if err != nil {
		err = classify("ComponentHelpRepository.GetForComponent", "component help", err)
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return models.NewComponentHelp(componentID), nil
		}
		return models.ComponentHelp{}, err
	}
	return h, nil
}

// Update writes the record by id within its own component and reports whether
// a row matched. A record owned by another component is never touched.
func (r *ComponentHelpRepository) Update(ctx context.Context, tx *sqlx.Tx, h models.ComponentHelp) (bool, error) {
	n, err := exec(ctx, executor(r.db, tx), `
		UPDATE ComponentHelp
		SET SupportGroup = ?, ContactName = ?, ContactEmail = ?, ContactPhone = ?,
			Description = ?, InactivityNotes = ?, ResolutionNotes = ?, HelpSchedule = ?
		WHERE Id = ? AND ComponentId = ?`,
		h.SupportGroup, h.ContactName, h.ContactEmail, h.ContactPhone,
		h.Description, h.InactivityNotes, h.ResolutionNotes, h.HelpSchedule, h.ID, h.ComponentID)
	if err != nil {
		return false, classify("ComponentHelpRepository.Update", "component help", err)
	}
	return n > 0, nil
}

// IDTaken reports whether any help record already uses id.
func (r *ComponentHelpRepository) IDTaken(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	var n int
	if err := getOne(ctx, executor(r.db, tx), &n, "SELECT COUNT(*) FROM ComponentHelp WHERE Id = ?", id); err != nil {
		return false, classify("ComponentHelpRepository.IDTaken", "component help", err)
	}
	return n > 0, nil
}

// Insert stores a new help record.
func (r *ComponentHelpRepository) Insert(ctx context.Context, tx *sqlx.Tx, h models.ComponentHelp) error {
	_, err := exec(ctx, executor(r.db, tx), `
		INSERT INTO ComponentHelp (Id, ComponentId, SupportGroup, ContactName, ContactEmail, ContactPhone,
			Description, InactivityNotes, ResolutionNotes, HelpSchedule)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.ComponentID, h.SupportGroup, h.ContactName, h.ContactEmail, h.ContactPhone,
		h.Description, h.InactivityNotes, h.ResolutionNotes, h.HelpSchedule)
	if err != nil {
		return classify("ComponentHelpRepository.Insert", "component help", err)
	}
	return nil
}
