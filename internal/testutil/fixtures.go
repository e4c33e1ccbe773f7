// Package testutil seeds in-memory databases for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comit-io/galaxyapi/internal/database"
	"github.com/comit-io/galaxyapi/internal/models"
)

// SystemName is the permission system used by seeded permission types.
const SystemName = "CoMIT"

// Fixture wraps a migrated SQLite database with seeding helpers. Every helper
// fails the test on error.
type Fixture struct {
	DB        *sqlx.DB
	TagTypeID string
	t         testing.TB
}

func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	db := database.NewTestDB(t)

	f := &Fixture{DB: db, t: t}
	if err := db.Get(&f.TagTypeID, "SELECT Id FROM TagType WHERE Name = ?", database.ComponentTagType); err != nil {
		t.Fatalf("load component tag type: %v", err)
	}
	return f
}

func (f *Fixture) exec(query string, args ...interface{}) {
	f.t.Helper()
	if _, err := f.DB.ExecContext(context.Background(), query, args...); err != nil {
		f.t.Fatalf("seed %q: %v", query, err)
	}
}

func (f *Fixture) Group(id, name string, admin bool) {
	f.t.Helper()
	f.exec("INSERT INTO SecurityGroup (Id, Name, IsAdmin) VALUES (?, ?, ?)", id, name, admin)
}

func (f *Fixture) PermissionType(pt models.PermissionType) {
	f.t.Helper()
	f.exec("INSERT INTO PermissionType (Id, Name, Code, IsItemType, SystemName) VALUES (?, ?, ?, ?, ?)",
		pt.ID, pt.Name, pt.Code, pt.IsItemType, pt.SystemName)
}

func (f *Fixture) SystemPermission(groupID, typeID string, has bool) {
	f.t.Helper()
	f.exec("INSERT INTO SystemPermission (Id, GroupId, PermissionTypeId, HasPermission) VALUES (?, ?, ?, ?)",
		uuid.NewString(), groupID, typeID, has)
}

func (f *Fixture) TagPermission(groupID, tagID, typeID string, has bool) {
	f.t.Helper()
	f.exec("INSERT INTO TagPermission (Id, GroupId, TagId, PermissionTypeId, HasPermission) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), groupID, tagID, typeID, has)
}

func (f *Fixture) Tag(id, name string) {
	f.t.Helper()
	f.exec("INSERT INTO Tag (Id, Name, TagTypeId) VALUES (?, ?, ?)", id, name, f.TagTypeID)
}

func (f *Fixture) Category(id, name string) {
	f.t.Helper()
	f.exec("INSERT INTO Category (Id, Name) VALUES (?, ?)", id, name)
}

func (f *Fixture) Component(id, name string) {
	f.t.Helper()
	f.exec("INSERT INTO Component (Id, Name, Type, StageStatus) VALUES (?, ?, ?, ?)", id, name, "Interface", "Production")
}

func (f *Fixture) Link(tagID, componentID string) {
	f.t.Helper()
	f.exec("INSERT INTO TagComponent (TagId, ComponentId) VALUES (?, ?)", tagID, componentID)
}

func (f *Fixture) Help(h models.ComponentHelp) {
	f.t.Helper()
	f.exec(`INSERT INTO ComponentHelp (Id, ComponentId, SupportGroup, ContactName, ContactEmail, ContactPhone,
		Description, InactivityNotes, ResolutionNotes, HelpSchedule) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.ComponentID, h.SupportGroup, h.ContactName, h.ContactEmail, h.ContactPhone,
		h.Description, h.InactivityNotes, h.ResolutionNotes, h.HelpSchedule)
}

func (f *Fixture) Alert(a models.Alert) {
	f.t.Helper()
	f.exec(`INSERT INTO Alert (Id, ComponentId, Type, Severity, MessageThreshold, RetryWaitTime, AlertSchedule, Notify)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ComponentID, a.Type, a.Severity, a.MessageThreshold, a.RetryWaitTime, a.AlertSchedule, a.Notify)
}

// Count returns SELECT COUNT(*) for the given query.
func (f *Fixture) Count(query string, args ...interface{}) int {
	f.t.Helper()
	var n int
	if err := f.DB.Get(&n, query, args...); err != nil {
		f.t.Fatalf("count %q: %v", query, err)
	}
	return n
}
