package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ComponentTagType is the tag type every component tag carries.
const ComponentTagType = "Component"

type column struct {
	name string
	kind string
	null bool
	def  string
}

type index struct {
	name    string
	columns []string
	unique  bool
}

type table struct {
	name       string
	columns    []column
	primaryKey []string
	indexes    []index
}

var tables = []table{
	{
		name: "SecurityGroup",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "Name", kind: "name"},
			{name: "IsAdmin", kind: "bool", def: "0"},
		},
		primaryKey: []string{"Id"},
	},
	{
		name: "PermissionType",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "Name", kind: "name"},
			{name: "Code", kind: "name"},
			{name: "IsItemType", kind: "bool", def: "0"},
			{name: "SystemName", kind: "name"},
		},
		primaryKey: []string{"Id"},
	},
	{
		name: "SystemPermission",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "GroupId", kind: "id"},
			{name: "PermissionTypeId", kind: "id"},
			{name: "HasPermission", kind: "bool", def: "0"},
		},
		primaryKey: []string{"Id"},
		indexes:    []index{{name: "IX_SystemPermission_GroupId", columns: []string{"GroupId"}}},
	},
	{
		name: "TagPermission",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "GroupId", kind: "id"},
			{name: "TagId", kind: "id"},
			{name: "PermissionTypeId", kind: "id"},
			{name: "HasPermission", kind: "bool", def: "0"},
		},
		primaryKey: []string{"Id"},
		indexes:    []index{{name: "IX_TagPermission_GroupId", columns: []string{"GroupId"}}},
	},
	{
		name: "TagType",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "Name", kind: "name"},
		},
		primaryKey: []string{"Id"},
	},
	{
		name: "Tag",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "Name", kind: "name"},
			{name: "TagTypeId", kind: "id"},
		},
		primaryKey: []string{"Id"},
	},
	{
		name: "TagComponent",
		columns: []column{
			{name: "TagId", kind: "id"},
			{name: "ComponentId", kind: "id"},
		},
		indexes: []index{
			{name: "IX_TagComponent_ComponentId", columns: []string{"ComponentId"}},
			{name: "IX_TagComponent_TagId", columns: []string{"TagId"}},
		},
	},
	{
		name: "Category",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "Name", kind: "name"},
		},
		primaryKey: []string{"Id"},
	},
	{
		name: "Component",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "Name", kind: "name"},
			{name: "Type", kind: "name", null: true},
			{name: "CategoryId", kind: "id", null: true},
			{name: "ModifiedDate", kind: "time", null: true},
			{name: "AlertEmail", kind: "name", null: true},
			{name: "AlertPhone", kind: "name", null: true},
			{name: "NotifyDisabled", kind: "bool", def: "0"},
			{name: "StageStatus", kind: "name", null: true},
			{name: "AutoStart", kind: "bool", def: "0"},
		},
		primaryKey: []string{"Id"},
	},
	{
		name: "ComponentHelp",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "ComponentId", kind: "id"},
			{name: "SupportGroup", kind: "name", null: true},
			{name: "ContactName", kind: "name", null: true},
			{name: "ContactEmail", kind: "name", null: true},
			{name: "ContactPhone", kind: "name", null: true},
			{name: "Description", kind: "text", null: true},
			{name: "InactivityNotes", kind: "text", null: true},
			{name: "ResolutionNotes", kind: "text", null: true},
			{name: "HelpSchedule", kind: "text", null: true},
		},
		primaryKey: []string{"Id"},
		indexes:    []index{{name: "UX_ComponentHelp_ComponentId", columns: []string{"ComponentId"}, unique: true}},
	},
	{
		name: "Alert",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "ComponentId", kind: "id"},
			{name: "Type", kind: "name"},
			{name: "Severity", kind: "name", null: true},
			{name: "MessageThreshold", kind: "int", def: "0"},
			{name: "RetryWaitTime", kind: "int", def: "0"},
			{name: "AlertSchedule", kind: "text", null: true},
			{name: "Notify", kind: "bool", def: "0"},
		},
		primaryKey: []string{"Id"},
		indexes:    []index{{name: "IX_Alert_ComponentId", columns: []string{"ComponentId"}}},
	},
	{
		name: "SavedQuery",
		columns: []column{
			{name: "Id", kind: "id"},
			{name: "UserId", kind: "name"},
			{name: "Name", kind: "name"},
			{name: "Body", kind: "text"},
			{name: "CreatedDate", kind: "time"},
		},
		primaryKey: []string{"Id"},
		indexes:    []index{{name: "IX_SavedQuery_UserId", columns: []string{"UserId"}}},
	},
}

// SchemaStatements returns the DDL for the dialect in creation order.
func SchemaStatements(d Dialect) []string {
	var stmts []string
	for _, t := range tables {
		stmts = append(stmts, d.createTable(t))
		for _, idx := range t.indexes {
			stmts = append(stmts, d.createIndex(t, idx))
		}
	}
	return stmts
}

// Migrate creates missing tables and indexes and seeds the component tag type.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	dialect, err := DialectFor(db.DriverName())
	if err != nil {
		return err
	}

	for _, stmt := range SchemaStatements(dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	seed := db.Rebind(`INSERT INTO TagType (Id, Name)
		SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM TagType WHERE Name = ?)`)
	if _, err := db.ExecContext(ctx, seed, uuid.New().String(), ComponentTagType, ComponentTagType); err != nil {
		return fmt.Errorf("failed to seed tag types: %w", err)
	}
	return nil
}
