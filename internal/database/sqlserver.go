package database

import (
	"fmt"
	"strings"
)

// Dialect selects driver specific SQL.
type Dialect string

const (
	SQLServer Dialect = "sqlserver"
	SQLite    Dialect = "sqlite"
)

// DialectFor maps a configured driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch Dialect(driver) {
	case SQLServer, SQLite:
		return Dialect(driver), nil
	}
	return "", fmt.Errorf("unsupported database driver: %s", driver)
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return string(d)
}

// Quote escapes an identifier.
func (d Dialect) Quote(identifier string) string {
	if d == SQLServer {
		return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// columnTypes maps the portable column kinds used by the schema.
func (d Dialect) columnType(kind string) string {
	if d == SQLServer {
		switch kind {
		case "id":
			return "NVARCHAR(36)"
		case "name":
			return "NVARCHAR(255)"
		case "text":
			return "NVARCHAR(MAX)"
		case "bool":
			return "BIT"
		case "int":
			return "INT"
		case "time":
			return "DATETIME2"
		}
	}
	switch kind {
	case "id", "name", "text":
		return "TEXT"
	case "bool":
		return "BOOLEAN"
	case "int":
		return "INTEGER"
	case "time":
		return "DATETIME"
	}
	return kind
}

func (d Dialect) createTable(t table) string {
	cols := make([]string, 0, len(t.columns)+1)
	for _, c := range t.columns {
		def := d.Quote(c.name) + " " + d.columnType(c.kind)
		if !c.null {
			def += " NOT NULL"
		}
		if c.def != "" {
			def += " DEFAULT " + c.def
		}
		cols = append(cols, def)
	}
	if len(t.primaryKey) > 0 {
		quoted := make([]string, len(t.primaryKey))
		for i, k := range t.primaryKey {
			quoted[i] = d.Quote(k)
		}
		cols = append(cols, "PRIMARY KEY ("+strings.Join(quoted, ", ")+")")
	}

	body := d.Quote(t.name) + " (\n\t" + strings.Join(cols, ",\n\t") + "\n)"
	if d == SQLServer {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s", t.name, body)
	}
	return "CREATE TABLE IF NOT EXISTS " + body
}

func (d Dialect) createIndex(t table, idx index) string {
	quoted := make([]string, len(idx.columns))
	for i, c := range idx.columns {
		quoted[i] = d.Quote(c)
	}
	create := "CREATE INDEX"
	if idx.unique {
		create = "CREATE UNIQUE INDEX"
	}
	cols := strings.Join(quoted, ", ")
	if d == SQLServer {
		return fmt.Sprintf("IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'%s') %s %s ON %s (%s)",
			idx.name, create, d.Quote(idx.name), d.Quote(t.name), cols)
	}
	return fmt.Sprintf("%s IF NOT EXISTS %s ON %s (%s)", create, d.Quote(idx.name), d.Quote(t.name), cols)
}
