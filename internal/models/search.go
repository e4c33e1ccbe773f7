package models

import (
	"database/sql/driver"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// QueryBody is the structured criteria of a saved query.
type QueryBody map[string]interface{}

const queryBodySchema = `{
	"type": "object",
	"properties": {
		"core": {"type": "string", "minLength": 1},
		"q": {"type": "string"},
		"filters": {"type": "array", "items": {"type": "string"}},
		"sort": {"type": "string"},
		"rows": {"type": "integer", "minimum": 0, "maximum": 1000}
	},
	"required": ["core", "q"]
}`

var queryBodyLoader = gojsonschema.NewStringLoader(queryBodySchema)

func (b QueryBody) Value() (driver.Value, error) {
	return encodeDocument(b)
}

func (b *QueryBody) Scan(src interface{}) error {
	m, err := decodeDocument(src)
	if err != nil {
		return err
	}
	*b = m
	return nil
}

// Validate checks the body against the saved query schema.
func (b QueryBody) Validate() error {
	return validateDocument(queryBodyLoader, b)
}

// SavedQuery is a user's stored search.
type SavedQuery struct {
	ID          string    `json:"id" db:"Id"`
	UserID      string    `json:"user_id" db:"UserId"`
	Name        string    `json:"name" db:"Name" validate:"required,max=255"`
	Body        QueryBody `json:"body" db:"Body" validate:"required"`
	CreatedDate time.Time `json:"created_date" db:"CreatedDate"`
}
