package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schedule is a structured alert or help schedule. It is stored as JSON text
// and reconstituted on read; unknown fields are kept as they are and numbers
// come back as json.Number.
type Schedule map[string]interface{}

const scheduleSchema = `{
	"type": "object",
	"properties": {
		"timezone": {"type": "string"},
		"enabled": {"type": "boolean"},
		"windows": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"days": {
						"type": "array",
						"items": {"enum": ["Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"]}
					},
					"start": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
					"end": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"}
				},
				"required": ["start", "end"]
			}
		}
	}
}`

var scheduleLoader = gojsonschema.NewStringLoader(scheduleSchema)

// Value implements driver.Valuer.
func (s Schedule) Value() (driver.Value, error) {
	return encodeDocument(s)
}

// Scan implements sql.Scanner.
func (s *Schedule) Scan(src interface{}) error {
	m, err := decodeDocument(src)
	if err != nil {
		return err
	}
	*s = m
	return nil
}

func encodeDocument(m map[string]interface{}) (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return string(b), nil
}

func decodeDocument(src interface{}) (map[string]interface{}, error) {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return nil, fmt.Errorf("cannot scan %T into a JSON document", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	// Numbers stay json.Number so large integers survive the round trip.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("failed to decode document: trailing data")
	}
	return m, nil
}

func validateDocument(schema gojsonschema.JSONLoader, m map[string]interface{}) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(m))
	if err != nil {
		return fmt.Errorf("failed to validate document: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Validate checks the schedule against its JSON schema. A nil schedule is valid.
func (s Schedule) Validate() error {
	if s == nil {
		return nil
	}
	return validateDocument(scheduleLoader, s)
}
