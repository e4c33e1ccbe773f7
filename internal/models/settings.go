package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/comit-io/galaxyapi/internal/apperrors"
)

var validate = validator.New()

// AlertSettings is one optional alert definition of a settings payload.
type AlertSettings struct {
	Enabled          bool     `json:"enabled"`
	Severity         string   `json:"severity" validate:"max=50"`
	MessageThreshold int      `json:"message_threshold" validate:"gte=0"`
	RetryWaitTime    int      `json:"retry_wait_time" validate:"gte=0"`
	Schedule         Schedule `json:"schedule"`
	Notify           bool     `json:"notify"`
}

// ComponentSettings is the full settings payload of a component.
type ComponentSettings struct {
	Component        Component     `json:"component"`
	Help             ComponentHelp `json:"help"`
	Tags             []Tag         `json:"tags" validate:"dive"`
	ConnectionAlert  AlertSettings `json:"connection_alert"`
	DataTimeoutAlert AlertSettings `json:"data_timeout_alert"`
	QueueDepthAlert  AlertSettings `json:"queue_depth_alert"`
	NegativeAckAlert AlertSettings `json:"negative_ack_alert"`
}

// IsValidID reports whether id is a well-formed identifier.
func IsValidID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// DecodeComponentSettings parses and validates a raw settings payload.
func DecodeComponentSettings(data []byte) (*ComponentSettings, error) {
	const op = "DecodeComponentSettings"

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, apperrors.Validation(op, "settings payload must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var s ComponentSettings
	if err := dec.Decode(&s); err != nil {
		return nil, apperrors.Validation(op, "settings payload is malformed")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, apperrors.Validation(op, "settings payload is malformed")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the payload before any storage access.
func (s *ComponentSettings) Validate() error {
	const op = "ComponentSettings.Validate"

	if !IsValidID(s.Component.ID) {
		return apperrors.Validation(op, "component id must be a valid identifier")
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return apperrors.Validation(op, strings.Join(problems, "; "))
		}
		return apperrors.Validation(op, "settings payload is invalid")
	}

	if err := s.Help.HelpSchedule.Validate(); err != nil {
		return apperrors.Validation(op, "help schedule: "+err.Error())
	}
	for i, a := range s.alertSettings() {
		if err := a.Schedule.Validate(); err != nil {
			return apperrors.Validation(op, AlertTypes[i]+" alert schedule: "+err.Error())
		}
	}
	return nil
}

func (s *ComponentSettings) alertSettings() []AlertSettings {
	return []AlertSettings{s.ConnectionAlert, s.DataTimeoutAlert, s.QueueDepthAlert, s.NegativeAckAlert}
}

// Alerts builds the alert rows for every enabled alert type, in type order.
// Identifiers are left empty for the caller to assign.
func (s *ComponentSettings) Alerts() []Alert {
	var alerts []Alert
	for i, a := range s.alertSettings() {
		if !a.Enabled {
			continue
		}
		alerts = append(alerts, Alert{
			ComponentID:      s.Component.ID,
			Type:             AlertTypes[i],
			Severity:         a.Severity,
			MessageThreshold: a.MessageThreshold,
			RetryWaitTime:    a.RetryWaitTime,
			AlertSchedule:    a.Schedule,
			Notify:           a.Notify,
		})
	}
	return alerts
}

// ApplyAlerts sets the alert sub-objects of the payload from stored alerts.
func (s *ComponentSettings) ApplyAlerts(alerts []Alert) {
	for _, a := range alerts {
		settings := AlertSettings{
			Enabled:          true,
			Severity:         a.Severity,
			MessageThreshold: a.MessageThreshold,
			RetryWaitTime:    a.RetryWaitTime,
			Schedule:         a.AlertSchedule,
			Notify:           a.Notify,
		}
		switch a.Type {
		case AlertTypeConnection:
			s.ConnectionAlert = settings
		case AlertTypeDataTimeout:
			s.DataTimeoutAlert = settings
		case AlertTypeQueueDepth:
			s.QueueDepthAlert = settings
		case AlertTypeNegativeAck:
			s.NegativeAckAlert = settings
		}
	}
}
