package models

import "time"

// Alert types. A component has at most one alert of each type.
const (
	AlertTypeConnection  = "Connection"
	AlertTypeDataTimeout = "Data Timeout"
	AlertTypeQueueDepth  = "Queue Depth"
	AlertTypeNegativeAck = "Negative Ack"
)

// AlertTypes lists the alert types in payload order.
var AlertTypes = []string{AlertTypeConnection, AlertTypeDataTimeout, AlertTypeQueueDepth, AlertTypeNegativeAck}

type Category struct {
	ID   string `json:"id" db:"Id"`
	Name string `json:"name" db:"Name"`
}

type Component struct {
	ID             string     `json:"id" db:"Id" validate:"required"`
	Name           string     `json:"name" db:"Name"`
	Type           string     `json:"type" db:"Type"`
	CategoryID     *string    `json:"category_id,omitempty" db:"CategoryId" validate:"omitempty,uuid"`
	Category       *Category  `json:"category,omitempty" db:"-"`
	ModifiedDate   *time.Time `json:"modified_date,omitempty" db:"ModifiedDate"`
	AlertEmail     string     `json:"alert_email" db:"AlertEmail" validate:"omitempty,email"`
	AlertPhone     string     `json:"alert_phone" db:"AlertPhone"`
	NotifyDisabled bool       `json:"notify_disabled" db:"NotifyDisabled"`
	StageStatus    string     `json:"stage_status" db:"StageStatus"`
	AutoStart      bool       `json:"auto_start" db:"AutoStart"`
}

// ComponentRef is the short form of a component listed under a tag.
type ComponentRef struct {
	ID   string `json:"id" db:"Id"`
	Name string `json:"name" db:"Name"`
}

// ComponentHelp holds the support metadata of a component.
type ComponentHelp struct {
	ID              string   `json:"id" db:"Id"`
	ComponentID     string   `json:"component_id" db:"ComponentId"`
	SupportGroup    string   `json:"support_group" db:"SupportGroup"`
	ContactName     string   `json:"contact_name" db:"ContactName"`
	ContactEmail    string   `json:"contact_email" db:"ContactEmail" validate:"omitempty,email"`
	ContactPhone    string   `json:"contact_phone" db:"ContactPhone"`
	Description     string   `json:"description" db:"Description"`
	InactivityNotes string   `json:"inactivity_notes" db:"InactivityNotes"`
	ResolutionNotes string   `json:"resolution_notes" db:"ResolutionNotes"`
	HelpSchedule    Schedule `json:"help_schedule" db:"HelpSchedule"`
}

// NewComponentHelp returns the empty help record used when a component has
// none stored.
func NewComponentHelp(componentID string) ComponentHelp {
	return ComponentHelp{ComponentID: componentID, HelpSchedule: Schedule{}}
}

// Exists reports whether the record was loaded from storage.
func (h ComponentHelp) Exists() bool {
	return h.ID != ""
}

type TagType struct {
	ID   string `json:"id" db:"Id"`
	Name string `json:"name" db:"Name"`
}

type Tag struct {
	ID         string         `json:"id" db:"Id"`
	Name       string         `json:"name" db:"Name" validate:"required,max=255"`
	Type       string         `json:"type" db:"Type"`
	Components []ComponentRef `json:"components,omitempty" db:"-"`
}

type Alert struct {
	ID               string   `json:"id" db:"Id"`
	ComponentID      string   `json:"component_id" db:"ComponentId"`
	Type             string   `json:"type" db:"Type"`
	Severity         string   `json:"severity" db:"Severity"`
	MessageThreshold int      `json:"message_threshold" db:"MessageThreshold"`
	RetryWaitTime    int      `json:"retry_wait_time" db:"RetryWaitTime"`
	AlertSchedule    Schedule `json:"alert_schedule" db:"AlertSchedule"`
	Notify           bool     `json:"notify" db:"Notify"`
}
