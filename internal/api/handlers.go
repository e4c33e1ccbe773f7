// Package api exposes GalaxyAPI over HTTP.
package api

import (
	"context"
	"errors"

	"github.com/comit-io/galaxyapi/internal/auth"
	"github.com/comit-io/galaxyapi/internal/email"
	"github.com/comit-io/galaxyapi/internal/models"
	"github.com/comit-io/galaxyapi/internal/mq"
	"github.com/comit-io/galaxyapi/internal/search"
)

var errHubStopped = errors.New("alert hub is not running")

type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	Renew(ctx context.Context, claims *auth.Claims) (*models.LoginResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type SettingsAPI interface {
	Get(ctx context.Context, componentID string) (*models.ComponentSettings, error)
	Update(ctx context.Context, payload *models.ComponentSettings) (*models.ComponentSettings, error)
}

type LookupAPI interface {
	SearchCategories(ctx context.Context, term string) ([]models.Category, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	SearchTags(ctx context.Context, term string) ([]models.Tag, error)
	Components(ctx context.Context) ([]models.Component, error)
	ComponentAlerts(ctx context.Context, componentID string) ([]models.Alert, error)
	PermissionTypes(ctx context.Context) ([]models.PermissionType, error)
	Groups(ctx context.Context) ([]models.Group, error)
	GroupPermissions(ctx context.Context, groupID string) (*models.Group, error)
}

type QueryAPI interface {
	List(ctx context.Context, userID string) ([]models.SavedQuery, error)
	Create(ctx context.Context, userID, name string, body models.QueryBody) (*models.SavedQuery, error)
	Delete(ctx context.Context, userID, id string) error
}

type QueueAPI interface {
	Queues(ctx context.Context) ([]mq.Queue, error)
	Queue(ctx context.Context, name string) (*mq.Queue, error)
}

type Mailer interface {
	SendEmail(ctx context.Context, message *email.EmailMessage) error
}

// Pinger is a dependency checked by /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a ping method to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Handlers groups the services behind the HTTP surface.
type Handlers struct {
	Auth     AuthAPI
	Settings SettingsAPI
	Lookups  LookupAPI
	Queries  QueryAPI
	Search   search.Backend
	Queues   QueueAPI
	Mailer   Mailer
	Alerts   *AlertHub
	Health   map[string]Pinger
}
