package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/auth"
	"github.com/comit-io/galaxyapi/internal/cache"
	"github.com/comit-io/galaxyapi/internal/config"
	"github.com/comit-io/galaxyapi/internal/email"
	"github.com/comit-io/galaxyapi/internal/middleware"
	"github.com/comit-io/galaxyapi/internal/models"
	"github.com/comit-io/galaxyapi/internal/mq"
	"github.com/comit-io/galaxyapi/internal/search"
)

const componentID = "5f1d6c2a-8a4b-4c1e-9f2d-0b7e3a9c4d10"

type fakeAuth struct {
	jwt     *auth.JWTManager
	renewed int
	logouts int
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	if password != "s3cret" {
		return nil, apperrors.Unauthorized("fakeAuth.Login", "invalid credentials")
	}
	user := models.DirectoryUser{Username: username}
	token, claims, err := f.jwt.GenerateToken(user, models.AuthorizationProfile{UserID: username})
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{Token: token, ExpiresAt: claims.ExpiresAt.Unix(), User: user}, nil
}

func (f *fakeAuth) Renew(ctx context.Context, claims *auth.Claims) (*models.LoginResponse, error) {
	f.renewed++
	return &models.LoginResponse{Token: "renewed", User: claims.User()}, nil
}

func (f *fakeAuth) Logout(ctx context.Context, claims *auth.Claims) error {
	f.logouts++
	return nil
}

type fakeSettings struct {
	updated *models.ComponentSettings
}

func (f *fakeSettings) Get(ctx context.Context, id string) (*models.ComponentSettings, error) {
	if id != componentID {
		return nil, apperrors.NotFound("fakeSettings.Get", "component not found")
	}
	return &models.ComponentSettings{Component: models.Component{ID: id, Name: "Feed"}}, nil
}

func (f *fakeSettings) Update(ctx context.Context, payload *models.ComponentSettings) (*models.ComponentSettings, error) {
	f.updated = payload
	return payload, nil
}

type fakeLookups struct{}

func (fakeLookups) SearchCategories(ctx context.Context, term string) ([]models.Category, error) {
	return []models.Category{{ID: "c-1", Name: term}}, nil
}
func (fakeLookups) Tags(ctx context.Context) ([]models.Tag, error) { return []models.Tag{}, nil }
func (fakeLookups) SearchTags(ctx context.Context, term string) ([]models.Tag, error) {
	return []models.Tag{{ID: "t-1", Name: term}}, nil
}
func (fakeLookups) Components(ctx context.Context) ([]models.Component, error) {
	return []models.Component{{ID: componentID, Name: "Feed"}}, nil
}
func (fakeLookups) ComponentAlerts(ctx context.Context, id string) ([]models.Alert, error) {
	return []models.Alert{}, nil
}
func (fakeLookups) PermissionTypes(ctx context.Context) ([]models.PermissionType, error) {
	return []models.PermissionType{{ID: "pt-1", Code: "EDIT_COMPONENTS"}}, nil
}
func (fakeLookups) Groups(ctx context.Context) ([]models.Group, error) { return []models.Group{}, nil }
func (fakeLookups) GroupPermissions(ctx context.Context, id string) (*models.Group, error) {
	return &models.Group{ID: id}, nil
}

type fakeQueries struct {
	owner string
}

func (f *fakeQueries) List(ctx context.Context, userID string) ([]models.SavedQuery, error) {
	f.owner = userID
	return []models.SavedQuery{}, nil
}

func (f *fakeQueries) Create(ctx context.Context, userID, name string, body models.QueryBody) (*models.SavedQuery, error) {
	f.owner = userID
	return &models.SavedQuery{ID: "q-1", UserID: userID, Name: name, Body: body}, nil
}

func (f *fakeQueries) Delete(ctx context.Context, userID, id string) error {
	f.owner = userID
	if id != "q-1" {
		return apperrors.NotFound("fakeQueries.Delete", "saved query not found")
	}
	return nil
}

type fakeSearch struct {
	last search.Query
}

func (f *fakeSearch) Search(ctx context.Context, q search.Query) (*search.Results, error) {
	f.last = q
	return &search.Results{NumFound: 1, Docs: []map[string]interface{}{{"id": "doc-1"}}}, nil
}

func (f *fakeSearch) Fields(ctx context.Context, core string) ([]search.Field, error) {
	return []search.Field{{Name: "id", Type: "string"}}, nil
}

type fakeQueues struct{}

func (fakeQueues) Queues(ctx context.Context) ([]mq.Queue, error) {
	return []mq.Queue{{Name: "inbound", Messages: 3}}, nil
}

func (fakeQueues) Queue(ctx context.Context, name string) (*mq.Queue, error) {
	return nil, apperrors.Upstream("fakeQueues.Queue", errors.New("broker down"))
}

type fakeMailer struct {
	sent []*email.EmailMessage
}

func (f *fakeMailer) SendEmail(ctx context.Context, msg *email.EmailMessage) error {
	f.sent = append(f.sent, msg)
	return nil
}

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

type testEnv struct {
	router   *gin.Engine
	jwt      *auth.JWTManager
	handlers *Handlers
	settings *fakeSettings
	queries  *fakeQueries
	search   *fakeSearch
	mailer   *fakeMailer
	auth     *fakeAuth
	hub      *AlertHub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	cfg := &config.Config{}
	cfg.Auth.Permissions = config.PermissionsConfig{
		EditComponents: "EDIT_COMPONENTS",
		ManageGroups:   "MANAGE_GROUPS",
		SendEmail:      "SEND_EMAIL",
	}
	cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}

	jwtManager := auth.NewJWTManager("api-test-secret", "galaxyapi-test", time.Hour)
	revocations := cache.NewLocalRevocations(0)
	t.Cleanup(revocations.Stop)
	authService := auth.NewAuthService(nil, nil, jwtManager, revocations, log)

	hub := NewAlertHub(config.WebSocketConfig{}, log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	env := &testEnv{
		jwt:      jwtManager,
		settings: &fakeSettings{},
		queries:  &fakeQueries{},
		search:   &fakeSearch{},
		mailer:   &fakeMailer{},
		auth:     &fakeAuth{jwt: jwtManager},
		hub:      hub,
	}
	env.handlers = &Handlers{
		Auth:     env.auth,
		Settings: env.settings,
		Lookups:  fakeLookups{},
		Queries:  env.queries,
		Search:   env.search,
		Queues:   fakeQueues{},
		Mailer:   env.mailer,
		Alerts:   hub,
		Health:   map[string]Pinger{"database": pinger{}},
	}
	env.router = NewRouter(cfg, env.handlers, middleware.NewAuthMiddleware(authService), log)
	return env
}

// token issues a session token whose profile grants the given system codes.
func (e *testEnv) token(t *testing.T, codes ...string) string {
	t.Helper()
	profile := models.AuthorizationProfile{UserID: "jdoe"}
	for _, code := range codes {
		if code == "admin" {
			profile.IsAdmin = true
			continue
		}
		profile.SystemPermissions = append(profile.SystemPermissions, models.Permission{
			PermissionType: models.PermissionType{ID: "pt-" + code, Code: code},
			HasPermission:  true,
		})
	}
	token, _, err := e.jwt.GenerateToken(models.DirectoryUser{Username: "jdoe", DisplayName: "Jane Doe"}, profile)
	require.NoError(t, err)
	return token
}
