package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/comit-io/galaxyapi/internal/api"
	"github.com/comit-io/galaxyapi/internal/auth"
	"github.com/comit-io/galaxyapi/internal/cache"
	"github.com/comit-io/galaxyapi/internal/config"
	"github.com/comit-io/galaxyapi/internal/database"
	"github.com/comit-io/galaxyapi/internal/email"
	"github.com/comit-io/galaxyapi/internal/ldap"
	"github.com/comit-io/galaxyapi/internal/logger"
	"github.com/comit-io/galaxyapi/internal/middleware"
	"github.com/comit-io/galaxyapi/internal/mq"
	"github.com/comit-io/galaxyapi/internal/repository"
	"github.com/comit-io/galaxyapi/internal/search"
	"github.com/comit-io/galaxyapi/internal/service"
	"github.com/comit-io/galaxyapi/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log, err := logger.Init(cfg.Logging)
	if err != nil {
		return err
	}
	warnings, err := config.ValidateSecrets(cfg)
	for _, w := range warnings {
		log.Warn("Configuration: " + strings.TrimSpace(w))
	}
	if err != nil {
		return err
	}
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	directory := ldap.NewDirectory(cfg.LDAP, nil)
	defer directory.Close()

	revocations, closeRevocations := openRevocations(ctx, cfg, log)
	defer closeRevocations()

	authService := newAuthService(cfg, db, directory, revocations, log)

	hub := api.NewAlertHub(cfg.WebSocket, log)
	go hub.Run(ctx)

	handlers := &api.Handlers{
		Auth:     authService,
		Settings: service.NewSettingsService(db, log),
		Lookups:  service.NewLookupService(db, cfg.App.SystemName),
		Queries:  service.NewSavedQueryService(db),
		Search:   search.NewSolrBackend(cfg.Solr),
		Queues:   mq.NewClient(cfg.MQ),
		Mailer:   email.NewEmailService(cfg.Email, log),
		Alerts:   hub,
		Health:   map[string]api.Pinger{"database": db},
	}
	if cfg.LDAP.Host != "" {
		handlers.Health["directory"] = api.PingFunc(directory.Ping)
	}
	if redisStore, ok := revocations.(*cache.RedisRevocations); ok {
		handlers.Health["redis"] = api.PingFunc(redisStore.Ping)
	}

	router := api.NewRouter(cfg, handlers, middleware.NewAuthMiddleware(authService), log)
	srv := api.NewServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"version": version.GetInfo().Version,
		}).Info("GalaxyAPI listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func newAuthService(cfg *config.Config, db *sqlx.DB, directory *ldap.Directory, revocations auth.RevocationStore, log *logrus.Logger) *auth.AuthService {
	aggregator := auth.NewAggregator(
		repository.NewGroupRepository(db),
		repository.NewPermissionRepository(db),
		cfg.App.SystemName,
		cfg.Auth,
		log,
	)
	builder := auth.NewContextBuilder(auth.NewMembershipResolver(directory), aggregator)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.TokenDuration)
	return auth.NewAuthService(directory, builder, jwtManager, revocations, log)
}

// openRevocations connects to Redis when a host is configured. Outside
// production an unreachable Redis falls back to the in-process store.
func openRevocations(ctx context.Context, cfg *config.Config, log *logrus.Logger) (auth.RevocationStore, func()) {
	if cfg.Redis.Host != "" {
		store, err := cache.NewRedisRevocations(ctx, cfg.Redis, cfg.Redis.GetRedisAddr())
		if err == nil {
			return store, func() { _ = store.Close() }
		}
		if cfg.App.IsProduction() {
			log.WithError(err).Fatal("Redis is required for token revocation in production")
		}
		log.WithError(err).Warn("Redis unavailable, revoked tokens are kept in memory")
	}
	local := cache.NewLocalRevocations(time.Minute)
	return local, local.Stop
}
