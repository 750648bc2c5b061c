package main

import (
	"context"
	"net/http"
	"os"

	"github.com/atriumhq/atrium-backend/api/routes"
	"github.com/atriumhq/atrium-backend/internal/accounts"
	"github.com/atriumhq/atrium-backend/internal/auth"
	"github.com/atriumhq/atrium-backend/internal/avatars"
	"github.com/atriumhq/atrium-backend/internal/projects"
	"github.com/atriumhq/atrium-backend/internal/roles"
	"github.com/atriumhq/atrium-backend/internal/sessions"
	"github.com/atriumhq/atrium-backend/internal/users"
	"github.com/atriumhq/atrium-backend/pkg/config"
	"github.com/atriumhq/atrium-backend/pkg/db"
	"github.com/atriumhq/atrium-backend/pkg/geoip"
	"github.com/atriumhq/atrium-backend/pkg/logger"
	"github.com/atriumhq/atrium-backend/pkg/migrate"
	"github.com/atriumhq/atrium-backend/pkg/redis"
	"github.com/atriumhq/atrium-backend/pkg/storage/gcs"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	// blob storage is optional; without a bucket avatars degrade to no-ops
	var gcsClient *gcs.Client
	if cfg.GCS.Configured() {
		gcsClient, err = gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "gcs bucket not configured, avatar storage disabled")
	}

	var avatarStore avatars.ObjectStore
	if gcsClient != nil {
		avatarStore = gcsClient
	}
	avatarService, err := avatars.NewService(avatars.ServiceParams{Store: avatarStore, Logger: logg})
	if err != nil {
		logg.Error(context.Background(), "failed to create avatar service", err)
		os.Exit(1)
	}

	retryPolicy := db.RetryPolicyFromConfig(cfg.DB)

	accountService, err := accounts.NewService(accounts.ServiceParams{
		DB:          dbClient,
		Avatars:     avatarService,
		Logger:      logg,
		PasswordCfg: cfg.Password,
		Retry:       retryPolicy,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create account service", err)
		os.Exit(1)
	}

	sessionService, err := sessions.NewService(sessions.ServiceParams{
		DB:     dbClient,
		Geo:    geoip.NewClient(cfg.GeoIP),
		Logger: logg,
		Config: cfg.Session,
		Retry:  retryPolicy,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		Accounts: accountService,
		Sessions: sessionService,
		Users:    usersRepo,
		JWT:      cfg.JWT,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	var gcsPinger gcs.Pinger
	if gcsClient != nil {
		gcsPinger = gcsClient
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsPinger,
			authService,
			accountService,
			sessionService,
			usersRepo,
			roles.NewRepository(dbClient.DB()),
			projects.NewRepository(dbClient.DB()),
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
