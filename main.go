package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"accounts/internal/config"
	"accounts/internal/database"
	"accounts/internal/handlers"
	"accounts/internal/logger"
	"accounts/internal/media"
	"accounts/internal/metrics"
	"accounts/internal/middleware"
	"accounts/internal/password"
	"accounts/internal/profile"
	"accounts/internal/session"
	"accounts/internal/store"
	"accounts/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	if !cfg.DotEnvLoaded {
		logr.Debug(".env not found, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logr *zap.Logger) error {
	credentials, closeStore, err := openStore(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer closeStore()

	objects, err := openObjectStore(ctx, cfg.Media)
	if err != nil {
		return err
	}

	codec, err := token.New(token.Config{
		Issuer:        cfg.TokenIssuer,
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}

	m := metrics.New()
	images := media.NewImages(objects, cfg.Media.MaxDimension, logr.Named("media"))
	manager := session.NewManager(
		credentials,
		codec,
		password.NewHasher(cfg.BcryptCost),
		images,
		logr.Named("session"),
		session.WithRecorder(m),
	)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recover(logr), middleware.RequestLogger(logr.Named("http")), middleware.Metrics(m))

	if local, ok := objects.(*media.LocalStore); ok {
		r.Static(local.URLPrefix(), local.Root())
	}

	handlers.RegisterRoutes(r, handlers.Deps{
		Sessions: manager,
		Profiles: profile.NewService(credentials, images, logr.Named("profile")),
		Auth:     manager,
		Store:    credentials,
		Cookies: handlers.CookieConfig{
			Secure:     cfg.CookieSecure,
			Domain:     cfg.CookieDomain,
			SameSite:   cfg.CookieSameSite,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
		Log:     logr,
		Metrics: m.Handler(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver), zap.String("media", cfg.Media.Driver))
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

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, logr *zap.Logger) (store.CredentialStore, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logr.Warn("using in-memory credential store; data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	client, db, err := database.Connect(ctx, cfg.MongoURI, cfg.DBName, logr)
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsureUserIndexes(ctx, db, logr); err != nil {
		disconnect(client, logr)
		return nil, nil, fmt.Errorf("ensure user indexes: %w", err)
	}
	return store.NewMongoStore(db), func() { disconnect(client, logr) }, nil
}

func disconnect(client *mongo.Client, logr *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logr.Warn("mongo disconnect", zap.Error(err))
	}
}

func openObjectStore(ctx context.Context, cfg config.MediaConfig) (media.ObjectStore, error) {
	switch cfg.Driver {
	case config.MediaS3:
		return media.NewS3Store(ctx, media.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	default:
		return media.NewLocalStore(cfg.LocalRoot, cfg.LocalURLPrefix)
	}
}
