// Package main is the entry point for the portfolio server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio/internal/auth"
	"portfolio/internal/blog"
	"portfolio/internal/config"
	"portfolio/internal/database"
	"portfolio/internal/handlers"
	"portfolio/internal/imagehost"
	"portfolio/internal/middleware"
	"portfolio/internal/mongostore"
	"portfolio/internal/render"
	"portfolio/internal/reporting"
	"portfolio/internal/router"
	"portfolio/internal/session"
	"portfolio/internal/storage"
	"portfolio/internal/store"
	"portfolio/internal/uploads"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration from .env and the environment.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON everywhere else.
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var logHandler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"store", cfg.StoreDriver,
		"image_host", cfg.ImageHost,
		"version", version,
	)

	// Error reporting is optional; without a DSN the hub is nil.
	hub, flush, err := reporting.Init(reporting.Settings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Env,
		Release:     version,
	})
	if err != nil {
		slog.Error("failed to initialize sentry", "error", err)
		os.Exit(1)
	}
	defer flush()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	posts, categories, closeStore, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		slog.Error("failed to open post store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	blogService := blog.NewService(posts, categories)

	// Posts written before slugs were stored get one now.
	ctx, cancel = context.WithTimeout(context.Background(), time.Minute)
	n, err := blogService.BackfillSlugs(ctx)
	cancel()
	if err != nil {
		slog.Error("slug backfill failed", "updated", n, "error", err)
		os.Exit(1)
	}
	if n > 0 {
		slog.Info("slug backfill complete", "updated", n)
	}

	// Connect to Valkey (sessions + upload tracker).
	valkeyClient, err := session.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	sessionStore := session.NewStore(valkeyClient, cfg.SecureCookies())
	gate := auth.NewGate(auth.Identity{
		Email:        cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
		TOTPSecret:   cfg.AdminTOTPSecret,
	}, sessionStore)
	gate.OnChange(func(ev auth.Event) {
		slog.Info("auth state changed", "event", ev.Kind.String(), "email", ev.User.Email)
	})

	provider, err := imagehost.New(imagehost.Config{
		Host: cfg.ImageHost,
		Cloudinary: imagehost.CloudinaryConfig{
			CloudName:    cfg.CloudinaryCloudName,
			UploadPreset: cfg.CloudinaryUploadPreset,
			APIBase:      cfg.CloudinaryAPIBase,
		},
		S3: storage.Settings{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		},
	})
	if err != nil {
		slog.Error("failed to initialize image host", "error", err)
		os.Exit(1)
	}
	uploader := imagehost.NewUploader(provider)
	tracker := uploads.NewTracker(valkeyClient)

	// In dev mode, templates load Tailwind and HTMX from a CDN; in
	// production they use the files embedded in the binary.
	renderer, err := render.New(cfg.IsDev(), render.Site{Name: cfg.SiteName, URL: cfg.SiteURL})
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	authHandlers := handlers.NewAuth(renderer, gate)

	loginLimiter := middleware.NewRateLimiter(5, time.Minute)
	defer loginLimiter.Stop()
	contactLimiter := middleware.NewRateLimiter(3, 10*time.Minute)
	defer contactLimiter.Stop()

	r := router.New(router.Deps{
		Gate:           gate,
		Public:         handlers.NewPublic(renderer, blogService),
		Contact:        handlers.NewContact(renderer),
		API:            handlers.NewAPI(blogService),
		Auth:           authHandlers,
		Admin:          handlers.NewAdmin(renderer, blogService, authHandlers, tracker, uploader),
		Hub:            hub,
		LoginLimiter:   loginLimiter,
		ContactLimiter: contactLimiter,
		SecureCookies:  cfg.SecureCookies(),
		TrustedProxies: cfg.TrustedProxyPrefixes(),
	})

	// WriteTimeout covers image uploads, which wait on the image host.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// openStore connects the backend named by cfg.StoreDriver and returns its
// repositories and a function that closes the connection.
func openStore(ctx context.Context, cfg *config.Config) (blog.PostRepository, blog.CategoryRepository, func(), error) {
	if cfg.StoreDriver == "mongo" {
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				slog.Warn("mongo disconnect failed", "error", err)
			}
		}
		return mongostore.NewPostStore(db), mongostore.NewCategoryStore(db), closeFn, nil
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	// Seed default categories on an empty development database.
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
	}
	closeFn := func() {
		if err := db.Close(); err != nil {
			slog.Warn("database close failed", "error", err)
		}
	}
	return store.NewPostStore(db), store.NewCategoryStore(db), closeFn, nil
}
