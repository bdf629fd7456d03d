// Package main initializes and starts the StudyNotes HTTP server,
// setting up configuration, logging, database connections, repositories,
// services, sessions, the AI gateway and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/StudyNotes/internal/config"
	"github.com/atinyakov/StudyNotes/internal/db"
	"github.com/atinyakov/StudyNotes/internal/gateway"
	"github.com/atinyakov/StudyNotes/internal/logger"
	"github.com/atinyakov/StudyNotes/internal/repository"
	"github.com/atinyakov/StudyNotes/internal/server/handler/http"
	"github.com/atinyakov/StudyNotes/internal/service"
	"github.com/atinyakov/StudyNotes/internal/session"
	"github.com/atinyakov/StudyNotes/internal/staging"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	var logOpts []logger.Option
	if options.LogFile != "" {
		logOpts = append(logOpts, logger.WithFile(options.LogFile))
	}
	log := logger.New(logOpts...)
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Initialize repositories and account service.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	authService := service.NewAuthService(authRepo)

	// Initialize the upload root and the AI gateway.
	stager, err := staging.NewStager(options.UploadDir, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init upload root", zap.Error(err))
	}

	ctx := context.Background()
	gw, err := gateway.New(ctx, gateway.Config{
		ProjectID: options.GCPProject,
		Region:    options.VertexRegion,
		Model:     options.VertexModel,
		Bucket:    options.FileBucket,
		Prefix:    options.FilePrefix,
		Timeout:   options.AITimeout,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot init AI gateway", zap.Error(err))
	}
	defer func() { _ = gw.Close() }()

	docService := service.NewDocumentService(stager, gw, zapLogger)

	// Select the session store.
	var store session.Store
	switch options.SessionBackend {
	case "redis":
		client := session.NewRedisClient(options.RedisURL)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			zapLogger.Warn("redis not reachable, sessions will fail until it is", zap.String("addr", options.RedisURL), zap.Error(err))
		}
		cancel()
		defer func() { _ = client.Close() }()
		store = session.NewRedisStore(client, options.SessionTTL)
	default:
		store = session.NewMemoryStore(options.SessionTTL, 10*time.Minute)
	}
	sessions := session.NewManager(store, options.SessionTTL, options.CookieSecure, zapLogger)

	// Create HTTP handlers.
	pages, err := http.NewPages(zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot load templates", zap.Error(err))
	}
	authHandler := &http.AuthHandler{AuthService: authService, Sessions: sessions, Log: zapLogger}
	docHandler := &http.DocumentHandler{Docs: docService, Sessions: sessions, Log: zapLogger}
	fileHandler := &http.FileHandler{Files: stager, Log: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, docHandler, fileHandler, pages, sessions.Middleware, options.StaticDir, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("starting HTTP server",
		zap.String("addr", options.Port),
		zap.String("uploads", stager.Root()),
		zap.String("sessions", options.SessionBackend),
	)
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
