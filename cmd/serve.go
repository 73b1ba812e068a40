package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"postql/auth"
	"postql/config"
	"postql/database"
	"postql/graph"
	"postql/logger"
	"postql/routes"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the GraphQL server",
	Long: `Start an HTTP server exposing:
  - GraphQL endpoint at /graphql (POST)
  - GraphQL Playground at /graphql (GET)
  - /health and /metrics

Settings come from the environment (JWT_SECRET, MONGODB_URI, STORE, ...),
optionally loaded from a .env file, and the flags below.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		return runServer(cmd.Context(), cfg)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringP("port", "p", "8080", "Port to listen on")
	f.String("store", config.StoreMongo, "Storage backend: mongo or badger")
	f.String("badger-dir", "", "Directory for the badger store (empty keeps data in memory)")
	f.String("log-level", "info", "Log level: debug, info, warn, error")

	mustBind(config.KeyPort, f.Lookup("port"))
	mustBind(config.KeyStore, f.Lookup("store"))
	mustBind(config.KeyBadgerDir, f.Lookup("badger-dir"))
	mustBind(config.KeyLogLevel, f.Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
}

func mustBind(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}

// openStore connects the configured backend. Health is nil when the backend
// has no connection to check.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (database.Store, func(context.Context) error, error) {
	if cfg.Store == config.StoreBadger {
		s, err := database.OpenBadger(cfg.BadgerDir, log)
		return s, nil, err
	}

	log.Info("Connecting to MongoDB...")
	var lastErr error
	for i := 1; i <= 3; i++ {
		s, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.DBTimeout, log)
		if err == nil {
			return s, s.Ping, nil
		}
		lastErr = err
		log.Warn("MongoDB connection attempt failed", zap.Int("attempt", i), zap.Error(err))
		if i < 3 {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}
	}
	return nil, nil, errors.Wrap(lastErr, "failed to connect to MongoDB")
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log, err := logger.New(cfg.LogLevel, !cfg.Release())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting postql", zap.String("store", cfg.Store))

	store, health, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error("closing store", zap.Error(err))
		}
	}()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL, store, log.Named("auth"))
	schema, err := graph.NewSchema(graph.NewResolver(store, tokens, log.Named("graph")))
	if err != nil {
		return errors.Wrap(err, "binding schema")
	}

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := routes.SetupRouter(routes.Options{
		Schema:         schema,
		Log:            log.Named("http"),
		AllowedOrigins: cfg.CORSOrigins,
		Health:         health,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server running", zap.String("addr", server.Addr), zap.String("graphql", "/graphql"))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
	case <-ctx.Done():
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "graceful shutdown failed")
		}
		log.Info("Server stopped gracefully")
	}
	return nil
}
