package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/api"
	"github.com/Togather-Foundation/voluntier/internal/audit"
	"github.com/Togather-Foundation/voluntier/internal/auth"
	"github.com/Togather-Foundation/voluntier/internal/config"
	"github.com/Togather-Foundation/voluntier/internal/domain/applications"
	"github.com/Togather-Foundation/voluntier/internal/domain/events"
	"github.com/Togather-Foundation/voluntier/internal/domain/users"
	"github.com/Togather-Foundation/voluntier/internal/metrics"
	"github.com/Togather-Foundation/voluntier/internal/storage"
	"github.com/Togather-Foundation/voluntier/internal/storage/backend"
	"github.com/Togather-Foundation/voluntier/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	bootstrapTimeout  = 10 * time.Second
	dbMetricsInterval = 15 * time.Second
)

type serveOptions struct {
	host           string
	port           int
	skipMigrations bool
}

func newServeCommand(opts *globalOptions) *cobra.Command {
	serve := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the VolunTier HTTP server",
		Long: `Start the VolunTier HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Apply pending database migrations unless --skip-migrations is set
- Ensure the bootstrap admin account exists if ADMIN_USERNAME/ADMIN_PASSWORD are set
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start against an embedded SQLite database
  DATABASE_URL=sqlite:voluntier.db server serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, serve)
		},
	}

	cmd.Flags().StringVar(&serve.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&serve.port, "port", 0, "server port (default: 8080)")
	cmd.Flags().BoolVar(&serve.skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	return cmd
}

func runServe(ctx context.Context, opts *globalOptions, serve *serveOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serve.host != "" {
		cfg.Server.Host = serve.host
	}
	if serve.port != 0 {
		cfg.Server.Port = serve.port
	}

	logger := config.NewLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	return serveOn(ctx, cfg, logger, listener, !serve.skipMigrations)
}

// serveOn runs the HTTP server on listener until ctx is cancelled, then
// drains in-flight requests.
func serveOn(ctx context.Context, cfg config.Config, logger zerolog.Logger, listener net.Listener, migrate bool) error {
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting VolunTier server")
	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown error")
		}
	}()

	if migrate {
		if err := backend.Migrate(ctx, cfg.Database, ""); err != nil {
			_ = listener.Close()
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		_ = listener.Close()
		return err
	}
	defer a.Close()

	server := &http.Server{
		Handler:           a.router,
		ReadTimeout:       10 * time.Second, // Total time to read request
		WriteTimeout:      30 * time.Second, // Total time to write response
		ReadHeaderTimeout: 5 * time.Second,  // Time to read headers
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
	}

	g, gctx := errgroup.WithContext(ctx)

	collector := metrics.NewDBCollector(a.store)
	g.Go(func() error {
		collector.Start(gctx, dbMetricsInterval)
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("addr", listener.Addr().String()).Str("driver", a.store.Driver()).Msg("listening")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return gracefulShutdown(server, logger)
	})

	return g.Wait()
}

// app is the wired service graph behind the HTTP server.
type app struct {
	store  storage.Repository
	router *api.Router
}

func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	store, err := backend.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	auditLogger := audit.NewLogger(logger)
	tokens := newTokenManager(cfg)
	userService := newUserService(cfg, store, tokens, auditLogger, logger)

	if cfg.AdminBootstrap.Enabled() {
		bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		if err := bootstrapAdminUser(bootstrapCtx, cfg, userService, logger); err != nil {
			logger.Error().Err(err).Msg("admin bootstrap failed")
		}
		cancel()
	} else {
		logger.Warn().Msg("admin bootstrap env vars not fully set; skipping")
	}

	router := api.NewRouter(api.Deps{
		Config:       cfg,
		Logger:       logger,
		Store:        store,
		Tokens:       tokens,
		Users:        userService,
		Events:       events.NewService(store.Events(), auditLogger, logger),
		Applications: applications.NewService(store.Applications(), auditLogger, logger),
		Version:      Version,
		GitCommit:    GitCommit,
		BuildDate:    BuildDate,
	})

	return &app{store: store, router: router}, nil
}

func (a *app) Close() {
	a.router.Close()
	a.store.Close()
}

func newTokenManager(cfg config.Config) *auth.JWTManager {
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
}

func newUserService(cfg config.Config, store storage.Repository, tokens *auth.JWTManager, auditLogger *audit.Logger, logger zerolog.Logger) *users.Service {
	return users.NewService(store.Users(), tokens, auth.NewPasswordHasher(cfg.Auth.BcryptCost), auditLogger, logger)
}

func bootstrapAdminUser(ctx context.Context, cfg config.Config, svc *users.Service, logger zerolog.Logger) error {
	username := cfg.AdminBootstrap.Username
	created, err := svc.EnsureAdmin(ctx, username, cfg.AdminBootstrap.Password)
	if err != nil {
		return fmt.Errorf("ensure admin %q: %w", username, err)
	}
	if created {
		logger.Info().Str("username", username).Msg("bootstrapped admin user")
	}
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
