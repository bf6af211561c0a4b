package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/omara/internal/api"
	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/config"
	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/imaging"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/store"
	"github.com/erazemk/omara/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("omara", flag.ContinueOnError)

	fs.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "")
	fs.StringVar(&cfg.Database.Path, "d", cfg.Database.Path, "")

	fs.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "")
	fs.StringVar(&cfg.Server.Addr, "a", cfg.Server.Addr, "")

	fs.StringVar(&cfg.Admin.Email, "user", cfg.Admin.Email, "")
	fs.StringVar(&cfg.Admin.Email, "u", cfg.Admin.Email, "")

	fs.StringVar(&cfg.Log.File, "log", cfg.Log.File, "")
	fs.StringVar(&cfg.Log.File, "l", cfg.Log.File, "")

	fs.Usage = func() {
		fmt.Fprintf(os.Stdout, `Usage: omara [flags]

Flags:
  -d, -db <path>          SQLite database path (default: %s)
  -a, -addr <host:port>   listen address (default: %s)
  -u, -user <email>       admin email on first run (default: %s)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Settings are also read from ./config.yaml (or CONFIG_PATH), .env and
OMARA_* environment variables. Flags win.
`, cfg.Database.Path, cfg.Server.Addr, cfg.Admin.Email)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready", "path", cfg.Database.Path)

	if n, err := store.PurgeExpiredTokens(ctx, database); err != nil {
		slog.Warn("failed to purge expired tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged expired tokens", "count", n)
	}

	if err := bootstrapAdmin(ctx, database, cfg.Admin.Email, os.Stdout); err != nil {
		return err
	}

	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	images := imaging.NewProcessor(cfg.Images.MaxDimension, cfg.Images.Quality)

	apiRouter := api.NewRouter(database, api.Options{
		JWTSecret:    jwtSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		SecureCookie: cfg.Auth.SecureCookie,
		Images:       images,
	})
	webRouter, err := web.NewRouter(database, web.Options{
		JWTSecret:    jwtSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		SecureCookie: cfg.Auth.SecureCookie,
		Images:       images,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("GET /healthz", api.Health(database))
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           withMiddleware(mux, cfg.Server.CompressionLevel),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// withMiddleware wraps h with request ids, panic recovery, compression and
// request logging.
func withMiddleware(h http.Handler, compressionLevel int) http.Handler {
	compressor := middleware.NewCompressor(compressionLevel,
		"text/html", "text/css", "application/json")
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})

	h = api.LoggingMiddleware(h)
	h = compressor.Handler(h)
	h = middleware.Recoverer(h)
	h = middleware.RealIP(h)
	return middleware.RequestID(h)
}

// bootstrapAdmin creates the first admin account on an empty database and
// prints its generated password to out.
func bootstrapAdmin(ctx context.Context, database *sql.DB, email string, out io.Writer) error {
	n, err := store.CountUsers(ctx, database)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return nil
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := store.CreateUser(ctx, database, store.NewUser{
		Email:        email,
		FirstName:    "Admin",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("admin account created", "user", user.Email)
	fmt.Fprintln(out, "Admin account created:")
	fmt.Fprintf(out, "  Email:    %s\n", user.Email)
	fmt.Fprintf(out, "  Password: %s\n", password)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Save this password. It cannot be recovered.")
	fmt.Fprintln(out, "The admin can change it after logging in.")
	fmt.Fprintln(out)
	return nil
}
