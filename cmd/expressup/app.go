package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/expressup/internal/config"
	"github.com/rpggio/expressup/internal/domain/batch"
	"github.com/rpggio/expressup/internal/domain/identity"
	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/express"
	"github.com/rpggio/expressup/internal/sqlite"
)

// ErrNotLoggedIn is returned when no usable session exists for the site.
var ErrNotLoggedIn = errors.New("not logged in; run \"expressup login\"")

// app wires configuration, the local database and the Express session.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sqlite.DB
	client     *express.Client
	identities *identity.Service
	journal    *journal.Service
	closers    []io.Closer
}

func newApp(configPath string, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	a := &app{cfg: cfg}

	logWriter := stderr
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(stderr, "log file error: %v\n", err)
		} else {
			a.closers = append(a.closers, file)
			logWriter = fileWriter
		}
	}
	a.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		a.Close()
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db)
	if err := db.RunMigrations(); err != nil {
		a.Close()
		return nil, err
	}

	a.identities = identity.NewService(sqlite.NewIdentityRepository(db), a.logger)
	a.journal = journal.NewService(sqlite.NewJournalRepository(db), a.logger)

	client, err := express.New(cfg.Express.URL(),
		express.WithHTTPClient(&http.Client{Timeout: cfg.Express.UploadTimeout}),
		express.WithLogger(a.logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.client = client
	return a, nil
}

// Close releases the database and log file.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *app) site() string {
	return a.cfg.Express.URL()
}

// resumeSession reuses the remembered auth cookie, falling back to a login
// with EXPRESSUP_USER and EXPRESSUP_PASSWORD when both are set.
func (a *app) resumeSession(ctx context.Context) error {
	ident, err := a.identities.Load(ctx, a.site())
	switch {
	case err == nil:
		if a.client.CheckStillLoggedIn(ctx, ident.Cookie()) {
			a.logger.Debug("session resumed", "user", ident.UserLogin)
			return nil
		}
		a.logger.Info("remembered session expired", "user", ident.UserLogin)
	case !errors.Is(err, identity.ErrIdentityNotFound):
		return err
	}

	user, password := os.Getenv("EXPRESSUP_USER"), os.Getenv("EXPRESSUP_PASSWORD")
	if user == "" || password == "" {
		return ErrNotLoggedIn
	}
	ok, err := a.client.Login(ctx, user, password, false)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !ok {
		return fmt.Errorf("login rejected for %s", user)
	}
	return nil
}

// saveSession stores the current auth cookie when one is already remembered
// for the site, so a refreshed expiry survives the process.
func (a *app) saveSession(ctx context.Context) {
	cookie := a.client.AuthCookie()
	if cookie == nil || cookie.Expires.IsZero() {
		return
	}
	ident, err := a.identities.Load(ctx, a.site())
	if err != nil {
		return
	}
	if ident.CookieValue == cookie.Value && ident.CookieExpires.Equal(cookie.Expires.UTC()) {
		return
	}
	if err := a.identities.Remember(ctx, a.site(), ident.UserLogin, cookie); err != nil {
		a.logger.Warn("saving session failed", "error", err)
	}
}

func (a *app) batchService() (*batch.Service, error) {
	selector, err := batch.NewSelector(batch.Selection(strings.ToLower(a.cfg.Orders.Selection)), a.client)
	if err != nil {
		return nil, err
	}
	return batch.NewService(a.client, selector, a.logger,
		batch.WithJournal(a.journal),
		batch.WithReservedDir(a.cfg.Orders.ReservedDir),
	), nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
