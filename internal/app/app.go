// Package app wires the client together from its configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/eas/internal/attendance"
	"github.com/aussiebroadwan/eas/internal/auth"
	"github.com/aussiebroadwan/eas/internal/session"
	"github.com/aussiebroadwan/eas/internal/session/drivers/sqlite"
	"github.com/aussiebroadwan/eas/pkg/attendsdk"
	"github.com/aussiebroadwan/eas/pkg/httpx"
	"github.com/aussiebroadwan/eas/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application holds the client's components.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store  session.Store
	closer io.Closer

	client     *attendsdk.SDKClient
	auth       *auth.Controller
	attendance *attendance.Workflow
}

// New builds an Application. Call Start before issuing commands and Close
// when done.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "eas-cli",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	mode, err := auth.ParseValidationMode(cfg.ValidationMode)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.client = attendsdk.NewSDKClient(cfg.APIURL)
	app.client.HTTPClient = &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: httpx.Throttle(&slogx.Transport{Logger: app.logger}, cfg.RateLimit),
	}

	app.auth = auth.NewController(app.store, app.client, mode)
	app.client.Credentials = app.auth

	app.attendance = attendance.NewWorkflow(app.client, app.auth, attendance.WithLocation(loc))

	return app, nil
}

func (app *Application) initStore() error {
	switch app.cfg.SessionStore {
	case StoreMemory:
		app.store = session.NewMemoryStore()
		return nil

	case StoreFile, StoreSQLite:
		key, err := app.keyMaterial()
		if err != nil {
			return err
		}

		if app.cfg.SessionStore == StoreFile {
			app.store, err = session.NewFileStore(app.cfg.SessionPath, key)
			return err
		}

		db, err := sqlite.Open(app.cfg.SessionPath, key)
		if err != nil {
			return fmt.Errorf("failed to open session database: %w", err)
		}
		app.store, app.closer = db, db
		return nil

	default:
		return fmt.Errorf("unknown session store %q (want file, sqlite or memory)", app.cfg.SessionStore)
	}
}

func (app *Application) keyMaterial() ([]byte, error) {
	if app.cfg.SessionKey != "" {
		return []byte(app.cfg.SessionKey), nil
	}
	key, err := session.LoadOrCreateKey(app.cfg.KeyPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load session key: %w", err)
	}
	return key, nil
}

// Start attaches the logger to ctx and validates the stored session. The
// returned context should be used for every later call.
func (app *Application) Start(ctx context.Context) (context.Context, error) {
	ctx = slogx.WithContext(ctx, app.logger)
	return ctx, app.auth.Start(ctx)
}

// Close releases the session store.
func (app *Application) Close() error {
	if app.closer == nil {
		return nil
	}
	return app.closer.Close()
}

func (app *Application) Auth() *auth.Controller           { return app.auth }
func (app *Application) Attendance() *attendance.Workflow { return app.attendance }
