package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/scrimcore/scrimcore/internal/config"
	"github.com/scrimcore/scrimcore/internal/database"
	"github.com/scrimcore/scrimcore/internal/httphelper"
	"github.com/scrimcore/scrimcore/internal/identity"
	"github.com/scrimcore/scrimcore/internal/scrim"
	"github.com/scrimcore/scrimcore/internal/stats"
	"github.com/scrimcore/scrimcore/pkg/log"
)

// BuildVersion is set via -ldflags at release time.
var BuildVersion = "master"

// App wires configuration, storage and the usecases behind the HTTP surface.
type App struct {
	conf       config.Config
	db         database.Database
	logCloser  func()
	identities identity.Identities
	scrims     scrim.Scrims
	stats      stats.Stats
}

func NewApp() (*App, error) {
	conf, errConfig := config.Read()
	if errConfig != nil {
		return nil, errConfig
	}

	app := &App{conf: conf}

	if conf.SentryDSN != "" {
		if _, errSentry := log.NewSentryClient(conf.SentryDSN, conf.SentryTracing,
			conf.SentrySampleRate, BuildVersion, conf.Mode); errSentry != nil {
			return nil, errSentry
		}
	}

	app.logCloser = log.MustCreateLogger(context.Background(), conf.LogFile, conf.LogLevel, conf.SentryDSN != "")

	app.db = database.New(conf.DatabaseDSN, conf.DatabaseAutoMigrate, conf.DatabaseLogQueries)

	identityRepo := identity.NewRepository(app.db)
	app.identities = identity.NewIdentities(identityRepo)

	scrimRepo := scrim.NewRepository(app.db)
	app.scrims = scrim.NewScrims(scrimRepo, app.identities)

	app.stats = stats.NewStats(stats.NewRepository(app.db, scrimRepo), app.identities)

	return app, nil
}

func (app *App) Init(ctx context.Context) error {
	if errConnect := app.db.Connect(ctx); errConnect != nil {
		return errConnect
	}

	return nil
}

func (app *App) Close() {
	if errClose := app.db.Close(); errClose != nil {
		slog.Error("Failed to close database cleanly", log.ErrAttr(errClose))
	}

	if app.logCloser != nil {
		app.logCloser()
	}
}

// Serve runs the HTTP server until the context is cancelled, then drains
// in-flight requests before returning.
func (app *App) Serve(ctx context.Context) error {
	engine := httphelper.CreateRouter(httphelper.RouterOpts{
		HTTPLogEnabled:    app.conf.HTTPLogEnabled,
		LogLevel:          app.conf.LogLevel,
		Mode:              app.conf.Mode,
		SentryDSN:         app.conf.SentryDSN,
		PProfEnabled:      app.conf.PProfEnabled,
		PrometheusEnabled: app.conf.PrometheusEnabled,
		HTTPCORSEnabled:   app.conf.HTTPCORSEnabled,
		CORSOrigins:       app.conf.HTTPCORSOrigins,
	})

	identity.NewHandler(engine, app.identities)
	scrim.NewHandler(engine, app.scrims)
	stats.NewHandler(engine, app.stats)

	server := httphelper.NewServer(app.conf.Addr(), engine)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			slog.Error("Error shutting down http service", log.ErrAttr(errShutdown))
		}
	}()

	slog.Info("Starting HTTP server", slog.String("addr", app.conf.Addr()))

	if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		return errServe
	}

	return nil
}
