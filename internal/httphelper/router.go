package httphelper

import (
	"log/slog"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/scrimcore/scrimcore/pkg/log"
	sloggin "github.com/samber/slog-gin"
)

type RouterOpts struct {
	HTTPLogEnabled    bool
	LogLevel          log.Level
	Mode              string
	SentryDSN         string
	PProfEnabled      bool
	PrometheusEnabled bool
	HTTPCORSEnabled   bool
	CORSOrigins       []string
}

// CreateRouter constructs the gin engine with the middleware stack selected by opts.
func CreateRouter(opts RouterOpts) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.MaxMultipartMemory = 8 << 24
	engine.Use(recoveryHandler())
	engine.Use(errorHandler())

	if opts.HTTPLogEnabled {
		useSloggin(engine, opts.LogLevel)
	}

	if opts.SentryDSN != "" {
		engine.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	if opts.PProfEnabled {
		pprof.Register(engine)
	}

	if opts.HTTPCORSEnabled {
		useCors(engine, opts.CORSOrigins, opts.Mode != gin.ReleaseMode)
	}

	if opts.PrometheusEnabled {
		usePrometheus(engine)
	}

	return engine
}

func useCors(engine *gin.Engine, origins []string, devMode bool) {
	engine.Use(useSecure(devMode))

	if len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
		corsConfig.AllowWildcard = true
		corsConfig.AllowCredentials = true

		engine.Use(cors.New(corsConfig))
	} else {
		slog.Warn("No cors origins defined, disabling")
	}
}

func usePrometheus(engine *gin.Engine) {
	prom := ginprom.New(func(prom *ginprom.Prometheus) {
		prom.Namespace = "scrimcore"
		prom.Subsystem = "http"
	})
	engine.Use(prom.Instrument())
}

func useSloggin(engine *gin.Engine, level log.Level) {
	engine.Use(sloggin.NewWithConfig(slog.Default(), sloggin.Config{
		DefaultLevel: log.ToSlogLevel(level),
	}))
}
