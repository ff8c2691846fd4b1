package providers

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/http/validation"
	"github.com/km-arc/go-ioc/framework/metrics"
	"github.com/km-arc/go-ioc/framework/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded configuration as shared-immutable
// services, whole and by section.
//
// Bound types:
//   - config.Config
//   - config.AppConfig, config.LogConfig, config.StateConfig, config.S3Config
type ConfigServiceProvider struct {
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(reg *container.Registry) {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load()
	}
	container.BindShared(reg, *cfg)
	container.BindShared(reg, cfg.App)
	container.BindShared(reg, cfg.Log)
	container.BindShared(reg, cfg.State)
	container.BindShared(reg, cfg.S3)
}

// Boot rejects configuration the server cannot start with.
func (p *ConfigServiceProvider) Boot(res container.Resolver) error {
	cfg, err := container.ResolveRef[config.Config](res)
	if err != nil {
		return err
	}
	defer cfg.Release()
	c := cfg.Value()

	if err := validation.Validate(map[string]string{
		"APP_PORT":   c.App.Port,
		"APP_URL":    c.App.URL,
		"LOG_LEVEL":  c.Log.Level,
		"LOG_FORMAT": c.Log.Format,
	}, configRules); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.App.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: SHUTDOWN_TIMEOUT must be positive, got %s", c.App.ShutdownTimeout)
	}
	return nil
}

var configRules = validation.Rules{
	"APP_PORT":   "required|integer|range:1,65535",
	"APP_URL":    "url",
	"LOG_LEVEL":  "in:debug,info,warn,warning,error",
	"LOG_FORMAT": "in:text,json",
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application logger.
//
// Bound types:
//   - *slog.Logger
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *slog.Logger
}

func (p *LoggingServiceProvider) Register(reg *container.Registry) {
	container.BindShared(reg, p.Logger)
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider binds the Prometheus instruments and the gatherer
// the /metrics endpoint reads from.
//
// Bound types:
//   - *metrics.Resolution
//   - prometheus.Gatherer
type MetricsServiceProvider struct {
	container.BaseProvider
	Metrics  *metrics.Resolution
	Gatherer prometheus.Gatherer
}

func (p *MetricsServiceProvider) Register(reg *container.Registry) {
	container.BindShared(reg, p.Metrics)
	if p.Gatherer != nil {
		container.BindShared(reg, p.Gatherer)
	}
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router and the framework's own
// endpoints.
//
// Bound types:
//   - *routing.Router
//
// Routes:
//   - GET /healthz
//   - GET /metrics (when a prometheus.Gatherer is bound)
type RoutingServiceProvider struct {
	Logger *slog.Logger
}

func (p *RoutingServiceProvider) Register(reg *container.Registry) {
	container.BindShared(reg, routing.New(reg, p.Logger))
}

func (p *RoutingServiceProvider) Boot(res container.Resolver) error {
	router, err := container.ResolveRef[*routing.Router](res)
	if err != nil {
		return err
	}
	defer router.Release()
	r := router.Value()

	r.Get("/healthz", Healthz)

	gatherer, err := container.ResolveRef[prometheus.Gatherer](res)
	switch {
	case err == nil:
		r.Mount("/metrics", promhttp.HandlerFor(gatherer.Value(), promhttp.HandlerOpts{}))
		gatherer.Release()
	case container.KindOf(err) != container.NonExist:
		return err
	}
	return nil
}

// Healthz reports the application name and environment.
var Healthz = container.Inject1(container.Ref[config.AppConfig](), func(app config.AppConfig) any {
	return map[string]any{
		"status": "ok",
		"app":    app.Name,
		"env":    app.Env,
	}
})
