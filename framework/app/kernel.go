package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	frameworklog "github.com/km-arc/go-ioc/framework/log"
	"github.com/km-arc/go-ioc/framework/metrics"
	"github.com/km-arc/go-ioc/framework/providers"
	"github.com/km-arc/go-ioc/framework/routing"
)

// Application owns the registry and the provider lifecycle.
//
//	application := app.New(app.WithEnvFiles(".env"))
//	application.Register(&AppServiceProvider{})
//	if err := application.Run(ctx); err != nil { ... }
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Registry  *container.Registry
	Providers *container.ProviderRegistry
	Metrics   *metrics.Resolution
}

type options struct {
	envFiles []string
	config   *config.Config
	logger   *slog.Logger
	promReg  *prometheus.Registry
}

// Option configures New.
type Option func(*options)

// WithEnvFiles loads configuration from the given .env files.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.envFiles = files }
}

// WithConfig uses cfg instead of loading configuration from the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithLogger overrides the logger built from the log configuration.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPrometheus registers metrics into reg instead of a fresh registry.
func WithPrometheus(reg *prometheus.Registry) Option {
	return func(o *options) { o.promReg = reg }
}

// New creates the application and registers the framework providers. Call
// Register for application providers, then Boot or Run.
func New(opts ...Option) *Application {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.config
	if cfg == nil {
		cfg = config.Load(o.envFiles...)
	}
	logger := o.logger
	if logger == nil {
		logger = frameworklog.New(frameworklog.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	}
	promReg := o.promReg
	if promReg == nil {
		promReg = prometheus.NewRegistry()
		promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := metrics.NewResolution(promReg)

	reg := container.New(container.WithLogger(logger), container.WithMetrics(m))
	registry := container.NewProviderRegistry(reg)

	a := &Application{
		Config:    cfg,
		Logger:    logger,
		Registry:  reg,
		Providers: registry,
		Metrics:   m,
	}

	registry.Register(&providers.ConfigServiceProvider{Config: cfg})
	registry.Register(&providers.LoggingServiceProvider{Logger: logger})
	registry.Register(&providers.MetricsServiceProvider{Metrics: m, Gatherer: promReg})
	registry.Register(&providers.RoutingServiceProvider{Logger: logger})

	return a
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) {
	a.Providers.Register(provider)
}

// Boot runs the Boot phase on all providers and freezes the registry.
func (a *Application) Boot() error {
	if err := a.Providers.Boot(); err != nil {
		return err
	}
	a.Logger.Debug("application booted", "bindings", a.Registry.Describe())
	return nil
}

// Router resolves the HTTP router from the registry.
func (a *Application) Router() (*routing.Router, error) {
	g, err := container.ResolveRef[*routing.Router](a.Registry)
	if err != nil {
		return nil, err
	}
	defer g.Release()
	return g.Value(), nil
}

// Run boots the application if needed and serves HTTP until ctx is
// cancelled, then shuts down gracefully within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	router, err := a.Router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("server listening",
			"app", a.Config.App.Name,
			"url", a.Config.App.URL+a.Config.Addr(),
			"env", a.Config.App.Env,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.App.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("server shutting down", "timeout", a.Config.App.ShutdownTimeout)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
