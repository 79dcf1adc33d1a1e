package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/garyjia/visitor-kiosk/internal/application/dispatcher"
	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/application/workflow"
	"github.com/garyjia/visitor-kiosk/internal/config"
	"github.com/garyjia/visitor-kiosk/internal/infrastructure/export"
	"github.com/garyjia/visitor-kiosk/internal/infrastructure/metrics"
	"github.com/garyjia/visitor-kiosk/internal/infrastructure/worker"
	httpapi "github.com/garyjia/visitor-kiosk/internal/interfaces/http"
	"github.com/garyjia/visitor-kiosk/pkg/database"
	"github.com/garyjia/visitor-kiosk/pkg/utils"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config    *config.Config
	logger    *zap.Logger
	overrides overrides

	// Infrastructure - Data
	db           *database.DB
	txManager    port.TransactionManager
	repositories *RepositoryBundle

	// Application
	dispatcher dispatcher.Dispatcher
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	engine     *workflow.Engine
	services   *ServiceBundle

	// Workers
	workers *worker.Manager

	// Interfaces
	httpServer *httpapi.Server

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(&c.overrides)
	}
	return c, nil
}

// Start initializes all components in dependency order:
// 1. Database, migrations and repositories
// 2. Event dispatcher and metrics
// 3. Workflow engine and application services
// 4. Workers
// 5. HTTP server (built, not listening; see Serve)
//
// A failure part way tears down what was already built.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"database", c.initDatabase},
		{"dispatcher", c.initDispatcher},
		{"services", c.initServices},
		{"workers", c.initWorkers},
		{"http", c.initHTTP},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			c.logger.Error("Container initialization failed", zap.String("step", step.name), zap.Error(err))
			_ = c.teardown()
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
		c.logger.Info("Container component initialized", zap.String("step", step.name))
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Serve runs the HTTP server until ctx is cancelled.
func (c *Container) Serve(ctx context.Context) error {
	c.mu.RLock()
	srv := c.httpServer
	c.mu.RUnlock()

	if srv == nil {
		return fmt.Errorf("container not started")
	}
	return srv.Start(ctx)
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	err := c.teardown()
	c.closed.Store(true)

	if err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}
	c.logger.Info("Container closed successfully")
	return nil
}

// teardown releases components in reverse start order. It tolerates a partial start.
func (c *Container) teardown() error {
	var errs []error

	c.ready.Store(false)
	if c.cancel != nil {
		c.cancel()
	}

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
		c.workers = nil
	}

	// stop guard polls before the dispatcher and the store go away
	if c.services != nil {
		c.services.Kiosk.Close()
		c.services = nil
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
		c.dispatcher = nil
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		c.db = nil
	}

	c.httpServer = nil
	return errors.Join(errs...)
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	switch {
	case c.db == nil:
		set("database", ComponentHealth{Message: "not initialized"})
	default:
		if err := c.db.PingContext(ctx); err != nil {
			set("database", ComponentHealth{Message: fmt.Sprintf("ping failed: %v", err)})
		} else if version, err := database.NewMigrator(c.db, c.logger).SchemaVersion(ctx); err != nil {
			set("database", ComponentHealth{Message: fmt.Sprintf("schema version unreadable: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true, Message: fmt.Sprintf("schema version: %d", version)})
		}
	}

	if c.workers == nil {
		set("workers", ComponentHealth{Message: "not initialized"})
	} else {
		set("workers", ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("worker count: %d", c.workers.Count()),
		})
	}

	if c.dispatcher == nil {
		set("dispatcher", ComponentHealth{Message: "not initialized"})
	} else {
		set("dispatcher", ComponentHealth{Healthy: true})
	}

	if c.services == nil {
		set("kiosk", ComponentHealth{Message: "not initialized"})
	} else {
		set("kiosk", ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("active sessions: %d", c.services.Kiosk.Count()),
		})
	}

	return status
}

func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.db = bundle.DB
	c.txManager = bundle.TransactionMgr

	repos, err := ProvideRepositories(c.db.DB, c.logger)
	if err != nil {
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initDispatcher() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	c.registry = c.overrides.registry
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	if !c.config.Metrics.Enabled {
		return nil
	}
	m, err := ProvideMetrics(c.registry, c.dispatcher)
	if err != nil {
		return err
	}
	c.metrics = m
	return nil
}

func (c *Container) initServices() error {
	engine, err := ProvideWorkflowEngine(&EngineDeps{
		Repos:      c.repositories,
		OTP:        c.overrides.otp,
		Scheduler:  c.overrides.scheduler,
		Dispatcher: c.dispatcher,
		KioskCfg:   c.config.Kiosk,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.engine = engine

	exporter := c.overrides.exporter
	if exporter == nil {
		exporter = export.NewVisitLogExporter(c.config.Kiosk.Location(), c.logger.Named("export"))
	}

	services, err := ProvideServices(&ServiceDeps{
		Repos:         c.repositories,
		TxManager:     c.txManager,
		Engine:        c.engine,
		Dispatcher:    c.dispatcher,
		Exporter:      exporter,
		DefaultSiteID: c.config.Kiosk.DefaultSiteID,
		Logger:        c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services
	return nil
}

func (c *Container) initWorkers() error {
	workers, err := ProvideWorkers(c.services.Kiosk, c.config.Kiosk, c.logger)
	if err != nil {
		return err
	}
	c.workers = workers

	if err := c.workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	return nil
}

func (c *Container) initHTTP() error {
	var metricsHandler http.Handler
	if c.config.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	}

	c.httpServer = httpapi.NewServer(httpapi.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            c.config.Server.Port,
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		DefaultSiteID:   c.config.Kiosk.DefaultSiteID,
		MetricsPath:     c.config.Metrics.Path,
	}, httpapi.Services{
		Kiosk:    c.services.Kiosk,
		Approval: c.services.Approval,
		Visits:   c.services.Visits,
		Settings: c.services.Settings,
	}, metricsHandler, utils.NewKeyValueLogger(c.logger.Named("http")))
	return nil
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dispatcher
}

// Metrics returns the kiosk collectors, nil when metrics are disabled.
func (c *Container) Metrics() *metrics.Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metrics
}

// HTTPServer returns the HTTP adapter.
func (c *Container) HTTPServer() *httpapi.Server {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.httpServer
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}
