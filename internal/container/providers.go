package container

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/garyjia/visitor-kiosk/internal/application/dispatcher"
	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/application/service"
	"github.com/garyjia/visitor-kiosk/internal/application/workflow"
	"github.com/garyjia/visitor-kiosk/internal/config"
	"github.com/garyjia/visitor-kiosk/internal/infrastructure/metrics"
	"github.com/garyjia/visitor-kiosk/internal/infrastructure/persistence/repository"
	"github.com/garyjia/visitor-kiosk/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/visitor-kiosk/internal/infrastructure/worker"
	"github.com/garyjia/visitor-kiosk/pkg/database"
	"github.com/garyjia/visitor-kiosk/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Visit    port.VisitRepository
	Settings port.SettingsRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Kiosk    *service.KioskService
	Approval service.ApprovalService
	Visits   service.VisitQueryService
	Settings service.SettingsService
}

// ProvideDatabase opens the visit store and applies the embedded migrations.
func ProvideDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunEmbedded(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repository implementations.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &RepositoryBundle{
		Visit:    repository.NewVisitRepository(sqlDB, logger),
		Settings: repository.NewSettingsRepository(sqlDB, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewKeyValueLogger(logger.Named("dispatcher"))),
	), nil
}

// ProvideMetrics registers the kiosk collectors and the runtime collectors on reg
// and subscribes them to the dispatcher.
func ProvideMetrics(reg *prometheus.Registry, disp dispatcher.Dispatcher) (*metrics.Metrics, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}

	m := metrics.New(reg)
	m.Register(disp)
	return m, nil
}

// EngineDeps holds dependencies required for creating the workflow engine.
type EngineDeps struct {
	Repos      *RepositoryBundle
	OTP        port.OTPVerifier
	Scheduler  workflow.Scheduler
	Dispatcher dispatcher.Dispatcher
	KioskCfg   config.KioskConfig
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the check-in workflow engine.
func ProvideWorkflowEngine(deps *EngineDeps) (*workflow.Engine, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	otp := deps.OTP
	if otp == nil {
		otp = service.FormatOTPVerifier{}
	}
	scheduler := deps.Scheduler
	if scheduler == nil {
		scheduler = workflow.NewTickerScheduler()
	}

	return workflow.NewEngine(
		deps.Repos.Visit,
		otp,
		utils.NewKeyValueLogger(deps.Logger.Named("workflow")),
		workflow.Config{
			PollInterval:        deps.KioskCfg.PollInterval,
			StoreTimeout:        deps.KioskCfg.StoreTimeout,
			PhotoCaptureEnabled: deps.KioskCfg.PhotoCaptureEnabled,
		},
		workflow.WithScheduler(scheduler),
		workflow.WithPublisher(deps.Dispatcher),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos         *RepositoryBundle
	TxManager     port.TransactionManager
	Engine        *workflow.Engine
	Dispatcher    dispatcher.Dispatcher
	Exporter      port.VisitExporter
	DefaultSiteID string
	Logger        *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("workflow engine is required")
	}
	if deps.Exporter == nil {
		return nil, fmt.Errorf("exporter is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := utils.NewKeyValueLogger(deps.Logger.Named("service"))
	settings := service.NewSettingsService(deps.Repos.Settings, serviceLogger)

	return &ServiceBundle{
		Kiosk:    service.NewKioskService(deps.Engine, settings, deps.DefaultSiteID, serviceLogger),
		Approval: service.NewApprovalService(deps.Repos.Visit, deps.TxManager, deps.Dispatcher, serviceLogger),
		Visits:   service.NewVisitQueryService(deps.Repos.Visit, deps.Exporter, serviceLogger),
		Settings: settings,
	}, nil
}

// ProvideWorkers creates the worker manager with the idle session reaper registered.
func ProvideWorkers(kiosk *service.KioskService, cfg config.KioskConfig, logger *zap.Logger) (*worker.Manager, error) {
	if kiosk == nil {
		return nil, fmt.Errorf("kiosk service is required")
	}

	m := worker.NewManager(logger)
	m.Register(worker.NewSessionReaper(worker.SessionReaperConfig{
		Interval:    cfg.ReapInterval,
		IdleTimeout: cfg.SessionIdleTimeout,
	}, kiosk, logger.Named("reaper")))
	return m, nil
}
