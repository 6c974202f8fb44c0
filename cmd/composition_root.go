package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpin "dispatch/internal/adapters/in/http"
	kafkain "dispatch/internal/adapters/in/kafka"
	kafkaout "dispatch/internal/adapters/out/kafka"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/core/application/coordinator"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// CompositionRoot builds the object graph once per process.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	store    ports.TaskStore
	gormDB   *gorm.DB
	notifier ports.CourierNotifier
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	timers      *coordinator.AfterFuncRegistry
	coordinator *coordinator.Coordinator
	assign      commands.AssignTaskCommandHandler
	reassign    commands.ReassignTaskCommandHandler

	closers []func() error
}

// NewCompositionRoot opens the configured store and notifier and wires the
// dispatch core on top of them.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		timers:   coordinator.NewAfterFuncRegistry(),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.metrics = metrics.NewMetrics(c.registry)

	if err := c.openStore(ctx); err != nil {
		return nil, err
	}
	if err := c.openNotifier(); err != nil {
		return nil, errors.Join(err, c.Close())
	}

	c.assign = commands.NewAssignTaskCommandHandler(c.store, c.notifier, c.metrics, logger)
	c.reassign = commands.NewReassignTaskCommandHandler(c.store, c.notifier, c.metrics, logger)
	escalator := commands.NewEscalator(c.assign, c.reassign, c.metrics)

	c.coordinator = coordinator.New(
		c.timers,
		coordinator.Handlers{
			Accept: commands.NewAcceptTaskCommandHandler(c.store, c.metrics),
			Reject: commands.NewRejectTaskCommandHandler(c.store, escalator, c.metrics),
			Expire: commands.NewExpireAssignmentCommandHandler(c.store, escalator, c.metrics, logger),
			Cancel: commands.NewCancelTaskCommandHandler(c.store, c.metrics),
		},
		c.store,
		cfg.ResponseTimeout,
		logger,
	)
	return c, nil
}

func (c *CompositionRoot) openStore(ctx context.Context) error {
	if c.cfg.StoreKind == StoreMemory {
		c.logger.WarnContext(ctx, "Using the in-memory store; state is lost on restart")
		c.store = memory.NewStore()
		return nil
	}

	dsn := c.cfg.DSN()
	db, err := postgres.Open(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	c.closers = append(c.closers, sqlDB.Close)
	if err = postgres.Migrate(ctx, db); err != nil {
		return errors.Join(fmt.Errorf("failed to migrate database: %w", err), c.Close())
	}

	c.gormDB = db
	c.store = postgres.NewStore(db, dsn, c.logger)
	return nil
}

func (c *CompositionRoot) openNotifier() error {
	if len(c.cfg.KafkaBrokers) == 0 || c.cfg.KafkaCourierNotifications == "" {
		c.notifier = kafkaout.LogNotifier{Logger: c.logger.With("component", "courier_notifier")}
		return nil
	}

	notifier, err := kafkaout.NewCourierNotifier(c.logger, c.cfg.KafkaBrokers, c.cfg.KafkaCourierNotifications)
	if err != nil {
		return err
	}
	c.notifier = notifier
	c.closers = append(c.closers, notifier.Close)
	return nil
}

func (c *CompositionRoot) Coordinator() *coordinator.Coordinator {
	return c.coordinator
}

func (c *CompositionRoot) CreatePendingTaskMonitor() *jobs.PendingTaskMonitor {
	return jobs.NewPendingTaskMonitor(c.store, c.assign, c.coordinator, c.cfg.RescanSpec, c.logger)
}

func (c *CompositionRoot) CreateJobManager(monitor *jobs.PendingTaskMonitor) *jobs.JobManager {
	expiry := jobs.NewAssignmentExpiryJob(c.coordinator, c.cfg.ExpirySpec, c.logger)
	return jobs.NewJobManager(monitor, expiry)
}

// CreateTaskEventsConsumer returns nil when Kafka is not configured.
func (c *CompositionRoot) CreateTaskEventsConsumer(monitor *jobs.PendingTaskMonitor) (*kafkain.Consumer, error) {
	return kafkain.NewConsumer(
		c.logger,
		c.cfg.KafkaBrokers,
		c.cfg.KafkaConsumerGroup,
		c.cfg.KafkaTaskCreatedTopic,
		monitor,
	)
}

func (c *CompositionRoot) CreateUpdateTaskStatusCommandHandler() commands.UpdateTaskStatusCommandHandler {
	geofence := commands.GeofenceConfig{
		RadiusKm:      c.cfg.GeofenceRadiusKm,
		LookupTimeout: c.cfg.GeolocationTimeout,
	}
	return commands.NewUpdateTaskStatusCommandHandler(c.store, httpin.ReportedPosition{}, geofence, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateActiveTasksQueryHandler() httpin.ActiveTasksQueryHandler {
	if c.gormDB != nil {
		return queries.NewGetActiveTasksQueryHandler(c.gormDB)
	}
	return queries.NewRepositoryActiveTasksQueryHandler(c.store.TaskRepository())
}

func (c *CompositionRoot) CreateOnDutyCouriersQueryHandler() httpin.OnDutyCouriersQueryHandler {
	if c.gormDB != nil {
		return queries.NewGetOnDutyCouriersQueryHandler(c.gormDB)
	}
	return queries.NewRepositoryOnDutyCouriersQueryHandler(c.store.CourierRepository())
}

// CreateHTTPServer mounts the API, the operational endpoints and the API docs.
func (c *CompositionRoot) CreateHTTPServer(ctx context.Context) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), httpin.RequestLogger(c.logger), httpin.Observability(c.metrics))

	server := httpin.NewServer(httpin.Handlers{
		Coordinator:           c.coordinator,
		AssignTask:            c.assign,
		ReassignTask:          c.reassign,
		CreateTask:            commands.NewCreateTaskCommandHandler(c.store),
		UpdateTaskStatus:      c.CreateUpdateTaskStatusCommandHandler(),
		ReportIssue:           commands.NewReportIssueCommandHandler(c.store, c.metrics),
		CloseTask:             commands.NewCloseTaskCommandHandler(c.store, c.metrics),
		CreateCourier:         commands.NewCreateCourierCommandHandler(c.store),
		SetCourierDuty:        commands.NewSetCourierDutyCommandHandler(c.store),
		UpdateCourierLocation: commands.NewUpdateCourierLocationCommandHandler(c.store),
		RegisterBusiness:      commands.NewRegisterBusinessCommandHandler(c.store),
		RegisterClient:        commands.NewRegisterClientCommandHandler(c.store),
		ActiveTasks:           c.CreateActiveTasksQueryHandler(),
		OnDutyCouriers:        c.CreateOnDutyCouriersQueryHandler(),
	}, c.logger)
	server.RegisterRoutes(e)
	httpin.RegisterOperational(e, c.registry)

	doc, err := httpin.LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	if err = httpin.RegisterDocs(e, doc); err != nil {
		return nil, err
	}
	return e, nil
}

// Close stops pending timers and releases the store and notifier.
func (c *CompositionRoot) Close() error {
	c.timers.StopAll()

	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}
