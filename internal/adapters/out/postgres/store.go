// Package postgres provides the GORM-based implementation of ports.TaskStore.
//
// There is no unit of work: every repository write is a single field-scoped
// statement (or a short transaction for a task row plus its status
// timestamps), so concurrent handlers touching different fields of the same
// task never overwrite each other.
//
// Usage:
//
//	db, err := postgres.Open(dsn)
//	if err != nil {
//	    return err
//	}
//	if err := postgres.Migrate(ctx, db); err != nil {
//	    return err
//	}
//	store := postgres.NewStore(db, dsn, logger)
//
//	t, err := store.TaskRepository().Get(ctx, taskID)
//
// Subscriptions use a dedicated LISTEN connection per subscriber, opened from
// the same dsn.
package postgres

import (
	"log/slog"

	"dispatch/internal/adapters/out/postgres/businessrepo"
	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/adapters/out/postgres/taskrepo"
	"dispatch/internal/core/ports"

	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ ports.TaskStore = (*Store)(nil)

// Store hands out repositories that share one GORM connection pool.
type Store struct {
	tasks      *taskrepo.GormTaskRepository
	couriers   *courierrepo.GormCourierRepository
	businesses *businessrepo.GormBusinessRepository
	numbers    *businessrepo.GormDeliveryNumberGenerator
}

// NewStore wires the repositories. dsn must point at the same database as db;
// it is only used for LISTEN connections.
func NewStore(db *gorm.DB, dsn string, logger *slog.Logger) *Store {
	return &Store{
		tasks:      taskrepo.NewGormTaskRepository(db, dsn, logger),
		couriers:   courierrepo.NewGormCourierRepository(db),
		businesses: businessrepo.NewGormBusinessRepository(db),
		numbers:    businessrepo.NewGormDeliveryNumberGenerator(db),
	}
}

func (s *Store) TaskRepository() ports.TaskRepository {
	return s.tasks
}

func (s *Store) CourierRepository() ports.CourierRepository {
	return s.couriers
}

func (s *Store) BusinessRepository() ports.BusinessRepository {
	return s.businesses
}

func (s *Store) DeliveryNumberGenerator() ports.DeliveryNumberGenerator {
	return s.numbers
}

// Open connects to PostgreSQL. Driver errors are translated to GORM's
// portable errors so that duplicate keys can be told apart.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgresdriver.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
