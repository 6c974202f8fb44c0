package taskrepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dispatch/internal/adapters/out/postgres/dberr"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.TaskRepository = (*GormTaskRepository)(nil)

// GormTaskRepository implements ports.TaskRepository using GORM.
type GormTaskRepository struct {
	db     *gorm.DB
	dsn    string
	logger *slog.Logger
}

// NewGormTaskRepository creates a task repository. dsn is the libpq
// connection string used by Subscribe for its dedicated LISTEN connection.
func NewGormTaskRepository(db *gorm.DB, dsn string, logger *slog.Logger) *GormTaskRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormTaskRepository{
		db:     db,
		dsn:    dsn,
		logger: logger.With("component", "task_repository"),
	}
}

// Add saves a new task together with its status timestamps.
func (r *GormTaskRepository) Add(ctx context.Context, aggregate *task.Task) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return dberr.Wrap("add task", err)
	}
	return nil
}

// Get retrieves a task by ID.
func (r *GormTaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.Task, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto TaskDTO
	if err := r.db.WithContext(ctx).Preload("StatusTimestamps").First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("task", id.String())
		}
		return nil, dberr.Wrap("get task", err)
	}

	return toDomain(dto)
}

// UpdateFields writes only the columns named by the patch and appends its
// status timestamps. An existing timestamp for the same status is kept.
//
// Example:
//
//	patch, err := t.Accept(courierID, time.Now())
//	if err != nil {
//	    return err
//	}
//	if err := repo.UpdateFields(ctx, t.ID(), patch); err != nil {
//	    return fmt.Errorf("failed to save acceptance: %w", err)
//	}
func (r *GormTaskRepository) UpdateFields(ctx context.Context, id kernel.UUID, patch task.Patch) error {
	if err := id.Validate(); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := patchColumns(patch)
		if len(columns) == 0 {
			var count int64
			if err := tx.Model(&TaskDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return errs.NewObjectNotFoundError("task", id.String())
			}
		} else {
			query := tx.Model(&TaskDTO{}).Where("id = ?", id.Bytes())
			if patch.ExpectedStatus != nil {
				query = query.Where("status = ?", string(*patch.ExpectedStatus))
			}
			result := query.Updates(columns)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return r.missOrConflict(tx, id, patch)
			}
		}

		if len(patch.StatusTimestamps) == 0 {
			return nil
		}
		stamps := stampsFromDomain(id, patch.StatusTimestamps)
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&stamps).Error
	})

	return dberr.Wrap("update task", err)
}

// missOrConflict tells a missing task from one whose status moved away from
// the status the patch expects.
func (r *GormTaskRepository) missOrConflict(tx *gorm.DB, id kernel.UUID, patch task.Patch) error {
	var dto TaskDTO
	err := tx.Select("status").Where("id = ?", id.Bytes()).Take(&dto).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewObjectNotFoundError("task", id.String())
	}
	if err != nil {
		return err
	}
	return errs.NewPreconditionFailedError(fmt.Sprintf("task %s is %s, expected %s", id, dto.Status, *patch.ExpectedStatus))
}

// FindByStatus returns the tasks in any of statuses, oldest first.
func (r *GormTaskRepository) FindByStatus(ctx context.Context, statuses ...task.Status) ([]*task.Task, error) {
	if len(statuses) == 0 {
		return []*task.Task{}, nil
	}

	var dtos []TaskDTO
	if err := r.db.WithContext(ctx).
		Preload("StatusTimestamps").
		Where("status IN ?", statusStrings(statuses)).
		Order("created_at, id").
		Find(&dtos).Error; err != nil {
		return nil, dberr.Wrap("find tasks by status", err)
	}

	return toDomainList(dtos)
}

// FindByCourier returns the tasks held by courierID in any of statuses.
func (r *GormTaskRepository) FindByCourier(ctx context.Context, courierID kernel.UUID, statuses ...task.Status) ([]*task.Task, error) {
	if len(statuses) == 0 {
		return []*task.Task{}, nil
	}

	var dtos []TaskDTO
	if err := r.db.WithContext(ctx).
		Preload("StatusTimestamps").
		Where("courier_id = ? AND status IN ?", courierID.Bytes(), statusStrings(statuses)).
		Order("created_at, id").
		Find(&dtos).Error; err != nil {
		return nil, dberr.Wrap("find tasks by courier", err)
	}

	return toDomainList(dtos)
}

func toDomainList(dtos []TaskDTO) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0, len(dtos))
	for _, dto := range dtos {
		t, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func statusStrings(statuses []task.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.String())
	}
	return out
}
