package postgres

import (
	"context"
	"fmt"

	"dispatch/internal/adapters/out/postgres/businessrepo"
	"dispatch/internal/adapters/out/postgres/courierrepo"
	"dispatch/internal/adapters/out/postgres/taskrepo"

	"gorm.io/gorm"
)

// Models lists every table owned by the store, in creation order.
func Models() []any {
	return []any{
		&taskrepo.TaskDTO{},
		&taskrepo.StatusTimestampDTO{},
		&courierrepo.CourierDTO{},
		&businessrepo.BusinessDTO{},
		&businessrepo.ClientDTO{},
		&businessrepo.CounterDTO{},
	}
}

func notifyStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION notify_delivery_task_status() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%s', NEW.id::text || ':' || NEW.status);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`, taskrepo.NotifyChannel),
		`DROP TRIGGER IF EXISTS delivery_tasks_status_notify ON delivery_tasks`,
		`CREATE TRIGGER delivery_tasks_status_notify
	AFTER INSERT OR UPDATE OF status ON delivery_tasks
	FOR EACH ROW EXECUTE FUNCTION notify_delivery_task_status()`,
	}
}

// Migrate creates or updates the schema and installs the trigger that feeds
// task subscriptions. It is safe to run on every start.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	for _, stmt := range notifyStatements() {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to install status trigger: %w", err)
		}
	}
	return nil
}
