package taskrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/adapters/out/postgres/dberr"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/lib/pq"
)

// NotifyChannel is the channel the delivery_tasks trigger publishes on.
// The payload is "<task id>:<status>".
const NotifyChannel = "delivery_task_status"

const (
	listenerPingInterval = 90 * time.Second
	minReconnectInterval = 100 * time.Millisecond
	maxReconnectInterval = 10 * time.Second
)

var errListenerNotConfigured = errors.New("listener connection string is empty")

// Subscribe opens a dedicated LISTEN connection and streams an event for every
// task created in, or moved into, status. Tasks already in status are
// delivered first. After a reconnect the current rows are scanned again,
// because notifications sent while the connection was down are lost.
func (r *GormTaskRepository) Subscribe(ctx context.Context, status task.Status) (<-chan ports.TaskEvent, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	if r.dsn == "" {
		return nil, errs.NewStoreUnavailableError("subscribe to tasks", errListenerNotConfigured)
	}

	listener := pq.NewListener(r.dsn, minReconnectInterval, maxReconnectInterval, r.onListenerEvent)
	if err := listener.Listen(NotifyChannel); err != nil {
		_ = listener.Close()
		return nil, dberr.Wrap("subscribe to tasks", err)
	}

	out := make(chan ports.TaskEvent)
	go r.listen(ctx, listener, status, out)
	return out, nil
}

func (r *GormTaskRepository) listen(ctx context.Context, listener *pq.Listener, status task.Status, out chan<- ports.TaskEvent) {
	defer close(out)
	defer func() {
		if err := listener.Close(); err != nil {
			r.logger.Warn("failed to close task listener", "error", err)
		}
	}()

	if !r.emitCurrent(ctx, status, out) {
		return
	}

	ping := time.NewTicker(listenerPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				r.logger.InfoContext(ctx, "task listener reconnected, rescanning", "status", status)
				if !r.emitCurrent(ctx, status, out) {
					return
				}
				continue
			}
			ev, err := parseNotification(n.Extra)
			if err != nil {
				r.logger.WarnContext(ctx, "ignoring malformed task notification", "payload", n.Extra, "error", err)
				continue
			}
			if ev.Status != status {
				continue
			}
			if !send(ctx, out, ev) {
				return
			}
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				r.logger.WarnContext(ctx, "task listener ping failed", "error", err)
			}
		}
	}
}

// emitCurrent reports false once ctx is done.
func (r *GormTaskRepository) emitCurrent(ctx context.Context, status task.Status, out chan<- ports.TaskEvent) bool {
	tasks, err := r.FindByStatus(ctx, status)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		r.logger.ErrorContext(ctx, "failed to scan tasks for subscription", "status", status, "error", err)
		return true
	}

	for _, t := range tasks {
		if !send(ctx, out, ports.TaskEvent{TaskID: t.ID(), Status: status}) {
			return false
		}
	}
	return true
}

func (r *GormTaskRepository) onListenerEvent(event pq.ListenerEventType, err error) {
	if err != nil {
		r.logger.Warn("task listener connection event", "event", event, "error", err)
	}
}

func send(ctx context.Context, out chan<- ports.TaskEvent, ev ports.TaskEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func parseNotification(payload string) (ports.TaskEvent, error) {
	rawID, rawStatus, ok := strings.Cut(payload, ":")
	if !ok {
		return ports.TaskEvent{}, fmt.Errorf("payload %q has no status", payload)
	}

	id, err := kernel.UUIDFromString(rawID)
	if err != nil {
		return ports.TaskEvent{}, err
	}
	status := task.Status(rawStatus)
	if err := status.Validate(); err != nil {
		return ports.TaskEvent{}, err
	}

	return ports.TaskEvent{TaskID: id, Status: status}, nil
}
