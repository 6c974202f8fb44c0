// Package memory is an in-process implementation of ports.TaskStore with the
// same semantics as the postgres store: field-scoped updates, insert-only
// status timestamps and at-least-once status subscriptions.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/business"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

var _ ports.TaskStore = (*Store)(nil)

// Store keeps every record in maps guarded by a single mutex. Aggregates are
// stored as snapshots so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	tasks        map[kernel.UUID]task.Snapshot
	taskOrder    []kernel.UUID
	couriers     map[kernel.UUID]courier.Snapshot
	courierOrder []kernel.UUID
	businesses   map[kernel.UUID]*business.Business
	clients      map[kernel.UUID]*business.Client
	counter      int64

	subs map[*subscription]struct{}
}

func NewStore() *Store {
	return &Store{
		tasks:      make(map[kernel.UUID]task.Snapshot),
		couriers:   make(map[kernel.UUID]courier.Snapshot),
		businesses: make(map[kernel.UUID]*business.Business),
		clients:    make(map[kernel.UUID]*business.Client),
		subs:       make(map[*subscription]struct{}),
	}
}

func (s *Store) TaskRepository() ports.TaskRepository {
	return taskRepository{s}
}

func (s *Store) CourierRepository() ports.CourierRepository {
	return courierRepository{s}
}

func (s *Store) BusinessRepository() ports.BusinessRepository {
	return businessRepository{s}
}

func (s *Store) DeliveryNumberGenerator() ports.DeliveryNumberGenerator {
	return deliveryNumbers{s}
}

// publish must be called with s.mu held.
func (s *Store) publish(id kernel.UUID, status task.Status) {
	for sub := range s.subs {
		if sub.status == status {
			sub.push(ports.TaskEvent{TaskID: id, Status: status})
		}
	}
}

type taskRepository struct{ s *Store }

func (r taskRepository) Add(_ context.Context, t *task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.tasks[t.ID()]; exists {
		return errs.NewValueIsInvalidErrorWithCause("task id", fmt.Errorf("task %s already exists", t.ID()))
	}
	r.s.tasks[t.ID()] = t.Snapshot()
	r.s.taskOrder = append(r.s.taskOrder, t.ID())
	r.s.publish(t.ID(), t.Status())
	return nil
}

func (r taskRepository) Get(_ context.Context, id kernel.UUID) (*task.Task, error) {
	r.s.mu.RLock()
	snapshot, ok := r.s.tasks[id]
	r.s.mu.RUnlock()

	if !ok {
		return nil, errs.NewObjectNotFoundError("task", id)
	}
	return task.Restore(snapshot)
}

func (r taskRepository) UpdateFields(_ context.Context, id kernel.UUID, patch task.Patch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snapshot, ok := r.s.tasks[id]
	if !ok {
		return errs.NewObjectNotFoundError("task", id)
	}
	if !patch.Admits(snapshot.Status) {
		return errs.NewPreconditionFailedError(fmt.Sprintf("task %s is %s", id, snapshot.Status))
	}
	if patch.IsEmpty() {
		return nil
	}

	patch.ApplyTo(&snapshot)
	r.s.tasks[id] = snapshot
	if patch.Status != nil {
		r.s.publish(id, *patch.Status)
	}
	return nil
}

func (r taskRepository) FindByStatus(_ context.Context, statuses ...task.Status) ([]*task.Task, error) {
	return r.find(func(s task.Snapshot) bool {
		return slices.Contains(statuses, s.Status)
	})
}

func (r taskRepository) FindByCourier(_ context.Context, courierID kernel.UUID, statuses ...task.Status) ([]*task.Task, error) {
	return r.find(func(s task.Snapshot) bool {
		return s.CourierID != nil && s.CourierID.IsEqual(courierID) && slices.Contains(statuses, s.Status)
	})
}

func (r taskRepository) find(match func(task.Snapshot) bool) ([]*task.Task, error) {
	r.s.mu.RLock()
	var matched []task.Snapshot
	for _, id := range r.s.taskOrder {
		if snapshot := r.s.tasks[id]; match(snapshot) {
			matched = append(matched, snapshot)
		}
	}
	r.s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b task.Snapshot) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	out := make([]*task.Task, 0, len(matched))
	for _, snapshot := range matched {
		t, err := task.Restore(snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Subscribe delivers the tasks already in status, then every later creation
// or transition into it. The channel closes when ctx is done.
func (r taskRepository) Subscribe(ctx context.Context, status task.Status) (<-chan ports.TaskEvent, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	sub := newSubscription(status)

	r.s.mu.Lock()
	for _, id := range r.s.taskOrder {
		if r.s.tasks[id].Status == status {
			sub.push(ports.TaskEvent{TaskID: id, Status: status})
		}
	}
	r.s.subs[sub] = struct{}{}
	r.s.mu.Unlock()

	go func() {
		sub.run(ctx)
		r.s.mu.Lock()
		delete(r.s.subs, sub)
		r.s.mu.Unlock()
	}()

	return sub.out, nil
}

type courierRepository struct{ s *Store }

func (r courierRepository) Add(_ context.Context, c *courier.Courier) error {
	if err := c.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.couriers[c.ID()]; exists {
		return errs.NewValueIsInvalidErrorWithCause("courier id", fmt.Errorf("courier %s already exists", c.ID()))
	}
	r.s.couriers[c.ID()] = c.Snapshot()
	r.s.courierOrder = append(r.s.courierOrder, c.ID())
	return nil
}

func (r courierRepository) Get(_ context.Context, id kernel.UUID) (*courier.Courier, error) {
	r.s.mu.RLock()
	snapshot, ok := r.s.couriers[id]
	r.s.mu.RUnlock()

	if !ok {
		return nil, errs.NewObjectNotFoundError("courier", id)
	}
	return courier.RestoreCourier(snapshot)
}

func (r courierRepository) UpdateFields(_ context.Context, id kernel.UUID, patch courier.Patch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snapshot, ok := r.s.couriers[id]
	if !ok {
		return errs.NewObjectNotFoundError("courier", id)
	}
	patch.ApplyTo(&snapshot)
	r.s.couriers[id] = snapshot
	return nil
}

func (r courierRepository) FindOnDuty(_ context.Context) ([]*courier.Courier, error) {
	r.s.mu.RLock()
	var onDuty []courier.Snapshot
	for _, id := range r.s.courierOrder {
		if snapshot := r.s.couriers[id]; snapshot.OnDuty {
			onDuty = append(onDuty, snapshot)
		}
	}
	r.s.mu.RUnlock()

	out := make([]*courier.Courier, 0, len(onDuty))
	for _, snapshot := range onDuty {
		c, err := courier.RestoreCourier(snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

type businessRepository struct{ s *Store }

func (r businessRepository) Add(_ context.Context, b *business.Business) error {
	if err := b.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.businesses[b.ID()] = b
	return nil
}

func (r businessRepository) Get(_ context.Context, id kernel.UUID) (*business.Business, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.businesses[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("business", id)
	}
	return b, nil
}

func (r businessRepository) AddClient(_ context.Context, c *business.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clients[c.ID()] = c
	return nil
}

func (r businessRepository) GetClient(_ context.Context, id kernel.UUID) (*business.Client, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("client", id)
	}
	return c, nil
}

type deliveryNumbers struct{ s *Store }

func (g deliveryNumbers) NextDeliveryNumber(_ context.Context, now time.Time) (string, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	g.s.counter++
	return task.FormatDeliveryNumber(now, g.s.counter), nil
}
