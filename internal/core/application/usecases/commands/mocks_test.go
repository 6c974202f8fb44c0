package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"dispatch/internal/core/domain/model/business"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaskRepository struct{ mock.Mock }

func (m *MockTaskRepository) Add(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Get(ctx context.Context, id kernel.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) UpdateFields(ctx context.Context, id kernel.UUID, patch task.Patch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByStatus(ctx context.Context, statuses ...task.Status) ([]*task.Task, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByCourier(ctx context.Context, courierID kernel.UUID, statuses ...task.Status) ([]*task.Task, error) {
	args := m.Called(ctx, courierID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Subscribe(ctx context.Context, status task.Status) (<-chan ports.TaskEvent, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan ports.TaskEvent), args.Error(1)
}

type MockCourierRepository struct{ mock.Mock }

func (m *MockCourierRepository) Add(ctx context.Context, c *courier.Courier) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courier.Courier), args.Error(1)
}

func (m *MockCourierRepository) UpdateFields(ctx context.Context, id kernel.UUID, patch courier.Patch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockCourierRepository) FindOnDuty(ctx context.Context) ([]*courier.Courier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*courier.Courier), args.Error(1)
}

type MockBusinessRepository struct{ mock.Mock }

func (m *MockBusinessRepository) Add(ctx context.Context, b *business.Business) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBusinessRepository) Get(ctx context.Context, id kernel.UUID) (*business.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*business.Business), args.Error(1)
}

func (m *MockBusinessRepository) AddClient(ctx context.Context, c *business.Client) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockBusinessRepository) GetClient(ctx context.Context, id kernel.UUID) (*business.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*business.Client), args.Error(1)
}

type MockDeliveryNumberGenerator struct{ mock.Mock }

func (m *MockDeliveryNumberGenerator) NextDeliveryNumber(ctx context.Context, now time.Time) (string, error) {
	args := m.Called(ctx, now)
	return args.String(0), args.Error(1)
}

type MockGeolocationProvider struct{ mock.Mock }

func (m *MockGeolocationProvider) CurrentPosition(ctx context.Context, courierID kernel.UUID) (kernel.Location, error) {
	args := m.Called(ctx, courierID)
	return args.Get(0).(kernel.Location), args.Error(1)
}

// mockStore hands out the repository mocks.
type mockStore struct {
	tasks      *MockTaskRepository
	couriers   *MockCourierRepository
	businesses *MockBusinessRepository
	numbers    *MockDeliveryNumberGenerator
}

func newMockStore() *mockStore {
	return &mockStore{
		tasks:      new(MockTaskRepository),
		couriers:   new(MockCourierRepository),
		businesses: new(MockBusinessRepository),
		numbers:    new(MockDeliveryNumberGenerator),
	}
}

func (s *mockStore) TaskRepository() ports.TaskRepository { return s.tasks }
func (s *mockStore) CourierRepository() ports.CourierRepository { return s.couriers }
func (s *mockStore) BusinessRepository() ports.BusinessRepository { return s.businesses }
func (s *mockStore) DeliveryNumberGenerator() ports.DeliveryNumberGenerator { return s.numbers }

func (s *mockStore) assertExpectations(t *testing.T) {
	t.Helper()
	s.tasks.AssertExpectations(t)
	s.couriers.AssertExpectations(t)
	s.businesses.AssertExpectations(t)
	s.numbers.AssertExpectations(t)
}

// recordingNotifier collects notifications sent from background goroutines.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []ports.CourierNotification
}

func (n *recordingNotifier) Notify(_ context.Context, msg ports.CourierNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) notifications() []ports.CourierNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.CourierNotification(nil), n.sent...)
}

var (
	t0         = time.Date(2025, 1, 17, 9, 0, 0, 0, time.UTC)
	businessAt = mustLocation(32.08, 34.78)
)

func mustLocation(lat, lon float64) kernel.Location {
	loc, err := kernel.NewLocation(lat, lon)
	if err != nil {
		panic(err)
	}
	return loc
}

func newBusiness(t *testing.T) *business.Business {
	t.Helper()
	b, err := business.NewBusiness(kernel.NewUUID(), "Falafel Express", "Tel Aviv", businessAt, kernel.NewUUID())
	require.NoError(t, err)
	return b
}

// taskIn restores a task of businessID in status, held by courierID when not nil.
func taskIn(t *testing.T, businessID kernel.UUID, status task.Status, courierID *kernel.UUID, attempts int) *task.Task {
	t.Helper()
	tk, err := task.Restore(task.Snapshot{
		ID:             kernel.NewUUID(),
		DeliveryNumber: "250117-00001",
		Details: task.Details{
			BusinessID:      businessID,
			CustomerName:    "Dana",
			DeliveryAddress: "Herzl 1",
			Priority:        task.PriorityNormal,
			PaymentMethod:   task.PaymentCash,
		},
		Status:             status,
		CourierID:          courierID,
		AssignmentAttempts: attempts,
		StatusTimestamps:   map[task.Status]time.Time{task.Pending: t0},
		CreatedAt:          t0,
	})
	require.NoError(t, err)
	return tk
}

func courierAt(t *testing.T, name string, lat, lon float64, status courier.LiveStatus) *courier.Courier {
	t.Helper()
	loc := mustLocation(lat, lon)
	c, err := courier.RestoreCourier(courier.Snapshot{
		ID:         kernel.NewUUID(),
		Name:       name,
		Location:   &loc,
		OnDuty:     true,
		LiveStatus: status,
	})
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }

func livePatch(status courier.LiveStatus) courier.Patch {
	return courier.Patch{LiveStatus: &status}
}
