package memory_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 17, 9, 0, 0, 0, time.UTC)

func newTask(t *testing.T, createdAt time.Time) *task.Task {
	t.Helper()
	tk, err := task.NewTask(kernel.NewUUID(), "250117-00001", task.Details{
		BusinessID:      kernel.NewUUID(),
		CustomerName:    "Dana",
		DeliveryAddress: "Herzl 1",
		Priority:        task.PriorityNormal,
		PaymentMethod:   task.PaymentCash,
	}, createdAt)
	require.NoError(t, err)
	return tk
}

func TestTaskRepository_AddGetUpdate(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	repo := store.TaskRepository()
	tk := newTask(t, t0)

	require.NoError(t, repo.Add(ctx, tk))
	assert.ErrorIs(t, repo.Add(ctx, tk), errs.ErrValueIsInvalid)

	courierID := kernel.NewUUID()
	patch, err := tk.AssignTo(courierID, t0.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateFields(ctx, tk.ID(), patch))

	got, err := repo.Get(ctx, tk.ID())
	require.NoError(t, err)
	assert.Equal(t, task.PendingAcceptance, got.Status())
	assert.True(t, got.IsHeldBy(courierID))
	assert.Equal(t, "Dana", got.Details().CustomerName)

	_, err = repo.Get(ctx, kernel.NewUUID())
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	assert.ErrorIs(t, repo.UpdateFields(ctx, kernel.NewUUID(), patch), errs.ErrObjectNotFound)
}

func TestTaskRepository_StatusTimestampsAreInsertOnly(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewStore().TaskRepository()
	tk := newTask(t, t0)
	require.NoError(t, repo.Add(ctx, tk))

	status := task.Pending
	err := repo.UpdateFields(ctx, tk.ID(), task.Patch{
		Status:           &status,
		StatusTimestamps: map[task.Status]time.Time{task.Pending: t0.Add(time.Hour)},
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, tk.ID())
	require.NoError(t, err)
	at, _ := got.StatusTimestamp(task.Pending)
	assert.Equal(t, t0, at)
}

func TestTaskRepository_ConcurrentFieldWritesDoNotClobber(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewStore().TaskRepository()
	tk := newTask(t, t0)
	require.NoError(t, repo.Add(ctx, tk))

	// two writers loaded the same version and each wrote only its own field
	attempts := 3
	comments := "gate code 1234"
	require.NoError(t, repo.UpdateFields(ctx, tk.ID(), task.Patch{AssignmentAttempts: &attempts}))
	require.NoError(t, repo.UpdateFields(ctx, tk.ID(), task.Patch{IssueComments: &comments}))

	got, err := repo.Get(ctx, tk.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, got.AssignmentAttempts())
	assert.Equal(t, comments, got.IssueComments())
}

func TestTaskRepository_SecondBroadcastAcceptanceFails(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewStore().TaskRepository()
	tk := newTask(t, t0)
	require.NoError(t, repo.Add(ctx, tk))
	patch, err := tk.OpenToAll(t0)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateFields(ctx, tk.ID(), patch))

	seenByFirst, err := repo.Get(ctx, tk.ID())
	require.NoError(t, err)
	seenBySecond, err := repo.Get(ctx, tk.ID())
	require.NoError(t, err)

	first, second := kernel.NewUUID(), kernel.NewUUID()
	firstAccept, err := seenByFirst.Accept(first, t0.Add(time.Minute))
	require.NoError(t, err)
	secondAccept, err := seenBySecond.Accept(second, t0.Add(time.Minute))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateFields(ctx, tk.ID(), firstAccept))
	assert.ErrorIs(t, repo.UpdateFields(ctx, tk.ID(), secondAccept), errs.ErrPreconditionFailed)

	got, err := repo.Get(ctx, tk.ID())
	require.NoError(t, err)
	assert.Equal(t, task.Accepted, got.Status())
	assert.True(t, got.IsHeldBy(first))
}

func TestTaskRepository_Find(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewStore().TaskRepository()

	newer := newTask(t, t0.Add(time.Minute))
	older := newTask(t, t0)
	held := newTask(t, t0)
	courierID := kernel.NewUUID()
	for _, tk := range []*task.Task{newer, older, held} {
		require.NoError(t, repo.Add(ctx, tk))
	}
	p, _ := held.AssignTo(courierID, t0)
	require.NoError(t, repo.UpdateFields(ctx, held.ID(), p))
	p, _ = held.Accept(courierID, t0)
	require.NoError(t, repo.UpdateFields(ctx, held.ID(), p))

	pending, err := repo.FindByStatus(ctx, task.Pending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.True(t, pending[0].IsEqual(older), "oldest first")

	active, err := repo.FindByCourier(ctx, courierID, task.Accepted, task.Picked)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].IsEqual(held))

	none, err := repo.FindByCourier(ctx, kernel.NewUUID(), task.Accepted)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func receive(t *testing.T, ch <-chan ports.TaskEvent) ports.TaskEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return ports.TaskEvent{}
	}
}

func TestTaskRepository_Subscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	repo := memory.NewStore().TaskRepository()

	existing := newTask(t, t0)
	require.NoError(t, repo.Add(ctx, existing))

	events, err := repo.Subscribe(ctx, task.Pending)
	require.NoError(t, err)

	ev := receive(t, events)
	assert.True(t, ev.TaskID.IsEqual(existing.ID()), "tasks already pending are delivered")

	created := newTask(t, t0)
	require.NoError(t, repo.Add(ctx, created))
	ev = receive(t, events)
	assert.True(t, ev.TaskID.IsEqual(created.ID()))
	assert.Equal(t, task.Pending, ev.Status)

	// a transition into another status is not delivered
	p, _ := created.AssignTo(kernel.NewUUID(), t0)
	require.NoError(t, repo.UpdateFields(ctx, created.ID(), p))
	select {
	case ev := <-events:
		t.Fatalf("unexpected event for %s", ev.TaskID)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-events
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestTaskRepository_SubscribeRejectsUnknownStatus(t *testing.T) {
	_, err := memory.NewStore().TaskRepository().Subscribe(t.Context(), "lost")
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestCourierRepository(t *testing.T) {
	ctx := t.Context()
	repo := memory.NewStore().CourierRepository()

	onDuty, _ := courier.NewCourier(kernel.NewUUID(), "On", "", nil)
	offDuty, _ := courier.NewCourier(kernel.NewUUID(), "Off", "", nil)
	require.NoError(t, repo.Add(ctx, onDuty))
	require.NoError(t, repo.Add(ctx, offDuty))
	require.NoError(t, repo.UpdateFields(ctx, onDuty.ID(), onDuty.StartShift()))

	found, err := repo.FindOnDuty(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].IsEqual(onDuty))
	assert.Equal(t, courier.Available, found[0].LiveStatus())

	_, err = repo.Get(ctx, kernel.NewUUID())
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestDeliveryNumberGenerator(t *testing.T) {
	gen := memory.NewStore().DeliveryNumberGenerator()

	first, err := gen.NextDeliveryNumber(t.Context(), t0)
	require.NoError(t, err)
	second, err := gen.NextDeliveryNumber(t.Context(), t0)
	require.NoError(t, err)

	assert.Equal(t, "250117-00001", first)
	assert.Equal(t, "250117-00002", second)
}
