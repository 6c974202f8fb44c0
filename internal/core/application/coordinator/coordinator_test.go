package coordinator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/coordinator"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/business"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimers records armed timers and fires them on demand.
type fakeTimers struct {
	mu    sync.Mutex
	armed map[kernel.UUID]func()
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{armed: make(map[kernel.UUID]func())}
}

func (f *fakeTimers) Arm(taskID kernel.UUID, _ time.Duration, fire func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed[taskID] = fire
}

func (f *fakeTimers) Disarm(taskID kernel.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.armed[taskID]
	delete(f.armed, taskID)
	return ok
}

func (f *fakeTimers) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.armed)
}

func (f *fakeTimers) isArmed(taskID kernel.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.armed[taskID]
	return ok
}

func (f *fakeTimers) fire(t *testing.T, taskID kernel.UUID) {
	t.Helper()
	f.mu.Lock()
	fire, ok := f.armed[taskID]
	delete(f.armed, taskID)
	f.mu.Unlock()
	require.True(t, ok, "no timer armed for task")
	fire()
}

type fixture struct {
	store  *memory.Store
	timers *fakeTimers
	coord  *coordinator.Coordinator
	assign commands.AssignTaskCommandHandler

	business *business.Business
	near     *courier.Courier
	far      *courier.Courier
	taskID   kernel.UUID
}

func addCourier(t *testing.T, store *memory.Store, name string, lat, lon float64) *courier.Courier {
	t.Helper()
	ctx := t.Context()
	c, err := courier.NewCourier(kernel.NewUUID(), name, "", nil)
	require.NoError(t, err)
	require.NoError(t, store.CourierRepository().Add(ctx, c))

	loc, err := kernel.NewLocation(lat, lon)
	require.NoError(t, err)
	patch, err := c.MoveTo(loc)
	require.NoError(t, err)
	require.NoError(t, store.CourierRepository().UpdateFields(ctx, c.ID(), patch))
	require.NoError(t, store.CourierRepository().UpdateFields(ctx, c.ID(), c.StartShift()))
	return c
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	ctx := t.Context()
	store := memory.NewStore()

	pickup, _ := kernel.NewLocation(32.08, 34.78)
	b, err := business.NewBusiness(kernel.NewUUID(), "Falafel Express", "Tel Aviv", pickup, kernel.NewUUID())
	require.NoError(t, err)
	require.NoError(t, store.BusinessRepository().Add(ctx, b))

	near := addCourier(t, store, "Near", 32.0845, 34.78) // ~0.5 km
	far := addCourier(t, store, "Far", 32.098, 34.78)    // ~2 km

	tk, err := task.NewTask(kernel.NewUUID(), "250117-00001", task.Details{
		BusinessID:      b.ID(),
		CustomerName:    "Dana",
		DeliveryAddress: "Herzl 1",
		Priority:        task.PriorityNormal,
		PaymentMethod:   task.PaymentCash,
	}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, store.TaskRepository().Add(ctx, tk))

	assign := commands.NewAssignTaskCommandHandler(store, nil, nil, nil)
	reassign := commands.NewReassignTaskCommandHandler(store, nil, nil, nil)
	escalator := commands.NewEscalator(assign, reassign, nil)
	timers := newFakeTimers()

	coord := coordinator.New(timers, coordinator.Handlers{
		Accept: commands.NewAcceptTaskCommandHandler(store, nil),
		Reject: commands.NewRejectTaskCommandHandler(store, escalator, nil),
		Expire: commands.NewExpireAssignmentCommandHandler(store, escalator, nil, nil),
		Cancel: commands.NewCancelTaskCommandHandler(store, nil),
	}, store, timeout, nil)

	return &fixture{
		store:    store,
		timers:   timers,
		coord:    coord,
		assign:   assign,
		business: b,
		near:     near,
		far:      far,
		taskID:   tk.ID(),
	}
}

func (f *fixture) dispatch(t *testing.T) commands.AssignmentResult {
	t.Helper()
	cmd, err := commands.NewAssignTaskCommand(f.taskID, false)
	require.NoError(t, err)
	result, err := f.assign.Handle(t.Context(), cmd)
	require.NoError(t, err)
	f.coord.Track(f.taskID, result)
	return result
}

func (f *fixture) task(t *testing.T) *task.Task {
	t.Helper()
	tk, err := f.store.TaskRepository().Get(t.Context(), f.taskID)
	require.NoError(t, err)
	return tk
}

func (f *fixture) liveStatus(t *testing.T, c *courier.Courier) courier.LiveStatus {
	t.Helper()
	got, err := f.store.CourierRepository().Get(t.Context(), c.ID())
	require.NoError(t, err)
	return got.LiveStatus()
}

func TestCoordinator_AcceptTask(t *testing.T) {
	t.Run("directed courier accepts and the timer is cancelled", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		result := f.dispatch(t)
		require.True(t, result.CourierID.IsEqual(f.near.ID()))
		require.True(t, f.timers.isArmed(f.taskID))

		require.NoError(t, f.coord.AcceptTask(t.Context(), f.taskID, f.near.ID()))

		tk := f.task(t)
		assert.Equal(t, task.Accepted, tk.Status())
		assert.NotNil(t, tk.AcceptedAt())
		_, stamped := tk.StatusTimestamp(task.Accepted)
		assert.True(t, stamped)
		assert.Equal(t, courier.Busy, f.liveStatus(t, f.near))
		assert.False(t, f.timers.isArmed(f.taskID))
	})

	t.Run("another courier is unauthorized and the timer stays", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		f.dispatch(t)

		err := f.coord.AcceptTask(t.Context(), f.taskID, f.far.ID())

		assert.ErrorIs(t, err, errs.ErrUnauthorized)
		assert.Equal(t, task.PendingAcceptance, f.task(t).Status())
		assert.True(t, f.timers.isArmed(f.taskID))
	})

	t.Run("unknown task", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		err := f.coord.AcceptTask(t.Context(), kernel.NewUUID(), f.near.ID())
		assert.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestCoordinator_RejectTask(t *testing.T) {
	t.Run("first rejection reassigns to the next courier and re-arms the timer", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		f.dispatch(t)

		result, err := f.coord.RejectTask(t.Context(), f.taskID, f.near.ID())

		require.NoError(t, err)
		assert.Equal(t, commands.OutcomeAssigned, result.Outcome)
		assert.True(t, result.CourierID.IsEqual(f.far.ID()))
		assert.Equal(t, courier.Available, f.liveStatus(t, f.near))
		assert.Equal(t, courier.PendingAcceptance, f.liveStatus(t, f.far))
		tk := f.task(t)
		assert.Equal(t, task.PendingAcceptance, tk.Status())
		assert.Equal(t, 2, tk.AssignmentAttempts())
		assert.True(t, f.timers.isArmed(f.taskID))
	})

	t.Run("rejection after two attempts broadcasts", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		f.dispatch(t)
		_, err := f.coord.RejectTask(t.Context(), f.taskID, f.near.ID())
		require.NoError(t, err)

		result, err := f.coord.RejectTask(t.Context(), f.taskID, f.far.ID())

		require.NoError(t, err)
		assert.Equal(t, commands.OutcomeBroadcast, result.Outcome)
		tk := f.task(t)
		assert.Equal(t, task.Broadcast, tk.Status())
		assert.Nil(t, tk.Courier())
		assert.Equal(t, courier.Available, f.liveStatus(t, f.near))
		assert.Equal(t, courier.Available, f.liveStatus(t, f.far))
		assert.False(t, f.timers.isArmed(f.taskID), "broadcast claims have no timer")

		// anyone may now claim it
		require.NoError(t, f.coord.AcceptTask(t.Context(), f.taskID, f.near.ID()))
		assert.True(t, f.task(t).IsHeldBy(f.near.ID()))
	})

	t.Run("only the directed courier may reject", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		f.dispatch(t)

		_, err := f.coord.RejectTask(t.Context(), f.taskID, f.far.ID())

		assert.ErrorIs(t, err, errs.ErrUnauthorized)
		assert.Equal(t, courier.PendingAcceptance, f.liveStatus(t, f.near))
	})

	t.Run("broadcast tasks cannot be rejected", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		cmd, _ := commands.NewAssignTaskCommand(f.taskID, true)
		_, err := f.assign.Handle(t.Context(), cmd)
		require.NoError(t, err)

		_, err = f.coord.RejectTask(t.Context(), f.taskID, f.near.ID())

		assert.ErrorIs(t, err, errs.ErrUnauthorized)
	})

	t.Run("with nobody else eligible the offer stays and no timer is armed", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		f.dispatch(t)
		patch, err := f.far.EndShift(false)
		require.NoError(t, err)
		require.NoError(t, f.store.CourierRepository().UpdateFields(t.Context(), f.far.ID(), patch))

		result, err := f.coord.RejectTask(t.Context(), f.taskID, f.near.ID())

		require.NoError(t, err)
		assert.Equal(t, commands.OutcomeNone, result.Outcome)
		assert.Equal(t, task.PendingAcceptance, f.task(t).Status())
		assert.Equal(t, 1, f.task(t).AssignmentAttempts())
		assert.False(t, f.timers.isArmed(f.taskID))
	})
}

func TestCoordinator_Timeout(t *testing.T) {
	t.Run("expiry frees the courier and reassigns", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		f.dispatch(t)

		f.timers.fire(t, f.taskID)

		tk := f.task(t)
		assert.True(t, tk.IsHeldBy(f.far.ID()))
		assert.Equal(t, courier.Available, f.liveStatus(t, f.near))
		assert.True(t, f.timers.isArmed(f.taskID), "the new offer has its own timer")
	})

	t.Run("second expiry broadcasts, never a third directed offer", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		f.dispatch(t)
		f.timers.fire(t, f.taskID)

		f.timers.fire(t, f.taskID)

		tk := f.task(t)
		assert.Equal(t, task.Broadcast, tk.Status())
		assert.Equal(t, 3, tk.AssignmentAttempts())
		assert.False(t, f.timers.isArmed(f.taskID))
	})

	t.Run("a timer firing after acceptance is a no-op", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		f.dispatch(t)
		var stale func()
		f.timers.mu.Lock()
		stale = f.timers.armed[f.taskID]
		f.timers.mu.Unlock()
		require.NoError(t, f.coord.AcceptTask(t.Context(), f.taskID, f.near.ID()))

		stale()

		assert.Equal(t, task.Accepted, f.task(t).Status())
		assert.Equal(t, courier.Busy, f.liveStatus(t, f.near))
	})

	t.Run("real timers fire the expiry", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		escalator := commands.NewEscalator(
			commands.NewAssignTaskCommandHandler(f.store, nil, nil, nil),
			commands.NewReassignTaskCommandHandler(f.store, nil, nil, nil),
			nil,
		)
		coord := coordinator.New(coordinator.NewAfterFuncRegistry(), coordinator.Handlers{
			Expire: commands.NewExpireAssignmentCommandHandler(f.store, escalator, nil, nil),
		}, f.store, 20*time.Millisecond, nil)

		cmd, _ := commands.NewAssignTaskCommand(f.taskID, false)
		result, err := f.assign.Handle(t.Context(), cmd)
		require.NoError(t, err)
		coord.Track(f.taskID, result)

		assert.Eventually(t, func() bool {
			tk, err := f.store.TaskRepository().Get(context.Background(), f.taskID)
			return err == nil && tk.Status() == task.Broadcast
		}, 2*time.Second, 10*time.Millisecond, "two silent couriers lead to a broadcast")
	})
}

func TestCoordinator_ManualReassign(t *testing.T) {
	f := newFixture(t, time.Minute)
	first := f.dispatch(t)
	require.True(t, first.CourierID.IsEqual(f.near.ID()))

	reassign := commands.NewReassignTaskCommandHandler(f.store, nil, nil, nil)
	cmd, err := commands.NewReassignTaskCommand(f.taskID)
	require.NoError(t, err)
	result, err := reassign.Handle(t.Context(), cmd)
	require.NoError(t, err)
	f.coord.Track(f.taskID, result)

	assert.True(t, f.task(t).IsHeldBy(f.far.ID()))
	assert.Equal(t, courier.PendingAcceptance, f.liveStatus(t, f.far))
	assert.Equal(t, courier.Available, f.liveStatus(t, f.near), "the displaced courier is free again")

	// the timer now belongs to the new holder
	f.timers.fire(t, f.taskID)
	assert.Equal(t, task.Broadcast, f.task(t).Status())
	assert.Equal(t, courier.Available, f.liveStatus(t, f.far))
}

func TestCoordinator_BroadcastClaims(t *testing.T) {
	broadcast := func(t *testing.T, f *fixture) {
		t.Helper()
		cmd, err := commands.NewAssignTaskCommand(f.taskID, true)
		require.NoError(t, err)
		result, err := f.assign.Handle(t.Context(), cmd)
		require.NoError(t, err)
		require.Equal(t, commands.OutcomeBroadcast, result.Outcome)
	}

	t.Run("a courier off duty cannot claim", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		broadcast(t, f)
		idle, err := courier.NewCourier(kernel.NewUUID(), "Idle", "", nil)
		require.NoError(t, err)
		require.NoError(t, f.store.CourierRepository().Add(t.Context(), idle))

		err = f.coord.AcceptTask(t.Context(), f.taskID, idle.ID())

		assert.ErrorIs(t, err, errs.ErrPreconditionFailed)
		assert.Equal(t, task.Broadcast, f.task(t).Status())
		assert.Equal(t, courier.Unavailable, f.liveStatus(t, idle))
	})

	t.Run("a busy courier cannot claim a second task", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		couriers := f.store.CourierRepository()
		c, err := couriers.Get(t.Context(), f.near.ID())
		require.NoError(t, err)
		require.NoError(t, couriers.UpdateFields(t.Context(), c.ID(), c.Engage()))
		broadcast(t, f)

		err = f.coord.AcceptTask(t.Context(), f.taskID, f.near.ID())

		assert.ErrorIs(t, err, errs.ErrPreconditionFailed)
		assert.Equal(t, task.Broadcast, f.task(t).Status())
	})

	t.Run("the first on-duty courier wins and a late claim is refused", func(t *testing.T) {
		f := newFixture(t, time.Minute)
		broadcast(t, f)

		require.NoError(t, f.coord.AcceptTask(t.Context(), f.taskID, f.far.ID()))
		err := f.coord.AcceptTask(t.Context(), f.taskID, f.near.ID())

		assert.ErrorIs(t, err, errs.ErrUnauthorized)
		assert.True(t, f.task(t).IsHeldBy(f.far.ID()))
		assert.Equal(t, courier.Busy, f.liveStatus(t, f.far))
		assert.Equal(t, courier.Available, f.liveStatus(t, f.near))
	})
}

func TestCoordinator_SweepExpired(t *testing.T) {
	t.Run("recovers offers whose timers were lost", func(t *testing.T) {
		f := newFixture(t, time.Millisecond)
		f.dispatch(t)
		f.timers.Disarm(f.taskID) // simulate a restart
		time.Sleep(5 * time.Millisecond)

		expired, err := f.coord.SweepExpired(t.Context())

		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		assert.True(t, f.task(t).IsHeldBy(f.far.ID()))
		assert.Equal(t, courier.Available, f.liveStatus(t, f.near))
	})

	t.Run("leaves fresh offers alone", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.dispatch(t)

		expired, err := f.coord.SweepExpired(t.Context())

		require.NoError(t, err)
		assert.Zero(t, expired)
		assert.True(t, f.task(t).IsHeldBy(f.near.ID()))
		assert.True(t, f.timers.isArmed(f.taskID))
	})
}

func TestCoordinator_CancelTask(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.dispatch(t)

	require.NoError(t, f.coord.CancelTask(t.Context(), f.taskID))

	assert.Equal(t, task.Cancelled, f.task(t).Status())
	assert.Equal(t, courier.Available, f.liveStatus(t, f.near))
	assert.False(t, f.timers.isArmed(f.taskID))

	f.coord.Cancel(f.taskID) // double cancel is a no-op
}
