package commands_test

import (
	"errors"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/business"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// withDestination returns a copy of tk with delivery coordinates or a client reference.
func withDestination(t *testing.T, tk *task.Task, loc *kernel.Location, clientID *kernel.UUID) *task.Task {
	t.Helper()
	s := tk.Snapshot()
	s.Details.ClientLocation = loc
	s.Details.ClientID = clientID
	restored, err := task.Restore(s)
	require.NoError(t, err)
	return restored
}

func TestNewUpdateTaskStatusCommand(t *testing.T) {
	for _, status := range []task.Status{task.Picked, task.Delivered} {
		_, err := commands.NewUpdateTaskStatusCommand(kernel.NewUUID(), kernel.NewUUID(), status)
		assert.NoError(t, err)
	}
	for _, status := range []task.Status{task.Accepted, task.Cancelled, task.Status("flying")} {
		_, err := commands.NewUpdateTaskStatusCommand(kernel.NewUUID(), kernel.NewUUID(), status)
		assert.Error(t, err, status)
	}
}

func TestUpdateTaskStatusCommandHandler_Pickup(t *testing.T) {
	setup := func(t *testing.T, position kernel.Location) (*mockStore, *MockGeolocationProvider, *task.Task, *courier.Courier, *business.Business) {
		store := newMockStore()
		geo := new(MockGeolocationProvider)
		b := newBusiness(t)
		c := courierAt(t, "Avi", 32.07, 34.78, courier.Busy)
		courierID := c.ID()
		tk := taskIn(t, b.ID(), task.Accepted, &courierID, 1)

		store.tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()
		geo.On("CurrentPosition", mock.Anything, courierID).Return(position, nil).Once()
		store.businesses.On("Get", mock.Anything, b.ID()).Return(b, nil).Once()
		return store, geo, tk, c, b
	}

	t.Run("should refuse pickup 60 m from the business", func(t *testing.T) {
		position := mustLocation(32.08054, 34.78)
		store, geo, tk, c, _ := setup(t, position)

		handler := commands.NewUpdateTaskStatusCommandHandler(store, geo, commands.DefaultGeofenceConfig(), nil, nil)
		cmd, _ := commands.NewUpdateTaskStatusCommand(tk.ID(), c.ID(), task.Picked)
		err := handler.Handle(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrPreconditionFailed)
		var geofenceErr *commands.GeofenceError
		require.ErrorAs(t, err, &geofenceErr)
		assert.InDelta(t, 60, geofenceErr.DistanceMeters(), 1)
		assert.Equal(t, task.Picked, geofenceErr.Target)
		store.tasks.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
		store.couriers.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should confirm pickup 40 m from the business", func(t *testing.T) {
		position := mustLocation(32.08036, 34.78)
		store, geo, tk, c, _ := setup(t, position)

		store.tasks.On("UpdateFields", mock.Anything, tk.ID(), mock.MatchedBy(func(p task.Patch) bool {
			_, stamped := p.StatusTimestamps[task.Picked]
			return *p.Status == task.Picked && p.PickedUpAt != nil && stamped
		})).Return(nil).Once()
		store.couriers.On("Get", mock.Anything, c.ID()).Return(c, nil).Once()
		store.couriers.On("UpdateFields", mock.Anything, c.ID(), courier.Patch{Location: &position}).Return(nil).Once()

		handler := commands.NewUpdateTaskStatusCommandHandler(store, geo, commands.DefaultGeofenceConfig(), nil, nil)
		cmd, _ := commands.NewUpdateTaskStatusCommand(tk.ID(), c.ID(), task.Picked)

		require.NoError(t, handler.Handle(t.Context(), cmd))
		store.assertExpectations(t)
		geo.AssertExpectations(t)
	})
}

func TestUpdateTaskStatusCommandHandler_Guards(t *testing.T) {
	t.Run("only the holder may update", func(t *testing.T) {
		store := newMockStore()
		holder := kernel.NewUUID()
		tk := taskIn(t, kernel.NewUUID(), task.Accepted, &holder, 1)
		store.tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()

		handler := commands.NewUpdateTaskStatusCommandHandler(store, new(MockGeolocationProvider), commands.DefaultGeofenceConfig(), nil, nil)
		cmd, _ := commands.NewUpdateTaskStatusCommand(tk.ID(), kernel.NewUUID(), task.Picked)

		assert.ErrorIs(t, handler.Handle(t.Context(), cmd), errs.ErrUnauthorized)
	})

	t.Run("delivery before pickup is an illegal transition", func(t *testing.T) {
		store := newMockStore()
		geo := new(MockGeolocationProvider)
		holder := kernel.NewUUID()
		tk := taskIn(t, kernel.NewUUID(), task.Accepted, &holder, 1)
		store.tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()

		handler := commands.NewUpdateTaskStatusCommandHandler(store, geo, commands.DefaultGeofenceConfig(), nil, nil)
		cmd, _ := commands.NewUpdateTaskStatusCommand(tk.ID(), holder, task.Delivered)

		assert.ErrorIs(t, handler.Handle(t.Context(), cmd), errs.ErrPreconditionFailed)
		geo.AssertNotCalled(t, "CurrentPosition", mock.Anything, mock.Anything)
	})

	t.Run("a failed position lookup changes nothing", func(t *testing.T) {
		store := newMockStore()
		geo := new(MockGeolocationProvider)
		holder := kernel.NewUUID()
		tk := taskIn(t, kernel.NewUUID(), task.Accepted, &holder, 1)
		store.tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()
		geo.On("CurrentPosition", mock.Anything, holder).Return(kernel.Location{}, errors.New("gps off")).Once()

		handler := commands.NewUpdateTaskStatusCommandHandler(store, geo, commands.GeofenceConfig{RadiusKm: 0.05, LookupTimeout: time.Second}, nil, nil)
		cmd, _ := commands.NewUpdateTaskStatusCommand(tk.ID(), holder, task.Picked)

		assert.ErrorIs(t, handler.Handle(t.Context(), cmd), commands.ErrPositionUnavailable)
		store.tasks.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateTaskStatusCommandHandler_Delivery(t *testing.T) {
	destination := mustLocation(32.1, 34.8)

	t.Run("should deliver near the task coordinates and free the courier", func(t *testing.T) {
		store := newMockStore()
		geo := new(MockGeolocationProvider)
		c := courierAt(t, "Avi", 32.1, 34.8, courier.Busy)
		courierID := c.ID()
		tk := withDestination(t, taskIn(t, kernel.NewUUID(), task.Picked, &courierID, 1), &destination, nil)
		position := mustLocation(32.1002, 34.8)

		store.tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()
		geo.On("CurrentPosition", mock.Anything, courierID).Return(position, nil).Once()
		store.tasks.On("UpdateFields", mock.Anything, tk.ID(), mock.MatchedBy(func(p task.Patch) bool {
			return *p.Status == task.Delivered && p.DeliveredAt != nil
		})).Return(nil).Once()
		store.couriers.On("Get", mock.Anything, courierID).Return(c, nil).Once()
		available := courier.Available
		store.couriers.On("UpdateFields", mock.Anything, courierID, courier.Patch{
			Location:   &position,
			LiveStatus: &available,
		}).Return(nil).Once()

		handler := commands.NewUpdateTaskStatusCommandHandler(store, geo, commands.DefaultGeofenceConfig(), nil, nil)
		cmd, _ := commands.NewUpdateTaskStatusCommand(tk.ID(), courierID, task.Delivered)

		require.NoError(t, handler.Handle(t.Context(), cmd))
		store.assertExpectations(t)
		store.businesses.AssertNotCalled(t, "GetClient", mock.Anything, mock.Anything)
	})

	t.Run("should fall back to the client record", func(t *testing.T) {
		store := newMockStore()
		geo := new(MockGeolocationProvider)
		courierID := kernel.NewUUID()
		b := newBusiness(t)
		client, err := business.NewClient(kernel.NewUUID(), b.ID(), "Dana", &destination)
		require.NoError(t, err)
		clientID := client.ID()
		tk := withDestination(t, taskIn(t, b.ID(), task.Picked, &courierID, 1), nil, &clientID)

		store.tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()
		geo.On("CurrentPosition", mock.Anything, courierID).Return(mustLocation(32.11, 34.8), nil).Once()
		store.businesses.On("GetClient", mock.Anything, clientID).Return(client, nil).Once()

		handler := commands.NewUpdateTaskStatusCommandHandler(store, geo, commands.DefaultGeofenceConfig(), nil, nil)
		cmd, _ := commands.NewUpdateTaskStatusCommand(tk.ID(), courierID, task.Delivered)
		err = handler.Handle(t.Context(), cmd)

		var geofenceErr *commands.GeofenceError
		require.ErrorAs(t, err, &geofenceErr)
		assert.Equal(t, task.Delivered, geofenceErr.Target)
		store.tasks.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should allow delivery without any destination", func(t *testing.T) {
		store := newMockStore()
		geo := new(MockGeolocationProvider)
		c := courierAt(t, "Avi", 32.1, 34.8, courier.Busy)
		courierID := c.ID()
		tk := taskIn(t, kernel.NewUUID(), task.Picked, &courierID, 1)
		position := mustLocation(31.5, 34.5)

		store.tasks.On("Get", mock.Anything, tk.ID()).Return(tk, nil).Once()
		geo.On("CurrentPosition", mock.Anything, courierID).Return(position, nil).Once()
		store.tasks.On("UpdateFields", mock.Anything, tk.ID(), mock.Anything).Return(nil).Once()
		store.couriers.On("Get", mock.Anything, courierID).Return(c, nil).Once()
		store.couriers.On("UpdateFields", mock.Anything, courierID, mock.Anything).Return(nil).Once()

		handler := commands.NewUpdateTaskStatusCommandHandler(store, geo, commands.DefaultGeofenceConfig(), nil, nil)
		cmd, _ := commands.NewUpdateTaskStatusCommand(tk.ID(), courierID, task.Delivered)

		require.NoError(t, handler.Handle(t.Context(), cmd))
		store.assertExpectations(t)
	})
}
