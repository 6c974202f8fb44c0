package queries_test

import (
	"testing"
	"time"

	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueries_NotConstructedViaConstructor(t *testing.T) {
	assert.ErrorIs(t, queries.GetActiveTasksQuery{}.Validate(), queries.ErrGetActiveTasksQueryIsNotConstructed)
	assert.ErrorIs(t, queries.GetOnDutyCouriersQuery{}.Validate(), queries.ErrGetOnDutyCouriersQueryIsNotConstructed)
	assert.NoError(t, queries.NewGetActiveTasksQuery(nil).Validate())
	assert.NoError(t, queries.NewGetOnDutyCouriersQuery().Validate())
}

func TestRepositoryActiveTasksQueryHandler_Handle(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	repo := store.TaskRepository()
	businessA, businessB := kernel.NewUUID(), kernel.NewUUID()
	base := time.Date(2025, 1, 17, 9, 0, 0, 0, time.UTC)

	add := func(businessID kernel.UUID, offset time.Duration) *task.Task {
		tk, err := task.NewTask(kernel.NewUUID(), "250117-00001", task.Details{
			BusinessID:      businessID,
			CustomerName:    "Dana",
			DeliveryAddress: "Herzl 1",
			Priority:        task.PriorityNormal,
			PaymentMethod:   task.PaymentCash,
		}, base.Add(offset))
		require.NoError(t, err)
		require.NoError(t, repo.Add(ctx, tk))
		return tk
	}

	second := add(businessA, 2*time.Minute)
	first := add(businessA, time.Minute)
	other := add(businessB, 3*time.Minute)
	cancelled := add(businessA, 4*time.Minute)
	patch, err := cancelled.OpenToAll(base)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateFields(ctx, cancelled.ID(), patch))
	patch, err = cancelled.Cancel(base)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateFields(ctx, cancelled.ID(), patch))

	handler := queries.NewRepositoryActiveTasksQueryHandler(repo)

	t.Run("all businesses", func(t *testing.T) {
		result, err := handler.Handle(ctx, queries.NewGetActiveTasksQuery(nil))
		require.NoError(t, err)
		require.Len(t, result, 3)
		assert.True(t, result[0].ID.IsEqual(first.ID()))
		assert.True(t, result[1].ID.IsEqual(second.ID()))
		assert.True(t, result[2].ID.IsEqual(other.ID()))
	})

	t.Run("one business", func(t *testing.T) {
		result, err := handler.Handle(ctx, queries.NewGetActiveTasksQuery(&businessB))
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, task.Pending, result[0].Status)
		assert.Equal(t, "Dana", result[0].CustomerName)
	})
}

func TestRepositoryOnDutyCouriersQueryHandler_Handle(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	couriers := store.CourierRepository()

	for _, name := range []string{"Zohar", "Avi", "Off"} {
		c, err := courier.NewCourier(kernel.NewUUID(), name, "", nil)
		require.NoError(t, err)
		require.NoError(t, couriers.Add(ctx, c))
		if name != "Off" {
			require.NoError(t, couriers.UpdateFields(ctx, c.ID(), c.StartShift()))
		}
	}

	result, err := queries.NewRepositoryOnDutyCouriersQueryHandler(couriers).Handle(ctx, queries.NewGetOnDutyCouriersQuery())

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "Avi", result[0].Name)
	assert.Equal(t, "Zohar", result[1].Name)
	assert.Equal(t, courier.Available, result[0].LiveStatus)
	assert.Nil(t, result[0].Location)
}
