package postgres_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/pgtest"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/business"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/task"

	"github.com/stretchr/testify/suite"
)

// StoreIntegrationTestSuite exercises the store as the application sees it:
// repositories obtained from one Store plus the SQL read models.
type StoreIntegrationTestSuite struct {
	suite.Suite
	database *pgtest.Database
	store    *postgres.Store
}

func (suite *StoreIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
	suite.store = postgres.NewStore(database.DB, database.DSN, nil)
}

func (suite *StoreIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())
}

func (suite *StoreIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.database.Terminate(context.Background()))
}

func (suite *StoreIntegrationTestSuite) TestMigrate_IsRepeatable() {
	suite.Require().NoError(postgres.Migrate(suite.T().Context(), suite.database.DB))
}

func (suite *StoreIntegrationTestSuite) TestCreateTaskFlow() {
	ctx := suite.T().Context()
	loc, err := kernel.NewLocation(32.08, 34.78)
	suite.Require().NoError(err)
	b, err := business.NewBusiness(kernel.NewUUID(), "Falafel Express", "Tel Aviv", loc, kernel.NewUUID())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.BusinessRepository().Add(ctx, b))

	number, err := suite.store.DeliveryNumberGenerator().NextDeliveryNumber(ctx, time.Now())
	suite.Require().NoError(err)

	t, err := task.NewTask(kernel.NewUUID(), number, task.Details{
		BusinessID:        b.ID(),
		DeliveryCompanyID: b.DeliveryCompanyID(),
		CustomerName:      "Dana",
		DeliveryAddress:   "Herzl 1",
		Priority:          task.PriorityNormal,
		PaymentMethod:     task.PaymentCash,
	}, time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.TaskRepository().Add(ctx, t))

	restored, err := suite.store.TaskRepository().Get(ctx, t.ID())
	suite.Require().NoError(err)
	suite.Equal(number, restored.DeliveryNumber())
	suite.True(restored.DeliveryCompanyID().IsEqual(b.DeliveryCompanyID()))
	suite.Nil(restored.ClientLocation())
}

func (suite *StoreIntegrationTestSuite) TestTaskWithoutDeliveryCompany() {
	ctx := suite.T().Context()
	t, err := task.NewTask(kernel.NewUUID(), "250117-00001", task.Details{
		BusinessID:      kernel.NewUUID(),
		CustomerName:    "Dana",
		DeliveryAddress: "Herzl 1",
		Priority:        task.PriorityNormal,
		PaymentMethod:   task.PaymentCash,
	}, time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.store.TaskRepository().Add(ctx, t))

	restored, err := suite.store.TaskRepository().Get(ctx, t.ID())

	suite.Require().NoError(err)
	suite.True(restored.DeliveryCompanyID().IsZero())
}

func (suite *StoreIntegrationTestSuite) TestGetActiveTasksQueryHandler() {
	ctx := suite.T().Context()
	tasks := suite.store.TaskRepository()
	businessA, businessB := kernel.NewUUID(), kernel.NewUUID()
	courierID := kernel.NewUUID()
	base := time.Now().UTC().Truncate(time.Second)

	add := func(number string, businessID kernel.UUID, createdAt time.Time) *task.Task {
		t, err := task.NewTask(kernel.NewUUID(), number, task.Details{
			BusinessID:      businessID,
			CustomerName:    "Dana",
			DeliveryAddress: "Herzl 1",
			Priority:        task.PriorityHigh,
			PaymentMethod:   task.PaymentCash,
		}, createdAt)
		suite.Require().NoError(err)
		suite.Require().NoError(tasks.Add(ctx, t))
		return t
	}

	offered := add("250117-00002", businessA, base.Add(time.Minute))
	pending := add("250117-00001", businessA, base)
	other := add("250117-00003", businessB, base.Add(2*time.Minute))
	cancelled := add("250117-00004", businessA, base.Add(3*time.Minute))

	patch, err := offered.AssignTo(courierID, base)
	suite.Require().NoError(err)
	suite.Require().NoError(tasks.UpdateFields(ctx, offered.ID(), patch))
	patch, err = cancelled.OpenToAll(base)
	suite.Require().NoError(err)
	suite.Require().NoError(tasks.UpdateFields(ctx, cancelled.ID(), patch))
	patch, err = cancelled.Cancel(base)
	suite.Require().NoError(err)
	suite.Require().NoError(tasks.UpdateFields(ctx, cancelled.ID(), patch))

	handler := queries.NewGetActiveTasksQueryHandler(suite.database.DB)

	suite.Run("all businesses", func() {
		result, err := handler.Handle(ctx, queries.NewGetActiveTasksQuery(nil))
		suite.Require().NoError(err)
		suite.Require().Len(result, 3)
		suite.True(result[0].ID.IsEqual(pending.ID()))
		suite.True(result[1].ID.IsEqual(offered.ID()))
		suite.True(result[2].ID.IsEqual(other.ID()))

		suite.Nil(result[0].CourierID)
		suite.Require().NotNil(result[1].CourierID)
		suite.True(result[1].CourierID.IsEqual(courierID))
		suite.Equal(task.PendingAcceptance, result[1].Status)
		suite.Equal(1, result[1].AssignmentAttempts)
		suite.Equal(task.PriorityHigh, result[1].Priority)
		suite.Equal("250117-00002", result[1].DeliveryNumber)
	})

	suite.Run("one business", func() {
		result, err := handler.Handle(ctx, queries.NewGetActiveTasksQuery(&businessB))
		suite.Require().NoError(err)
		suite.Require().Len(result, 1)
		suite.True(result[0].BusinessID.IsEqual(businessB))
		suite.WithinDuration(base.Add(2*time.Minute), result[0].CreatedAt, time.Millisecond)
	})

	suite.Run("not constructed", func() {
		_, err := handler.Handle(ctx, queries.GetActiveTasksQuery{})
		suite.ErrorIs(err, queries.ErrGetActiveTasksQueryIsNotConstructed)
	})
}

func (suite *StoreIntegrationTestSuite) TestGetOnDutyCouriersQueryHandler() {
	ctx := suite.T().Context()
	couriers := suite.store.CourierRepository()

	loc, err := kernel.NewLocation(32.08, 34.78)
	suite.Require().NoError(err)
	located, err := courier.NewCourier(kernel.NewUUID(), "Zohar", "", &loc)
	suite.Require().NoError(err)
	unlocated, err := courier.NewCourier(kernel.NewUUID(), "Avi", "", nil)
	suite.Require().NoError(err)
	offDuty, err := courier.NewCourier(kernel.NewUUID(), "Off", "", &loc)
	suite.Require().NoError(err)

	for _, c := range []*courier.Courier{located, unlocated, offDuty} {
		suite.Require().NoError(couriers.Add(ctx, c))
	}
	suite.Require().NoError(couriers.UpdateFields(ctx, located.ID(), located.StartShift()))
	suite.Require().NoError(couriers.UpdateFields(ctx, unlocated.ID(), unlocated.StartShift()))

	result, err := queries.NewGetOnDutyCouriersQueryHandler(suite.database.DB).
		Handle(ctx, queries.NewGetOnDutyCouriersQuery())

	suite.Require().NoError(err)
	suite.Require().Len(result, 2)
	suite.Equal("Avi", result[0].Name)
	suite.Nil(result[0].Location)
	suite.Equal("Zohar", result[1].Name)
	suite.Equal(courier.Available, result[1].LiveStatus)
	suite.Require().NotNil(result[1].Location)
	suite.InDelta(34.78, result[1].Location.Lon(), 1e-9)
}

func TestStoreIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(StoreIntegrationTestSuite))
}
