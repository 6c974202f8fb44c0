package ports

// TaskStore groups the repositories of one storage backend. Repositories
// returned from the same store share its connection.
type TaskStore interface {
	TaskRepository() TaskRepository
	CourierRepository() CourierRepository
	BusinessRepository() BusinessRepository
	DeliveryNumberGenerator() DeliveryNumberGenerator
}
