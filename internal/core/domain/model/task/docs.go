// Package task implements the delivery Task aggregate and its lifecycle.
//
// The package includes:
//   - Task: the aggregate root holding dispatch and delivery state
//   - Status: the lifecycle state machine with an explicit transition table
//   - Patch: the field-scoped change set every mutation returns
//   - IssueType, Priority and PaymentMethod value types
//
// Key business rules:
//   - A task is offered to one courier at a time (pending_acceptance) or to all (broadcast)
//   - Only the offered courier may accept a directed task; anyone may accept a broadcast one
//   - Pickup and delivery are performed by the courier bound to the task
//   - Issues may be reported after pickup and are closed by the owning business
//   - Status timestamps record the first entry into each status and are never overwritten
package task
