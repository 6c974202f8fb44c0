// Package services provides domain services that orchestrate business operations
// across multiple domain entities in the dispatch system. It implements
// workflows that don't naturally belong to a single aggregate root.
//
// The package includes:
//   - TaskDispatcher: finds the nearest eligible courier and offers it a task
//
// Domain services coordinate between aggregates, implementing business logic that
// spans multiple bounded contexts following Domain-Driven Design principles.
package services
