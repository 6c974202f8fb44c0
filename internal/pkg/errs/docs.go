// Package errs provides the typed errors shared by the dispatch service.
//
// Error kinds:
//   - ObjectNotFoundError: a task, courier, business or client record is missing
//   - ValueIsInvalidError, ValueIsOutOfRangeError, ValueIsRequiredError: input validation
//   - UnauthorizedError: an actor is not entitled to act on a task
//   - PreconditionFailedError: a status guard or geofence check failed, nothing was mutated
//   - StoreUnavailableError: transient persistence failure, surfaced for manual retry
//
// Each kind follows the same pattern: a sentinel (ErrObjectNotFound, ...), a struct
// carrying the details, constructors with and without cause, Error and Unwrap.
// Callers classify with errors.Is against the sentinel.
package errs
