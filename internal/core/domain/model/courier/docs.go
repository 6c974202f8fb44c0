// Package courier provides the Courier aggregate: identity, last known
// position, duty flag and the live status used by dispatch.
//
// Live status values:
//   - available: on duty and free to receive an offer
//   - pending_acceptance: considering a directed offer
//   - busy: carrying out an accepted task
//   - unavailable: off duty
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package courier
