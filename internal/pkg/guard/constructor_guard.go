// Package guard provides ConstructorGuard, a marker embedded into value objects,
// commands and aggregates so that zero values built without a constructor are
// rejected by Validate.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard records whether the owning struct was built by its constructor.
// The zero value reports "not constructed".
//
// Example:
//
//	type AcceptTaskCommand struct {
//	    taskID kernel.UUID
//	    guard  guard.ConstructorGuard
//	}
//
//	func (c AcceptTaskCommand) Validate() error {
//	    return c.guard.Validate(ErrAcceptTaskCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the owner was not built through its constructor.
func (g ConstructorGuard) Validate(validationError error) error {
	if g.isConstructed {
		return nil
	}
	if validationError == nil {
		return ErrDefaultConstructorGuard
	}
	return validationError
}
