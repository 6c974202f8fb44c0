package task

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// IssueType classifies a problem reported by the courier after pickup.
type IssueType string

const (
	IssueCustomerUnavailable IssueType = "customer_unavailable"
	IssueAddressNotFound     IssueType = "address_not_found"
	IssueAccident            IssueType = "accident"
	IssueDamagedPackage      IssueType = "damaged_package"
	IssueWrongAddress        IssueType = "wrong_address"
	IssueCustomerRefused     IssueType = "customer_refused"
	IssueVehicleBreakdown    IssueType = "vehicle_breakdown"
	IssueOther               IssueType = "other"
)

func (t IssueType) Validate() error {
	switch t {
	case IssueCustomerUnavailable, IssueAddressNotFound, IssueAccident, IssueDamagedPackage,
		IssueWrongAddress, IssueCustomerRefused, IssueVehicleBreakdown, IssueOther:
		return nil
	case "":
		return errs.NewValueIsRequiredError("issue type")
	default:
		return errs.NewValueIsInvalidErrorWithCause("issue type", fmt.Errorf("%q is not a known issue", string(t)))
	}
}

// Priority of a delivery.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

func (p Priority) Validate() error {
	if p != PriorityNormal && p != PriorityHigh {
		return errs.NewValueIsInvalidErrorWithCause("priority", fmt.Errorf("%q is not a priority", string(p)))
	}
	return nil
}

// PaymentMethod collected on delivery.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
)

func (m PaymentMethod) Validate() error {
	if m != PaymentCash && m != PaymentCredit {
		return errs.NewValueIsInvalidErrorWithCause("payment method", fmt.Errorf("%q is not a payment method", string(m)))
	}
	return nil
}
