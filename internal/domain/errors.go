package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// SeatsUnavailableError rejects a booking intent when the trip already has
// as many paid bookings as seats. No money has moved at this point.
type SeatsUnavailableError struct {
	TripID   int64
	Capacity int
}

func (e SeatsUnavailableError) Error() string {
	return fmt.Sprintf("no seats available on trip %d (capacity %d)", e.TripID, e.Capacity)
}

// TripFullError rejects a payment confirmation because the last seat went to
// someone else between booking and payment. RefundOwed is set once the
// booking has been flagged for the refund flow. A non-empty TripStatus means
// the trip stopped selling seats (departed, completed or cancelled).
type TripFullError struct {
	TripID      int64
	BookingCode string
	RefundOwed  bool
	TripStatus  string
}

func (e TripFullError) Error() string {
	if e.TripStatus != "" {
		return fmt.Sprintf("trip %d is %s, no seat available", e.TripID, e.TripStatus)
	}
	if e.BookingCode != "" {
		return fmt.Sprintf("trip %d is full, booking %s not confirmed", e.TripID, e.BookingCode)
	}
	return fmt.Sprintf("trip %d is full", e.TripID)
}

type PaymentNotSuccessfulError struct {
	Reference string
	Status    string
}

func (e PaymentNotSuccessfulError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("payment %s not successful", e.Reference)
	}
	return fmt.Sprintf("payment %s not successful: %s", e.Reference, e.Status)
}

// PaymentProviderUnavailableError wraps network failures and timeouts talking
// to the payment gateway. The caller may retry.
type PaymentProviderUnavailableError struct {
	Op  string
	Err error
}

func (e PaymentProviderUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("payment provider unavailable (%s)", e.Op)
	}
	return fmt.Sprintf("payment provider unavailable (%s): %v", e.Op, e.Err)
}

func (e PaymentProviderUnavailableError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsSeatsUnavailable(err error) bool {
	var target SeatsUnavailableError
	return errors.As(err, &target)
}

func IsTripFull(err error) bool {
	var target TripFullError
	return errors.As(err, &target)
}

func IsPaymentNotSuccessful(err error) bool {
	var target PaymentNotSuccessfulError
	return errors.As(err, &target)
}

func IsPaymentProviderUnavailable(err error) bool {
	var target PaymentProviderUnavailableError
	return errors.As(err, &target)
}

// IsRetryable reports whether the caller may safely repeat the request.
func IsRetryable(err error) bool {
	return IsPaymentProviderUnavailable(err) || IsConflict(err)
}
