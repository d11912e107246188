package service

import "errors"

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmptyCode is returned when a coupon code is blank or whitespace only
	ErrEmptyCode = errors.New("coupon code is required")

	// ErrCouponNotFound is returned when no coupon matches the given code
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponExpired is returned when a coupon's status or end date puts it in the past
	ErrCouponExpired = errors.New("coupon expired")

	// ErrCouponNotStarted is returned when a coupon is scheduled but not yet valid
	ErrCouponNotStarted = errors.New("coupon not yet available")

	// ErrCouponNotActive is returned when a coupon is in a non-active state
	// that is neither expired nor scheduled
	ErrCouponNotActive = errors.New("coupon not active")

	// ErrCouponExhausted is returned when a coupon has reached its usage cap
	ErrCouponExhausted = errors.New("coupon usage limit reached")

	// ErrCouponExists is returned when inserting a coupon whose code is already taken
	ErrCouponExists = errors.New("coupon already exists")

	// ErrUsageAlreadyRecorded is returned by the redemption insert when the
	// order id was already recorded for the coupon; RecordUsage treats it as
	// a successful replay
	ErrUsageAlreadyRecorded = errors.New("coupon usage already recorded for order")

	// ErrProgramNotConfigured is returned when a store has no loyalty program
	ErrProgramNotConfigured = errors.New("loyalty program not configured")

	// ErrProgramNotActive is returned when a store's loyalty program is disabled
	ErrProgramNotActive = errors.New("loyalty program not active")

	// ErrNoPointsRecord is returned when redeeming for a customer with no account
	ErrNoPointsRecord = errors.New("no points record for customer")

	// ErrInsufficientPoints is returned when the balance cannot cover a redemption
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrBelowMinimumRedeem is returned when a redemption is under the program threshold
	ErrBelowMinimumRedeem = errors.New("points below minimum redemption")

	// ErrDuplicateTransaction is returned by the ledger insert when an entry
	// with the same (account, order, type) already exists
	ErrDuplicateTransaction = errors.New("duplicate ledger transaction")
)
