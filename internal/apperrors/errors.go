package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These are programmer errors: callers should fix the ID, not retry.
var (
	// ErrFundNotFound indicates that a fund vehicle with the given ID does not exist.
	ErrFundNotFound = errors.New("fund not found")

	// ErrInvestorNotFound indicates that an investor with the given ID does not exist.
	ErrInvestorNotFound = errors.New("investor not found")

	// ErrCommitmentNotFound indicates that a commitment with the given ID does not exist.
	ErrCommitmentNotFound = errors.New("commitment not found")

	// ErrEventNotFound indicates that a fund event with the given ID does not exist.
	ErrEventNotFound = errors.New("fund event not found")

	// ErrAllocationNotFound indicates that an allocation record does not exist.
	ErrAllocationNotFound = errors.New("allocation not found")

	// ErrPositionNotFound indicates that no investor positions exist for a fund.
	ErrPositionNotFound = errors.New("investor position not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidStatusTransition indicates a fund event status change that the
	// workflow does not allow (e.g. draft straight to completed).
	ErrInvalidStatusTransition = errors.New("invalid event status transition")

	// ErrEventNotApproved indicates an attempt to process an event that has
	// not reached approved status.
	ErrEventNotApproved = errors.New("event is not approved for processing")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrNegativeAmount indicates that an amount field has an invalid negative value.
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrNonPositiveAmount indicates that an amount field must be strictly positive.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrCommitmentBounds indicates min_commitment exceeds max_commitment.
	ErrCommitmentBounds = errors.New("min commitment exceeds max commitment")

	// ErrSelfParent indicates a fund vehicle referencing itself as parent.
	ErrSelfParent = errors.New("fund cannot be its own parent")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrDataInconsistency indicates that the data is in an inconsistent state
	// (e.g. an allocation references a fund that does not exist).
	ErrDataInconsistency = errors.New("data inconsistency detected")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)
