package service

import "errors"

// Error taxonomy for the planning core. Handlers map these to HTTP status
// codes; services wrap them with context via fmt.Errorf("...: %w", err).
var (
	// ErrNotFound covers missing jobs, items, suppliers and POs.
	ErrNotFound = errors.New("not found")

	// ErrNoActiveBOM means no BOM version is active for the product or
	// packaging in question.
	ErrNoActiveBOM = errors.New("no active BOM")

	// ErrInsufficientStock is returned by hard-mode reservations when
	// available-to-promise is below the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidTransition means the requested status change is not in the
	// transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEmptySelection means a PO was requested with no shortage lines.
	ErrEmptySelection = errors.New("empty selection")

	// ErrMissingUnitPrice means a PO line carries a price <= 0.
	ErrMissingUnitPrice = errors.New("missing unit price")

	// ErrConcurrencyConflict means an optimistic version check lost the
	// race. The caller must retry the whole operation, not resume it.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")

	// ErrCapacityExceeded means approving the job would push the day's
	// approved drums past capacity.
	ErrCapacityExceeded = errors.New("day capacity exceeded")
)
