package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNegativeStock          = errors.New("adjustment would drive stock negative")
	ErrInsufficientAvailable  = errors.New("not enough available quantity")
	ErrReleaseExceedsReserved = errors.New("release exceeds reserved")
	ErrSameWarehouse          = errors.New("source and destination warehouse must differ")
	ErrNonPositiveQuantity    = errors.New("quantity must be positive")
	ErrRecordNotFound         = errors.New("unknown inventory record")
	ErrProductNotFound        = errors.New("unknown product")

	// ErrLockTimeout is retryable: the row lock wait exceeded the configured
	// bound and nothing was mutated.
	ErrLockTimeout = errors.New("row lock wait timed out")
)

// ValidationError wraps an invariant violation. The transaction is rolled
// back before any write, so no mutation is applied.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError reports a lower-level store failure. Error() is sanitized;
// the driver error stays reachable via Unwrap for logging.
type StorageError struct {
	Op  string
	err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage failure during %s", e.Op) }
func (e *StorageError) Unwrap() error { return e.err }

func validationErr(op string, cause error) error { return &ValidationError{Op: op, Err: cause} }

// classify maps an error escaping a unit of work to the caller-visible
// taxonomy. Validation and lock-timeout errors pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	if errors.Is(err, ErrLockTimeout) {
		return err
	}
	if errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrProductNotFound) {
		return &ValidationError{Op: op, Err: err}
	}
	return &StorageError{Op: op, err: err}
}
