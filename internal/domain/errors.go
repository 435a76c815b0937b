package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCampaignInactive  = errors.New("campaign inactive")
	ErrLockTimeout       = errors.New("lock timeout")
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidAmount rejects amounts that ValidAmount refuses.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive, below 10^16, with at most 2 decimal places", ErrInvalidRequest)
)

// StockError names the product that would have been oversold.
type StockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidRequest tags msg as malformed caller input.
func InvalidRequest(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}

// TransactionFailed tags a storage error so callers can match ErrTransactionFailed
// while the cause stays reachable through errors.Is/As.
func TransactionFailed(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrTransactionFailed, err)
}
