package service

import (
	"errors"

	"marketfund/internal/domain"
)

var errorKinds = []struct {
	kind    error
	outcome string
}{
	{domain.ErrInvalidRequest, "invalid_request"},
	{domain.ErrNotFound, "not_found"},
	{domain.ErrInsufficientStock, "insufficient_stock"},
	{domain.ErrCampaignInactive, "campaign_inactive"},
	{domain.ErrLockTimeout, "lock_timeout"},
	{domain.ErrTransactionFailed, "transaction_failed"},
}

// classify keeps errors that already carry a domain kind and tags everything
// else (driver, commit, context) as a failed transaction.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return err
		}
	}
	return domain.TransactionFailed(err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return k.outcome
		}
	}
	return "error"
}
