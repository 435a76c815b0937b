package repo

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"marketfund/internal/domain"
	"marketfund/internal/infra"
	"marketfund/internal/sqlinline"
)

// InventoryRepositoryPG implements domain.InventoryStore inside a transaction.
type InventoryRepositoryPG struct {
	sql infra.SQLExecutor
}

// LockAndFetch locks the product rows in ascending id order.
func (r *InventoryRepositoryPG) LockAndFetch(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	ordered := sortedUnique(ids)
	rows, err := r.sql.Query(ctx, sqlinline.QLockProducts, ordered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]domain.Product, len(ordered))
	for rows.Next() {
		var (
			p     domain.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Available, &price); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %s price: %w", p.ID, err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ordered {
		if _, ok := out[id]; !ok {
			return nil, &domain.NotFoundError{Entity: "product", ID: id}
		}
	}
	return out, nil
}

// Decrement is a conditional update; zero affected rows means the locked
// quantity is too small.
func (r *InventoryRepositoryPG) Decrement(ctx context.Context, productID string, amount int) error {
	if amount <= 0 {
		return domain.InvalidRequest("decrement amount must be positive")
	}
	var remaining int
	err := r.sql.QueryRow(ctx, sqlinline.QDecrementProduct, productID, amount).Scan(&remaining)
	if err == nil {
		return nil
	}
	if !infra.IsNoRows(err) {
		return err
	}

	var available int
	if err := r.sql.QueryRow(ctx, sqlinline.QProductAvailable, productID).Scan(&available); err != nil {
		if infra.IsNoRows(err) {
			return &domain.NotFoundError{Entity: "product", ID: productID}
		}
		return err
	}
	return &domain.StockError{ProductID: productID, Requested: amount, Available: available}
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
