package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"marketfund/internal/domain"
	"marketfund/internal/infra"
	"marketfund/internal/sqlinline"
)

// OrderRepositoryPG implements domain.OrderStore.
type OrderRepositoryPG struct {
	sql infra.SQLExecutor
}

// Insert writes one order line and fills in its id and created_at.
func (r *OrderRepositoryPG) Insert(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return domain.InvalidRequest("order is required")
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	shipping, err := json.Marshal(order.Shipping)
	if err != nil {
		return fmt.Errorf("encode shipping: %w", err)
	}
	return r.sql.QueryRow(ctx, sqlinline.QInsertOrder,
		order.ID,
		order.ProductID,
		order.BuyerID,
		order.Quantity,
		order.UnitPrice.String(),
		order.Total.String(),
		shipping,
		order.PaymentMethod,
		string(order.Status),
	).Scan(&order.CreatedAt)
}
