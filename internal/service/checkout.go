// Package service holds the transaction coordinators: checkout, funding and
// the campaign transparency queries.
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketfund/internal/domain"
	"marketfund/internal/infra"
)

// OrderCoordinator turns a cart into committed orders. It is the only writer
// of product stock.
type OrderCoordinator struct {
	store   domain.Store
	logger  zerolog.Logger
	metrics *infra.Metrics
	now     func() time.Time
}

func NewOrderCoordinator(store domain.Store, logger zerolog.Logger, metrics *infra.Metrics) *OrderCoordinator {
	return &OrderCoordinator{
		store:   store,
		logger:  logger.With().Str("component", "checkout").Logger(),
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder is PlaceOrders with a single cart line.
func (c *OrderCoordinator) PlaceOrder(ctx context.Context, buyerID string, item domain.CartItem, shipping domain.ShippingInfo, paymentMethod string) (string, error) {
	ids, err := c.PlaceOrders(ctx, buyerID, []domain.CartItem{item}, shipping, paymentMethod)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// PlaceOrders validates stock for every line under row locks, then inserts
// one order per line and decrements stock, all in one transaction. Either
// every line commits or none does.
func (c *OrderCoordinator) PlaceOrders(ctx context.Context, buyerID string, items []domain.CartItem, shipping domain.ShippingInfo, paymentMethod string) (ids []string, err error) {
	started := time.Now()
	defer func() {
		c.metrics.ObserveOperation("place_orders", outcome(err), started)
	}()

	if err := validateCart(buyerID, items); err != nil {
		return nil, err
	}

	productIDs := make([]string, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}

	var (
		placed []domain.Order
		units  int
	)
	err = c.store.InTx(ctx, func(uow domain.UnitOfWork) error {
		placed = placed[:0]
		units = 0

		locked, err := uow.Inventory().LockAndFetch(ctx, productIDs)
		if err != nil {
			return err
		}

		requested := make(map[string]int, len(locked))
		for _, it := range items {
			requested[it.ProductID] += it.Quantity
			if p := locked[it.ProductID]; requested[it.ProductID] > p.Available {
				return &domain.StockError{ProductID: it.ProductID, Requested: requested[it.ProductID], Available: p.Available}
			}
		}

		now := c.now()
		for _, it := range items {
			p := locked[it.ProductID]
			order := domain.Order{
				ID:            uuid.NewString(),
				ProductID:     it.ProductID,
				BuyerID:       buyerID,
				Quantity:      it.Quantity,
				UnitPrice:     p.Price,
				Total:         p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
				Shipping:      shipping,
				PaymentMethod: paymentMethod,
				Status:        domain.OrderStatusPending,
				CreatedAt:     now,
			}
			if err := uow.Orders().Insert(ctx, &order); err != nil {
				return err
			}
			if err := uow.Inventory().Decrement(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
			placed = append(placed, order)
			units += it.Quantity
		}

		event, err := newEvent(domain.EventOrderPlaced, buyerID, orderPlacedEvent(buyerID, paymentMethod, placed), now)
		if err != nil {
			return err
		}
		return uow.Outbox().Enqueue(ctx, event)
	})
	if err != nil {
		err = classify(err)
		c.logger.Warn().Err(err).Str("buyer_id", buyerID).Int("lines", len(items)).Msg("checkout rejected")
		return nil, err
	}

	ids = make([]string, 0, len(placed))
	for _, o := range placed {
		ids = append(ids, o.ID)
	}
	c.metrics.AddUnitsSold(units)
	c.logger.Debug().Str("buyer_id", buyerID).Strs("order_ids", ids).Int("units", units).Msg("checkout committed")
	return ids, nil
}

func validateCart(buyerID string, items []domain.CartItem) error {
	if strings.TrimSpace(buyerID) == "" {
		return domain.InvalidRequest("buyer id is required")
	}
	if len(items) == 0 {
		return domain.InvalidRequest("cart is empty")
	}
	for i, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return domain.InvalidRequest("cart line " + strconv.Itoa(i) + ": product id is required")
		}
		if it.Quantity <= 0 {
			return domain.InvalidRequest("cart line " + strconv.Itoa(i) + ": quantity must be positive")
		}
	}
	return nil
}

func orderPlacedEvent(buyerID, paymentMethod string, orders []domain.Order) orderPlacedPayload {
	lines := make([]orderLinePayload, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, orderLinePayload{
			OrderID:   o.ID,
			ProductID: o.ProductID,
			Quantity:  o.Quantity,
			Total:     o.Total.StringFixed(2),
		})
	}
	return orderPlacedPayload{BuyerID: buyerID, PaymentMethod: paymentMethod, Lines: lines}
}
