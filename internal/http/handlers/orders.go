package handlers

import (
	"net/http"

	"marketfund/internal/domain"
)

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type orderCreateRequest struct {
	Items         []orderItemRequest  `json:"items"`
	Shipping      domain.ShippingInfo `json:"shipping"`
	PaymentMethod string              `json:"payment_method"`
}

func (a *App) OrdersCreate(w http.ResponseWriter, r *http.Request) {
	var req orderCreateRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, domain.InvalidRequest("invalid payload"))
		return
	}
	items := make([]domain.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.CartItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	ids, err := a.Orders.PlaceOrders(r.Context(), a.currentUserID(r), items, req.Shipping, req.PaymentMethod)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"order_ids": ids})
}
