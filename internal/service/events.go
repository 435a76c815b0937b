package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"marketfund/internal/domain"
)

type orderLinePayload struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
}

type orderPlacedPayload struct {
	BuyerID       string             `json:"buyer_id"`
	PaymentMethod string             `json:"payment_method"`
	Lines         []orderLinePayload `json:"lines"`
}

type donationRecordedPayload struct {
	DonationID string `json:"donation_id"`
	CampaignID string `json:"campaign_id"`
	DonorID    string `json:"donor_id,omitempty"`
	Amount     string `json:"amount"`
	Anonymous  bool   `json:"anonymous"`
}

type expenditureRecordedPayload struct {
	ExpenditureID string `json:"expenditure_id"`
	CampaignID    string `json:"campaign_id"`
	Amount        string `json:"amount"`
	Title         string `json:"title"`
}

func newEvent(eventType, key string, payload any, now time.Time) (domain.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Key:       key,
		Payload:   data,
		CreatedAt: now,
	}, nil
}
