package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"marketfund/internal/domain"
	"marketfund/internal/middleware"
	"marketfund/internal/service"
)

type donationRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Message       string          `json:"message"`
	Anonymous     bool            `json:"anonymous"`
	PaymentMethod string          `json:"payment_method"`
}

type donationItem struct {
	ID        string    `json:"id"`
	DonorID   *string   `json:"donor_id"`
	Amount    string    `json:"amount"`
	Message   string    `json:"message"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, domain.InvalidRequest("invalid payload"))
		return
	}
	props := map[string]string{"locale": middleware.LocaleFromContext(r.Context())}
	if country := middleware.CountryFromContext(r.Context()); country != "" {
		props["country"] = country
	}
	if rid := middleware.RequestIDFromContext(r.Context()); rid != "" {
		props["request_id"] = rid
	}
	id, err := a.Funding.FundCampaign(r.Context(), service.FundRequest{
		DonorID:       a.currentUserID(r),
		CampaignID:    chi.URLParam(r, "id"),
		Amount:        req.Amount,
		Message:       req.Message,
		Anonymous:     req.Anonymous,
		PaymentMethod: req.PaymentMethod,
		Properties:    props,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"id": id})
}

// DonationsRecent lists the newest donations. Anonymous donors are hidden.
func (a *App) DonationsRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	donations, err := a.Transparency.RecentDonations(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]donationItem, 0, len(donations))
	for _, d := range donations {
		item := donationItem{
			ID:        d.ID,
			Amount:    d.Amount.StringFixed(2),
			Message:   d.Message,
			Anonymous: d.Anonymous,
			CreatedAt: d.CreatedAt,
		}
		if !d.Anonymous {
			donor := d.DonorID
			item.DonorID = &donor
		}
		items = append(items, item)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}
