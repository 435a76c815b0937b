package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"marketfund/internal/domain"
	"marketfund/internal/service"
)

type expenditureRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Title  string          `json:"title"`
	UsedAt *time.Time      `json:"used_at"`
}

func (a *App) ExpendituresCreate(w http.ResponseWriter, r *http.Request) {
	var req expenditureRequest
	if err := a.decode(r, &req); err != nil {
		a.fail(w, r, domain.InvalidRequest("invalid payload"))
		return
	}
	id, err := a.Funding.RecordExpenditure(r.Context(), service.ExpenditureRequest{
		CreatorID:  a.currentUserID(r),
		CampaignID: chi.URLParam(r, "id"),
		Amount:     req.Amount,
		Title:      req.Title,
		UsedAt:     req.UsedAt,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"id": id})
}
