package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type campaignResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	GoalAmount    string     `json:"goal_amount"`
	CurrentAmount string     `json:"current_amount"`
	BackerCount   int64      `json:"backer_count"`
	State         string     `json:"state"`
	Moderation    string     `json:"moderation_status"`
	EndsAt        *time.Time `json:"ends_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type transparencyResponse struct {
	CampaignID        string `json:"campaign_id"`
	DonationsTotal    string `json:"donations_total"`
	DonationsCount    int64  `json:"donations_count"`
	ExpendituresTotal string `json:"expenditures_total"`
	ExpendituresCount int64  `json:"expenditures_count"`
	UtilizationPct    string `json:"utilization_pct"`
}

type auditResponse struct {
	CampaignID       string `json:"campaign_id"`
	CurrentAmount    string `json:"current_amount"`
	BackerCount      int64  `json:"backer_count"`
	LedgerTotal      string `json:"ledger_total"`
	LedgerCount      int64  `json:"ledger_count"`
	AmountDrift      string `json:"amount_drift"`
	BackerDrift      int64  `json:"backer_drift"`
	Consistent       bool   `json:"consistent"`
	ExpendituresOver bool   `json:"expenditures_over_donations"`
}

func (a *App) CampaignGet(w http.ResponseWriter, r *http.Request) {
	c, err := a.Transparency.Campaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, campaignResponse{
		ID:            c.ID,
		Title:         c.Title,
		GoalAmount:    c.GoalAmount.StringFixed(2),
		CurrentAmount: c.CurrentAmount.StringFixed(2),
		BackerCount:   c.BackerCount,
		State:         string(c.State),
		Moderation:    string(c.Moderation),
		EndsAt:        c.EndsAt,
		UpdatedAt:     c.UpdatedAt,
	})
}

func (a *App) CampaignTransparency(w http.ResponseWriter, r *http.Request) {
	s, err := a.Transparency.Transparency(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, transparencyResponse{
		CampaignID:        s.CampaignID,
		DonationsTotal:    s.DonationsTotal.StringFixed(2),
		DonationsCount:    s.DonationsCount,
		ExpendituresTotal: s.ExpendituresTotal.StringFixed(2),
		ExpendituresCount: s.ExpendituresCount,
		UtilizationPct:    s.UtilizationPct.StringFixed(2),
	})
}

func (a *App) CampaignAudit(w http.ResponseWriter, r *http.Request) {
	rep, err := a.Transparency.Audit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, auditResponse{
		CampaignID:       rep.CampaignID,
		CurrentAmount:    rep.CurrentAmount.StringFixed(2),
		BackerCount:      rep.BackerCount,
		LedgerTotal:      rep.LedgerTotal.StringFixed(2),
		LedgerCount:      rep.LedgerCount,
		AmountDrift:      rep.AmountDrift.StringFixed(2),
		BackerDrift:      rep.BackerDrift,
		Consistent:       rep.Consistent,
		ExpendituresOver: rep.ExpendituresOver,
	})
}
