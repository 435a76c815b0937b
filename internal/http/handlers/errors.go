package handlers

import (
	"errors"
	"net/http"

	"marketfund/internal/domain"
	"marketfund/internal/middleware"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

var errorStatus = []struct {
	kind   error
	status int
	code   string
}{
	{domain.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{domain.ErrCampaignInactive, http.StatusUnprocessableEntity, "campaign_inactive"},
	{domain.ErrLockTimeout, http.StatusServiceUnavailable, "lock_timeout"},
	{domain.ErrTransactionFailed, http.StatusInternalServerError, "transaction_failed"},
}

var messages = map[string]map[string]string{
	"invalid_request": {
		"en": "The request is invalid.",
		"id": "Permintaan tidak valid.",
	},
	"not_found": {
		"en": "The requested resource was not found.",
		"id": "Data yang diminta tidak ditemukan.",
	},
	"insufficient_stock": {
		"en": "Not enough stock for one of the products.",
		"id": "Stok salah satu produk tidak mencukupi.",
	},
	"campaign_inactive": {
		"en": "This campaign is not accepting donations.",
		"id": "Kampanye ini tidak menerima donasi.",
	},
	"lock_timeout": {
		"en": "The system is busy, please try again.",
		"id": "Sistem sedang sibuk, silakan coba lagi.",
	},
	"transaction_failed": {
		"en": "The transaction could not be completed.",
		"id": "Transaksi tidak dapat diselesaikan.",
	},
	"unauthorized": {
		"en": "Authentication is required.",
		"id": "Autentikasi diperlukan.",
	},
	"internal": {
		"en": "Something went wrong.",
		"id": "Terjadi kesalahan.",
	},
}

func localize(code, locale string) string {
	m, ok := messages[code]
	if !ok {
		m = messages["internal"]
	}
	if msg, ok := m[locale]; ok {
		return msg
	}
	return m["en"]
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code string, details map[string]any) {
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, status, map[string]errorBody{
		"error": {Code: code, Message: localize(code, locale), Details: details},
	})
}

// fail maps a coordinator error onto the HTTP error contract.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	for _, e := range errorStatus {
		if errors.Is(err, e.kind) {
			status, code = e.status, e.code
			break
		}
	}

	var details map[string]any
	var stockErr *domain.StockError
	var notFound *domain.NotFoundError
	switch {
	case errors.As(err, &stockErr):
		details = map[string]any{"product_id": stockErr.ProductID, "requested": stockErr.Requested, "available": stockErr.Available}
	case errors.As(err, &notFound):
		details = map[string]any{"entity": notFound.Entity, "id": notFound.ID}
	case code == "invalid_request":
		details = map[string]any{"reason": err.Error()}
	}

	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	a.error(w, r, status, code, details)
}
