package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"marketfund/internal/adapter/memstore"
	"marketfund/internal/domain"
	"marketfund/internal/http/handlers"
	"marketfund/internal/infra"
	"marketfund/internal/middleware"
	"marketfund/internal/service"
)

const testSecret = "router-secret"

type testServer struct {
	handler http.Handler
	store   *memstore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New(memstore.WithLockTimeout(200 * time.Millisecond))
	store.SeedProduct(domain.Product{ID: "p1", Available: 2, Price: decimal.RequireFromString("15000")})
	store.SeedCampaign(domain.Campaign{
		ID:         "c1",
		Title:      "School books",
		GoalAmount: decimal.RequireFromString("1000000"),
		State:      domain.CampaignStateActive,
		Moderation: domain.ModerationApproved,
	})

	logger := zerolog.Nop()
	metrics := infra.NewMetrics()
	app := &handlers.App{
		Orders:       service.NewOrderCoordinator(store, logger, metrics),
		Funding:      service.NewFundingCoordinator(store, logger, metrics),
		Transparency: service.NewTransparencyQuery(store, logger, metrics),
		Metrics:      metrics,
		Logger:       logger,
	}
	h := NewRouter(app, logger, Options{
		JWTSecret:       testSecret,
		RateLimitPerMin: 1000,
		DefaultLocale:   "en",
		CountryLookup:   func(string) (string, error) { return "ID", nil },
	})
	return &testServer{handler: h, store: store}
}

func token(t *testing.T, sub string) string {
	t.Helper()
	tok, err := middleware.SignJWT(testSecret, middleware.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, sub, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if sub != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, sub))
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestOrdersCreate(t *testing.T) {
	s := newTestServer(t)
	body := `{"items":[{"product_id":"p1","quantity":2}],"shipping":{"recipient":"Budi","city":"Jakarta"},"payment_method":"ewallet"}`

	rr := s.do(t, http.MethodPost, "/v1/orders", "buyer-1", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		OrderIDs []string `json:"order_ids"`
	}
	decodeBody(t, rr, &resp)
	if len(resp.OrderIDs) != 1 {
		t.Fatalf("order ids = %v", resp.OrderIDs)
	}

	rr = s.do(t, http.MethodPost, "/v1/orders", "buyer-2", body)
	if rr.Code != http.StatusConflict {
		t.Fatalf("second checkout status = %d, want 409", rr.Code)
	}
	var errResp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, rr, &errResp)
	if errResp.Error.Code != "insufficient_stock" {
		t.Fatalf("code = %q", errResp.Error.Code)
	}
}

func TestOrdersCreateRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodPost, "/v1/orders", "", `{"items":[]}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestOrdersCreateBadPayload(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{`{"items":`, `{"items":[]}`, `{"items":[{"product_id":"p1","quantity":1}],"unknown":1}`} {
		rr := s.do(t, http.MethodPost, "/v1/orders", "buyer-1", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, rr.Code)
		}
	}
}

func TestDonationFlow(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/v1/campaigns/c1/donations", "donor-1", `{"amount":"50000","message":"semangat","payment_method":"qris"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("donation status = %d body=%s", rr.Code, rr.Body.String())
	}
	rr = s.do(t, http.MethodPost, "/v1/campaigns/c1/donations", "donor-2", `{"amount":150000,"anonymous":true}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("anonymous donation status = %d body=%s", rr.Code, rr.Body.String())
	}
	rr = s.do(t, http.MethodPost, "/v1/campaigns/c1/expenditures", "creator", `{"amount":"50000","title":"Books","used_at":"2026-03-01T00:00:00Z"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expenditure status = %d body=%s", rr.Code, rr.Body.String())
	}

	donations := s.store.CommittedDonations("c1")
	if len(donations) != 2 || donations[0].Properties["country"] != "ID" {
		t.Fatalf("unexpected donations %+v", donations)
	}

	rr = s.do(t, http.MethodGet, "/v1/campaigns/c1/transparency", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("transparency status = %d", rr.Code)
	}
	var summary map[string]any
	decodeBody(t, rr, &summary)
	if summary["donations_total"] != "200000.00" || summary["utilization_pct"] != "25.00" || summary["donations_count"] != float64(2) {
		t.Fatalf("unexpected summary %v", summary)
	}

	rr = s.do(t, http.MethodGet, "/v1/campaigns/c1", "", "")
	var campaign map[string]any
	decodeBody(t, rr, &campaign)
	if campaign["current_amount"] != "200000.00" || campaign["backer_count"] != float64(2) {
		t.Fatalf("unexpected campaign %v", campaign)
	}

	rr = s.do(t, http.MethodGet, "/v1/campaigns/c1/audit", "", "")
	var audit map[string]any
	decodeBody(t, rr, &audit)
	if audit["consistent"] != true {
		t.Fatalf("unexpected audit %v", audit)
	}

	rr = s.do(t, http.MethodGet, "/v1/campaigns/c1/donations?limit=5", "", "")
	var recent struct {
		Items []map[string]any `json:"items"`
	}
	decodeBody(t, rr, &recent)
	if len(recent.Items) != 2 {
		t.Fatalf("recent = %v", recent.Items)
	}
	for _, item := range recent.Items {
		if item["anonymous"] == true && item["donor_id"] != nil {
			t.Fatalf("anonymous donor leaked: %v", item)
		}
	}
}

func TestDonationErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		path   string
		body   string
		status int
	}{
		{"/v1/campaigns/c1/donations", `{"amount":"0"}`, http.StatusBadRequest},
		{"/v1/campaigns/c1/donations", `{"amount":"-5"}`, http.StatusBadRequest},
		{"/v1/campaigns/nope/donations", `{"amount":"5"}`, http.StatusNotFound},
	}
	for _, tc := range tests {
		rr := s.do(t, http.MethodPost, tc.path, "donor", tc.body)
		if rr.Code != tc.status {
			t.Fatalf("%s %s: status = %d, want %d", tc.path, tc.body, rr.Code, tc.status)
		}
	}

	s.store.SeedCampaign(domain.Campaign{ID: "closed", State: domain.CampaignStateCompleted, Moderation: domain.ModerationApproved})
	rr := s.do(t, http.MethodPost, "/v1/campaigns/closed/donations", "donor", `{"amount":"5"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("closed campaign status = %d, want 422", rr.Code)
	}
}

func TestLocalizedError(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/campaigns/nope", nil)
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tidak ditemukan") {
		t.Fatalf("expected Indonesian message, got %s", rr.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if rr := s.do(t, http.MethodGet, "/v1/healthz", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}
	s.do(t, http.MethodGet, "/v1/campaigns/c1/transparency", "", "")

	rr := s.do(t, http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "marketfund_core_operations_total") {
		t.Fatalf("metrics output missing operations counter")
	}
}
