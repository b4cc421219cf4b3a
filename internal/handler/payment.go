package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain/payment"
)

type checkoutItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   *int            `json:"qty"`
}

type checkoutRequest struct {
	Items []checkoutItem `json:"items"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession returns the hosted payment page URL for the items.
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if !h.checkout.Enabled() {
		fail(w, r, payment.ErrDisabled)
		return
	}
	var req checkoutRequest
	if !decode(w, r, &req) {
		return
	}

	items := make([]payment.Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = payment.Item{Name: it.Name, Price: it.Price, Quantity: it.Qty}
	}
	s, err := h.checkout.CreateSession(r.Context(), items)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{URL: s.URL})
}

type configResponse struct {
	StripeEnabled bool   `json:"stripe_enabled"`
	HoursEnforced bool   `json:"hours_enforced"`
	Currency      string `json:"currency"`
}

// GetConfig exposes the public feature switches to the frontend.
func (h *Handler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, configResponse{
		StripeEnabled: h.checkout.Enabled(),
		HoursEnforced: h.cfg.HoursEnforced,
		Currency:      h.checkout.Currency(),
	})
}
