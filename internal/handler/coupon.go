package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain/coupon"
)

type couponRequest struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type couponResponse struct {
	ID              int64       `json:"id"`
	Code            string      `json:"code"`
	DiscountPercent json.Number `json:"discount_percent"`
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	return couponResponse{ID: c.ID, Code: c.Code, DiscountPercent: percent(c.DiscountPercent)}
}

// ListCoupons returns all coupons.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		resp[i] = toCouponResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateCoupon stores a coupon under its normalised code. A taken code is
// a 409.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decode(w, r, &req) {
		return
	}
	c := &coupon.Coupon{Code: req.Code, DiscountPercent: req.DiscountPercent}
	c.Normalize()
	if err := c.Validate(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.coupons.Create(r.Context(), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCouponResponse(*c))
}

// DeleteCoupon removes a coupon by id.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.coupons.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: deleted})
}
