package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain/order"
)

type customerDTO struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
}

// customerRequest also accepts "plz" for the postal code.
type customerRequest struct {
	customerDTO
	Plz string `json:"plz"`
}

func (c customerRequest) toDomain() order.Customer {
	out := order.Customer(c.customerDTO)
	if out.PostalCode == "" {
		out.PostalCode = c.Plz
	}
	return out
}

// orderItemRequest also accepts "id" for the product id.
type orderItemRequest struct {
	ProductID int64           `json:"product_id"`
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Qty       *int            `json:"qty"`
	Note      string          `json:"note"`
}

type placeOrderRequest struct {
	Customer       customerRequest    `json:"customer"`
	Items          []orderItemRequest `json:"items"`
	Payment        string             `json:"payment"`
	Coupon         string             `json:"coupon"`
	DeliveryMethod string             `json:"delivery_method"`
}

type placeOrderResponse struct {
	ID     int64       `json:"id"`
	Total  json.Number `json:"total"`
	Status string      `json:"status"`
}

type orderItemResponse struct {
	ProductID int64       `json:"product_id,omitempty"`
	Name      string      `json:"name"`
	Price     json.Number `json:"price"`
	Qty       int         `json:"qty"`
	Note      string      `json:"note,omitempty"`
}

type orderResponse struct {
	ID             int64               `json:"id"`
	Customer       customerDTO         `json:"customer"`
	Items          []orderItemResponse `json:"items"`
	Payment        string              `json:"payment"`
	Coupon         string              `json:"coupon,omitempty"`
	Discount       json.Number         `json:"discount"`
	Total          json.Number         `json:"total"`
	Status         string              `json:"status"`
	DeliveryMethod string              `json:"delivery_method,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

func toOrderResponse(o order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     money(it.Price),
			Qty:       it.Quantity,
			Note:      it.Note,
		}
	}
	return orderResponse{
		ID:             o.ID,
		Customer:       customerDTO(o.Customer),
		Items:          items,
		Payment:        o.Payment,
		Coupon:         o.CouponCode,
		Discount:       money(o.Discount),
		Total:          money(o.Total),
		Status:         string(o.Status),
		DeliveryMethod: o.DeliveryMethod,
		CreatedAt:      o.CreatedAt,
	}
}

// PlaceOrder validates, prices and stores an order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decode(w, r, &req) {
		return
	}

	items := make([]order.ItemInput, len(req.Items))
	for i, it := range req.Items {
		productID := it.ProductID
		if productID == 0 {
			productID = it.ID
		}
		items[i] = order.ItemInput{
			ProductID: productID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Qty,
			Note:      it.Note,
		}
	}

	res, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Customer:       req.Customer.toDomain(),
		Items:          items,
		Payment:        req.Payment,
		CouponCode:     req.Coupon,
		DeliveryMethod: req.DeliveryMethod,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, placeOrderResponse{
		ID:     res.Order.ID,
		Total:  money(res.Order.Total),
		Status: string(res.Order.Status),
	})
}

// ListOrders returns all orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}
