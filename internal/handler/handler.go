// Package handler exposes the ordering API over HTTP with chi.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/orderdesk/internal/domain/auth"
	"github.com/xenking/orderdesk/internal/domain/coupon"
	"github.com/xenking/orderdesk/internal/domain/order"
	"github.com/xenking/orderdesk/internal/domain/payment"
	"github.com/xenking/orderdesk/internal/domain/product"
	"github.com/xenking/orderdesk/internal/domain/shop"
	"github.com/xenking/orderdesk/internal/domain/validate"
)

const maxBodyBytes = 1 << 20

// OrderService places and lists orders.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error)
	List(ctx context.Context) ([]order.Order, error)
}

// StatusService reads and changes the shop status.
type StatusService interface {
	Current(ctx context.Context) (shop.State, error)
	SetOverride(ctx context.Context, o shop.Override) error
	Schedule(ctx context.Context) (shop.Schedule, error)
	ReplaceSchedule(ctx context.Context, s shop.Schedule) error
}

// Checkout opens hosted payment sessions.
type Checkout interface {
	Enabled() bool
	Currency() string
	CreateSession(ctx context.Context, items []payment.Item) (*payment.Session, error)
}

// Config holds non-dependency settings exposed by the API.
type Config struct {
	HoursEnforced bool
	Timezone      string
}

// Handler serves the /api routes.
type Handler struct {
	cfg      Config
	products product.Repository
	coupons  coupon.Repository
	orders   OrderService
	status   StatusService
	checkout Checkout
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	products product.Repository,
	coupons coupon.Repository,
	orders OrderService,
	status StatusService,
	checkout Checkout,
) *Handler {
	return &Handler{
		cfg:      cfg,
		products: products,
		coupons:  coupons,
		orders:   orders,
		status:   status,
		checkout: checkout,
	}
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Admin guards mutating catalog, coupon and status routes and the order
	// list. Nil leaves them open.
	Admin func(http.Handler) http.Handler
	// Health serves GET /api/health.
	Health http.HandlerFunc
	// Middlewares run inside the router, after route matching has started.
	Middlewares []func(http.Handler) http.Handler
}

// NewRouter mounts h under /api.
func NewRouter(h *Handler, opts RouterOptions) chi.Router {
	admin := opts.Admin
	if admin == nil {
		admin = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Use(opts.Middlewares...)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "route not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", "")
	})

	r.Route("/api", func(r chi.Router) {
		if opts.Health != nil {
			r.Get("/health", opts.Health)
		}
		r.Get("/config", h.GetConfig)

		r.Get("/products", h.ListProducts)
		r.Get("/status", h.GetStatus)
		r.Get("/hours", h.GetHours)
		r.Post("/orders", h.PlaceOrder)
		r.Post("/pay/stripe/session", h.CreateCheckoutSession)

		r.Group(func(r chi.Router) {
			r.Use(admin)

			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.ReplaceProduct)
			r.Delete("/products/{id}", h.DeleteProduct)

			r.Get("/coupons", h.ListCoupons)
			r.Post("/coupons", h.CreateCoupon)
			r.Delete("/coupons/{id}", h.DeleteCoupon)

			r.Get("/orders", h.ListOrders)

			r.Post("/status", h.SetStatus)
			r.Put("/hours", h.ReplaceHours)
		})
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are sent; an encode error means the client went away.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message, field string) {
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Warn("Request failed", zap.String("code", code))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: message, Field: field})
}

// fail maps a domain error to its HTTP response. Unknown errors are logged
// and reported as a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	lg := zctx.From(r.Context())

	if verr, ok := validate.As(err); ok {
		lg.Debug("Validation failed", zap.Error(err))
		writeError(w, r, http.StatusBadRequest, "validation_error", verr.Error(), verr.Field)
		return
	}

	var perr *payment.ProviderError
	switch {
	case errors.Is(err, shop.ErrClosed):
		lg.Debug("Order rejected, shop closed")
		writeError(w, r, http.StatusForbidden, "shop_closed", "the shop is currently closed", "")
	case errors.Is(err, coupon.ErrDuplicateCode):
		writeError(w, r, http.StatusConflict, "conflict", "coupon code already exists", "code")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "product not found", "")
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing or invalid api key", "")
	case errors.Is(err, payment.ErrDisabled):
		writeError(w, r, http.StatusServiceUnavailable, "checkout_disabled", "online payment is not configured", "")
	case errors.As(err, &perr):
		lg.Error("Payment provider failed", zap.Error(err))
		writeError(w, r, http.StatusBadGateway, "payment_provider_error", "payment provider unavailable", "")
	default:
		lg.Error("Internal error", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal", "internal server error", "")
	}
}

// decode reads a JSON body into dst. It writes the 400 response itself and
// returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		zctx.From(r.Context()).Debug("Bad request body", zap.Error(err))
		writeError(w, r, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", "")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "validation_error", "id must be a positive integer", "id")
		return 0, false
	}
	return id, true
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}
