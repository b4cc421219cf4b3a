package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain/product"
	"github.com/xenking/orderdesk/internal/domain/validate"
)

type productRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    string           `json:"image_url"`
	Category    string           `json:"category"`
	Highlight   bool             `json:"highlight"`
}

func (req productRequest) toDomain(id int64) (*product.Product, error) {
	if req.Price == nil {
		return nil, validate.Field("price", "is required")
	}
	p := &product.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Highlight:   req.Highlight,
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

type productResponse struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Price       json.Number `json:"price"`
	ImageURL    string      `json:"image_url,omitempty"`
	Category    string      `json:"category,omitempty"`
	Highlight   bool        `json:"highlight"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Highlight:   p.Highlight,
	}
}

// ListProducts returns the catalog ordered by id.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := req.toDomain(0)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

// ReplaceProduct overwrites every field of an existing product.
func (h *Handler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req productRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := req.toDomain(id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.products.Replace(r.Context(), p); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

// DeleteProduct removes a product. Unknown ids report deleted=false.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.products.Delete(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: deleted})
}
