package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"artisanhub/services/marketplace-api/internal/catalog"
	"artisanhub/shared/pkg/models"
)

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Profiles.Get(r.Context(), actor(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handlers) ListMyProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ListMine(r.Context(), actor(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type productReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (p productReq) input() models.ProductInput {
	return models.ProductInput{Name: p.Name, Description: p.Description, Price: p.Price}
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Catalog.Create(r.Context(), actor(r.Context()), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Catalog.Update(r.Context(), actor(r.Context()), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), actor(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto takes the raw image as the request body.
func (h *Handlers) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.AttachPhoto(r.Context(), actor(r.Context()), chi.URLParam(r, "id"), catalog.Upload{
		ContentType: r.Header.Get("Content-Type"),
		Body:        r.Body,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
