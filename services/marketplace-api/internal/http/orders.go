package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"artisanhub/shared/pkg/models"
)

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	items, err := h.Orders.List(r.Context(), actor(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type createOrderReq struct {
	ProductID string `json:"product_id"`
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.Orders.Create(r.Context(), actor(r.Context()), req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

type transitionReq struct {
	Status models.OrderStatus `json:"status"`
}

func (h *Handlers) TransitionOrder(w http.ResponseWriter, r *http.Request) {
	var req transitionReq
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	o, err := h.Orders.Transition(r.Context(), actor(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
