package httpx

import (
	"net/http"

	"artisanhub/services/marketplace-api/internal/guard"
	"artisanhub/services/marketplace-api/internal/session"
	"artisanhub/shared/pkg/models"
)

type signUpReq struct {
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirm_password"`
	Name            string      `json:"name"`
	Role            models.Role `json:"role"`
	Location        string      `json:"location"`
	Latitude        *float64    `json:"latitude"`
	Longitude       *float64    `json:"longitude"`
	Description     *string     `json:"description"`
}

func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpReq
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Sessions.SignUp(r.Context(), session.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		Confirm:     req.ConfirmPassword,
		Name:        req.Name,
		Role:        req.Role,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInReq
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(r.Context(), guard.TokenFromRequest(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	e, _ := session.FromContext(r.Context())
	writeJSON(w, http.StatusOK, e)
}

type updateMeReq struct {
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeReq
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.Profiles.Update(r.Context(), actor(r.Context()), models.ProfileUpdate{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
