package httpx

import (
	"net/http"
	"strconv"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/shared/pkg/geo"
)

// devicePoint reads the optional lat/lng query pair sent by a client that
// has a location fix.
func devicePoint(r *http.Request) (*geo.Point, error) {
	q := r.URL.Query()
	rawLat, rawLng := q.Get("lat"), q.Get("lng")
	if rawLat == "" && rawLng == "" {
		return nil, nil
	}
	if rawLat == "" || rawLng == "" {
		return nil, apperr.Invalid("lat,lng", "send both or neither")
	}
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lng, errLng := strconv.ParseFloat(rawLng, 64)
	p := geo.Point{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !p.Valid() {
		return nil, apperr.Invalid("lat,lng", "out of range")
	}
	return &p, nil
}

func (h *Handlers) Nearby(w http.ResponseWriter, r *http.Request) {
	ref, err := devicePoint(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Artisans.Nearby(r.Context(), ref)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) Geocode(w http.ResponseWriter, r *http.Request) {
	m, err := h.Geocoder.Lookup(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
