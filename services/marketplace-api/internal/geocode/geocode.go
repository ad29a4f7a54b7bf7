// Package geocode turns free-text places into coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"artisanhub/services/marketplace-api/internal/apperr"
	"artisanhub/shared/pkg/cache"
	"artisanhub/shared/pkg/geo"
	"artisanhub/shared/pkg/metrics"
)

var (
	ErrNoMatch  = fmt.Errorf("no match for place: %w", apperr.ErrNotFound)
	ErrUpstream = errors.New("geocoding service unavailable")
)

type Match struct {
	Point       geo.Point `json:"point"`
	DisplayName string    `json:"display_name"`
}

type Geocoder interface {
	Lookup(ctx context.Context, query string) (Match, error)
}

// Nominatim queries an OpenStreetMap Nominatim search endpoint and keeps the first match.
type Nominatim struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	return &Nominatim{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Lookup(ctx context.Context, query string) (Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Match{}, apperr.Invalid("q", "is required")
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Match{}, err
	}
	req.Header.Set("Accept", "application/json")
	if n.UserAgent != "" {
		req.Header.Set("User-Agent", n.UserAgent)
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		return Match{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Match{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Match{}, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(places) == 0 {
		return Match{}, ErrNoMatch
	}
	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(places[0].Lon, 64)
	pt := geo.Point{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !pt.Valid() {
		return Match{}, fmt.Errorf("%w: bad coordinates %q,%q", ErrUpstream, places[0].Lat, places[0].Lon)
	}
	return Match{Point: pt, DisplayName: places[0].DisplayName}, nil
}

// Cached answers repeated queries from Redis and falls through to Next.
type Cached struct {
	Next  Geocoder
	Redis *cache.Redis
	TTL   time.Duration
	Log   zerolog.Logger
}

func cacheKey(query string) string {
	return "geocode:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *Cached) Lookup(ctx context.Context, query string) (Match, error) {
	key := cacheKey(query)
	if raw, err := c.Redis.GetString(ctx, key); err == nil {
		var m Match
		if json.Unmarshal([]byte(raw), &m) == nil {
			metrics.GeocodeLookupsTotal.WithLabelValues("cache").Inc()
			return m, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		c.Log.Warn().Err(err).Msg("geocode cache read failed")
	}

	m, err := c.Next.Lookup(ctx, query)
	if err != nil {
		return Match{}, err
	}
	if b, err := json.Marshal(m); err == nil {
		_ = c.Redis.SetString(ctx, key, string(b), c.TTL)
	}
	return m, nil
}

// Counted records upstream lookups and misses.
type Counted struct {
	Next Geocoder
}

func (c Counted) Lookup(ctx context.Context, query string) (Match, error) {
	m, err := c.Next.Lookup(ctx, query)
	switch {
	case err == nil:
		metrics.GeocodeLookupsTotal.WithLabelValues("upstream").Inc()
	case errors.Is(err, ErrNoMatch):
		metrics.GeocodeLookupsTotal.WithLabelValues("miss").Inc()
	case errors.Is(err, ErrUpstream):
		metrics.GeocodeLookupsTotal.WithLabelValues("error").Inc()
	}
	return m, err
}
