// Package artisans ranks artisans with a known location by distance.
package artisans

import (
	"context"
	"fmt"
	"sort"

	"artisanhub/shared/pkg/geo"
	"artisanhub/shared/pkg/models"
)

type Source interface {
	ArtisansWithCoordinates(ctx context.Context) ([]models.ArtisanProfile, error)
}

// Pin is one artisan on the map.
type Pin struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	Description   *string   `json:"description"`
	Point         geo.Point `json:"point"`
	ProductCount  int       `json:"product_count"`
	DistanceMiles float64   `json:"distance_miles"`
}

type Nearby struct {
	Center   geo.Point `json:"center"`
	Artisans []Pin     `json:"artisans"`
}

type Service struct {
	Source Source
	Center geo.Point
}

// Nearby ranks artisans from ref, or from the configured centre when ref is nil.
func (s *Service) Nearby(ctx context.Context, ref *geo.Point) (Nearby, error) {
	center := s.Center
	if ref != nil {
		center = *ref
	}
	profiles, err := s.Source.ArtisansWithCoordinates(ctx)
	if err != nil {
		return Nearby{}, fmt.Errorf("load artisans: %w", err)
	}
	return Nearby{Center: center, Artisans: Rank(center, profiles)}, nil
}

// Rank drops profiles without coordinates and sorts the rest by ascending
// distance from center. Equal distances keep their input order.
func Rank(center geo.Point, profiles []models.ArtisanProfile) []Pin {
	pins := make([]Pin, 0, len(profiles))
	for _, p := range profiles {
		if !p.HasCoordinates() {
			continue
		}
		pt := geo.Point{Lat: *p.Latitude, Lng: *p.Longitude}
		pins = append(pins, Pin{
			ID:            p.ID,
			Name:          p.Name,
			Location:      p.Location,
			Description:   p.Description,
			Point:         pt,
			ProductCount:  p.ProductCount,
			DistanceMiles: geo.Distance(center, pt),
		})
	}
	sort.SliceStable(pins, func(i, j int) bool {
		return pins[i].DistanceMiles < pins[j].DistanceMiles
	})
	return pins
}
