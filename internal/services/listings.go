// Package services holds the listing logic that sits between the HTTP
// handlers and the store: rating aggregation, duplicate detection and
// proximity search.
package services

import (
	"context"
	"fmt"
	"sort"

	"toilet_finder/internal/geo"
	"toilet_finder/internal/models"
	"toilet_finder/internal/store"
)

// DefaultDuplicateRadius is how close, in meters, two listings may be before
// the second is treated as the same place.
const DefaultDuplicateRadius = 20.0

// Sort orders accepted by FilterListings.
const (
	SortHighToLow = "high_to_low"
	SortLowToHigh = "low_to_high"
)

// Ranked pairs a listing with its distance from a query point.
type Ranked struct {
	Toilet   models.Toilet
	Distance float64
}

// FindDuplicate returns the listing nearest to (lat, lng) that lies within
// radius meters, ignoring excludeID. ok is false when there is none.
func FindDuplicate(toilets []models.Toilet, lat, lng, radius float64, excludeID string) (Ranked, bool) {
	var best Ranked
	found := false
	for _, t := range toilets {
		if excludeID != "" && t.ID == excludeID {
			continue
		}
		d := geo.Distance(lat, lng, t.Location.Lat, t.Location.Lng)
		if d > radius {
			continue
		}
		if !found || d < best.Distance {
			best = Ranked{Toilet: t, Distance: d}
			found = true
		}
	}
	return best, found
}

// CheckDuplicate looks for a pending or approved listing within radius of
// (lat, lng). Rejected and deactivated listings do not block new ones.
func CheckDuplicate(ctx context.Context, st store.Store, lat, lng, radius float64, excludeID string) (*models.Toilet, error) {
	candidates, err := st.ListToilets(ctx, models.StatusPending, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list toilets for duplicate check: %w", err)
	}
	match, ok := FindDuplicate(candidates, lat, lng, radius, excludeID)
	if !ok {
		return nil, nil
	}
	return &match.Toilet, nil
}

// WithinRadius keeps the listings no further than radius meters from
// (lat, lng), nearest first.
func WithinRadius(toilets []models.Toilet, lat, lng, radius float64) []Ranked {
	ranked := make([]Ranked, 0, len(toilets))
	for _, t := range toilets {
		d := geo.Distance(lat, lng, t.Location.Lat, t.Location.Lng)
		if d <= radius {
			ranked = append(ranked, Ranked{Toilet: t, Distance: d})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Distance < ranked[j].Distance })
	return ranked
}

// ListFilter narrows a listing query. Zero values mean no constraint.
type ListFilter struct {
	MinRating float64
	Amenities []string
	Sort      string
}

// FilterListings applies the rating and amenity constraints and the requested
// rating sort. Order is preserved when no sort is given.
func FilterListings(toilets []models.Toilet, f ListFilter) []models.Toilet {
	out := make([]models.Toilet, 0, len(toilets))
	for _, t := range toilets {
		if t.AverageRating < f.MinRating {
			continue
		}
		if !t.HasAmenities(f.Amenities) {
			continue
		}
		out = append(out, t)
	}

	switch f.Sort {
	case SortHighToLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].AverageRating > out[j].AverageRating })
	case SortLowToHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].AverageRating < out[j].AverageRating })
	}
	return out
}

// ValidSort reports whether s is empty or a known sort order.
func ValidSort(s string) bool {
	return s == "" || s == SortHighToLow || s == SortLowToHigh
}
