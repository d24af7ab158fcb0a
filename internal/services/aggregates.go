package services

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/sirupsen/logrus"

	"toilet_finder/internal/metrics"
	"toilet_finder/internal/models"
	"toilet_finder/internal/store"
)

// Round2 rounds the exact value of v to two decimal places. Values exactly
// halfway between two cents round away from zero; anything else rounds to the
// nearer cent, so 4.555 (stored just below the half) becomes 4.55.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	if isHalfCent(v) {
		return math.Copysign(math.Floor(math.Abs(v)*100)+1, v) / 100
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// isHalfCent reports whether v sits exactly on a half cent.
func isHalfCent(v float64) bool {
	x := new(big.Rat).SetFloat64(v)
	x.Mul(x, big.NewRat(200, 1))
	return x.IsInt() && x.Num().Bit(0) == 1
}

// ComputeRatings averages the five rating dimensions over the non-deleted
// reviews. With no reviews every field is zero.
func ComputeRatings(reviews []models.Review) store.RatingSummary {
	var overall, cleanliness, layout, spaciousness, amenities float64
	count := 0
	for _, r := range reviews {
		if r.IsDeleted {
			continue
		}
		count++
		overall += r.OverallRating
		cleanliness += r.CleanlinessRating
		layout += r.LayoutRating
		spaciousness += r.SpaciousnessRating
		amenities += r.AmenitiesRating
	}
	if count == 0 {
		return store.RatingSummary{}
	}

	n := float64(count)
	return store.RatingSummary{
		Average:      Round2(overall / n),
		Cleanliness:  Round2(cleanliness / n),
		Layout:       Round2(layout / n),
		Spaciousness: Round2(spaciousness / n),
		Amenities:    Round2(amenities / n),
		Count:        count,
	}
}

// RecomputeToiletAggregates rewrites a listing's ratings from its current
// non-deleted reviews. Call it after every review create, update, delete or restore.
func RecomputeToiletAggregates(ctx context.Context, st store.Store, toiletID string) (store.RatingSummary, error) {
	reviews, err := st.ListActiveReviews(ctx, toiletID, 0)
	if err != nil {
		return store.RatingSummary{}, fmt.Errorf("load reviews for toilet %s: %w", toiletID, err)
	}

	summary := ComputeRatings(reviews)
	if err := st.UpdateToiletRatings(ctx, toiletID, summary); err != nil {
		return store.RatingSummary{}, fmt.Errorf("update ratings for toilet %s: %w", toiletID, err)
	}

	metrics.AggregateRecomputations.Inc()
	logrus.WithFields(logrus.Fields{
		"toilet_id":    toiletID,
		"review_count": summary.Count,
		"average":      summary.Average,
	}).Debug("Recomputed toilet aggregates")
	return summary, nil
}
