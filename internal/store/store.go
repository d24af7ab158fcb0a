// Package store persists users, listings and reviews. GormStore talks to
// Postgres; MemoryStore keeps everything in process for development and tests.
package store

import (
	"context"
	"errors"

	"toilet_finder/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrDuplicateReview = errors.New("user already has an active review for this toilet")
)

// RatingSummary is the derived rating state written back onto a listing.
type RatingSummary struct {
	Average      float64
	Cleanliness  float64
	Layout       float64
	Spaciousness float64
	Amenities    float64
	Count        int
}

type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SaveUser(ctx context.Context, u *models.User) error

	CreateToilet(ctx context.Context, t *models.Toilet) error
	ToiletByID(ctx context.Context, id string) (*models.Toilet, error)
	// ListToilets returns listings in any of the given statuses, or all
	// listings when none are given, oldest first.
	ListToilets(ctx context.Context, statuses ...string) ([]models.Toilet, error)
	SaveToilet(ctx context.Context, t *models.Toilet) error
	UpdateToiletRatings(ctx context.Context, toiletID string, summary RatingSummary) error

	CreateReview(ctx context.Context, r *models.Review) error
	ReviewByID(ctx context.Context, id string) (*models.Review, error)
	// ActiveReview returns the user's non-deleted review of a toilet.
	ActiveReview(ctx context.Context, toiletID, userID string) (*models.Review, error)
	// ListActiveReviews returns non-deleted reviews newest first; limit <= 0 means all.
	ListActiveReviews(ctx context.Context, toiletID string, limit int) ([]models.Review, error)
	SaveReview(ctx context.Context, r *models.Review) error

	// LockListings serialises listing creation and relocation inside a
	// transaction so two nearby listings cannot slip past the duplicate check.
	LockListings(ctx context.Context) error
	// LockToilet loads a listing and holds it until the transaction ends.
	LockToilet(ctx context.Context, id string) (*models.Toilet, error)

	// Transaction runs fn against a store bound to a single transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
