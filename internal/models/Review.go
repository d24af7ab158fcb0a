package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Reply struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Review is one user's rating of a listing. At most one non-deleted review may
// exist per (toilet, user); the partial unique index enforces it in Postgres.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ToiletID  string    `json:"toilet_id" gorm:"size:36;not null;uniqueIndex:idx_reviews_active_author,where:is_deleted = false"`
	UserID    string    `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_reviews_active_author,where:is_deleted = false"`

	OverallRating      float64 `json:"overall_rating"`
	CleanlinessRating  float64 `json:"cleanliness_rating"`
	LayoutRating       float64 `json:"layout_rating"`
	SpaciousnessRating float64 `json:"spaciousness_rating"`
	AmenitiesRating    float64 `json:"amenities_rating"`

	Comment string  `json:"comment"`
	Photos  []Photo `json:"photos" gorm:"serializer:json"`

	LikedBy    pq.StringArray `json:"liked_by" gorm:"type:text[]"`
	DislikedBy pq.StringArray `json:"disliked_by" gorm:"type:text[]"`
	Likes      int            `json:"likes"`
	Dislikes   int            `json:"dislikes"`

	Replies   []Reply `json:"replies" gorm:"serializer:json"`
	IsDeleted bool    `json:"is_deleted" gorm:"index;not null"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Like records a like from userID, dropping any dislike from the same user.
func (r *Review) Like(userID string) {
	r.DislikedBy = without(r.DislikedBy, userID)
	if !contains(r.LikedBy, userID) {
		r.LikedBy = append(r.LikedBy, userID)
	}
	r.syncReactionCounts()
}

// Dislike records a dislike from userID, dropping any like from the same user.
func (r *Review) Dislike(userID string) {
	r.LikedBy = without(r.LikedBy, userID)
	if !contains(r.DislikedBy, userID) {
		r.DislikedBy = append(r.DislikedBy, userID)
	}
	r.syncReactionCounts()
}

func (r *Review) syncReactionCounts() {
	r.Likes = len(r.LikedBy)
	r.Dislikes = len(r.DislikedBy)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func without(set pq.StringArray, v string) pq.StringArray {
	out := pq.StringArray{}
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
