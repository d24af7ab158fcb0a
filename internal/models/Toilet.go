package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Listing lifecycle. Only APPROVED listings are visible in searches.
const (
	StatusPending     = "PENDING"
	StatusApproved    = "APPROVED"
	StatusRejected    = "REJECTED"
	StatusDeactivated = "DEACTIVATED"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Photo struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Toilet is a single listing in the directory. The five rating fields are
// derived from the listing's non-deleted reviews and are never written by clients.
type Toilet struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `json:"name" gorm:"not null"`
	Location    Location  `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Description string    `json:"description"`
	Photos      []Photo   `json:"photos" gorm:"serializer:json"`

	AverageRating      float64 `json:"average_rating"`
	CleanlinessRating  float64 `json:"cleanliness_rating"`
	LayoutRating       float64 `json:"layout_rating"`
	SpaciousnessRating float64 `json:"spaciousness_rating"`
	AmenitiesRating    float64 `json:"amenities_rating"`
	ReviewCount        int     `json:"review_count"`

	Amenities            pq.StringArray `json:"amenities" gorm:"type:text[]"`
	WheelchairAccessible bool           `json:"wheelchair_accessible"`
	Status               string         `json:"status" gorm:"size:16;index;not null"`
	RejectionReason      string         `json:"rejection_reason,omitempty"`
	CreatedBy            string         `json:"created_by" gorm:"size:36;index"`
}

func (t *Toilet) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *Toilet) IsActive() bool {
	return t.Status == StatusApproved
}

// HasAmenities reports whether the listing offers every wanted amenity.
func (t *Toilet) HasAmenities(wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, a := range t.Amenities {
			if a == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
