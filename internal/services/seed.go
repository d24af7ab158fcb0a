package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"toilet_finder/internal/models"
	"toilet_finder/internal/store"
)

type seedUser struct {
	name, email, password, role string
	points, ranking             int
}

type seedToilet struct {
	name, description string
	lat, lng          float64
	amenities         []string
	wheelchair        bool
	creator           int
}

type seedReview struct {
	toilet, user                             int
	overall, clean, layout, space, amenities float64
	comment                                  string
}

var demoUsers = []seedUser{
	{"Admin User", "admin@emergenshit.com", "Admin123!", models.RoleAdmin, 0, 1},
	{"Maria Pap", "maria@example.com", "Maria123!", models.RoleUser, 120, 3},
	{"John Smith", "john@example.com", "John123!", models.RoleUser, 50, 2},
}

var demoToilets = []seedToilet{
	{"Σύνταγμα Δημόσια Τουαλέτα", "Κεντρική, συχνά γεμάτη, μέτρια καθαριότητα", 37.9755, 23.7348, []string{"toilet_paper", "soap"}, true, 1},
	{"Μοναστηράκι Metro WC", "Καλή κατάσταση τις περισσότερες ώρες", 37.9763, 23.7258, []string{"toilet_paper", "soap", "airblower"}, false, 2},
	{"Coffee Island WC - Θεσσαλονίκη", "WC διαθέσιμο στους πελάτες", 40.6401, 22.9444, []string{"soap"}, false, 0},
	{"Πάρκο Νεάπολης WC", "Δημοτική τουαλέτα σε πάρκο", 37.9934, 23.7030, []string{"toilet_paper"}, true, 1},
	{"Shopping Mall WC - Golden Hall", "Πολύ καθαρό WC σε εμπορικό κέντρο", 38.0208, 23.8030, []string{"soap", "airblower", "toilet_paper"}, true, 2},
}

var demoReviews = []seedReview{
	{0, 1, 4, 4, 4, 4, 4, "Καλό συνολικά."},
	{0, 2, 3, 3, 3, 3, 3, "Μέτριο."},
	{1, 1, 5, 5, 5, 5, 5, "Πολύ καθαρό!"},
	{3, 2, 3.5, 3, 4, 3.5, 3, "Οκ για δημόσιο."},
	{4, 1, 4.5, 5, 4, 4.5, 5, "Πολύ καλό!"},
}

// SeedDemoData inserts the demo users, approved listings and reviews, then
// recomputes every seeded listing's ratings.
func SeedDemoData(ctx context.Context, st store.Store) error {
	users := make([]*models.User, 0, len(demoUsers))
	for _, su := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", su.email, err)
		}
		u := &models.User{
			Name:         su.name,
			Email:        su.email,
			PasswordHash: string(hash),
			Role:         su.role,
			Points:       su.points,
			Ranking:      su.ranking,
			IsActive:     true,
		}
		if err := st.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create user %s: %w", su.email, err)
		}
		users = append(users, u)
	}

	toilets := make([]*models.Toilet, 0, len(demoToilets))
	for _, stt := range demoToilets {
		t := &models.Toilet{
			Name:                 stt.name,
			Location:             models.Location{Lat: stt.lat, Lng: stt.lng},
			Description:          stt.description,
			Photos:               []models.Photo{},
			Amenities:            stt.amenities,
			WheelchairAccessible: stt.wheelchair,
			Status:               models.StatusApproved,
			CreatedBy:            users[stt.creator].ID,
		}
		if err := st.CreateToilet(ctx, t); err != nil {
			return fmt.Errorf("create toilet %q: %w", stt.name, err)
		}
		toilets = append(toilets, t)
	}

	for _, sr := range demoReviews {
		r := &models.Review{
			ToiletID:           toilets[sr.toilet].ID,
			UserID:             users[sr.user].ID,
			OverallRating:      sr.overall,
			CleanlinessRating:  sr.clean,
			LayoutRating:       sr.layout,
			SpaciousnessRating: sr.space,
			AmenitiesRating:    sr.amenities,
			Comment:            sr.comment,
		}
		if err := st.CreateReview(ctx, r); err != nil {
			return fmt.Errorf("create review: %w", err)
		}
	}

	for _, t := range toilets {
		if _, err := RecomputeToiletAggregates(ctx, st, t.ID); err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"users":   len(users),
		"toilets": len(toilets),
		"reviews": len(demoReviews),
	}).Info("Seeded demo data")
	return nil
}
