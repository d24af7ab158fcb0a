package store

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"toilet_finder/internal/models"
)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the tables and indexes.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Toilet{}, &models.Review{})
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *GormStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) SaveUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *GormStore) CreateToilet(ctx context.Context, t *models.Toilet) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *GormStore) ToiletByID(ctx context.Context, id string) (*models.Toilet, error) {
	var toilet models.Toilet
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&toilet).Error; err != nil {
		return nil, translate(err)
	}
	return &toilet, nil
}

func (s *GormStore) ListToilets(ctx context.Context, statuses ...string) ([]models.Toilet, error) {
	query := s.db.WithContext(ctx).Order("created_at")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var toilets []models.Toilet
	if err := query.Find(&toilets).Error; err != nil {
		return nil, err
	}
	return toilets, nil
}

func (s *GormStore) SaveToilet(ctx context.Context, t *models.Toilet) error {
	return s.db.WithContext(ctx).Save(t).Error
}

func (s *GormStore) UpdateToiletRatings(ctx context.Context, toiletID string, summary RatingSummary) error {
	// A map is used so zero ratings are written too.
	result := s.db.WithContext(ctx).Model(&models.Toilet{}).Where("id = ?", toiletID).Updates(map[string]interface{}{
		"average_rating":      summary.Average,
		"cleanliness_rating":  summary.Cleanliness,
		"layout_rating":       summary.Layout,
		"spaciousness_rating": summary.Spaciousness,
		"amenities_rating":    summary.Amenities,
		"review_count":        summary.Count,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateReview(ctx context.Context, r *models.Review) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return err
	}
	return nil
}

func (s *GormStore) ReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&review).Error; err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

func (s *GormStore) ActiveReview(ctx context.Context, toiletID, userID string) (*models.Review, error) {
	var review models.Review
	err := s.db.WithContext(ctx).
		Where("toilet_id = ? AND user_id = ? AND is_deleted = ?", toiletID, userID, false).
		First(&review).Error
	if err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

func (s *GormStore) ListActiveReviews(ctx context.Context, toiletID string, limit int) ([]models.Review, error) {
	query := s.db.WithContext(ctx).
		Where("toilet_id = ? AND is_deleted = ?", toiletID, false).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var reviews []models.Review
	if err := query.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *GormStore) SaveReview(ctx context.Context, r *models.Review) error {
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return err
	}
	return nil
}

// listingsLockKey is the advisory lock id guarding listing placement.
const listingsLockKey = 7_340_201

func (s *GormStore) LockListings(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", listingsLockKey).Error
}

func (s *GormStore) LockToilet(ctx context.Context, id string) (*models.Toilet, error) {
	var toilet models.Toilet
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&toilet).Error
	if err != nil {
		return nil, translate(err)
	}
	return &toilet, nil
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation matches Postgres error 23505 surfaced by lib/pq.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
