package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"toilet_finder/internal/models"
)

// MemoryStore keeps records in maps guarded by a mutex. Values are copied on
// the way in and out so callers never share slices with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	txMu    sync.Mutex
	users   map[string]models.User
	toilets map[string]models.Toilet
	reviews map[string]models.Review
	// seq orders records created within the same clock tick.
	seq   int64
	order map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]models.User),
		toilets: make(map[string]models.Toilet),
		reviews: make(map[string]models.Review),
		order:   make(map[string]int64),
	}
}

func (s *MemoryStore) stamp(id string, createdAt, updatedAt *time.Time) {
	now := time.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
	if _, ok := s.order[id]; !ok {
		s.seq++
		s.order[id] = s.seq
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.stamp(u.ID, &u.CreatedAt, &u.UpdatedAt)
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return s.order[users[i].ID] < s.order[users[j].ID] })
	return users, nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.stamp(u.ID, &u.CreatedAt, &u.UpdatedAt)
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) CreateToilet(ctx context.Context, t *models.Toilet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.stamp(t.ID, &t.CreatedAt, &t.UpdatedAt)
	s.toilets[t.ID] = cloneToilet(*t)
	return nil
}

func (s *MemoryStore) ToiletByID(ctx context.Context, id string) (*models.Toilet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.toilets[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := cloneToilet(t)
	return &clone, nil
}

func (s *MemoryStore) ListToilets(ctx context.Context, statuses ...string) ([]models.Toilet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	toilets := make([]models.Toilet, 0, len(s.toilets))
	for _, t := range s.toilets {
		if len(statuses) > 0 && !containsString(statuses, t.Status) {
			continue
		}
		toilets = append(toilets, cloneToilet(t))
	}
	sort.Slice(toilets, func(i, j int) bool { return s.order[toilets[i].ID] < s.order[toilets[j].ID] })
	return toilets, nil
}

func (s *MemoryStore) SaveToilet(ctx context.Context, t *models.Toilet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.stamp(t.ID, &t.CreatedAt, &t.UpdatedAt)
	s.toilets[t.ID] = cloneToilet(*t)
	return nil
}

func (s *MemoryStore) UpdateToiletRatings(ctx context.Context, toiletID string, summary RatingSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.toilets[toiletID]
	if !ok {
		return ErrNotFound
	}
	t.AverageRating = summary.Average
	t.CleanlinessRating = summary.Cleanliness
	t.LayoutRating = summary.Layout
	t.SpaciousnessRating = summary.Spaciousness
	t.AmenitiesRating = summary.Amenities
	t.ReviewCount = summary.Count
	t.UpdatedAt = time.Now()
	s.toilets[toiletID] = t
	return nil
}

func (s *MemoryStore) CreateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !r.IsDeleted && s.hasActiveReviewLocked(r.ToiletID, r.UserID, "") {
		return ErrDuplicateReview
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.stamp(r.ID, &r.CreatedAt, &r.UpdatedAt)
	s.reviews[r.ID] = cloneReview(*r)
	return nil
}

func (s *MemoryStore) ReviewByID(ctx context.Context, id string) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := cloneReview(r)
	return &clone, nil
}

func (s *MemoryStore) ActiveReview(ctx context.Context, toiletID, userID string) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.reviews {
		if r.ToiletID == toiletID && r.UserID == userID && !r.IsDeleted {
			clone := cloneReview(r)
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListActiveReviews(ctx context.Context, toiletID string, limit int) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := make([]models.Review, 0)
	for _, r := range s.reviews {
		if r.ToiletID == toiletID && !r.IsDeleted {
			reviews = append(reviews, cloneReview(r))
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return s.order[reviews[i].ID] > s.order[reviews[j].ID] })
	if limit > 0 && len(reviews) > limit {
		reviews = reviews[:limit]
	}
	return reviews, nil
}

func (s *MemoryStore) SaveReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !r.IsDeleted && s.hasActiveReviewLocked(r.ToiletID, r.UserID, r.ID) {
		return ErrDuplicateReview
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.stamp(r.ID, &r.CreatedAt, &r.UpdatedAt)
	s.reviews[r.ID] = cloneReview(*r)
	return nil
}

// LockListings is a no-op; Transaction already runs one fn at a time.
func (s *MemoryStore) LockListings(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) LockToilet(ctx context.Context, id string) (*models.Toilet, error) {
	return s.ToiletByID(ctx, id)
}

// Transaction serialises fn against other transactions. Writes made before a
// failing step are not rolled back.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

func (s *MemoryStore) hasActiveReviewLocked(toiletID, userID, exceptID string) bool {
	for id, r := range s.reviews {
		if id != exceptID && r.ToiletID == toiletID && r.UserID == userID && !r.IsDeleted {
			return true
		}
	}
	return false
}

func cloneToilet(t models.Toilet) models.Toilet {
	t.Photos = append(make([]models.Photo, 0, len(t.Photos)), t.Photos...)
	t.Amenities = append(make(pq.StringArray, 0, len(t.Amenities)), t.Amenities...)
	return t
}

func cloneReview(r models.Review) models.Review {
	r.Photos = append(make([]models.Photo, 0, len(r.Photos)), r.Photos...)
	r.LikedBy = append(make(pq.StringArray, 0, len(r.LikedBy)), r.LikedBy...)
	r.DislikedBy = append(make(pq.StringArray, 0, len(r.DislikedBy)), r.DislikedBy...)
	r.Replies = append(make([]models.Reply, 0, len(r.Replies)), r.Replies...)
	return r
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
