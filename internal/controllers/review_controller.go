package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"toilet_finder/internal/apierror"
	"toilet_finder/internal/metrics"
	"toilet_finder/internal/middleware"
	"toilet_finder/internal/models"
	"toilet_finder/internal/services"
	"toilet_finder/internal/store"
)

type ratingsInput struct {
	OverallRating      *float64 `json:"overall_rating"`
	CleanlinessRating  *float64 `json:"cleanliness_rating"`
	LayoutRating       *float64 `json:"layout_rating"`
	SpaciousnessRating *float64 `json:"spaciousness_rating"`
	AmenitiesRating    *float64 `json:"amenities_rating"`
}

type createReviewInput struct {
	ToiletID string `json:"toilet_id"`
	ratingsInput
	Comment string         `json:"comment"`
	Photos  []models.Photo `json:"photos"`
}

type updateReviewInput struct {
	ratingsInput
	Comment *string         `json:"comment"`
	Photos  *[]models.Photo `json:"photos"`
}

type replyInput struct {
	Text string `json:"text"`
}

// validate checks every rating that was sent. Overall must be at least 1,
// the others may be 0.
func (r ratingsInput) validate() error {
	if r.OverallRating != nil && (*r.OverallRating < 1 || *r.OverallRating > 5) {
		return apierror.BadRequest("overall_rating must be between 1 and 5")
	}
	for _, v := range []*float64{r.CleanlinessRating, r.LayoutRating, r.SpaciousnessRating, r.AmenitiesRating} {
		if v != nil && (*v < 0 || *v > 5) {
			return apierror.BadRequest("ratings must be between 0 and 5")
		}
	}
	return nil
}

func (r ratingsInput) apply(review *models.Review) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&review.OverallRating, r.OverallRating)
	set(&review.CleanlinessRating, r.CleanlinessRating)
	set(&review.LayoutRating, r.LayoutRating)
	set(&review.SpaciousnessRating, r.SpaciousnessRating)
	set(&review.AmenitiesRating, r.AmenitiesRating)
}

// CreateReview rates an approved listing. A user may hold one live review
// per listing.
func (h *Controller) CreateReview(c *gin.Context) {
	var input createReviewInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	input.ToiletID = strings.TrimSpace(input.ToiletID)
	if input.ToiletID == "" || input.OverallRating == nil {
		fail(c, apierror.BadRequest("toilet_id and overall_rating required"))
		return
	}
	if err := input.validate(); err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	review := &models.Review{
		ToiletID: input.ToiletID,
		UserID:   middleware.CurrentUserID(c),
		Comment:  strings.TrimSpace(input.Comment),
		Photos:   preparePhotos(input.Photos),
	}
	input.apply(review)

	err := h.store.Transaction(ctx, func(tx store.Store) error {
		toilet, err := tx.LockToilet(ctx, review.ToiletID)
		if err != nil {
			return notFoundOr(err)
		}
		if !toilet.IsActive() {
			return apierror.NotFound("Not found")
		}
		if err := tx.CreateReview(ctx, review); err != nil {
			return reviewConflictOr(err)
		}
		_, err = services.RecomputeToiletAggregates(ctx, tx, toilet.ID)
		return err
	})
	if err != nil {
		fail(c, err)
		return
	}

	metrics.ReviewWrites.WithLabelValues("create").Inc()
	logrus.WithFields(logrus.Fields{
		"review_id": review.ID,
		"toilet_id": review.ToiletID,
		"user_id":   review.UserID,
	}).Info("Review created")
	ok(c, http.StatusCreated, review)
}

func (h *Controller) ListReviewsByToilet(c *gin.Context) {
	reviews, err := h.store.ListActiveReviews(c.Request.Context(), c.Param("toiletId"), reviewListLimit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, reviews)
}

func (h *Controller) UpdateReview(c *gin.Context) {
	var input updateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, apierror.BadRequest("Invalid request body"))
		return
	}
	if err := input.validate(); err != nil {
		fail(c, err)
		return
	}

	review, err := h.mutateReview(c, "update", func(r *models.Review) error {
		if r.IsDeleted {
			return apierror.NotFound("Not found")
		}
		input.apply(r)
		if input.Comment != nil {
			r.Comment = strings.TrimSpace(*input.Comment)
		}
		if input.Photos != nil {
			r.Photos = preparePhotos(*input.Photos)
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, review)
}

// DeleteReview soft-deletes a review and drops it from the listing's ratings.
func (h *Controller) DeleteReview(c *gin.Context) {
	_, err := h.mutateReview(c, "delete", func(r *models.Review) error {
		if r.IsDeleted {
			return apierror.NotFound("Not found")
		}
		r.IsDeleted = true
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "Deleted", nil)
}

// RestoreReview brings back a soft-deleted review, provided its author has
// not written another one for the same listing since.
func (h *Controller) RestoreReview(c *gin.Context) {
	review, err := h.mutateReview(c, "restore", func(r *models.Review) error {
		if !r.IsDeleted {
			return apierror.Conflict("Review is not deleted")
		}
		r.IsDeleted = false
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "Restored", review)
}

// mutateReview loads a review for its author or an admin, applies change,
// saves it and recomputes the listing's ratings in one transaction.
func (h *Controller) mutateReview(c *gin.Context, action string, change func(*models.Review) error) (*models.Review, error) {
	ctx := c.Request.Context()
	userID, role := middleware.CurrentUserID(c), middleware.CurrentRole(c)

	var review *models.Review
	err := h.store.Transaction(ctx, func(tx store.Store) error {
		r, err := h.lockedReview(ctx, tx, c.Param("id"))
		if err != nil {
			return err
		}
		if !canManage(r.UserID, userID, role) {
			return apierror.Forbidden("Forbidden")
		}
		if err := change(r); err != nil {
			return err
		}
		if err := tx.SaveReview(ctx, r); err != nil {
			return reviewConflictOr(err)
		}
		if _, err := services.RecomputeToiletAggregates(ctx, tx, r.ToiletID); err != nil {
			return err
		}
		review = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ReviewWrites.WithLabelValues(action).Inc()
	logrus.WithFields(logrus.Fields{
		"review_id": review.ID,
		"toilet_id": review.ToiletID,
		"user_id":   userID,
		"action":    action,
	}).Info("Review changed")
	return review, nil
}

func (h *Controller) LikeReview(c *gin.Context) {
	h.react(c, "like", func(r *models.Review, userID string) { r.Like(userID) })
}

func (h *Controller) DislikeReview(c *gin.Context) {
	h.react(c, "dislike", func(r *models.Review, userID string) { r.Dislike(userID) })
}

func (h *Controller) react(c *gin.Context, action string, apply func(*models.Review, string)) {
	ctx := c.Request.Context()
	userID := middleware.CurrentUserID(c)

	var review *models.Review
	err := h.store.Transaction(ctx, func(tx store.Store) error {
		r, err := h.lockedReview(ctx, tx, c.Param("id"))
		if err != nil {
			return err
		}
		if r.IsDeleted {
			return apierror.NotFound("Not found")
		}
		apply(r, userID)
		review = r
		return tx.SaveReview(ctx, r)
	})
	if err != nil {
		fail(c, err)
		return
	}

	metrics.ReviewWrites.WithLabelValues(action).Inc()
	ok(c, http.StatusOK, review)
}

// AddReply appends a reply to a live review.
func (h *Controller) AddReply(c *gin.Context) {
	var input replyInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}
	input.Text = strings.TrimSpace(input.Text)
	if input.Text == "" {
		fail(c, apierror.BadRequest("text required"))
		return
	}

	ctx := c.Request.Context()
	reply := models.Reply{
		ID:        uuid.NewString(),
		UserID:    middleware.CurrentUserID(c),
		Text:      input.Text,
		CreatedAt: time.Now().UTC(),
	}

	err := h.store.Transaction(ctx, func(tx store.Store) error {
		r, err := h.lockedReview(ctx, tx, c.Param("id"))
		if err != nil {
			return err
		}
		if r.IsDeleted {
			return apierror.NotFound("Not found")
		}
		r.Replies = append(r.Replies, reply)
		return tx.SaveReview(ctx, r)
	})
	if err != nil {
		fail(c, err)
		return
	}

	metrics.ReviewWrites.WithLabelValues("reply").Inc()
	ok(c, http.StatusCreated, reply)
}

// lockedReview loads a review after locking its listing, so writes to one
// listing's reviews are serialised.
func (h *Controller) lockedReview(ctx context.Context, tx store.Store, id string) (*models.Review, error) {
	r, err := tx.ReviewByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if _, err := tx.LockToilet(ctx, r.ToiletID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	// Re-read under the lock.
	r, err = tx.ReviewByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return r, nil
}

func reviewConflictOr(err error) error {
	if errors.Is(err, store.ErrDuplicateReview) {
		return apierror.Conflict("You have already rated this toilet")
	}
	return err
}
