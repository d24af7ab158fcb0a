package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"toilet_finder/internal/apierror"
	"toilet_finder/internal/geo"
	"toilet_finder/internal/metrics"
	"toilet_finder/internal/middleware"
	"toilet_finder/internal/models"
	"toilet_finder/internal/notify"
	"toilet_finder/internal/services"
	"toilet_finder/internal/store"
)

const duplicateMessage = "A similar toilet is already listed. Would you like to review it instead?"

type createToiletInput struct {
	Name                 string           `json:"name"`
	Location             *models.Location `json:"location"`
	Description          string           `json:"description"`
	Photos               []models.Photo   `json:"photos"`
	Amenities            []string         `json:"amenities"`
	WheelchairAccessible bool             `json:"wheelchair_accessible"`
}

// Pointer fields distinguish "not sent" from a zero value.
type updateToiletInput struct {
	Name                 *string          `json:"name"`
	Location             *models.Location `json:"location"`
	Description          *string          `json:"description"`
	Photos               *[]models.Photo  `json:"photos"`
	Amenities            *[]string        `json:"amenities"`
	WheelchairAccessible *bool            `json:"wheelchair_accessible"`
}

// ListToilets returns approved listings, optionally filtered by rating,
// amenities and distance from lat/lng.
func (h *Controller) ListToilets(c *gin.Context) {
	filter := services.ListFilter{Sort: c.Query("sort")}
	if !services.ValidSort(filter.Sort) {
		fail(c, apierror.BadRequest("sort must be high_to_low or low_to_high"))
		return
	}
	if raw := c.Query("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fail(c, apierror.BadRequest("min_rating must be a number"))
			return
		}
		filter.MinRating = v
	}
	if raw := c.Query("amenities"); raw != "" {
		filter.Amenities = cleanAmenities(strings.Split(raw, ","))
	}

	toilets, err := h.store.ListToilets(c.Request.Context(), models.StatusApproved)
	if err != nil {
		fail(c, err)
		return
	}
	toilets = services.FilterListings(toilets, filter)

	if c.Query("lat") == "" && c.Query("lng") == "" {
		ok(c, http.StatusOK, newToiletResponses(toilets))
		return
	}

	lat, lng, radius, err := h.parsePoint(c)
	if err != nil {
		fail(c, err)
		return
	}
	ranked := services.WithinRadius(toilets, lat, lng, radius)
	if filter.Sort != "" {
		// A rating sort wins over distance ordering.
		ranked = keepOrder(toilets, ranked)
	}
	ok(c, http.StatusOK, rankedResponses(ranked))
}

func (h *Controller) GetToilet(c *gin.Context) {
	ctx := c.Request.Context()
	toilet, err := h.store.ToiletByID(ctx, c.Param("id"))
	if err != nil {
		fail(c, notFoundOr(err))
		return
	}
	reviews, err := h.store.ListActiveReviews(ctx, toilet.ID, reviewListLimit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"toilet": newToiletResponse(*toilet), "reviews": reviews})
}

// CreateToilet submits a listing for moderation unless another open listing
// sits within the duplicate radius.
func (h *Controller) CreateToilet(c *gin.Context) {
	var input createToiletInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.Location == nil {
		fail(c, apierror.BadRequest("name and location required"))
		return
	}
	if !geo.ValidCoordinates(input.Location.Lat, input.Location.Lng) {
		fail(c, apierror.BadRequest("Invalid coordinates"))
		return
	}

	toilet := &models.Toilet{
		Name:                 input.Name,
		Location:             *input.Location,
		Description:          strings.TrimSpace(input.Description),
		Photos:               preparePhotos(input.Photos),
		Amenities:            cleanAmenities(input.Amenities),
		WheelchairAccessible: input.WheelchairAccessible,
		Status:               models.StatusPending,
		CreatedBy:            middleware.CurrentUserID(c),
	}

	err := h.store.Transaction(c.Request.Context(), func(tx store.Store) error {
		if err := tx.LockListings(c.Request.Context()); err != nil {
			return err
		}
		if err := h.rejectDuplicate(c.Request.Context(), tx, toilet.Location, ""); err != nil {
			return err
		}
		return tx.CreateToilet(c.Request.Context(), toilet)
	})
	if err != nil {
		fail(c, err)
		return
	}

	metrics.ListingsSubmitted.Inc()
	logrus.WithFields(logrus.Fields{
		"toilet_id":  toilet.ID,
		"created_by": toilet.CreatedBy,
	}).Info("Toilet submitted for approval")

	resp := newToiletResponse(*toilet)
	if h.hub != nil {
		h.hub.NotifyModerators(notify.Event{Type: notify.EventToiletSubmitted, Data: resp})
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    resp,
		"message": "Your toilet is successfully added! Pending admin approval.",
	})
}

// UpdateToilet applies a partial edit from the creator or an admin. Moving a
// listing re-runs the duplicate check against everything but itself.
func (h *Controller) UpdateToilet(c *gin.Context) {
	var input updateToiletInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, apierror.BadRequest("Invalid request body"))
		return
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		fail(c, apierror.BadRequest("name cannot be empty"))
		return
	}
	if input.Location != nil && !geo.ValidCoordinates(input.Location.Lat, input.Location.Lng) {
		fail(c, apierror.BadRequest("Invalid coordinates"))
		return
	}

	ctx := c.Request.Context()
	userID, role := middleware.CurrentUserID(c), middleware.CurrentRole(c)

	var updated *models.Toilet
	err := h.store.Transaction(ctx, func(tx store.Store) error {
		if input.Location != nil {
			if err := tx.LockListings(ctx); err != nil {
				return err
			}
		}
		toilet, err := tx.LockToilet(ctx, c.Param("id"))
		if err != nil {
			return notFoundOr(err)
		}
		if !canManage(toilet.CreatedBy, userID, role) {
			return apierror.Forbidden("Forbidden")
		}

		if input.Location != nil && *input.Location != toilet.Location {
			if err := h.rejectDuplicate(ctx, tx, *input.Location, toilet.ID); err != nil {
				return err
			}
			toilet.Location = *input.Location
		}
		if input.Name != nil {
			toilet.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			toilet.Description = strings.TrimSpace(*input.Description)
		}
		if input.Photos != nil {
			toilet.Photos = preparePhotos(*input.Photos)
		}
		if input.Amenities != nil {
			toilet.Amenities = cleanAmenities(*input.Amenities)
		}
		if input.WheelchairAccessible != nil {
			toilet.WheelchairAccessible = *input.WheelchairAccessible
		}

		updated = toilet
		return tx.SaveToilet(ctx, toilet)
	})
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, newToiletResponse(*updated))
}

// DeleteToilet deactivates a listing. Its reviews are kept.
func (h *Controller) DeleteToilet(c *gin.Context) {
	ctx := c.Request.Context()
	userID, role := middleware.CurrentUserID(c), middleware.CurrentRole(c)

	err := h.store.Transaction(ctx, func(tx store.Store) error {
		toilet, err := tx.LockToilet(ctx, c.Param("id"))
		if err != nil {
			return notFoundOr(err)
		}
		if !canManage(toilet.CreatedBy, userID, role) {
			return apierror.Forbidden("Forbidden")
		}
		toilet.Status = models.StatusDeactivated
		return tx.SaveToilet(ctx, toilet)
	})
	if err != nil {
		fail(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"toilet_id": c.Param("id"), "user_id": userID}).Info("Toilet deactivated")
	okMessage(c, "Deactivated", nil)
}

func (h *Controller) rejectDuplicate(ctx context.Context, st store.Store, loc models.Location, excludeID string) error {
	existing, err := services.CheckDuplicate(ctx, st, loc.Lat, loc.Lng, h.opts.DuplicateRadius, excludeID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	metrics.DuplicateListingsRejected.Inc()
	logrus.WithFields(logrus.Fields{
		"existing_id": existing.ID,
		"lat":         loc.Lat,
		"lng":         loc.Lng,
	}).Info("Rejected duplicate toilet location")
	return apierror.Conflict(duplicateMessage).With("existing", newToiletResponse(*existing))
}

// parsePoint reads lat, lng and an optional radius from the query string.
func (h *Controller) parsePoint(c *gin.Context) (lat, lng, radius float64, err error) {
	if c.Query("lat") == "" || c.Query("lng") == "" {
		return 0, 0, 0, apierror.BadRequest("lat & lng required")
	}
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil || !geo.ValidCoordinates(lat, lng) {
		return 0, 0, 0, apierror.BadRequest("Invalid coordinates")
	}

	radius = h.opts.DefaultSearchRadius
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			return 0, 0, 0, apierror.BadRequest("radius must be a positive number")
		}
	}
	return lat, lng, radius, nil
}

// keepOrder reorders ranked to follow the order of toilets.
func keepOrder(toilets []models.Toilet, ranked []services.Ranked) []services.Ranked {
	byID := make(map[string]services.Ranked, len(ranked))
	for _, r := range ranked {
		byID[r.Toilet.ID] = r
	}
	out := make([]services.Ranked, 0, len(ranked))
	for _, t := range toilets {
		if r, found := byID[t.ID]; found {
			out = append(out, r)
		}
	}
	return out
}

func rankedResponses(ranked []services.Ranked) []toiletResponse {
	out := make([]toiletResponse, 0, len(ranked))
	for _, r := range ranked {
		resp := newToiletResponse(r.Toilet)
		d := services.Round2(r.Distance)
		resp.DistanceMeters = &d
		out = append(out, resp)
	}
	return out
}
