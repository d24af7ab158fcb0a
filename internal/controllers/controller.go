package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"toilet_finder/internal/apierror"
	"toilet_finder/internal/models"
	"toilet_finder/internal/notify"
	"toilet_finder/internal/store"
)

// reviewListLimit caps how many reviews a listing endpoint returns.
const reviewListLimit = 200

// Options tunes the geographic behaviour of the handlers.
type Options struct {
	DuplicateRadius     float64
	DefaultSearchRadius float64
}

// Controller holds what the handlers share: the store, the notification hub
// and the radius settings.
type Controller struct {
	store store.Store
	hub   *notify.Hub
	opts  Options
}

func New(st store.Store, hub *notify.Hub, opts Options) *Controller {
	if opts.DuplicateRadius <= 0 {
		opts.DuplicateRadius = 20
	}
	if opts.DefaultSearchRadius <= 0 {
		opts.DefaultSearchRadius = 500
	}
	return &Controller{store: st, hub: hub, opts: opts}
}

// toiletResponse adds the derived fields clients expect on a listing.
type toiletResponse struct {
	models.Toilet
	IsActive       bool     `json:"is_active"`
	DistanceMeters *float64 `json:"distance_m,omitempty"`
}

func newToiletResponse(t models.Toilet) toiletResponse {
	return toiletResponse{Toilet: t, IsActive: t.IsActive()}
}

func newToiletResponses(toilets []models.Toilet) []toiletResponse {
	out := make([]toiletResponse, 0, len(toilets))
	for _, t := range toilets {
		out = append(out, newToiletResponse(t))
	}
	return out
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func okMessage(c *gin.Context, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// fail hands err to the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindJSON decodes the request body into input. An empty body leaves input
// untouched so the handler can report missing fields; malformed JSON is a 400.
func bindJSON(c *gin.Context, input interface{}) error {
	if err := c.ShouldBindJSON(input); err != nil && !errors.Is(err, io.EOF) {
		return apierror.BadRequest("Invalid request body")
	}
	return nil
}

// notFoundOr turns store.ErrNotFound into a 404 and leaves other errors alone.
func notFoundOr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apierror.NotFound("Not found")
	}
	return err
}

func canManage(ownerID, userID, role string) bool {
	return ownerID == userID || role == models.RoleAdmin
}

// preparePhotos trims blank entries and gives each photo an id.
func preparePhotos(in []models.Photo) []models.Photo {
	out := make([]models.Photo, 0, len(in))
	for _, p := range in {
		p.URL = strings.TrimSpace(p.URL)
		if p.URL == "" {
			continue
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		out = append(out, p)
	}
	return out
}

// cleanAmenities drops blanks and repeats, keeping first-seen order.
func cleanAmenities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
