package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"toilet_finder/internal/models"
	"toilet_finder/internal/services"
)

// Nearby returns approved listings within radius of lat/lng, nearest first.
func (h *Controller) Nearby(c *gin.Context) {
	ranked, err := h.nearby(c)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, rankedResponses(ranked))
}

// NearbyGeoJSON returns the same result as a GeoJSON FeatureCollection.
func (h *Controller) NearbyGeoJSON(c *gin.Context) {
	ranked, err := h.nearby(c)
	if err != nil {
		fail(c, err)
		return
	}

	fc := &gjson.FeatureCollection{Features: make([]*gjson.Feature, 0, len(ranked))}
	for _, r := range ranked {
		fc.Features = append(fc.Features, toFeature(r))
	}
	c.JSON(http.StatusOK, fc)
}

func (h *Controller) nearby(c *gin.Context) ([]services.Ranked, error) {
	lat, lng, radius, err := h.parsePoint(c)
	if err != nil {
		return nil, err
	}
	toilets, err := h.store.ListToilets(c.Request.Context(), models.StatusApproved)
	if err != nil {
		return nil, err
	}
	return services.WithinRadius(toilets, lat, lng, radius), nil
}

func toFeature(r services.Ranked) *gjson.Feature {
	t := r.Toilet
	// GeoJSON positions are longitude first.
	point := geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{t.Location.Lng, t.Location.Lat})
	return &gjson.Feature{
		ID:       t.ID,
		Geometry: point,
		Properties: map[string]interface{}{
			"name":                  t.Name,
			"average_rating":        t.AverageRating,
			"review_count":          t.ReviewCount,
			"amenities":             []string(t.Amenities),
			"wheelchair_accessible": t.WheelchairAccessible,
			"distance_m":            services.Round2(r.Distance),
		},
	}
}
