package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"toilet_finder/internal/apierror"
	"toilet_finder/internal/metrics"
	"toilet_finder/internal/middleware"
	"toilet_finder/internal/models"
	"toilet_finder/internal/notify"
	"toilet_finder/internal/store"
)

type rejectInput struct {
	Reason string `json:"reason"`
}

type roleInput struct {
	Role string `json:"role"`
}

func (h *Controller) PendingToilets(c *gin.Context) {
	toilets, err := h.store.ListToilets(c.Request.Context(), models.StatusPending)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, newToiletResponses(toilets))
}

// ApproveToilet publishes a listing and tells its creator.
func (h *Controller) ApproveToilet(c *gin.Context) {
	toilet, err := h.moderate(c, models.StatusApproved, "")
	if err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "Approved", newToiletResponse(*toilet))
}

// RejectToilet turns down a pending listing, keeping the reason for its creator.
func (h *Controller) RejectToilet(c *gin.Context) {
	var input rejectInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	toilet, err := h.moderate(c, models.StatusRejected, strings.TrimSpace(input.Reason))
	if err != nil {
		fail(c, err)
		return
	}
	okMessage(c, "Rejected", newToiletResponse(*toilet))
}

func (h *Controller) moderate(c *gin.Context, status, reason string) (*models.Toilet, error) {
	ctx := c.Request.Context()

	var toilet *models.Toilet
	err := h.store.Transaction(ctx, func(tx store.Store) error {
		if status == models.StatusApproved {
			// Taken before the row lock, matching UpdateToilet.
			if err := tx.LockListings(ctx); err != nil {
				return err
			}
		}
		t, err := tx.LockToilet(ctx, c.Param("id"))
		if err != nil {
			return notFoundOr(err)
		}
		switch {
		case status == models.StatusRejected && t.Status != models.StatusPending:
			return apierror.Conflict("Only pending toilets can be rejected")
		case status == models.StatusApproved && t.Status == models.StatusApproved:
			toilet = t
			return nil
		case status == models.StatusApproved && t.Status != models.StatusPending:
			// Reopening a closed listing must not collide with one added since.
			if err := h.rejectDuplicate(ctx, tx, t.Location, t.ID); err != nil {
				return err
			}
		}
		t.Status = status
		t.RejectionReason = reason
		toilet = t
		return tx.SaveToilet(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	decision := strings.ToLower(status)
	metrics.ModerationDecisions.WithLabelValues(decision).Inc()
	logrus.WithFields(logrus.Fields{
		"toilet_id":    toilet.ID,
		"moderator_id": middleware.CurrentUserID(c),
		"decision":     decision,
	}).Info("Toilet moderated")

	if h.hub != nil && toilet.CreatedBy != "" {
		event := notify.Event{Type: notify.EventToiletApproved, Data: newToiletResponse(*toilet)}
		if status == models.StatusRejected {
			event.Type = notify.EventToiletRejected
			event.Reason = reason
		}
		h.hub.NotifyUser(toilet.CreatedBy, event)
	}
	return toilet, nil
}

func (h *Controller) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// SetUserRole promotes or demotes a user. The new role applies to tokens
// issued from then on.
func (h *Controller) SetUserRole(c *gin.Context) {
	var input roleInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}
	role, valid := models.NormalizeRole(input.Role)
	if !valid {
		fail(c, apierror.BadRequest("role must be USER, MODERATOR or ADMIN"))
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.UserByID(ctx, c.Param("id"))
	if err != nil {
		fail(c, notFoundOr(err))
		return
	}
	if user.ID == middleware.CurrentUserID(c) && role != models.RoleAdmin {
		fail(c, apierror.Conflict("Admins cannot demote themselves"))
		return
	}

	user.Role = role
	if err := h.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			fail(c, apierror.Conflict("Email exists"))
			return
		}
		fail(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("User role changed")
	ok(c, http.StatusOK, user)
}
