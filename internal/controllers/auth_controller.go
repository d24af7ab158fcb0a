package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"toilet_finder/internal/apierror"
	"toilet_finder/internal/middleware"
	"toilet_finder/internal/models"
	"toilet_finder/internal/store"
)

type registerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Controller) Register(c *gin.Context) {
	var input registerInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" || input.Password == "" {
		fail(c, apierror.BadRequest("name,email,password required"))
		return
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		fail(c, err)
		return
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := h.store.CreateUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			fail(c, apierror.BadRequest("Email exists"))
			return
		}
		fail(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		fail(c, err)
		return
	}

	logrus.WithField("user_id", user.ID).Info("User registered")
	c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "user": user})
}

func (h *Controller) Login(c *gin.Context) {
	var input loginInput
	if err := bindJSON(c, &input); err != nil {
		fail(c, err)
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || input.Password == "" {
		fail(c, apierror.BadRequest("email,password required"))
		return
	}

	user, err := h.store.UserByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(c, apierror.Unauthorized("Invalid credentials"))
			return
		}
		fail(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil || !user.IsActive {
		logrus.WithField("user_id", user.ID).Warn("Failed login attempt")
		fail(c, apierror.Unauthorized("Invalid credentials"))
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
}

// Me returns the caller's own profile.
func (h *Controller) Me(c *gin.Context) {
	user, err := h.store.UserByID(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		fail(c, notFoundOr(err))
		return
	}
	ok(c, http.StatusOK, user)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
