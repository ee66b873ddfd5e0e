package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/auth"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/httpx"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/services"
)

// AuthHandler signs staff in. Accounts with no password hash run in
// open-access mode (the username alone signs in, and an unknown username
// creates the account for the requested section, as the shops have always
// worked). Accounts with a hash require the password.
type AuthHandler struct {
	DB    *gorm.DB
	Log   *logrus.Logger
	Audit *services.AuditService
}

func NewAuthHandler(db *gorm.DB, log *logrus.Logger, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{DB: db, Log: log, Audit: audit}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
	Role     string `json:"role" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	role := models.Role(req.Role)
	if !role.Valid() {
		httpx.JSONError(w, http.StatusBadRequest, "unknown role", nil)
		return
	}
	username := strings.TrimSpace(req.Username)

	var user models.User
	err := h.DB.Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Username: username, Role: role, IsActive: true}
		if err := h.DB.Create(&user).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "could not create user", nil)
			return
		}
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}
	if !user.IsActive {
		httpx.JSONError(w, http.StatusForbidden, "account is disabled", nil)
		return
	}
	if user.PasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
	}
	// a worker signs into their own section; managers sign in anywhere
	if user.Role != models.RoleManager && user.Role != role {
		httpx.JSONError(w, http.StatusForbidden, "no access to this section", nil)
		return
	}

	now := time.Now()
	h.DB.Model(&user).Update("last_login", &now)

	token, err := auth.IssueToken(&user)
	if err != nil {
		h.Log.WithError(err).Error("token signing failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	ctx := auth.WithActor(r.Context(), &auth.Actor{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Branch:   user.BoutiqueBranch,
	})
	h.Audit.Record(ctx, string(role), models.ActionLogin, "session", 0, nil)

	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, User: &user})
}
