package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/idstack/identity-service/internal/application"
	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/internal/interface/middleware"
	"github.com/idstack/identity-service/pkg/response"
	"github.com/idstack/identity-service/pkg/validation"
)

// AuthHandler exposes login and current-user endpoints.
type AuthHandler struct {
	Svc    *application.AuthenticationService
	Tokens application.AuthTokenGenerator
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthenticationService, tokens application.AuthTokenGenerator, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Tokens: tokens, Logger: logger}
}

type loginEmailRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginPhoneRequest struct {
	Phone    string `json:"phone" binding:"required,phone"`
	Password string `json:"password" binding:"required"`
}

type loginTelegramRequest struct {
	TelegramID string `json:"telegram_id" binding:"required,tgid"`
	Password   string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// LoginWithEmail handles POST /api/login/email
func (h *AuthHandler) LoginWithEmail(c *gin.Context) {
	var req loginEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email, err := entity.NewEmail(req.Email)
	if err != nil {
		h.writeAuthError(c, application.ErrInvalidCredential)
		return
	}
	password, err := entity.NewPassword(req.Password)
	if err != nil {
		h.writeAuthError(c, application.ErrInvalidCredential)
		return
	}
	user, err := h.Svc.AuthenticateWithEmail(c.Request.Context(), email, password)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	h.issueToken(c, user)
}

// LoginWithPhone handles POST /api/login/phone
func (h *AuthHandler) LoginWithPhone(c *gin.Context) {
	var req loginPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	phone, err := entity.NewPhone(req.Phone)
	if err != nil {
		h.writeAuthError(c, application.ErrInvalidCredential)
		return
	}
	password, err := entity.NewPassword(req.Password)
	if err != nil {
		h.writeAuthError(c, application.ErrInvalidCredential)
		return
	}
	user, err := h.Svc.AuthenticateWithPhone(c.Request.Context(), phone, password)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	h.issueToken(c, user)
}

// LoginWithTelegram handles POST /api/login/telegram
func (h *AuthHandler) LoginWithTelegram(c *gin.Context) {
	var req loginTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	telegramID, err := entity.NewTelegramID(req.TelegramID)
	if err != nil {
		h.writeAuthError(c, application.ErrInvalidCredential)
		return
	}
	password, err := entity.NewPassword(req.Password)
	if err != nil {
		h.writeAuthError(c, application.ErrInvalidCredential)
		return
	}
	user, err := h.Svc.AuthenticateWithTelegram(c.Request.Context(), telegramID, password)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}
	h.issueToken(c, user)
}

// Me handles GET /api/user (requires bearer auth).
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	user, err := h.Svc.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}
		h.Logger.WithError(err).Error("fetch current user failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(user), "ok")
}

func (h *AuthHandler) issueToken(c *gin.Context, user *entity.User) {
	token, err := h.Tokens.GenerateToken(user)
	if err != nil {
		h.Logger.WithError(err).Error("token generation failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success(c, http.StatusOK, loginResponse{Token: token, User: NewUserView(user)}, "login successful")
}

// writeAuthError collapses every login failure into a single 401 so callers
// cannot tell a missing account from a wrong password or an unverified channel.
func (h *AuthHandler) writeAuthError(c *gin.Context, err error) {
	if errors.Is(err, application.ErrUserNotFound) || errors.Is(err, application.ErrInvalidCredential) {
		response.Error[any](c, http.StatusUnauthorized, "authentication failed", nil)
		return
	}
	h.Logger.WithError(err).Error("authentication failed")
	response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
}
