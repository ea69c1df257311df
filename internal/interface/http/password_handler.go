package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/idstack/identity-service/internal/application"
	"github.com/idstack/identity-service/internal/domain/entity"
	"github.com/idstack/identity-service/pkg/response"
	"github.com/idstack/identity-service/pkg/validation"
)

// PasswordHandler exposes the password reset endpoints.
type PasswordHandler struct {
	Svc    *application.PasswordResetService
	Logger *logrus.Logger
}

func NewPasswordHandler(svc *application.PasswordResetService, logger *logrus.Logger) *PasswordHandler {
	return &PasswordHandler{Svc: svc, Logger: logger}
}

type requestResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required,code"`
	Password string `json:"password" binding:"required,pwd"`
}

// RequestReset handles POST /api/password/request-reset.
// The response is identical whether or not the account exists.
func (h *PasswordHandler) RequestReset(c *gin.Context) {
	var req requestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email, err := entity.NewEmail(req.Email)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"email": "must be a valid email"})
		return
	}
	if err := h.Svc.RequestPasswordReset(c.Request.Context(), email); err != nil {
		if !errors.Is(err, application.ErrUserNotFound) {
			h.Logger.WithError(err).Error("password reset request failed")
			response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
			return
		}
	}
	response.Success[any](c, http.StatusOK, nil, "if the account exists, a reset code has been sent")
}

// Reset handles POST /api/password/reset
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email, err := entity.NewEmail(req.Email)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "password reset failed", nil)
		return
	}
	code, err := entity.NewCodeValue(req.Code)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "password reset failed", nil)
		return
	}
	password, err := entity.NewPassword(req.Password)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"password": "min length 8"})
		return
	}
	if _, err := h.Svc.ResetPassword(c.Request.Context(), email, code, password); err != nil {
		if errors.Is(err, application.ErrUserNotFound) || errors.Is(err, application.ErrInvalidCredential) {
			response.Error[any](c, http.StatusBadRequest, "password reset failed", nil)
			return
		}
		h.Logger.WithError(err).Error("password reset failed")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password updated")
}
