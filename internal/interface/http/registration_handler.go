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

// RegistrationHandler exposes sign-up and channel verification endpoints.
type RegistrationHandler struct {
	Svc    *application.RegistrationService
	Logger *logrus.Logger
}

func NewRegistrationHandler(svc *application.RegistrationService, logger *logrus.Logger) *RegistrationHandler {
	return &RegistrationHandler{Svc: svc, Logger: logger}
}

type registerEmailRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,pwd"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

type registerPhoneRequest struct {
	Phone     string `json:"phone" binding:"required,phone"`
	Password  string `json:"password" binding:"required,pwd"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

type registerTelegramRequest struct {
	TelegramID string `json:"telegram_id" binding:"required,tgid"`
	Password   string `json:"password" binding:"required,pwd"`
	FirstName  string `json:"first_name" binding:"max=100"`
	LastName   string `json:"last_name" binding:"max=100"`
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,code"`
}

type verifyPhoneRequest struct {
	Phone string `json:"phone" binding:"required,phone"`
	Code  string `json:"code" binding:"required,code"`
}

type verifyTelegramRequest struct {
	TelegramID string `json:"telegram_id" binding:"required,tgid"`
	Code       string `json:"code" binding:"required,code"`
}

// RegisterWithEmail handles POST /api/register/email
func (h *RegistrationHandler) RegisterWithEmail(c *gin.Context) {
	var req registerEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email, err := entity.NewEmail(req.Email)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"email": "must be a valid email"})
		return
	}
	password, err := entity.NewPassword(req.Password)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"password": "min length 8"})
		return
	}
	user, err := h.Svc.RegisterWithEmail(c.Request.Context(), email, password, req.FirstName, req.LastName)
	if err != nil {
		h.writeRegisterError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, NewUserView(user), "registration successful, verification code sent")
}

// RegisterWithPhone handles POST /api/register/phone
func (h *RegistrationHandler) RegisterWithPhone(c *gin.Context) {
	var req registerPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	phone, err := entity.NewPhone(req.Phone)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"phone": "must be a valid phone number"})
		return
	}
	password, err := entity.NewPassword(req.Password)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"password": "min length 8"})
		return
	}
	user, err := h.Svc.RegisterWithPhone(c.Request.Context(), phone, password, req.FirstName, req.LastName)
	if err != nil {
		h.writeRegisterError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, NewUserView(user), "registration successful, verification code sent")
}

// RegisterWithTelegram handles POST /api/register/telegram
func (h *RegistrationHandler) RegisterWithTelegram(c *gin.Context) {
	var req registerTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	telegramID, err := entity.NewTelegramID(req.TelegramID)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"telegram_id": "must be numeric"})
		return
	}
	password, err := entity.NewPassword(req.Password)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"password": "min length 8"})
		return
	}
	user, err := h.Svc.RegisterWithTelegram(c.Request.Context(), telegramID, password, req.FirstName, req.LastName)
	if err != nil {
		h.writeRegisterError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, NewUserView(user), "registration successful, verification code sent")
}

// VerifyEmail handles POST /api/verify-email
func (h *RegistrationHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	email, err := entity.NewEmail(req.Email)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "verification failed", nil)
		return
	}
	code, err := entity.NewCodeValue(req.Code)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "verification failed", nil)
		return
	}
	user, err := h.Svc.VerifyEmail(c.Request.Context(), email, code)
	if err != nil {
		h.writeVerifyError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(user), "email verified")
}

// VerifyPhone handles POST /api/verify-phone
func (h *RegistrationHandler) VerifyPhone(c *gin.Context) {
	var req verifyPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	phone, err := entity.NewPhone(req.Phone)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "verification failed", nil)
		return
	}
	code, err := entity.NewCodeValue(req.Code)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "verification failed", nil)
		return
	}
	user, err := h.Svc.VerifyPhone(c.Request.Context(), phone, code)
	if err != nil {
		h.writeVerifyError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(user), "phone verified")
}

// VerifyTelegram handles POST /api/verify-telegram
func (h *RegistrationHandler) VerifyTelegram(c *gin.Context) {
	var req verifyTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	telegramID, err := entity.NewTelegramID(req.TelegramID)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "verification failed", nil)
		return
	}
	code, err := entity.NewCodeValue(req.Code)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "verification failed", nil)
		return
	}
	user, err := h.Svc.VerifyTelegram(c.Request.Context(), telegramID, code)
	if err != nil {
		h.writeVerifyError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewUserView(user), "telegram verified")
}

func (h *RegistrationHandler) writeRegisterError(c *gin.Context, err error) {
	if errors.Is(err, application.ErrAlreadyExists) {
		response.Error[any](c, http.StatusConflict, "already registered", nil)
		return
	}
	h.Logger.WithError(err).Error("registration failed")
	response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
}

// writeVerifyError collapses all verification failures into one message so
// callers cannot probe which credentials exist.
func (h *RegistrationHandler) writeVerifyError(c *gin.Context, err error) {
	if errors.Is(err, application.ErrUserNotFound) || errors.Is(err, application.ErrInvalidCredential) {
		response.Error[any](c, http.StatusBadRequest, "verification failed", nil)
		return
	}
	h.Logger.WithError(err).Error("verification failed")
	response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
}
