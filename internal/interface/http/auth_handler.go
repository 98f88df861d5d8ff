package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/warungmbahmanto/backend-api/internal/application"
	"github.com/warungmbahmanto/backend-api/internal/interface/middleware"
	"github.com/warungmbahmanto/backend-api/pkg/response"
	"github.com/warungmbahmanto/backend-api/pkg/validation"
)

// AuthHandler exposes the credential lifecycle over HTTP.
type AuthHandler struct {
	Auth *application.AuthService
}

func NewAuthHandler(auth *application.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type otpRequest struct {
	Email string `json:"email" binding:"required,email"`
	Otp   string `json:"otp" binding:"required,otp"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

type loginResponse struct {
	Token     string                    `json:"token"`
	ExpiresAt string                    `json:"expires_at"`
	User      application.PublicProfile `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	err := h.Auth.Register(c.Request.Context(), application.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "registration successful, please check your email for the verification code", nil)
}

func (h *AuthHandler) VerifyRegister(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	if err := h.Auth.VerifyRegistration(c.Request.Context(), req.Email, req.Otp); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "email verified successfully", nil)
}

func (h *AuthHandler) ResendOtp(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	if err := h.Auth.ResendRegistrationOtp(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "a new verification code has been sent", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
		User:      res.User,
	}, "login successful", nil)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, err)
		return
	}
	// Same message whether or not the account exists.
	response.Success[any](c, http.StatusOK, nil, "if the email is registered, a reset code has been sent", nil)
}

func (h *AuthHandler) VerifyResetOtp(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	if err := h.Auth.VerifyResetOtp(c.Request.Context(), req.Email, req.Otp); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "reset code verified, you may now set a new password", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request body", validation.ToDetails(err))
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), req.Email, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password has been reset, please log in", nil)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.BearerToken(c)
	if err := h.Auth.Logout(c.Request.Context(), token); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "logged out", nil)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	profile, err := h.Auth.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile, "profile retrieved", nil)
}

func (h *AuthHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrEmailTaken):
		response.Error[any](c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, application.ErrAlreadyVerified),
		errors.Is(err, application.ErrOtpMismatch),
		errors.Is(err, application.ErrOtpExpired):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrNoToken):
		response.Error[any](c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, application.ErrNotVerified),
		errors.Is(err, application.ErrResetNotConfirmed):
		response.Error[any](c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, application.ErrDeliveryFailed):
		response.Error[any](c, http.StatusBadGateway, err.Error(), nil)
	default:
		response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
	}
}
