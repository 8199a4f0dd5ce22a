package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/otpauth/internal/common"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Profile, error)
	Login(ctx context.Context, email, password string) (string, error)
	VerifyOTP(ctx context.Context, email, code string) (*services.Session, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	Profile(ctx context.Context, accountID string) (*models.Profile, error)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type authHandler struct {
	svc AuthService
}

func (h *authHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.ErrInvalidInput, "registration")
		return
	}

	user, err := h.svc.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(c, err, "registration")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully!", "user": user})
}

func (h *authHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.ErrInvalidInput, "login")
		return
	}

	email, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "OTP has been sent to your email. Please verify.",
		"requiresOtp": true,
		"email":       email,
	})
}

func (h *authHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.ErrInvalidInput, "verification")
		return
	}

	s, err := h.svc.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(c, err, "verification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful!", "token": s.Token, "user": s.User})
}

func (h *authHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.ErrInvalidInput, "password reset")
		return
	}

	email, err := h.svc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err, "password reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "A password reset OTP has been sent to your email.", "email": email})
}

func (h *authHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.ErrInvalidInput, "password reset")
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		writeError(c, err, "password reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset. You can now log in."})
}

func (h *authHandler) Me(c *gin.Context) {
	id := c.GetString(ctxAccountID)

	user, err := h.svc.Profile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "profile lookup")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok", "user": user})
}

func (h *authHandler) ManagerPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello, manager!"})
}
