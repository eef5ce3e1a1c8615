package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/deafauth/deafauth/internal/domain"
	"github.com/deafauth/deafauth/internal/metrics"
	"github.com/deafauth/deafauth/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, email, password string) (*domain.Account, string, error)
	Verify(ctx context.Context, rawToken string) (*domain.Account, bool, error)
	Login(ctx context.Context, email, password string) (string, *domain.Account, error)
	Account(ctx context.Context, id string) (*domain.Account, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
	// devMode exposes the raw verification token in the signup response;
	// outside local the token travels by email only.
	devMode bool
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger, devMode bool) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
		devMode:     devMode,
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, verificationToken, err := h.authUsecase.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			c.JSON(http.StatusConflict, gin.H{"error": domain.ErrEmailTaken.Error()})
			return
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		h.logger.ErrorContext(c.Request.Context(), "signup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	resp := gin.H{
		"message": "account created, check your email for the verification link",
		"account": account.View(),
	}
	if h.devMode {
		resp["verification_token"] = verificationToken
	}
	c.JSON(http.StatusCreated, resp)
}

// GET|POST /auth/verify/:token
func (h *AuthHandler) Verify(c *gin.Context) {
	account, already, err := h.authUsecase.Verify(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, domain.ErrVerificationTokenNotFound) {
			metrics.VerificationsTotal.WithLabelValues("not_found").Inc()
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrVerificationTokenNotFound.Error()})
			return
		}
		metrics.VerificationsTotal.WithLabelValues("error").Inc()
		h.logger.ErrorContext(c.Request.Context(), "verify", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	if already {
		metrics.VerificationsTotal.WithLabelValues("already_verified").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "email already verified", "account": account.View()})
		return
	}

	metrics.VerificationsTotal.WithLabelValues("verified").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "email verified", "account": account.View()})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionToken, account, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrInvalidCredentials.Error()})
		case errors.Is(err, domain.ErrAccountNotVerified):
			metrics.LoginsTotal.WithLabelValues("unverified").Inc()
			c.JSON(http.StatusForbidden, gin.H{"error": domain.ErrAccountNotVerified.Error()})
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{"token": sessionToken, "account": account.View()})
}

// GET /auth/me — requires the Auth middleware.
func (h *AuthHandler) Me(c *gin.Context) {
	accountID := c.GetString(middleware.AccountIDKey)

	account, err := h.authUsecase.Account(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// Token minted before the account was deleted.
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrAccountNotFound.Error()})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "me", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account.View()})
}

// GET /auth/health
func (h *AuthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "deafauth"})
}
