package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-api/internal/handler/dto"
	"github.com/yourusername/quiz-api/internal/handler/helper"
	"github.com/yourusername/quiz-api/internal/middleware"
	"github.com/yourusername/quiz-api/internal/service"
)

// AuthHandler обрабатывает запросы, связанные с аутентификацией и профилем
type AuthHandler struct {
	authService   *service.AuthService
	googleService *service.GoogleOAuthService
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService, googleService *service.GoogleOAuthService) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		googleService: googleService,
	}
}

// Register обрабатывает запрос на регистрацию
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		helper.RespondError(c, "AuthHandler", err)
		return
	}

	log.Printf("[AuthHandler] Account %s registered", result.Account.ID)
	c.JSON(http.StatusCreated, dto.NewAuthResponse(result))
}

// Login обрабатывает вход по паролю
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helper.RespondError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuthResponse(result))
}

// GoogleLogin обменивает Google ID token на пару токенов сервиса
// POST /api/auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req dto.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	result, err := h.googleService.Login(c.Request.Context(), req.IDToken)
	if err != nil {
		helper.RespondError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuthResponse(result))
}

// Refresh выдает новую пару токенов по refresh-токену
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		helper.RespondError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuthResponse(result))
}

// Me возвращает аккаунт текущего пользователя
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	c.JSON(http.StatusOK, dto.NewAccountResponse(identity.Account))
}

// UpdateProfile частично обновляет name/phone/address
// PUT|PATCH /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	identity := middleware.GetIdentity(c)
	account, err := h.authService.UpdateProfile(c.Request.Context(), identity.Account.ID, req)
	if err != nil {
		helper.RespondError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAccountResponse(account))
}

// ChangePassword меняет пароль текущего пользователя
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helper.BadRequest(c, "Invalid request data")
		return
	}

	identity := middleware.GetIdentity(c)
	if err := h.authService.ChangePassword(c.Request.Context(), identity.Account.ID, req.CurrentPassword, req.NewPassword); err != nil {
		helper.RespondError(c, "AuthHandler", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Logout - токены не хранятся на сервере, клиент просто забывает их
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
