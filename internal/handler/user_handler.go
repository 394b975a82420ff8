package handler

import (
	"context"
	"net/http"
	"strings"

	"planner/internal/auth"
	"planner/internal/model"
	"planner/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// ProjectSeeder creates the starter project for a new account
type ProjectSeeder interface {
	SeedGetStarted(ctx context.Context, userID uuid.UUID) error
}

// TokenSaver persists Google OAuth tokens obtained at sign-in
type TokenSaver interface {
	Save(ctx context.Context, token *model.GoogleToken) error
}

type UserHandler struct {
	repo      repository.UserRepositoryInterface
	projects  ProjectSeeder
	tokens    TokenSaver
	oauth     *oauth2.Config
	jwtSecret string
}

func NewUserHandler(repo repository.UserRepositoryInterface, projects ProjectSeeder, tokens TokenSaver, oauth *oauth2.Config, jwtSecret string) *UserHandler {
	return &UserHandler{repo: repo, projects: projects, tokens: tokens, oauth: oauth, jwtSecret: jwtSecret}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=2"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleAuthRequest struct {
	Code string `json:"code" binding:"required"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// Register регистрирует нового пользователя по email и паролю
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Email = strings.ToLower(req.Email)

	existing, err := h.repo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Hash error"})
		return
	}

	user := &model.User{
		ID:             uuid.New(),
		Email:          req.Email,
		Name:           req.Name,
		HashedPassword: string(hash),
	}

	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create failed"})
		return
	}

	// Создаем стартовый проект "Get Started" для нового пользователя
	if err := h.projects.SeedGetStarted(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create starter project"})
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login выполняет вход по email и паролю
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	req.Email = strings.ToLower(req.Email)

	user, err := h.repo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}
	if user == nil || user.HashedPassword == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// GoogleLogin обменивает код авторизации Google на токены, создает или
// находит пользователя и сохраняет токены для синхронизации календаря
func (h *UserHandler) GoogleLogin(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// Обмениваем authorization code на access/refresh токены
	token, err := h.oauth.Exchange(c.Request.Context(), req.Code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization code"})
		return
	}

	email, name, ok := identityFromToken(token)
	if !ok {
		c.JSON(http.StatusBadGateway, gin.H{"error": "No identity in Google response"})
		return
	}

	user, err := h.repo.FindByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
		return
	}

	// Создаем пользователя при первом входе через Google
	if user == nil {
		user = &model.User{
			ID:    uuid.New(),
			Email: email,
			Name:  name,
		}
		if err := h.repo.Create(c.Request.Context(), user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Create failed"})
			return
		}
		if err := h.projects.SeedGetStarted(c.Request.Context(), user.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create starter project"})
			return
		}
	}

	// Сохраняем токены Google для последующих запросов к календарю
	googleToken := &model.GoogleToken{
		UserID:       user.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	if err := h.tokens.Save(c.Request.Context(), googleToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store Google token"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, user *model.User) {
	token, err := auth.GenerateToken(user.ID.String(), h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token error"})
		return
	}

	c.JSON(status, AuthResponse{
		Token: token,
		User: UserResponse{
			ID:    user.ID.String(),
			Email: user.Email,
			Name:  user.Name,
		},
	})
}

// identityFromToken извлекает email и имя из id_token без проверки подписи:
// токен получен напрямую от Google по TLS в рамках обмена кода
func identityFromToken(token *oauth2.Token) (email, name string, ok bool) {
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return "", "", false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", "", false
	}

	email, _ = claims["email"].(string)
	name, _ = claims["name"].(string)
	if email == "" {
		return "", "", false
	}
	if name == "" {
		name = email
	}
	return strings.ToLower(email), name, true
}
