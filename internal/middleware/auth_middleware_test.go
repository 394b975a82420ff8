package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"planner/internal/auth"
	"planner/internal/middleware"

	"github.com/gin-gonic/gin"
	jwtv4 "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

const guardSecret = "planner-guard-secret"

// newGuardedRouter поднимает роутер с защищенным маршрутом задач,
// который возвращает ID пользователя из контекста
func newGuardedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	tasks := r.Group("/api/tasks")
	tasks.Use(middleware.JWTAuthMiddleware(guardSecret))
	tasks.GET("", func(c *gin.Context) {
		userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
		c.JSON(http.StatusOK, gin.H{"user_id": userID.String()})
	})

	return r
}

// signClaims подписывает произвольные claims библиотекой v4: токены,
// выпущенные старой версией подписчика, тоже должны проходить проверку
func signClaims(t *testing.T, claims jwtv4.MapClaims, secret string) string {
	t.Helper()
	token := jwtv4.NewWithClaims(jwtv4.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func requestTasks(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/api/tasks", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestJWTAuthMiddleware_IssuedTokenAccepted(t *testing.T) {
	// Arrange: токен выпущен нашим же генератором с тем же секретом,
	// что передан в middleware
	router := newGuardedRouter()
	userID := uuid.New()
	token, err := auth.GenerateToken(userID.String(), guardSecret)
	assert.NoError(t, err)

	// Act
	resp := requestTasks(router, "Bearer "+token)

	// Assert: запрос пропущен, ID пользователя попал в контекст
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), userID.String())
}

func TestJWTAuthMiddleware_LegacySignedToken(t *testing.T) {
	// Arrange: токен собран библиотекой jwt/v4
	router := newGuardedRouter()
	userID := uuid.New()
	token := signClaims(t, jwtv4.MapClaims{
		"user_id": userID.String(),
		"exp":     jwtv4.NewNumericDate(time.Now().Add(time.Hour)),
	}, guardSecret)

	// Act
	resp := requestTasks(router, "Bearer "+token)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), userID.String())
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	router := newGuardedRouter()

	resp := requestTasks(router, "")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Authorization header is required")
}

func TestJWTAuthMiddleware_MalformedHeader(t *testing.T) {
	router := newGuardedRouter()

	// Заголовок есть, но это не "Bearer {token}"
	headers := []string{
		"Basic dXNlcjpwYXNz",
		"Bearer",
		"bearer some-token",
	}

	for _, header := range headers {
		resp := requestTasks(router, header)

		assert.Equal(t, http.StatusUnauthorized, resp.Code, "header: %q", header)
		assert.Contains(t, resp.Body.String(), "Authorization header format must be Bearer {token}")
	}
}

func TestJWTAuthMiddleware_WrongSecret(t *testing.T) {
	// Arrange: токен подписан чужим секретом
	router := newGuardedRouter()
	token := signClaims(t, jwtv4.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     jwtv4.NewNumericDate(time.Now().Add(time.Hour)),
	}, "some-other-secret")

	// Act
	resp := requestTasks(router, "Bearer "+token)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid or expired token")
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	// Arrange: срок действия токена истек
	router := newGuardedRouter()
	token := signClaims(t, jwtv4.MapClaims{
		"user_id": uuid.New().String(),
		"exp":     jwtv4.NewNumericDate(time.Now().Add(-time.Minute)),
	}, guardSecret)

	// Act
	resp := requestTasks(router, "Bearer "+token)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid or expired token")
}

func TestJWTAuthMiddleware_NonUUIDSubject(t *testing.T) {
	// Arrange: подпись верна, но user_id не является UUID
	router := newGuardedRouter()
	token := signClaims(t, jwtv4.MapClaims{
		"user_id": "not-a-uuid",
		"exp":     jwtv4.NewNumericDate(time.Now().Add(time.Hour)),
	}, guardSecret)

	// Act
	resp := requestTasks(router, "Bearer "+token)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Invalid user ID in token")
}
