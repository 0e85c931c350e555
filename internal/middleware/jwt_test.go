package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeAdmins map[uint]*domain.Admin

func (f fakeAdmins) FindByID(_ context.Context, id uint) (*domain.Admin, error) {
	if a, ok := f[id]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

type failingAdmins struct{}

func (failingAdmins) FindByID(context.Context, uint) (*domain.Admin, error) {
	return nil, errors.New("connection refused")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func testAdmins() fakeAdmins {
	return fakeAdmins{
		1: {ID: 1, Username: "admin", Email: "admin@example.com", Role: domain.RoleSuperAdmin, IsActive: true},
		2: {ID: 2, Username: "editor", Email: "editor@example.com", Role: domain.RoleAdmin, IsActive: false},
	}
}

func token(t *testing.T, id uint, typ string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.GenerateJWT(utils.Claims{ID: id, Username: "admin", Role: domain.RoleSuperAdmin, Type: typ}, testSecret, ttl)
	require.NoError(t, err)
	return tok
}

func protectedRouter(loader AdminLoader, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWTAuthMiddleware(testSecret, loader)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		identity, _ := CurrentAdmin(c)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": identity})
	})
	r.GET("/private", handlers...)
	return r
}

func call(r http.Handler, header string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := protectedRouter(testAdmins())

	cases := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Token de acceso requerido"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Token de acceso requerido"},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized, "Token inválido"},
		{"expired", "Bearer " + token(t, 1, utils.TokenAccess, -time.Minute), http.StatusUnauthorized, "Token expirado"},
		{"reset token", "Bearer " + token(t, 1, utils.TokenPasswordReset, time.Hour), http.StatusUnauthorized, "Token inválido"},
		{"unknown admin", "Bearer " + token(t, 9, utils.TokenAccess, time.Hour), http.StatusUnauthorized, "Usuario no encontrado o inactivo"},
		{"inactive admin", "Bearer " + token(t, 2, utils.TokenAccess, time.Hour), http.StatusUnauthorized, "Usuario no encontrado o inactivo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := call(r, tc.header)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
		})
	}

	t.Run("valid", func(t *testing.T) {
		w, body := call(r, "Bearer "+token(t, 1, utils.TokenAccess, time.Hour))
		require.Equal(t, http.StatusOK, w.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, "admin", data["username"])
		assert.Equal(t, domain.RoleSuperAdmin, data["role"])
	})
}

func TestJWTAuthMiddlewareLoaderError(t *testing.T) {
	w, _ := call(protectedRouter(failingAdmins{}), "Bearer "+token(t, 1, utils.TokenAccess, time.Hour))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/private", OptionalAuth(testSecret, testAdmins()), func(c *gin.Context) {
		_, ok := CurrentAdmin(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	_, body := call(r, "")
	assert.Equal(t, false, body["authenticated"])

	_, body = call(r, "Bearer broken")
	assert.Equal(t, false, body["authenticated"])

	w, body := call(r, "Bearer "+token(t, 1, utils.TokenAccess, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["authenticated"])
}

func TestRequireRole(t *testing.T) {
	admins := testAdmins()
	admins[3] = &domain.Admin{ID: 3, Username: "staff", Role: domain.RoleAdmin, IsActive: true}

	superOnly := protectedRouter(admins, RequireSuperAdmin())
	w, body := call(superOnly, "Bearer "+token(t, 3, utils.TokenAccess, time.Hour))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Acceso denegado. Permisos insuficientes.", body["message"])

	w, _ = call(superOnly, "Bearer "+token(t, 1, utils.TokenAccess, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)

	anyAdmin := protectedRouter(admins, RequireAdmin())
	w, _ = call(anyAdmin, "Bearer "+token(t, 3, utils.TokenAccess, time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	r := gin.New()
	r.GET("/private", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	w, body := call(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Autenticación requerida", body["message"])
}
