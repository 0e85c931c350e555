package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/upload"
	"storefront/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func init() {
	gin.SetMode(gin.TestMode)
}

// seededAdmins mirrors the seed data: a super admin "admin" with password "password" and a plain admin
func seededAdmins(t *testing.T) *fakeAdmins {
	t.Helper()
	hash, err := utils.HashPassword("password")
	require.NoError(t, err)
	return newFakeAdmins(
		&domain.Admin{ID: 1, Username: "admin", Email: "admin@example.com", Password: hash, FullName: "Administrador", Role: domain.RoleSuperAdmin, IsActive: true},
		&domain.Admin{ID: 2, Username: "editor", Email: "editor@example.com", Password: hash, FullName: "Editor", Role: domain.RoleAdmin, IsActive: true},
	)
}

func newTestRouter(t *testing.T, d Deps) *gin.Engine {
	t.Helper()
	d.Auth = AuthConfig{Secret: testSecret, TokenTTL: time.Hour}
	r := gin.New()
	require.NoError(t, RegisterRoutes(r, d))
	return r
}

func accessToken(t *testing.T, a *domain.Admin) string {
	t.Helper()
	tok, err := utils.GenerateJWT(utils.Claims{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role, Type: utils.TokenAccess}, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func doJSON(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doMultipart(t *testing.T, r http.Handler, method, path string, fields map[string]string, files map[string][]byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	return doMultipartField(t, r, method, path, "images", fields, files, token)
}

func doMultipartField(t *testing.T, r http.Handler, method, path, fileField string, fields map[string]string, files map[string][]byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, body := range files {
		fw, err := mw.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = fw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestLoginReturnsTokenForSeededSuperAdmin(t *testing.T) {
	admins := seededAdmins(t)
	activity := &fakeActivity{}
	r := newTestRouter(t, Deps{Admins: admins, Activity: activity})

	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "password"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, "super_admin", user["role"])
	assert.Equal(t, "Administrador", user["fullName"])

	claims, err := utils.ParseJWT(data["token"].(string), testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.ID)
	assert.Equal(t, domain.RoleSuperAdmin, claims.Role)
	assert.Equal(t, utils.TokenAccess, claims.Type)

	assert.NotNil(t, admins.byID[1].LastLogin)
	assert.Equal(t, []string{"admin_login"}, activity.actions())
}

func TestLoginAcceptsEmail(t *testing.T) {
	r := newTestRouter(t, Deps{Admins: seededAdmins(t)})
	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "editor@example.com", "password": "password"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	admins := seededAdmins(t)
	admins.byID[2].IsActive = false
	r := newTestRouter(t, Deps{Admins: admins})

	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "editor", "password": "password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Cuenta desactivada", decode(t, w)["message"])
}

func TestLoginThrottleBlocksSixthAttempt(t *testing.T) {
	r := newTestRouter(t, Deps{
		Admins:        seededAdmins(t),
		LoginAttempts: middleware.NewMemoryCounter(middleware.LoginWindow, middleware.LoginMaxAttempts),
	})

	for i := 0; i < middleware.LoginMaxAttempts; i++ {
		w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "wrong"}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
		assert.Equal(t, "Credenciales inválidas", decode(t, w)["message"])
	}

	// Even the right password is refused while blocked
	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "password"}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestLoginSuccessClearsFailures(t *testing.T) {
	counter := middleware.NewMemoryCounter(middleware.LoginWindow, middleware.LoginMaxAttempts)
	r := newTestRouter(t, Deps{Admins: seededAdmins(t), LoginAttempts: counter})

	for i := 0; i < middleware.LoginMaxAttempts-1; i++ {
		doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "wrong"}, "")
	}
	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "password"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyReturnsIdentity(t *testing.T) {
	admins := seededAdmins(t)
	r := newTestRouter(t, Deps{Admins: admins})

	w := doJSON(r, http.MethodGet, "/api/auth/verify", nil, accessToken(t, admins.byID[2]))
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "editor", user["username"])
	assert.Equal(t, "admin", user["role"])
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t, Deps{Admins: seededAdmins(t)})

	w := doJSON(r, http.MethodGet, "/api/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token de acceso requerido", decode(t, w)["message"])

	w = doJSON(r, http.MethodGet, "/admin/dashboard", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminManagementRequiresSuperAdmin(t *testing.T) {
	admins := seededAdmins(t)
	r := newTestRouter(t, Deps{Admins: admins})

	w := doJSON(r, http.MethodGet, "/api/auth/admins", nil, accessToken(t, admins.byID[2]))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodGet, "/api/auth/admins", nil, accessToken(t, admins.byID[1]))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSuperAdminCannotDeleteSelf(t *testing.T) {
	admins := seededAdmins(t)
	activity := &fakeActivity{}
	r := newTestRouter(t, Deps{Admins: admins, Activity: activity})
	tok := accessToken(t, admins.byID[1])

	w := doJSON(r, http.MethodDelete, "/api/auth/admins/1", nil, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No puedes eliminar tu propia cuenta", decode(t, w)["message"])

	w = doJSON(r, http.MethodDelete, "/api/auth/admins/2", nil, tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{2}, admins.deleted)
	assert.Equal(t, []string{"admin_deleted"}, activity.actions())

	w = doJSON(r, http.MethodDelete, "/api/auth/admins/2", nil, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAdminValidatesInput(t *testing.T) {
	admins := seededAdmins(t)
	r := newTestRouter(t, Deps{Admins: admins, Activity: &fakeActivity{}})
	tok := accessToken(t, admins.byID[1])

	w := doJSON(r, http.MethodPost, "/api/auth/admins", gin.H{
		"username": "nuevo", "email": "nuevo@example.com", "password": "debil", "full_name": "Nuevo",
	}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["errors"])

	w = doJSON(r, http.MethodPost, "/api/auth/admins", gin.H{
		"username": "editor", "email": "otro@example.com", "password": "Segura123!", "full_name": "Otro",
	}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "El nombre de usuario ya existe", decode(t, w)["message"])

	w = doJSON(r, http.MethodPost, "/api/auth/admins", gin.H{
		"username": "nuevo", "email": "nuevo@example.com", "password": "Segura123!", "full_name": "Nuevo",
	}, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created, err := admins.FindByLogin(context.Background(), "nuevo")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, created.Role)
	assert.True(t, utils.VerifyPassword("Segura123!", created.Password))
}

func TestResetTokenWorksOnce(t *testing.T) {
	admins := seededAdmins(t)
	tokens := newFakeTokens()
	activity := &fakeActivity{}
	r := newTestRouter(t, Deps{Admins: admins, Tokens: tokens, Activity: activity})

	w := doJSON(r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "admin@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, tokens.created)

	var resetToken string
	for tok := range tokens.tokens {
		resetToken = tok
	}
	claims, err := utils.ParseJWT(resetToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, utils.TokenPasswordReset, claims.Type)

	reset := gin.H{"token": resetToken, "new_password": "NuevaClave1!", "confirm_password": "NuevaClave1!"}
	w = doJSON(r, http.MethodPost, "/api/auth/reset-password", reset, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, utils.VerifyPassword("NuevaClave1!", tokens.hashes[1]))

	w = doJSON(r, http.MethodPost, "/api/auth/reset-password", reset, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Token inválido o expirado", decode(t, w)["message"])
}

func TestForgotPasswordDoesNotRevealUnknownEmail(t *testing.T) {
	tokens := newFakeTokens()
	r := newTestRouter(t, Deps{Admins: seededAdmins(t), Tokens: tokens})

	w := doJSON(r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "nadie@example.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, forgotPasswordReply, decode(t, w)["message"])
	assert.Zero(t, tokens.created)
}

func TestResetPasswordRejectsAccessToken(t *testing.T) {
	admins := seededAdmins(t)
	r := newTestRouter(t, Deps{Admins: admins, Tokens: newFakeTokens()})

	w := doJSON(r, http.MethodPost, "/api/auth/reset-password", gin.H{
		"token": accessToken(t, admins.byID[1]), "new_password": "NuevaClave1!", "confirm_password": "NuevaClave1!",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Token inválido", decode(t, w)["message"])
}

func TestAccessTokenCannotBeForgedFromResetToken(t *testing.T) {
	admins := seededAdmins(t)
	r := newTestRouter(t, Deps{Admins: admins})
	reset, err := utils.GenerateJWT(utils.Claims{ID: 1, Type: utils.TokenPasswordReset}, testSecret, time.Hour)
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/api/auth/verify", nil, reset)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func newUploads(t *testing.T) *upload.Store {
	t.Helper()
	s, err := upload.NewStore(t.TempDir(), upload.DefaultMaxSize)
	require.NoError(t, err)
	return s
}

func TestCreateProductGetsUniqueSlug(t *testing.T) {
	admins := seededAdmins(t)
	products := newFakeProducts("camiseta-azul")
	uploads := newUploads(t)
	activity := &fakeActivity{}
	r := newTestRouter(t, Deps{Admins: admins, Products: products, Uploads: uploads, Activity: activity})
	tok := accessToken(t, admins.byID[2])

	w := doMultipart(t, r, http.MethodPost, "/api/products",
		map[string]string{"name": "Camiseta Azul", "price": "19.99", "stock_quantity": "3"},
		map[string][]byte{"foto.png": pngBytes}, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "camiseta-azul-1", decode(t, w)["data"].(map[string]any)["slug"])

	w = doMultipart(t, r, http.MethodPost, "/api/products",
		map[string]string{"name": "Camiseta Azul", "price": "21"}, nil, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "camiseta-azul-2", decode(t, w)["data"].(map[string]any)["slug"])

	require.Len(t, products.created, 2)
	first := products.created[0]
	assert.True(t, decimal.RequireFromString("19.99").Equal(first.Price))
	assert.Equal(t, 3, first.StockQuantity)
	assert.True(t, first.IsActive)
	assert.True(t, first.ManageStock)

	require.Len(t, products.images[0], 1)
	assert.FileExists(t, filepath.Join(uploads.Root, upload.DirProducts, products.images[0][0]))
	assert.Equal(t, []string{"product_created", "product_created"}, activity.actions())
}

func TestCreateProductRequiresNameAndPrice(t *testing.T) {
	admins := seededAdmins(t)
	r := newTestRouter(t, Deps{Admins: admins, Products: newFakeProducts(), Uploads: newUploads(t)})

	w := doMultipart(t, r, http.MethodPost, "/api/products", map[string]string{"name": "Sin precio"}, nil, accessToken(t, admins.byID[1]))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nombre y precio son requeridos", decode(t, w)["message"])

	w = doMultipart(t, r, http.MethodPost, "/api/products", map[string]string{"name": "X", "price": "abc"}, nil, accessToken(t, admins.byID[1]))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProductRejectsNonImageUpload(t *testing.T) {
	admins := seededAdmins(t)
	products := newFakeProducts()
	uploads := newUploads(t)
	r := newTestRouter(t, Deps{Admins: admins, Products: products, Uploads: uploads})

	w := doMultipart(t, r, http.MethodPost, "/api/products",
		map[string]string{"name": "Script", "price": "1"},
		map[string][]byte{"evil.png": []byte("#!/bin/sh\necho hi\n")}, accessToken(t, admins.byID[1]))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Solo se permiten imágenes (jpeg, jpg, png, gif, webp)", decode(t, w)["message"])
	assert.Empty(t, products.created)

	entries, err := os.ReadDir(filepath.Join(uploads.Root, upload.DirProducts))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteProductRemovesImageFiles(t *testing.T) {
	admins := seededAdmins(t)
	uploads := newUploads(t)
	products := newFakeProducts()
	activity := &fakeActivity{}
	files := []string{"product_image-1-aaaaaaaaaaaa.png", "product_image-2-bbbbbbbbbbbb.png"}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(uploads.Root, upload.DirProducts, f), pngBytes, 0o644))
	}
	products.deleted[7] = files
	r := newTestRouter(t, Deps{Admins: admins, Products: products, Uploads: uploads, Activity: activity})
	tok := accessToken(t, admins.byID[1])

	w := doJSON(r, http.MethodDelete, "/api/products/7", nil, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, f := range files {
		assert.NoFileExists(t, filepath.Join(uploads.Root, upload.DirProducts, f))
	}
	assert.Equal(t, []string{"product_deleted"}, activity.actions())

	w = doJSON(r, http.MethodDelete, "/api/products/7", nil, tok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Producto no encontrado", decode(t, w)["message"])
}

func TestListProductsPastLastPage(t *testing.T) {
	products := newFakeProducts()
	products.total = 12
	r := newTestRouter(t, Deps{Products: products})

	w := doJSON(r, http.MethodGet, "/api/products?page=5&limit=10&sort=price&order=asc", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{}, body["data"])
	p := body["pagination"].(map[string]any)
	assert.Equal(t, float64(5), p["page"])
	assert.Equal(t, float64(2), p["pages"])
	assert.Equal(t, float64(12), p["total"])
	assert.Equal(t, false, p["has_next"])
	assert.Equal(t, true, p["has_prev"])

	assert.Equal(t, "price", products.lastList.Sort)
	assert.False(t, products.lastList.Admin)
}

func TestListProductsRejectsBadPrice(t *testing.T) {
	r := newTestRouter(t, Deps{Products: newFakeProducts()})
	w := doJSON(r, http.MethodGet, "/api/products?min_price=cheap", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchNeedsTwoCharacters(t *testing.T) {
	r := newTestRouter(t, Deps{Products: newFakeProducts()})

	w := doJSON(r, http.MethodGet, "/api/search?q=a", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/search?q=ab", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlaceOrderAddsShippingFromSettings(t *testing.T) {
	orders := &fakeOrders{}
	r := newTestRouter(t, Deps{Orders: orders, Settings: &fakeSettings{config: map[string]any{"shipping_cost": 5.5}}})

	w := doJSON(r, http.MethodPost, "/api/orders", gin.H{
		"customer": gin.H{"first_name": "Ana", "email": "ANA@example.com", "city": "Lima"},
		"items":    []gin.H{{"product_id": 1, "quantity": 2}},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, orders.placed, 1)
	placed := orders.placed[0]
	assert.Equal(t, "ana@example.com", placed.Customer.Email)
	assert.True(t, decimal.RequireFromString("5.5").Equal(placed.ShippingAmount))
	assert.Equal(t, "Lima", placed.ShippingAddress)
}

func TestPlaceOrderReportsShortStock(t *testing.T) {
	orders := &fakeOrders{err: &repository.ProductError{Err: repository.ErrInsufficientStock, ProductID: 3, Name: "Antivirus Pro"}}
	r := newTestRouter(t, Deps{Orders: orders, Settings: &fakeSettings{}})

	w := doJSON(r, http.MethodPost, "/api/orders", gin.H{
		"customer": gin.H{"first_name": "Ana", "email": "ana@example.com"},
		"items":    []gin.H{{"product_id": 3, "quantity": 50}},
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Stock insuficiente para Antivirus Pro", decode(t, w)["message"])
}

func TestPlaceOrderValidatesInput(t *testing.T) {
	r := newTestRouter(t, Deps{Orders: &fakeOrders{}})

	w := doJSON(r, http.MethodPost, "/api/orders", gin.H{
		"customer": gin.H{"email": "no-es-email"},
		"items":    []gin.H{},
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decode(t, w)["errors"], 3)
}

func TestUnknownRoutes(t *testing.T) {
	r := newTestRouter(t, Deps{})

	w := doJSON(r, http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "/api/nothing-here", body["path"])

	w = doJSON(r, http.MethodGet, "/pagina-inexistente", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "Página no encontrada")
}

func TestHealthReportsDatabaseStatus(t *testing.T) {
	r := newTestRouter(t, Deps{Health: fakeHealth{status: "healthy"}, Environment: "test", Started: time.Now().Add(-time.Minute)})
	w := doJSON(r, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.GreaterOrEqual(t, body["uptime"].(float64), 60.0)
	assert.Contains(t, body, "memory")

	r = newTestRouter(t, Deps{Health: fakeHealth{status: "unhealthy"}})
	w = doJSON(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "DEGRADED", decode(t, w)["status"])
}

func TestHomePageRendersSiteName(t *testing.T) {
	r := newTestRouter(t, Deps{
		Categories: &fakeCategories{},
		Products:   newFakeProducts(),
		Settings:   &fakeSettings{config: map[string]any{"site_name": "Tienda Demo"}},
	})
	w := doJSON(r, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tienda Demo")
}

func TestHomePageShowsPanelLinkForAdmin(t *testing.T) {
	admins := seededAdmins(t)
	r := newTestRouter(t, Deps{Admins: admins, Categories: &fakeCategories{}, Products: newFakeProducts()})

	w := doJSON(r, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "/admin/dashboard")

	w = doJSON(r, http.MethodGet, "/", nil, accessToken(t, admins.byID[2]))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/admin/dashboard")
}

func TestCreateCategoryGetsUniqueSlug(t *testing.T) {
	admins := seededAdmins(t)
	categories := &fakeCategories{}
	uploads := newUploads(t)
	activity := &fakeActivity{}
	r := newTestRouter(t, Deps{Admins: admins, Categories: categories, Uploads: uploads, Activity: activity})
	tok := accessToken(t, admins.byID[1])

	w := doMultipartField(t, r, http.MethodPost, "/api/categories", "image",
		map[string]string{"name": "Software", "description": "Programas"},
		map[string][]byte{"software.png": pngBytes}, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "software", decode(t, w)["data"].(map[string]any)["slug"])

	w = doMultipartField(t, r, http.MethodPost, "/admin/categories", "category_image",
		map[string]string{"name": "Software", "is_active": "false"},
		map[string][]byte{"otra.png": pngBytes}, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "software-1", decode(t, w)["data"].(map[string]any)["slug"])

	require.Len(t, categories.created, 2)
	for _, created := range categories.created {
		require.NotNil(t, created.Image)
		assert.True(t, strings.HasPrefix(*created.Image, "category_image-"))
		assert.FileExists(t, filepath.Join(uploads.Root, upload.DirCategories, *created.Image))
	}
	assert.True(t, categories.created[0].IsActive)
	assert.False(t, categories.created[1].IsActive)
	assert.Equal(t, []string{"category_created", "category_created"}, activity.actions())
}

func TestCreateCategoryRequiresName(t *testing.T) {
	admins := seededAdmins(t)
	r := newTestRouter(t, Deps{Admins: admins, Categories: &fakeCategories{}, Uploads: newUploads(t)})

	w := doMultipartField(t, r, http.MethodPost, "/api/categories", "image", map[string]string{"description": "x"}, nil, accessToken(t, admins.byID[1]))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nombre de categoría es requerido", decode(t, w)["message"])
}

func TestCreateCategoryRetriesSlugTakenConcurrently(t *testing.T) {
	admins := seededAdmins(t)
	categories := &fakeCategories{slugRace: true}
	r := newTestRouter(t, Deps{Admins: admins, Categories: categories, Uploads: newUploads(t)})

	w := doMultipartField(t, r, http.MethodPost, "/api/categories", "image", map[string]string{"name": "Software"}, nil, accessToken(t, admins.byID[1]))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "software-1", decode(t, w)["data"].(map[string]any)["slug"])
	require.Len(t, categories.created, 1)
}

func TestCreateProductRetriesSlugTakenConcurrently(t *testing.T) {
	admins := seededAdmins(t)
	products := newFakeProducts()
	products.slugRace = true
	r := newTestRouter(t, Deps{Admins: admins, Products: products, Uploads: newUploads(t)})

	w := doMultipart(t, r, http.MethodPost, "/api/products", map[string]string{"name": "Antivirus", "price": "10"}, nil, accessToken(t, admins.byID[1]))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "antivirus-1", decode(t, w)["data"].(map[string]any)["slug"])
}

func TestCreateAdminRejectsOverlongPassword(t *testing.T) {
	admins := seededAdmins(t)
	r := newTestRouter(t, Deps{Admins: admins})

	w := doJSON(r, http.MethodPost, "/api/auth/admins", gin.H{
		"username": "largo", "email": "largo@example.com", "password": "Aa1!" + strings.Repeat("x", 74), "full_name": "Largo",
	}, accessToken(t, admins.byID[1]))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["errors"], "La contraseña no puede superar los 72 bytes")
}

func TestPublicCategoriesAreCachedUntilAdminWrite(t *testing.T) {
	admins := seededAdmins(t)
	categories := &fakeCategories{rows: []repository.CategoryRow{{Category: domain.Category{ID: 1, Name: "Software", Slug: "software"}}}}
	rdb := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	r := newTestRouter(t, Deps{Admins: admins, Categories: categories, Uploads: newUploads(t), Redis: rdb})

	list := func() []any {
		w := doJSON(r, http.MethodGet, "/api/categories", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		return decode(t, w)["data"].([]any)
	}
	assert.Len(t, list(), 1)

	// Rows changed behind the cache are not visible yet
	categories.rows = append(categories.rows, repository.CategoryRow{Category: domain.Category{ID: 2, Name: "Aceites", Slug: "aceites"}})
	assert.Len(t, list(), 1)

	w := doMultipartField(t, r, http.MethodPost, "/api/categories", "image", map[string]string{"name": "Hardware"}, nil, accessToken(t, admins.byID[1]))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, list(), 3)
}
