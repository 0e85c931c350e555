package middleware

import (
	"context"  // Context for admin lookups
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"storefront/internal/domain"     // Importing domain models
	"storefront/internal/repository" // Not-found sentinel
	"storefront/internal/utils"      // JWT utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Context keys set by the auth middleware
const (
	ContextAdmin  = "admin"
	ContextUserID = "userID"
)

// Identity is the authenticated admin attached to the request
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// AdminLoader loads an admin by id; it returns repository.ErrNotFound when absent
type AdminLoader interface {
	FindByID(ctx context.Context, id uint) (*domain.Admin, error)
}

// JWTAuthMiddleware validates the bearer token, loads the active admin and stores its identity
func JWTAuthMiddleware(secret string, admins AdminLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, http.StatusUnauthorized, "Token de acceso requerido")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")) // Extract the token string
		if tokenStr == "" {
			abort(c, http.StatusUnauthorized, "Token inválido")
			return
		}
		identity, status, msg := authenticate(c.Request.Context(), tokenStr, secret, admins)
		if identity == nil {
			abort(c, status, msg)
			return
		}
		setIdentity(c, identity)
		c.Next() // Proceed to the next handler
	}
}

// OptionalAuth attaches the identity when a valid token is present and never rejects
func OptionalAuth(secret string, admins AdminLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if identity, _, _ := authenticate(c.Request.Context(), tokenStr, secret, admins); identity != nil {
				setIdentity(c, identity)
			}
		}
		c.Next()
	}
}

// CurrentAdmin returns the identity stored by the auth middleware
func CurrentAdmin(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(ContextAdmin)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*Identity)
	return identity, ok
}

func authenticate(ctx context.Context, tokenStr, secret string, admins AdminLoader) (*Identity, int, string) {
	claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return nil, http.StatusUnauthorized, "Token expirado"
	case err != nil:
		return nil, http.StatusUnauthorized, "Token inválido"
	case claims.Type != utils.TokenAccess:
		return nil, http.StatusUnauthorized, "Token inválido"
	}

	admin, err := admins.FindByID(ctx, claims.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logrus.WithFields(logrus.Fields{"admin_id": claims.ID, "error": err.Error()}).Error("Failed to load admin for token")
		return nil, http.StatusInternalServerError, "Error interno del servidor"
	}
	if admin == nil || !admin.IsActive {
		return nil, http.StatusUnauthorized, "Usuario no encontrado o inactivo"
	}
	return &Identity{
		ID:       admin.ID,
		Username: admin.Username,
		Email:    admin.Email,
		FullName: admin.FullName,
		Role:     admin.Role,
	}, http.StatusOK, ""
}

func setIdentity(c *gin.Context, identity *Identity) {
	c.Set(ContextAdmin, identity)     // Store identity in context
	c.Set(ContextUserID, identity.ID) // Store userID in context
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}
