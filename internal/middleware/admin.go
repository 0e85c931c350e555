package middleware

import (
	"net/http" // HTTP status codes
	"slices"   // Role lookup

	"storefront/internal/domain" // Role names

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireRole allows the request only when the authenticated admin has one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentAdmin(c) // Get identity from context
		// Check if identity exists in context
		if !ok {
			abort(c, http.StatusUnauthorized, "Autenticación requerida")
			return
		}
		// Check the role against the allowed set
		if !slices.Contains(roles, identity.Role) {
			abort(c, http.StatusForbidden, "Acceso denegado. Permisos insuficientes.")
			return
		}
		c.Next()
	}
}

// RequireAdmin allows admins and super admins
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin)
}

// RequireSuperAdmin allows super admins only
func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleSuperAdmin)
}
