package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Token lifetimes

	"storefront/internal/domain"     // Importing domain models
	"storefront/internal/middleware" // Authenticated identity and login throttle
	"storefront/internal/repository" // Not-found sentinel
	"storefront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// ResetTokenTTL is how long a password reset token stays valid
const ResetTokenTTL = time.Hour

// AuthConfig holds the token settings shared by the auth handlers
type AuthConfig struct {
	Secret   string        // HMAC secret
	TokenTTL time.Duration // Access token lifetime
}

// Request struct for login
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username or email
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for profile updates
type ProfileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Request struct for password changes
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Request struct for forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Request struct for reset-password
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// identityOf builds the public view of an admin returned by login and verify
func identityOf(a *domain.Admin) middleware.Identity {
	return middleware.Identity{ID: a.ID, Username: a.Username, Email: a.Email, FullName: a.FullName, Role: a.Role}
}

// LoginHandler authenticates an admin by username or email and returns a JWT token.
// Every failure counts toward the login throttle for the client IP; success clears it.
func LoginHandler(admins AdminStore, activity ActivityStore, attempts middleware.AttemptCounter, auth AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Usuario y contraseña son requeridos")
			return
		}
		ctx := c.Request.Context()
		ip := c.ClientIP()
		fail := func(msg string) {
			if attempts != nil {
				if _, err := attempts.Hit(ctx, ip); err != nil {
					logrus.WithFields(logrus.Fields{"ip": ip, "error": err.Error()}).Warn("Failed to count login attempt")
				}
			}
			logrus.WithFields(logrus.Fields{"login": req.Username, "ip": ip}).Warn("Failed login attempt")
			respondError(c, http.StatusUnauthorized, msg)
		}

		admin, err := admins.FindByLogin(ctx, utils.SanitizeInput(req.Username))
		if errors.Is(err, repository.ErrNotFound) {
			fail("Credenciales inválidas")
			return
		} else if err != nil {
			internalError(c, "Error interno del servidor", err)
			return
		}
		// Deactivated accounts cannot log in
		if !admin.IsActive {
			fail("Cuenta desactivada")
			return
		}
		// Compare provided password with stored hash
		if !utils.VerifyPassword(req.Password, admin.Password) {
			fail("Credenciales inválidas")
			return
		}

		if attempts != nil {
			if err := attempts.Reset(ctx, ip); err != nil {
				logrus.WithFields(logrus.Fields{"ip": ip, "error": err.Error()}).Warn("Failed to reset login attempts")
			}
		}
		if err := admins.TouchLogin(ctx, admin.ID, time.Now().UTC()); err != nil {
			logrus.WithFields(logrus.Fields{"admin_id": admin.ID, "error": err.Error()}).Warn("Failed to update last login")
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(utils.Claims{
			ID:       admin.ID,
			Username: admin.Username,
			Email:    admin.Email,
			Role:     admin.Role,
			Type:     utils.TokenAccess,
		}, auth.Secret, auth.TokenTTL)
		if err != nil {
			internalError(c, "Error al generar el token", err)
			return
		}
		recordActivity(c, activity, admin.ID, "admin_login", gin.H{"user_agent": c.Request.UserAgent()})
		logrus.WithFields(logrus.Fields{"admin_id": admin.ID, "username": admin.Username}).Info("Admin logged in")
		respondOK(c, http.StatusOK, "Login exitoso", gin.H{"token": token, "user": identityOf(admin)})
	}
}

// VerifyHandler confirms the token is valid and returns the identity behind it
func VerifyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, _ := middleware.CurrentAdmin(c)
		respondOK(c, http.StatusOK, "Token válido", gin.H{"user": admin})
	}
}

// LogoutHandler records the logout; tokens are stateless so the client discards its copy
func LogoutHandler(activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		logActivity(c, activity, "admin_logout", nil)
		respondOK(c, http.StatusOK, "Logout exitoso", nil)
	}
}

// ProfileHandler returns the authenticated admin's account
func ProfileHandler(admins AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, _ := middleware.CurrentAdmin(c)
		admin, err := admins.FindByID(c.Request.Context(), me.ID)
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Usuario no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al obtener el perfil", err)
			return
		}
		respondOK(c, http.StatusOK, "", admin)
	}
}

// UpdateProfileHandler changes the authenticated admin's name and email
func UpdateProfileHandler(admins AdminStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Datos inválidos")
			return
		}
		fullName := utils.SanitizeInput(req.FullName)
		email := strings.ToLower(utils.SanitizeInput(req.Email))
		if len([]rune(fullName)) < 2 {
			respondError(c, http.StatusBadRequest, "El nombre debe tener al menos 2 caracteres")
			return
		}
		if !utils.ValidateEmail(email) {
			respondError(c, http.StatusBadRequest, "Email inválido")
			return
		}

		me, _ := middleware.CurrentAdmin(c)
		ctx := c.Request.Context()
		taken, err := admins.EmailTaken(ctx, email, me.ID)
		if err != nil {
			internalError(c, "Error al actualizar el perfil", err)
			return
		}
		if taken {
			respondError(c, http.StatusBadRequest, "El email ya está en uso")
			return
		}
		if err := admins.Update(ctx, me.ID, map[string]any{"full_name": fullName, "email": email}); err != nil {
			internalError(c, "Error al actualizar el perfil", err)
			return
		}
		logActivity(c, activity, "profile_updated", gin.H{"full_name": fullName, "email": email})
		respondOK(c, http.StatusOK, "Perfil actualizado exitosamente", nil)
	}
}

// ChangePasswordHandler replaces the authenticated admin's password after checking the current one
func ChangePasswordHandler(admins AdminStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil ||
			req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
			respondError(c, http.StatusBadRequest, "Todos los campos son requeridos")
			return
		}
		if req.NewPassword != req.ConfirmPassword {
			respondError(c, http.StatusBadRequest, "Las contraseñas no coinciden")
			return
		}
		if errs := utils.ValidatePasswordStrength(req.NewPassword); len(errs) > 0 {
			respondError(c, http.StatusBadRequest, "La contraseña no cumple los requisitos", errs...)
			return
		}

		me, _ := middleware.CurrentAdmin(c)
		ctx := c.Request.Context()
		admin, err := admins.FindByID(ctx, me.ID)
		if err != nil {
			internalError(c, "Error al cambiar la contraseña", err)
			return
		}
		if !utils.VerifyPassword(req.CurrentPassword, admin.Password) {
			respondError(c, http.StatusBadRequest, "Contraseña actual incorrecta")
			return
		}
		hash, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			internalError(c, "Error al cambiar la contraseña", err)
			return
		}
		if err := admins.SetPassword(ctx, me.ID, hash); err != nil {
			internalError(c, "Error al cambiar la contraseña", err)
			return
		}
		logActivity(c, activity, "password_changed", nil)
		respondOK(c, http.StatusOK, "Contraseña cambiada exitosamente", nil)
	}
}

const forgotPasswordReply = "Si el email existe, recibirás instrucciones para restablecer tu contraseña"

// ForgotPasswordHandler issues a single-use reset token for an active admin. The reply is
// the same whether or not the email exists. The token is logged rather than mailed.
func ForgotPasswordHandler(admins AdminStore, tokens TokenStore, activity ActivityStore, auth AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForgotPasswordRequest
		_ = c.ShouldBindJSON(&req)
		email := strings.ToLower(utils.SanitizeInput(req.Email))
		if !utils.ValidateEmail(email) {
			respondError(c, http.StatusBadRequest, "Email válido es requerido")
			return
		}

		ctx := c.Request.Context()
		admin, err := admins.FindActiveByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			respondOK(c, http.StatusOK, forgotPasswordReply, nil)
			return
		} else if err != nil {
			internalError(c, "Error al procesar la solicitud", err)
			return
		}

		token, err := utils.GenerateJWT(utils.Claims{ID: admin.ID, Email: admin.Email, Type: utils.TokenPasswordReset}, auth.Secret, ResetTokenTTL)
		if err != nil {
			internalError(c, "Error al procesar la solicitud", err)
			return
		}
		if err := tokens.Create(ctx, admin.ID, token, time.Now().UTC().Add(ResetTokenTTL)); err != nil {
			internalError(c, "Error al procesar la solicitud", err)
			return
		}
		recordActivity(c, activity, admin.ID, "password_reset_requested", nil)
		logrus.WithFields(logrus.Fields{
			"admin_id":    admin.ID,
			"email":       admin.Email,
			"reset_token": token,
		}).Info("Password reset token issued")
		respondOK(c, http.StatusOK, forgotPasswordReply, nil)
	}
}

// ResetPasswordHandler sets a new password using a reset token. A token works once.
func ResetPasswordHandler(tokens TokenStore, activity ActivityStore, auth AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil ||
			req.Token == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
			respondError(c, http.StatusBadRequest, "Todos los campos son requeridos")
			return
		}
		if req.NewPassword != req.ConfirmPassword {
			respondError(c, http.StatusBadRequest, "Las contraseñas no coinciden")
			return
		}
		if errs := utils.ValidatePasswordStrength(req.NewPassword); len(errs) > 0 {
			respondError(c, http.StatusBadRequest, "La contraseña no cumple los requisitos", errs...)
			return
		}

		claims, err := utils.ParseJWT(req.Token, auth.Secret)
		if errors.Is(err, utils.ErrTokenExpired) {
			respondError(c, http.StatusBadRequest, "Token expirado")
			return
		}
		if err != nil || claims.Type != utils.TokenPasswordReset {
			respondError(c, http.StatusBadRequest, "Token inválido")
			return
		}

		hash, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			internalError(c, "Error al restablecer la contraseña", err)
			return
		}
		adminID, err := tokens.Consume(c.Request.Context(), req.Token, hash, time.Now().UTC())
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusBadRequest, "Token inválido o expirado")
			return
		} else if err != nil {
			internalError(c, "Error al restablecer la contraseña", err)
			return
		}
		recordActivity(c, activity, adminID, "password_reset", nil)
		logrus.WithField("admin_id", adminID).Info("Password reset completed")
		respondOK(c, http.StatusOK, "Contraseña restablecida exitosamente", nil)
	}
}
