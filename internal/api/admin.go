package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"sort"     // Stable field lists
	"strconv"  // Query parameters
	"strings"  // String manipulation

	"storefront/internal/domain"     // Importing domain models
	"storefront/internal/middleware" // Authenticated identity
	"storefront/internal/repository" // Not-found sentinel
	"storefront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Request struct for creating an admin
type CreateAdminRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Request struct for updating an admin; omitted fields are left unchanged
type UpdateAdminRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// ListAdminsHandler returns every admin account
func ListAdminsHandler(admins AdminStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := admins.List(c.Request.Context())
		if err != nil {
			internalError(c, "Error al obtener administradores", err)
			return
		}
		respondOK(c, http.StatusOK, "", list)
	}
}

// CreateAdminHandler adds an admin account
func CreateAdminHandler(admins AdminStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAdminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Datos inválidos")
			return
		}
		username := utils.SanitizeInput(req.Username)
		email := strings.ToLower(utils.SanitizeInput(req.Email))
		fullName := utils.SanitizeInput(req.FullName)
		if username == "" || email == "" || req.Password == "" || fullName == "" {
			respondError(c, http.StatusBadRequest, "Todos los campos son requeridos")
			return
		}
		if len(username) < 3 {
			respondError(c, http.StatusBadRequest, "El nombre de usuario debe tener al menos 3 caracteres")
			return
		}
		if !utils.ValidateEmail(email) {
			respondError(c, http.StatusBadRequest, "Email inválido")
			return
		}
		if errs := utils.ValidatePasswordStrength(req.Password); len(errs) > 0 {
			respondError(c, http.StatusBadRequest, "La contraseña no cumple los requisitos", errs...)
			return
		}
		role := req.Role
		if role == "" {
			role = domain.RoleAdmin // Default role
		}
		if !domain.ValidRole(role) {
			respondError(c, http.StatusBadRequest, "Rol inválido")
			return
		}

		ctx := c.Request.Context()
		if taken, err := admins.UsernameTaken(ctx, username, 0); err != nil {
			internalError(c, "Error al crear administrador", err)
			return
		} else if taken {
			respondError(c, http.StatusBadRequest, "El nombre de usuario ya existe")
			return
		}
		if taken, err := admins.EmailTaken(ctx, email, 0); err != nil {
			internalError(c, "Error al crear administrador", err)
			return
		} else if taken {
			respondError(c, http.StatusBadRequest, "El email ya existe")
			return
		}

		// Hash the password and create the admin
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			internalError(c, "Error al crear administrador", err)
			return
		}
		id, err := admins.Create(ctx, &domain.Admin{
			Username: username,
			Email:    email,
			Password: hash,
			FullName: fullName,
			Role:     role,
			IsActive: true,
		})
		if err != nil {
			internalError(c, "Error al crear administrador", err)
			return
		}
		logActivity(c, activity, "admin_created", gin.H{"admin_id": id, "username": username, "role": role})
		logrus.WithFields(logrus.Fields{"admin_id": id, "username": username, "role": role}).Info("Admin created")
		respondOK(c, http.StatusCreated, "Administrador creado exitosamente", gin.H{"id": id})
	}
}

// UpdateAdminHandler changes another admin's account fields
func UpdateAdminHandler(admins AdminStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusBadRequest, "ID inválido")
			return
		}
		var req UpdateAdminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Datos inválidos")
			return
		}

		ctx := c.Request.Context()
		if _, err := admins.FindByID(ctx, id); errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Administrador no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al actualizar administrador", err)
			return
		}

		me, _ := middleware.CurrentAdmin(c)
		fields := map[string]any{}
		if req.Username != nil {
			username := utils.SanitizeInput(*req.Username)
			if len(username) < 3 {
				respondError(c, http.StatusBadRequest, "El nombre de usuario debe tener al menos 3 caracteres")
				return
			}
			if taken, err := admins.UsernameTaken(ctx, username, id); err != nil {
				internalError(c, "Error al actualizar administrador", err)
				return
			} else if taken {
				respondError(c, http.StatusBadRequest, "El nombre de usuario ya existe")
				return
			}
			fields["username"] = username
		}
		if req.Email != nil {
			email := strings.ToLower(utils.SanitizeInput(*req.Email))
			if !utils.ValidateEmail(email) {
				respondError(c, http.StatusBadRequest, "Email inválido")
				return
			}
			if taken, err := admins.EmailTaken(ctx, email, id); err != nil {
				internalError(c, "Error al actualizar administrador", err)
				return
			} else if taken {
				respondError(c, http.StatusBadRequest, "El email ya existe")
				return
			}
			fields["email"] = email
		}
		if req.FullName != nil {
			fields["full_name"] = utils.SanitizeInput(*req.FullName)
		}
		if req.Role != nil {
			if !domain.ValidRole(*req.Role) {
				respondError(c, http.StatusBadRequest, "Rol inválido")
				return
			}
			fields["role"] = *req.Role
		}
		if req.IsActive != nil {
			// An admin cannot lock themselves out
			if !*req.IsActive && id == me.ID {
				respondError(c, http.StatusBadRequest, "No puedes desactivar tu propia cuenta")
				return
			}
			fields["is_active"] = *req.IsActive
		}
		if len(fields) == 0 {
			respondError(c, http.StatusBadRequest, "No hay campos para actualizar")
			return
		}

		if err := admins.Update(ctx, id, fields); errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Administrador no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al actualizar administrador", err)
			return
		}
		logActivity(c, activity, "admin_updated", gin.H{"admin_id": id, "fields": fieldNames(fields)})
		respondOK(c, http.StatusOK, "Administrador actualizado exitosamente", nil)
	}
}

// DeleteAdminHandler removes another admin account
func DeleteAdminHandler(admins AdminStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusBadRequest, "ID inválido")
			return
		}
		me, _ := middleware.CurrentAdmin(c)
		if id == me.ID {
			respondError(c, http.StatusBadRequest, "No puedes eliminar tu propia cuenta")
			return
		}

		ctx := c.Request.Context()
		admin, err := admins.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Administrador no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al eliminar administrador", err)
			return
		}
		deleted, err := admins.Delete(ctx, id)
		if err != nil {
			internalError(c, "Error al eliminar administrador", err)
			return
		}
		if !deleted {
			respondError(c, http.StatusNotFound, "Administrador no encontrado")
			return
		}
		logActivity(c, activity, "admin_deleted", gin.H{"admin_id": id, "username": admin.Username})
		respondOK(c, http.StatusOK, "Administrador eliminado exitosamente", nil)
	}
}

// ListActivityHandler returns one page of the activity log, optionally by admin and action
func ListActivityHandler(activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := pageQuery(c)
		var adminID uint
		if raw := c.Query("admin_id"); raw != "" {
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				respondError(c, http.StatusBadRequest, "ID de administrador inválido")
				return
			}
			adminID = uint(v)
		}
		rows, p, err := activity.List(c.Request.Context(), adminID, c.Query("action"), page, limit)
		if err != nil {
			internalError(c, "Error al obtener el registro de actividad", err)
			return
		}
		respondList(c, rows, p)
	}
}

// fieldNames lists the keys of an update for activity details
func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
