package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Dashboard month

	"storefront/internal/repository" // Setting values and sentinels
	"storefront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Request struct for settings updates
type UpdateSettingsRequest struct {
	Settings []repository.SettingValue `json:"settings"`
}

// Request struct for newsletter subscriptions
type NewsletterRequest struct {
	Email string `json:"email" form:"email"`
}

// siteConfig returns the typed site settings, cached in Redis
func siteConfig(c *gin.Context, settings SettingStore, rdb *redis.Client) (map[string]any, error) {
	return siteConfigCache.Load(c.Request.Context(), rdb, settings.Config)
}

// ConfigHandler returns the public site configuration with typed values
func ConfigHandler(settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		config, err := siteConfig(c, settings, rdb)
		if err != nil {
			internalError(c, "Error al obtener la configuración", err)
			return
		}
		respondOK(c, http.StatusOK, "", config)
	}
}

// ListSettingsHandler returns every raw setting row for the back office
func ListSettingsHandler(settings SettingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := settings.All(c.Request.Context())
		if err != nil {
			internalError(c, "Error al obtener la configuración", err)
			return
		}
		respondOK(c, http.StatusOK, "", rows)
	}
}

// UpdateSettingsHandler writes a batch of settings and drops the cached config
func UpdateSettingsHandler(settings SettingStore, activity ActivityStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Settings) == 0 {
			respondError(c, http.StatusBadRequest, "Datos de configuración inválidos")
			return
		}
		for _, s := range req.Settings {
			if strings.TrimSpace(s.Key) == "" {
				respondError(c, http.StatusBadRequest, "Datos de configuración inválidos")
				return
			}
		}
		changed, err := settings.Update(c.Request.Context(), req.Settings)
		if err != nil {
			internalError(c, "Error al actualizar la configuración", err)
			return
		}
		siteConfigCache.Invalidate(c.Request.Context(), rdb)
		logActivity(c, activity, "settings_updated", gin.H{"settings_count": len(req.Settings), "changed": changed})
		respondOK(c, http.StatusOK, "Configuración actualizada exitosamente", gin.H{"updated": changed})
	}
}

// NewsletterHandler subscribes an email address
func NewsletterHandler(newsletter NewsletterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewsletterRequest
		_ = c.ShouldBind(&req)
		email := strings.ToLower(utils.SanitizeInput(req.Email))
		if !utils.ValidateEmail(email) {
			respondError(c, http.StatusBadRequest, "Email válido es requerido")
			return
		}
		err := newsletter.Subscribe(c.Request.Context(), email)
		if errors.Is(err, repository.ErrDuplicate) || repository.IsDuplicateKey(err) {
			respondError(c, http.StatusBadRequest, "Este email ya está suscrito")
			return
		} else if err != nil {
			internalError(c, "Error al procesar la suscripción", err)
			return
		}
		logrus.WithField("email", email).Info("Newsletter subscription")
		respondOK(c, http.StatusOK, "Suscripción exitosa", nil)
	}
}

// ListSubscribersHandler returns one page of newsletter subscribers
func ListSubscribersHandler(newsletter NewsletterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := pageQuery(c)
		rows, p, err := newsletter.List(c.Request.Context(), strings.TrimSpace(c.Query("search")), page, limit)
		if err != nil {
			internalError(c, "Error al obtener suscriptores", err)
			return
		}
		respondList(c, rows, p)
	}
}

// DeleteSubscriberHandler removes a newsletter subscriber
func DeleteSubscriberHandler(newsletter NewsletterStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Suscriptor no encontrado")
			return
		}
		if err := newsletter.Delete(c.Request.Context(), id); errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Suscriptor no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al eliminar el suscriptor", err)
			return
		}
		logActivity(c, activity, "subscriber_deleted", gin.H{"subscriber_id": id})
		respondOK(c, http.StatusOK, "Suscriptor eliminado exitosamente", nil)
	}
}

// StatsHandler returns the dashboard figures
func StatsHandler(stats StatsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := stats.Dashboard(c.Request.Context(), time.Now().UTC())
		if err != nil {
			internalError(c, "Error al obtener estadísticas", err)
			return
		}
		respondOK(c, http.StatusOK, "", dashboard)
	}
}
