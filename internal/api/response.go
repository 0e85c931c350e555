package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strconv"  // Path and query parameters

	"storefront/internal/db"         // Pagination metadata
	"storefront/internal/middleware" // Identity of the calling admin
	"storefront/internal/upload"     // Upload errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// envelope is the body of every JSON response
type envelope struct {
	Success    bool           `json:"success"`              // Whether the request succeeded
	Message    string         `json:"message,omitempty"`    // Human readable outcome
	Data       any            `json:"data,omitempty"`       // Payload
	Errors     []string       `json:"errors,omitempty"`     // Validation details
	Pagination *db.Pagination `json:"pagination,omitempty"` // Page metadata for lists
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondList(c *gin.Context, data any, p db.Pagination) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Pagination: &p})
}

func respondError(c *gin.Context, status int, message string, errs ...string) {
	c.JSON(status, envelope{Success: false, Message: message, Errors: errs})
}

// internalError logs err with the request context and answers 500 with message
func internalError(c *gin.Context, message string, err error) {
	entry := logrus.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"ip":     c.ClientIP(),
	})
	if admin, ok := middleware.CurrentAdmin(c); ok {
		entry = entry.WithField("admin_id", admin.ID)
	}
	entry.WithError(err).Error(message)
	respondError(c, http.StatusInternalServerError, message)
}

// uploadError maps upload failures to 400 responses, anything else to 500
func uploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		respondError(c, http.StatusBadRequest, "El archivo es demasiado grande. Máximo 5MB.")
	case errors.Is(err, upload.ErrUnsupportedType):
		respondError(c, http.StatusBadRequest, "Solo se permiten imágenes (jpeg, jpg, png, gif, webp)")
	case errors.Is(err, upload.ErrTooManyFiles):
		respondError(c, http.StatusBadRequest, "Demasiados archivos. Máximo 5 imágenes.")
	default:
		internalError(c, "Error al subir el archivo", err)
	}
}

// paramID parses a positive integer path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pageQuery reads page and limit; bad values fall back to the defaults
func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return db.NormalizePage(page, limit)
}

// recordActivity writes an activity log row for adminID. Failures are logged, never returned.
func recordActivity(c *gin.Context, activity ActivityStore, adminID uint, action string, details gin.H) {
	if activity == nil {
		return
	}
	if details == nil {
		details = gin.H{}
	}
	if err := activity.Log(c.Request.Context(), adminID, action, details, c.ClientIP()); err != nil {
		logrus.WithFields(logrus.Fields{
			"admin_id": adminID,
			"action":   action,
		}).WithError(err).Warn("Failed to record admin activity")
	}
}

// logActivity records action for the authenticated admin
func logActivity(c *gin.Context, activity ActivityStore, action string, details gin.H) {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return
	}
	recordActivity(c, activity, admin.ID, action, details)
}
