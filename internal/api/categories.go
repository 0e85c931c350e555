package api

import (
	"context"  // Cache fill
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"storefront/internal/domain"     // Importing domain models
	"storefront/internal/repository" // Row types and sentinels
	"storefront/internal/upload"     // Image uploads
	"storefront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// CatalogCacheTTL is how long public category listings and site config stay cached
const CatalogCacheTTL = 5 * time.Minute

// Cached public data; admin writes invalidate it
var (
	categoryCache   = utils.Cached[[]repository.CategoryRow]{Key: "storefront:categories", TTL: CatalogCacheTTL}
	siteConfigCache = utils.Cached[map[string]any]{Key: "storefront:config", TTL: CatalogCacheTTL}
)

// Form fields sent with a category image
var categoryImageFields = []string{"image", "category_image"}

// ListCategoriesHandler returns categories with their product counts. The public listing
// shows active categories only and is cached in Redis; the admin listing shows all.
func ListCategoriesHandler(categories CategoryStore, rdb *redis.Client, admin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var rows []repository.CategoryRow
		var err error
		if admin {
			rows, err = categories.List(ctx, false, 0)
		} else {
			rows, err = categoryCache.Load(ctx, rdb, func(ctx context.Context) ([]repository.CategoryRow, error) {
				return categories.List(ctx, true, 0)
			})
		}
		if err != nil {
			internalError(c, "Error al obtener categorías", err)
			return
		}
		respondOK(c, http.StatusOK, "", rows)
	}
}

// GetCategoryHandler returns an active category by slug
func GetCategoryHandler(categories CategoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		category, err := categories.FindBySlug(c.Request.Context(), c.Param("slug"))
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Categoría no encontrada")
			return
		} else if err != nil {
			internalError(c, "Error al obtener la categoría", err)
			return
		}
		respondOK(c, http.StatusOK, "", category)
	}
}

func parseCategoryForm(c *gin.Context) *formFields {
	f := newFormFields(c)
	f.text("name")
	f.longText("description")
	f.integer("sort_order")
	f.boolean("is_active")
	return f
}

// saveCategoryImage stores the first image sent with the form, if any
func saveCategoryImage(c *gin.Context, uploads *upload.Store) (*string, error) {
	files := formFiles(c, categoryImageFields...)
	if len(files) == 0 {
		return nil, nil
	}
	name, err := uploads.Save(files[0], "category_image")
	if err != nil {
		return nil, err
	}
	return &name, nil
}

// CreateCategoryHandler adds a category from a multipart form with an optional image
func CreateCategoryHandler(categories CategoryStore, uploads *upload.Store, activity ActivityStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := parseCategoryForm(c)
		if f.invalid != "" {
			respondError(c, http.StatusBadRequest, "Valor inválido en el campo "+f.invalid)
			return
		}
		name := f.str("name")
		if name == "" {
			respondError(c, http.StatusBadRequest, "Nombre de categoría es requerido")
			return
		}
		if utils.Slugify(name) == "" {
			respondError(c, http.StatusBadRequest, "El nombre debe contener letras o números")
			return
		}

		ctx := c.Request.Context()
		image, err := saveCategoryImage(c, uploads)
		if err != nil {
			uploadError(c, err)
			return
		}

		category := &domain.Category{
			Name:        name,
			Description: f.str("description"),
			Image:       image,
			IsActive:    true,
		}
		if v, ok := f.values["sort_order"].(int); ok {
			category.SortOrder = v
		}
		if v, ok := f.values["is_active"].(bool); ok {
			category.IsActive = v
		}
		id, slug, err := createWithSlug(ctx, name, categories.SlugExists, func(slug string) (uint, error) {
			category.Slug = slug
			return categories.Create(ctx, category)
		})
		if err != nil {
			if image != nil {
				uploads.RemoveAll(upload.DirCategories, []string{*image})
			}
			internalError(c, "Error al crear la categoría", err)
			return
		}
		invalidateCatalog(c, rdb)
		logActivity(c, activity, "category_created", gin.H{"category_id": id, "name": name})
		respondOK(c, http.StatusCreated, "Categoría creada exitosamente", gin.H{"id": id, "slug": slug})
	}
}

// UpdateCategoryHandler changes the submitted fields of a category. A new image replaces
// the old file once the row is updated.
func UpdateCategoryHandler(categories CategoryStore, uploads *upload.Store, activity ActivityStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Categoría no encontrada")
			return
		}
		f := parseCategoryForm(c)
		if f.invalid != "" {
			respondError(c, http.StatusBadRequest, "Valor inválido en el campo "+f.invalid)
			return
		}

		ctx := c.Request.Context()
		current, err := categories.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Categoría no encontrada")
			return
		} else if err != nil {
			internalError(c, "Error al actualizar la categoría", err)
			return
		}

		if f.has("name") {
			name := f.str("name")
			if utils.Slugify(name) == "" {
				respondError(c, http.StatusBadRequest, "El nombre debe contener letras o números")
				return
			}
			if name != current.Name {
				slug, err := utils.UniqueSlug(ctx, name, categories.SlugExists)
				if err != nil {
					internalError(c, "Error al actualizar la categoría", err)
					return
				}
				f.values["slug"] = slug
			}
		}

		image, err := saveCategoryImage(c, uploads)
		if err != nil {
			uploadError(c, err)
			return
		}
		if image != nil {
			f.values["image"] = *image
		}
		if len(f.values) == 0 {
			respondError(c, http.StatusBadRequest, "No hay campos para actualizar")
			return
		}
		if err := categories.Update(ctx, id, f.values); err != nil {
			if image != nil {
				uploads.RemoveAll(upload.DirCategories, []string{*image})
			}
			switch {
			case errors.Is(err, repository.ErrNotFound):
				respondError(c, http.StatusNotFound, "Categoría no encontrada")
			case repository.IsDuplicateKeyOn(err, "slug"):
				respondError(c, http.StatusConflict, "Otra categoría acaba de tomar ese nombre, intenta de nuevo")
			default:
				internalError(c, "Error al actualizar la categoría", err)
			}
			return
		}
		if image != nil && current.Image != nil {
			uploads.RemoveAll(upload.DirCategories, []string{*current.Image})
		}
		invalidateCatalog(c, rdb)
		logActivity(c, activity, "category_updated", gin.H{"category_id": id, "fields": fieldNames(f.values)})
		respondOK(c, http.StatusOK, "Categoría actualizada exitosamente", nil)
	}
}

// DeleteCategoryHandler removes a category without products, then its image file
func DeleteCategoryHandler(categories CategoryStore, uploads *upload.Store, activity ActivityStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Categoría no encontrada")
			return
		}
		deleted, err := categories.Delete(c.Request.Context(), id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			respondError(c, http.StatusNotFound, "Categoría no encontrada")
			return
		case errors.Is(err, repository.ErrCategoryInUse):
			respondError(c, http.StatusBadRequest, "No se puede eliminar una categoría que tiene productos")
			return
		case err != nil:
			internalError(c, "Error al eliminar la categoría", err)
			return
		}
		if deleted.Image != nil {
			uploads.RemoveAll(upload.DirCategories, []string{*deleted.Image})
		}
		invalidateCatalog(c, rdb)
		logActivity(c, activity, "category_deleted", gin.H{"category_id": id, "name": deleted.Name})
		respondOK(c, http.StatusOK, "Categoría eliminada exitosamente", nil)
	}
}
