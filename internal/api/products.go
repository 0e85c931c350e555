package api

import (
	"context"  // Slug lookups
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"storefront/internal/repository" // Row types and sentinels
	"storefront/internal/upload"     // Image uploads
	"storefront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Price filters
	"github.com/sirupsen/logrus"    // Logging library
)

// Form fields sent with product images
var productImageFields = []string{"images", "product_image"}

// productFilter reads listing parameters from the query string
func productFilter(c *gin.Context, admin bool) (repository.ProductFilter, bool) {
	page, limit := pageQuery(c)
	f := repository.ProductFilter{
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("search")),
		Featured: c.Query("featured") == "true",
		Admin:    admin,
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
		Page:     page,
		Limit:    limit,
	}
	if admin {
		f.Status = c.Query("status")
	}
	for key, dest := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, false
		}
		*dest = &d
	}
	return f, true
}

// ListProductsHandler returns one page of products. The admin listing includes inactive products.
func ListProductsHandler(products ProductStore, admin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, ok := productFilter(c, admin)
		if !ok {
			respondError(c, http.StatusBadRequest, "Precio inválido")
			return
		}
		rows, p, err := products.List(c.Request.Context(), f)
		if err != nil {
			internalError(c, "Error al obtener productos", err)
			return
		}
		respondList(c, rows, p)
	}
}

// GetProductHandler returns one product with its images
func GetProductHandler(products ProductStore, activeOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Producto no encontrado")
			return
		}
		product, err := products.FindByID(c.Request.Context(), id, activeOnly)
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Producto no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al obtener el producto", err)
			return
		}
		respondOK(c, http.StatusOK, "", product)
	}
}

// SearchHandler matches active products by name, description or SKU
func SearchHandler(products ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if len([]rune(q)) < 2 {
			respondError(c, http.StatusBadRequest, "La búsqueda debe tener al menos 2 caracteres")
			return
		}
		f, ok := productFilter(c, false)
		if !ok {
			respondError(c, http.StatusBadRequest, "Precio inválido")
			return
		}
		rows, err := products.Search(c.Request.Context(), q, f, f.Limit, (f.Page-1)*f.Limit)
		if err != nil {
			internalError(c, "Error en la búsqueda", err)
			return
		}
		respondOK(c, http.StatusOK, "", gin.H{"query": q, "products": rows, "count": len(rows)})
	}
}

func parseProductForm(c *gin.Context) *formFields {
	f := newFormFields(c)
	f.text("name")
	f.longText("description")
	f.text("short_description")
	f.optionalID("category_id")
	f.money("price")
	f.optionalMoney("compare_price")
	f.optionalText("sku")
	f.integer("stock_quantity")
	f.boolean("manage_stock")
	f.optionalMoney("weight")
	f.text("dimensions")
	f.boolean("is_featured")
	f.boolean("is_active")
	f.integer("sort_order")
	f.text("meta_title")
	f.text("meta_description")
	return f
}

// productInput converts parsed form values for insertion, applying defaults for absent fields
func productInput(f *formFields) repository.ProductInput {
	in := repository.ProductInput{
		Name:             f.str("name"),
		Description:      f.str("description"),
		ShortDescription: f.str("short_description"),
		Dimensions:       f.str("dimensions"),
		MetaTitle:        f.str("meta_title"),
		MetaDescription:  f.str("meta_description"),
		ManageStock:      true,
		IsActive:         true,
	}
	if v, ok := f.values["price"].(decimal.Decimal); ok {
		in.Price = v
	}
	if v, ok := f.values["compare_price"].(decimal.NullDecimal); ok {
		in.ComparePrice = v
	}
	if v, ok := f.values["weight"].(decimal.NullDecimal); ok {
		in.Weight = v
	}
	if v, ok := f.values["category_id"].(*uint); ok {
		in.CategoryID = v
	}
	if v, ok := f.values["sku"].(string); ok {
		in.SKU = &v
	}
	if v, ok := f.values["stock_quantity"].(int); ok {
		in.StockQuantity = v
	}
	if v, ok := f.values["sort_order"].(int); ok {
		in.SortOrder = v
	}
	if v, ok := f.values["manage_stock"].(bool); ok {
		in.ManageStock = v
	}
	if v, ok := f.values["is_featured"].(bool); ok {
		in.IsFeatured = v
	}
	if v, ok := f.values["is_active"].(bool); ok {
		in.IsActive = v
	}
	return in
}

// CreateProductHandler adds a product from a multipart form with up to five images.
// The first image becomes the primary one.
func CreateProductHandler(products ProductStore, uploads *upload.Store, activity ActivityStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := parseProductForm(c)
		if f.invalid != "" {
			respondError(c, http.StatusBadRequest, "Valor inválido en el campo "+f.invalid)
			return
		}
		name := f.str("name")
		if name == "" || !f.has("price") {
			respondError(c, http.StatusBadRequest, "Nombre y precio son requeridos")
			return
		}
		if utils.Slugify(name) == "" {
			respondError(c, http.StatusBadRequest, "El nombre debe contener letras o números")
			return
		}

		ctx := c.Request.Context()
		images, err := uploads.SaveAll(formFiles(c, productImageFields...), "product_image")
		if err != nil {
			uploadError(c, err)
			return
		}

		in := productInput(f)
		id, slug, err := createWithSlug(ctx, name, products.SlugExists, func(slug string) (uint, error) {
			in.Slug = slug
			return products.Create(ctx, in, images)
		})
		if err != nil {
			uploads.RemoveAll(upload.DirProducts, images)
			if repository.IsDuplicateKeyOn(err, "sku") {
				respondError(c, http.StatusBadRequest, "El SKU ya existe")
				return
			}
			internalError(c, "Error al crear el producto", err)
			return
		}
		invalidateCatalog(c, rdb)
		logActivity(c, activity, "product_created", gin.H{"product_id": id, "name": name, "images": len(images)})
		logrus.WithFields(logrus.Fields{"product_id": id, "slug": slug}).Info("Product created")
		respondOK(c, http.StatusCreated, "Producto creado exitosamente", gin.H{"id": id, "slug": slug})
	}
}

// UpdateProductHandler changes the submitted fields of a product and appends any new images.
// A changed name gets a fresh unique slug.
func UpdateProductHandler(products ProductStore, uploads *upload.Store, activity ActivityStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Producto no encontrado")
			return
		}
		f := parseProductForm(c)
		if f.invalid != "" {
			respondError(c, http.StatusBadRequest, "Valor inválido en el campo "+f.invalid)
			return
		}

		ctx := c.Request.Context()
		current, err := products.FindByID(ctx, id, false)
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Producto no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al actualizar el producto", err)
			return
		}

		if f.has("name") {
			name := f.str("name")
			if utils.Slugify(name) == "" {
				respondError(c, http.StatusBadRequest, "El nombre debe contener letras o números")
				return
			}
			if name != current.Name {
				slug, err := utils.UniqueSlug(ctx, name, products.SlugExists)
				if err != nil {
					internalError(c, "Error al actualizar el producto", err)
					return
				}
				f.values["slug"] = slug
			}
		}

		images, err := uploads.SaveAll(formFiles(c, productImageFields...), "product_image")
		if err != nil {
			uploadError(c, err)
			return
		}
		if len(f.values) == 0 && len(images) == 0 {
			respondError(c, http.StatusBadRequest, "No hay campos para actualizar")
			return
		}
		if err := products.Update(ctx, id, f.values, images); err != nil {
			uploads.RemoveAll(upload.DirProducts, images)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				respondError(c, http.StatusNotFound, "Producto no encontrado")
			case repository.IsDuplicateKeyOn(err, "sku"):
				respondError(c, http.StatusBadRequest, "El SKU ya existe")
			case repository.IsDuplicateKeyOn(err, "slug"):
				respondError(c, http.StatusConflict, "Otro producto acaba de tomar ese nombre, intenta de nuevo")
			default:
				internalError(c, "Error al actualizar el producto", err)
			}
			return
		}
		invalidateCatalog(c, rdb)
		logActivity(c, activity, "product_updated", gin.H{"product_id": id, "fields": fieldNames(f.values), "images": len(images)})
		respondOK(c, http.StatusOK, "Producto actualizado exitosamente", nil)
	}
}

// DeleteProductHandler removes a product and then its image files
func DeleteProductHandler(products ProductStore, uploads *upload.Store, activity ActivityStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Producto no encontrado")
			return
		}
		name, files, err := products.Delete(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Producto no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al eliminar el producto", err)
			return
		}
		uploads.RemoveAll(upload.DirProducts, files)
		invalidateCatalog(c, rdb)
		logActivity(c, activity, "product_deleted", gin.H{"product_id": id, "name": name})
		respondOK(c, http.StatusOK, "Producto eliminado exitosamente", nil)
	}
}

// SetPrimaryImageHandler marks one of a product's images as primary
func SetPrimaryImageHandler(products ProductStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok1 := paramID(c, "id")
		imageID, ok2 := paramID(c, "imageId")
		if !ok1 || !ok2 {
			respondError(c, http.StatusNotFound, "Imagen no encontrada")
			return
		}
		if err := products.SetPrimaryImage(c.Request.Context(), productID, imageID); errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Imagen no encontrada")
			return
		} else if err != nil {
			internalError(c, "Error al actualizar la imagen", err)
			return
		}
		logActivity(c, activity, "product_image_primary", gin.H{"product_id": productID, "image_id": imageID})
		respondOK(c, http.StatusOK, "Imagen principal actualizada", nil)
	}
}

// DeleteProductImageHandler removes one image row and its file
func DeleteProductImageHandler(products ProductStore, uploads *upload.Store, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok1 := paramID(c, "id")
		imageID, ok2 := paramID(c, "imageId")
		if !ok1 || !ok2 {
			respondError(c, http.StatusNotFound, "Imagen no encontrada")
			return
		}
		file, err := products.DeleteImage(c.Request.Context(), productID, imageID)
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Imagen no encontrada")
			return
		} else if err != nil {
			internalError(c, "Error al eliminar la imagen", err)
			return
		}
		uploads.RemoveAll(upload.DirProducts, []string{file})
		logActivity(c, activity, "product_image_deleted", gin.H{"product_id": productID, "image_id": imageID})
		respondOK(c, http.StatusOK, "Imagen eliminada exitosamente", nil)
	}
}

// invalidateCatalog drops cached category listings, whose product counts change with products
// createWithSlug picks a unique slug for name and calls create with it. When a concurrent
// insert claims the slug first, it picks again once.
func createWithSlug(ctx context.Context, name string, exists func(context.Context, string) (bool, error), create func(slug string) (uint, error)) (uint, string, error) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var slug string
		if slug, err = utils.UniqueSlug(ctx, name, exists); err != nil {
			return 0, "", err
		}
		var id uint
		id, err = create(slug)
		if !repository.IsDuplicateKeyOn(err, "slug") {
			return id, slug, err
		}
	}
	return 0, "", err
}

func invalidateCatalog(c *gin.Context, rdb *redis.Client) {
	categoryCache.Invalidate(c.Request.Context(), rdb)
}
