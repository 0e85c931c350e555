package repository

import (
	"context" // Context for queries

	"storefront/internal/db"     // Data-access helper
	"storefront/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Price filters
)

// CategoryRow is a category with the number of active products in it
type CategoryRow struct {
	domain.Category
	ProductCount int64 `json:"product_count"`
}

// ProductRow is a product joined with its category and primary image
type ProductRow struct {
	domain.Product
	CategoryName *string `json:"category_name"`
	CategorySlug *string `json:"category_slug"`
	PrimaryImage *string `json:"primary_image"`
}

// ProductDetail is a product with every image, primary first
type ProductDetail struct {
	ProductRow
	Images []domain.ProductImage `gorm:"-" json:"images"`
}

// ProductInput carries the writable product fields
type ProductInput struct {
	Name             string
	Slug             string
	Description      string
	ShortDescription string
	CategoryID       *uint
	Price            decimal.Decimal
	ComparePrice     decimal.NullDecimal
	SKU              *string
	StockQuantity    int
	ManageStock      bool
	Weight           decimal.NullDecimal
	Dimensions       string
	IsFeatured       bool
	IsActive         bool
	SortOrder        int
	MetaTitle        string
	MetaDescription  string
}

// ProductFilter narrows product listings
type ProductFilter struct {
	Category string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Featured bool
	// Admin lists inactive products too, filtered by Status (active, inactive or empty), and searches SKUs
	Admin  bool
	Status string
	Sort   string
	Order  string
	Page   int
	Limit  int
}

// ProductSorts are the columns a listing may be ordered by
var ProductSorts = map[string]bool{"name": true, "price": true, "created_at": true, "sort_order": true}

var categoryUpdatable = map[string]bool{
	"name": true, "slug": true, "description": true, "image": true, "sort_order": true, "is_active": true,
}

var productUpdatable = map[string]bool{
	"name": true, "slug": true, "description": true, "short_description": true, "category_id": true,
	"price": true, "compare_price": true, "sku": true, "stock_quantity": true, "manage_stock": true,
	"weight": true, "dimensions": true, "is_featured": true, "is_active": true, "sort_order": true,
	"meta_title": true, "meta_description": true,
}

const categoryCounted = `SELECT c.*, COUNT(p.id) AS product_count
	FROM categories c
	LEFT JOIN products p ON c.id = p.category_id AND p.is_active = 1`

const productJoined = `SELECT p.*, c.name AS category_name, c.slug AS category_slug,
	(SELECT image_url FROM product_images WHERE product_id = p.id AND is_primary = 1 LIMIT 1) AS primary_image
	FROM products p
	LEFT JOIN categories c ON p.category_id = c.id`

// CategoryRepo reads and writes categories
type CategoryRepo struct {
	db *db.DB
}

// List returns categories ordered for menus. activeOnly hides disabled ones; limit <= 0 means all.
func (r *CategoryRepo) List(ctx context.Context, activeOnly bool, limit int) ([]CategoryRow, error) {
	sql := categoryCounted
	if activeOnly {
		sql += " WHERE c.is_active = 1"
	}
	sql += " GROUP BY c.id ORDER BY c.sort_order ASC, c.name ASC"
	if limit > 0 {
		sql += " " + db.BuildLimit(limit, 0)
	}
	rows := []CategoryRow{}
	err := r.db.Query(ctx, &rows, sql)
	return rows, err
}

// FindBySlug loads an active category by slug
func (r *CategoryRepo) FindBySlug(ctx context.Context, slug string) (*CategoryRow, error) {
	var row CategoryRow
	found, err := r.db.GetOne(ctx, &row, categoryCounted+" WHERE c.slug = ? AND c.is_active = 1 GROUP BY c.id", slug)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &row, nil
}

// FindByID loads a category by id regardless of state
func (r *CategoryRepo) FindByID(ctx context.Context, id uint) (*domain.Category, error) {
	var c domain.Category
	found, err := r.db.GetOne(ctx, &c, "SELECT * FROM categories WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &c, nil
}

// SlugExists reports whether a category uses slug
func (r *CategoryRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.db.Exists(ctx, "categories", map[string]any{"slug": slug})
}

// Create inserts c and returns the new id
func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) (uint, error) {
	ts := now()
	id, err := r.db.Insert(ctx,
		"INSERT INTO categories (name, slug, description, image, sort_order, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		c.Name, c.Slug, c.Description, c.Image, c.SortOrder, c.IsActive, ts, ts)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Update sets the given category columns
func (r *CategoryRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	return updateColumns(ctx, r.db, "categories", id, fields, categoryUpdatable)
}

// Delete removes an empty category and returns it so the caller can drop its image.
// A category that still has products yields ErrCategoryInUse.
func (r *CategoryRepo) Delete(ctx context.Context, id uint) (*domain.Category, error) {
	var deleted domain.Category
	err := r.db.Transaction(ctx, func(tx *db.DB) error {
		found, err := tx.GetOne(ctx, &deleted, "SELECT * FROM categories WHERE id = ? FOR UPDATE", id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		var count int64
		if _, err := tx.GetOne(ctx, &count, "SELECT COUNT(*) AS count FROM products WHERE category_id = ?", id); err != nil {
			return err
		}
		if count > 0 {
			return ErrCategoryInUse
		}
		_, err = tx.Delete(ctx, "DELETE FROM categories WHERE id = ?", id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

// ProductRepo reads and writes products and their images
type ProductRepo struct {
	db *db.DB
}

// List returns one page of products matching f
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]ProductRow, db.Pagination, error) {
	var w filter
	if !f.Admin {
		w.add("p.is_active = 1")
	} else if f.Status == "active" {
		w.add("p.is_active = 1")
	} else if f.Status == "inactive" {
		w.add("p.is_active = 0")
	}
	if f.Category != "" {
		w.add("c.slug = ?", f.Category)
	}
	if f.Search != "" {
		cols := []string{"p.name", "p.description", "p.short_description"}
		if f.Admin {
			cols = []string{"p.name", "p.description", "p.sku"}
		}
		cond, args := db.SearchIn(f.Search, cols)
		w.add(cond, args...)
	}
	if f.MinPrice != nil {
		w.add("p.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("p.price <= ?", *f.MaxPrice)
	}
	if f.Featured {
		w.add("p.is_featured = 1")
	}

	sort := f.Sort
	if !ProductSorts[sort] {
		sort = "created_at"
	}
	order := db.BuildOrder([]db.OrderBy{
		{Column: "p." + sort, Direction: db.SortDirection(f.Order, "DESC")},
		{Column: "p.id", Direction: "DESC"},
	})

	rows := []ProductRow{}
	page, err := r.db.Paginate(ctx, &rows, productJoined+w.where()+" "+order, w.args, f.Page, f.Limit)
	return rows, page, err
}

// Search matches q against product name, descriptions and category name; featured first
func (r *ProductRepo) Search(ctx context.Context, q string, f ProductFilter, limit, offset int) ([]ProductRow, error) {
	var w filter
	w.add("p.is_active = 1")
	cond, args := db.SearchIn(q, []string{"p.name", "p.description", "p.short_description", "c.name"})
	w.add(cond, args...)
	if f.Category != "" {
		w.add("c.slug = ?", f.Category)
	}
	if f.MinPrice != nil {
		w.add("p.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("p.price <= ?", *f.MaxPrice)
	}
	rows := []ProductRow{}
	err := r.db.Query(ctx, &rows,
		productJoined+w.where()+" ORDER BY p.is_featured DESC, p.sort_order ASC, p.created_at DESC "+db.BuildLimit(limit, offset),
		w.args...)
	return rows, err
}

// Featured returns up to limit active featured products
func (r *ProductRepo) Featured(ctx context.Context, limit int) ([]ProductRow, error) {
	rows := []ProductRow{}
	err := r.db.Query(ctx, &rows,
		productJoined+" WHERE p.is_active = 1 AND p.is_featured = 1 ORDER BY p.sort_order ASC, p.created_at DESC "+db.BuildLimit(limit, 0))
	return rows, err
}

// Related returns up to limit other active products of the same category, featured first
func (r *ProductRepo) Related(ctx context.Context, p *ProductDetail, limit int) ([]ProductRow, error) {
	rows := []ProductRow{}
	if p.CategoryID == nil {
		return rows, nil
	}
	err := r.db.Query(ctx, &rows,
		productJoined+" WHERE p.category_id = ? AND p.id <> ? AND p.is_active = 1 ORDER BY p.is_featured DESC, RAND() "+db.BuildLimit(limit, 0),
		*p.CategoryID, p.ID)
	return rows, err
}

func (r *ProductRepo) detail(ctx context.Context, where string, args ...any) (*ProductDetail, error) {
	var d ProductDetail
	found, err := r.db.GetOne(ctx, &d.ProductRow, productJoined+" WHERE "+where, args...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	d.Images, err = r.Images(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindByID loads a product with its images; activeOnly hides disabled products
func (r *ProductRepo) FindByID(ctx context.Context, id uint, activeOnly bool) (*ProductDetail, error) {
	if activeOnly {
		return r.detail(ctx, "p.id = ? AND p.is_active = 1", id)
	}
	return r.detail(ctx, "p.id = ?", id)
}

// FindBySlug loads an active product with its images
func (r *ProductRepo) FindBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	return r.detail(ctx, "p.slug = ? AND p.is_active = 1", slug)
}

// Images lists the images of a product, primary first
func (r *ProductRepo) Images(ctx context.Context, productID uint) ([]domain.ProductImage, error) {
	images := []domain.ProductImage{}
	err := r.db.Query(ctx, &images,
		"SELECT * FROM product_images WHERE product_id = ? ORDER BY is_primary DESC, sort_order ASC, id ASC", productID)
	return images, err
}

// SlugExists reports whether a product uses slug
func (r *ProductRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.db.Exists(ctx, "products", map[string]any{"slug": slug})
}

// Create inserts the product and its images in one transaction. The first image becomes primary.
func (r *ProductRepo) Create(ctx context.Context, in ProductInput, images []string) (uint, error) {
	var id int64
	err := r.db.Transaction(ctx, func(tx *db.DB) error {
		ts := now()
		var err error
		id, err = tx.Insert(ctx, `INSERT INTO products (
			name, slug, description, short_description, category_id, price, compare_price, sku,
			stock_quantity, manage_stock, weight, dimensions, is_featured, is_active, sort_order,
			meta_title, meta_description, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.Name, in.Slug, in.Description, in.ShortDescription, in.CategoryID, in.Price, in.ComparePrice, in.SKU,
			in.StockQuantity, in.ManageStock, in.Weight, in.Dimensions, in.IsFeatured, in.IsActive, in.SortOrder,
			in.MetaTitle, in.MetaDescription, ts, ts)
		if err != nil {
			return err
		}
		return insertImages(ctx, tx, uint(id), images, false)
	})
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Update sets the given columns and appends images. New images only take the primary
// slot when the product has none.
func (r *ProductRepo) Update(ctx context.Context, id uint, fields map[string]any, images []string) error {
	return r.db.Transaction(ctx, func(tx *db.DB) error {
		if err := updateColumns(ctx, tx, "products", id, fields, productUpdatable); err != nil {
			return err
		}
		if len(images) == 0 {
			return nil
		}
		var primaries int64
		if _, err := tx.GetOne(ctx, &primaries,
			"SELECT COUNT(*) AS count FROM product_images WHERE product_id = ? AND is_primary = 1", id); err != nil {
			return err
		}
		return insertImages(ctx, tx, id, images, primaries > 0)
	})
}

func insertImages(ctx context.Context, tx *db.DB, productID uint, images []string, hasPrimary bool) error {
	var next int
	if _, err := tx.GetOne(ctx, &next,
		"SELECT COALESCE(MAX(sort_order) + 1, 0) AS next FROM product_images WHERE product_id = ?", productID); err != nil {
		return err
	}
	for i, name := range images {
		primary := !hasPrimary && i == 0
		if _, err := tx.Insert(ctx,
			"INSERT INTO product_images (product_id, image_url, is_primary, sort_order, created_at) VALUES (?, ?, ?, ?, ?)",
			productID, name, primary, next+i, now()); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a product and its image rows, returning the product name and the image
// file names for the caller to unlink after the commit
func (r *ProductRepo) Delete(ctx context.Context, id uint) (string, []string, error) {
	var name string
	var files []string
	err := r.db.Transaction(ctx, func(tx *db.DB) error {
		found, err := tx.GetOne(ctx, &name, "SELECT name FROM products WHERE id = ? FOR UPDATE", id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		if err := tx.Query(ctx, &files, "SELECT image_url FROM product_images WHERE product_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.Delete(ctx, "DELETE FROM product_images WHERE product_id = ?", id); err != nil {
			return err
		}
		_, err = tx.Delete(ctx, "DELETE FROM products WHERE id = ?", id)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return name, files, nil
}

// SetPrimaryImage makes imageID the only primary image of productID
func (r *ProductRepo) SetPrimaryImage(ctx context.Context, productID, imageID uint) error {
	return r.db.Transaction(ctx, func(tx *db.DB) error {
		ok, err := tx.Exists(ctx, "product_images", map[string]any{"id": imageID, "product_id": productID})
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		_, err = tx.Update(ctx, "UPDATE product_images SET is_primary = (id = ?) WHERE product_id = ?", imageID, productID)
		return err
	})
}

// DeleteImage removes one image row and returns its file name. When the primary image
// goes, the next image by sort order is promoted.
func (r *ProductRepo) DeleteImage(ctx context.Context, productID, imageID uint) (string, error) {
	var img domain.ProductImage
	err := r.db.Transaction(ctx, func(tx *db.DB) error {
		found, err := tx.GetOne(ctx, &img,
			"SELECT * FROM product_images WHERE id = ? AND product_id = ? FOR UPDATE", imageID, productID)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		if _, err := tx.Delete(ctx, "DELETE FROM product_images WHERE id = ?", imageID); err != nil {
			return err
		}
		if !img.IsPrimary {
			return nil
		}
		_, err = tx.Update(ctx,
			"UPDATE product_images SET is_primary = 1 WHERE product_id = ? ORDER BY sort_order ASC, id ASC LIMIT 1", productID)
		return err
	})
	if err != nil {
		return "", err
	}
	return img.ImageURL, nil
}
