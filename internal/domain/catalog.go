package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category Model
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Image       *string   `gorm:"size:255" json:"image"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Product Model
type Product struct {
	ID               uint                `gorm:"primaryKey" json:"id"`
	CategoryID       *uint               `gorm:"index" json:"category_id"`
	Name             string              `gorm:"size:200;not null" json:"name"`
	Slug             string              `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	Description      string              `gorm:"type:text" json:"description"`
	ShortDescription string              `gorm:"size:500" json:"short_description"`
	Price            decimal.Decimal     `gorm:"type:decimal(10,2);not null" json:"price"`
	ComparePrice     decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"compare_price"`
	SKU              *string             `gorm:"column:sku;size:100;uniqueIndex" json:"sku"`
	StockQuantity    int                 `gorm:"not null;default:0" json:"stock_quantity"`
	ManageStock      bool                `gorm:"not null;default:true" json:"manage_stock"`
	Weight           decimal.NullDecimal `gorm:"type:decimal(8,2)" json:"weight"`
	Dimensions       string              `gorm:"size:100" json:"dimensions"`
	IsFeatured       bool                `gorm:"not null;default:false" json:"is_featured"`
	IsActive         bool                `gorm:"not null;default:true" json:"is_active"`
	SortOrder        int                 `gorm:"not null;default:0" json:"sort_order"`
	MetaTitle        string              `gorm:"size:200" json:"meta_title"`
	MetaDescription  string              `gorm:"size:500" json:"meta_description"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// ProductImage Model. At most one image per product has IsPrimary set.
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	ImageURL  string    `gorm:"size:255;not null" json:"image_url"`
	AltText   string    `gorm:"size:200" json:"alt_text"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}
