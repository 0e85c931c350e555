package api

import (
	"context" // Context for queries
	"time"    // Timestamps

	"storefront/internal/db"         // Pagination and pool health
	"storefront/internal/domain"     // Importing domain models
	"storefront/internal/repository" // Row types and inputs
)

// The handlers depend on these narrow views of the repositories so tests can swap in fakes.

// AdminStore reads and writes back-office accounts
type AdminStore interface {
	FindByID(ctx context.Context, id uint) (*domain.Admin, error)
	FindByLogin(ctx context.Context, login string) (*domain.Admin, error)
	FindActiveByEmail(ctx context.Context, email string) (*domain.Admin, error)
	List(ctx context.Context) ([]domain.Admin, error)
	Create(ctx context.Context, a *domain.Admin) (uint, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) (bool, error)
	TouchLogin(ctx context.Context, id uint, at time.Time) error
	SetPassword(ctx context.Context, id uint, hash string) error
	UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
}

// TokenStore keeps password reset tokens
type TokenStore interface {
	Create(ctx context.Context, adminID uint, token string, expiresAt time.Time) error
	Consume(ctx context.Context, token, passwordHash string, at time.Time) (uint, error)
}

// ActivityStore records back-office actions
type ActivityStore interface {
	Log(ctx context.Context, adminID uint, action string, details map[string]any, ip string) error
	List(ctx context.Context, adminID uint, action string, page, limit int) ([]repository.ActivityRow, db.Pagination, error)
}

// CategoryStore reads and writes categories
type CategoryStore interface {
	List(ctx context.Context, activeOnly bool, limit int) ([]repository.CategoryRow, error)
	FindBySlug(ctx context.Context, slug string) (*repository.CategoryRow, error)
	FindByID(ctx context.Context, id uint) (*domain.Category, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, c *domain.Category) (uint, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) (*domain.Category, error)
}

// ProductStore reads and writes products and their images
type ProductStore interface {
	List(ctx context.Context, f repository.ProductFilter) ([]repository.ProductRow, db.Pagination, error)
	Search(ctx context.Context, q string, f repository.ProductFilter, limit, offset int) ([]repository.ProductRow, error)
	Featured(ctx context.Context, limit int) ([]repository.ProductRow, error)
	Related(ctx context.Context, p *repository.ProductDetail, limit int) ([]repository.ProductRow, error)
	FindByID(ctx context.Context, id uint, activeOnly bool) (*repository.ProductDetail, error)
	FindBySlug(ctx context.Context, slug string) (*repository.ProductDetail, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, in repository.ProductInput, images []string) (uint, error)
	Update(ctx context.Context, id uint, fields map[string]any, images []string) error
	Delete(ctx context.Context, id uint) (string, []string, error)
	SetPrimaryImage(ctx context.Context, productID, imageID uint) error
	DeleteImage(ctx context.Context, productID, imageID uint) (string, error)
}

// OrderStore places and manages orders
type OrderStore interface {
	Place(ctx context.Context, in repository.OrderInput) (*domain.Order, error)
	List(ctx context.Context, status, search string, page, limit int) ([]repository.OrderRow, db.Pagination, error)
	FindByID(ctx context.Context, id uint) (*repository.OrderDetail, error)
	UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus) (string, error)
}

// CustomerStore reads and writes customers
type CustomerStore interface {
	List(ctx context.Context, search string, page, limit int) ([]repository.CustomerRow, db.Pagination, error)
	FindByID(ctx context.Context, id uint) (*repository.CustomerDetail, error)
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	Create(ctx context.Context, c repository.CustomerInput) (uint, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

// SettingStore reads and writes site settings
type SettingStore interface {
	All(ctx context.Context) ([]domain.SiteSetting, error)
	Update(ctx context.Context, values []repository.SettingValue) (int64, error)
	Config(ctx context.Context) (map[string]any, error)
}

// NewsletterStore keeps newsletter subscriptions
type NewsletterStore interface {
	Subscribe(ctx context.Context, email string) error
	List(ctx context.Context, search string, page, limit int) ([]domain.NewsletterSubscriber, db.Pagination, error)
	Delete(ctx context.Context, id uint) error
}

// PageStore reads static content pages
type PageStore interface {
	FindBySlug(ctx context.Context, slug string) (*domain.Page, error)
}

// StatsStore computes the dashboard
type StatsStore interface {
	Dashboard(ctx context.Context, at time.Time) (*repository.Dashboard, error)
}

// HealthChecker reports database health
type HealthChecker interface {
	Health(ctx context.Context) db.PoolHealth
}
