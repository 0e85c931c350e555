package db

import (
	"storefront/internal/domain" // Importing domain models
	"storefront/internal/utils"  // Password hashing

	"github.com/shopspring/decimal" // Seed prices
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Upserts
)

// Models lists every table managed by AutoMigrate
func Models() []any {
	return []any{
		&domain.Admin{},
		&domain.Category{},
		&domain.Product{},
		&domain.ProductImage{},
		&domain.Customer{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.SiteSetting{},
		&domain.NewsletterSubscriber{},
		&domain.PasswordResetToken{},
		&domain.ActivityLog{},
		&domain.Page{},
	}
}

// Migrate performs automatic migration for the database schema
func Migrate(g *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := g.AutoMigrate(Models()...); err != nil {
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}

// Seed inserts the demo admin, categories, products, settings and pages.
// Existing rows are left untouched so seeding can be repeated.
func Seed(g *gorm.DB) error {
	hash, err := utils.HashPassword("password")
	if err != nil {
		return err
	}
	return g.Transaction(func(tx *gorm.DB) error {
		keep := clause.OnConflict{DoNothing: true}

		admin := domain.Admin{
			Username: "admin",
			Email:    "admin@example.com",
			Password: hash,
			FullName: "Administrador",
			Role:     domain.RoleSuperAdmin,
			IsActive: true,
		}
		if err := tx.Clauses(keep).Create(&admin).Error; err != nil {
			return err
		}

		categories := []domain.Category{
			{Name: "Software", Slug: "software", Description: "Productos de software", IsActive: true},
			{Name: "Aceites Esenciales", Slug: "aceites-esenciales", Description: "Aceites esenciales de calidad", IsActive: true},
		}
		if err := tx.Clauses(keep).Create(&categories).Error; err != nil {
			return err
		}
		var software, oils domain.Category
		if err := tx.Where("slug = ?", "software").First(&software).Error; err != nil {
			return err
		}
		if err := tx.Where("slug = ?", "aceites-esenciales").First(&oils).Error; err != nil {
			return err
		}

		products := []domain.Product{
			{
				CategoryID: &software.ID, Name: "Antivirus Pro", Slug: "antivirus-pro",
				Price: decimal.RequireFromString("29.99"), ShortDescription: "Protección completa",
				Description: "Software antivirus profesional", StockQuantity: 100, ManageStock: true,
				IsActive: true, IsFeatured: true,
			},
			{
				CategoryID: &oils.ID, Name: "Aceite de Lavanda", Slug: "aceite-lavanda",
				Price: decimal.RequireFromString("9.99"), ShortDescription: "Aceite esencial relajante",
				Description: "Aceite esencial 100% puro de lavanda", StockQuantity: 50, ManageStock: true,
				IsActive: true,
			},
		}
		if err := tx.Clauses(keep).Create(&products).Error; err != nil {
			return err
		}

		settings := []domain.SiteSetting{
			{SettingKey: "site_name", SettingValue: "AlquimiaTechnologic", SettingType: domain.SettingString},
			{SettingKey: "site_description", SettingValue: "Productos y servicios de alta calidad", SettingType: domain.SettingString},
			{SettingKey: "shipping_cost", SettingValue: "0", SettingType: domain.SettingNumber},
			{SettingKey: "maintenance_mode", SettingValue: "false", SettingType: domain.SettingBoolean},
		}
		if err := tx.Clauses(keep).Create(&settings).Error; err != nil {
			return err
		}

		pages := []domain.Page{
			{Slug: "acerca-de", Title: "Acerca de", Content: "<p>Quiénes somos.</p>", IsActive: true},
			{Slug: "terminos-condiciones", Title: "Términos y condiciones", Content: "<p>Términos de uso.</p>", IsActive: true},
			{Slug: "politica-privacidad", Title: "Política de privacidad", Content: "<p>Tratamiento de datos.</p>", IsActive: true},
		}
		if err := tx.Clauses(keep).Create(&pages).Error; err != nil {
			return err
		}
		logrus.Info("Seed completed.")
		return nil
	})
}
