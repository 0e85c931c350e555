package domain

import "time"

// Setting value types
const (
	SettingString  = "string"
	SettingNumber  = "number"
	SettingBoolean = "boolean"
	SettingJSON    = "json"
)

// SiteSetting Model, a typed key/value pair
type SiteSetting struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SettingKey   string    `gorm:"size:100;uniqueIndex;not null" json:"setting_key"`
	SettingValue string    `gorm:"type:text" json:"setting_value"`
	SettingType  string    `gorm:"size:20;not null;default:string" json:"setting_type"`
	Description  string    `gorm:"size:255" json:"description"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewsletterSubscriber Model
type NewsletterSubscriber struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:150;uniqueIndex;not null" json:"email"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	SubscribedAt time.Time `gorm:"autoCreateTime" json:"subscribed_at"`
}

// Page Model, static content pages such as terms or about
type Page struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Content   string    `gorm:"type:longtext" json:"content"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	UpdatedAt time.Time `json:"updated_at"`
}
