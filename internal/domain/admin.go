package domain

import "time"

// Admin roles
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Admin Model
type Admin struct {
	ID        uint       `gorm:"primaryKey" json:"id"`                         // Primary key
	Username  string     `gorm:"size:50;uniqueIndex;not null" json:"username"` // Unique login name
	Email     string     `gorm:"size:100;uniqueIndex;not null" json:"email"`   // Unique email
	Password  string     `gorm:"size:255;not null" json:"-"`                   // Hashed password
	FullName  string     `gorm:"size:100" json:"full_name"`                    // Display name
	Role      string     `gorm:"size:20;not null;default:admin" json:"role"`   // Role: admin or super_admin
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`       // Deactivated admins cannot log in
	LastLogin *time.Time `json:"last_login"`                                   // Last successful login
	CreatedAt time.Time  `json:"created_at"`                                   // Creation time
	UpdatedAt time.Time  `json:"updated_at"`                                   // Last update time
}

// ValidRole reports whether role is one of the known admin roles
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// PasswordResetToken Model
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AdminID   uint      `gorm:"index;not null" json:"admin_id"`
	Token     string    `gorm:"size:512;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityLog Model
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AdminID   uint      `gorm:"index" json:"admin_id"`
	Action    string    `gorm:"size:100;not null" json:"action"`
	Details   string    `gorm:"type:json" json:"details"` // JSON document
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the historical table name
func (ActivityLog) TableName() string { return "admin_activity_logs" }
