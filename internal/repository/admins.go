package repository

import (
	"context" // Context for queries
	"time"    // Login timestamps

	"storefront/internal/db"     // Data-access helper
	"storefront/internal/domain" // Importing domain models
)

const adminColumns = "id, username, email, password, full_name, role, is_active, last_login, created_at, updated_at"

var adminUpdatable = map[string]bool{
	"username": true, "email": true, "full_name": true, "role": true, "is_active": true,
}

// AdminRepo reads and writes back-office accounts
type AdminRepo struct {
	db *db.DB
}

func (r *AdminRepo) one(ctx context.Context, where string, args ...any) (*domain.Admin, error) {
	var a domain.Admin
	found, err := r.db.GetOne(ctx, &a, "SELECT "+adminColumns+" FROM admins WHERE "+where+" LIMIT 1", args...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &a, nil
}

// FindByID loads an admin by id
func (r *AdminRepo) FindByID(ctx context.Context, id uint) (*domain.Admin, error) {
	return r.one(ctx, "id = ?", id)
}

// FindByLogin loads an admin whose username or email equals login
func (r *AdminRepo) FindByLogin(ctx context.Context, login string) (*domain.Admin, error) {
	return r.one(ctx, "username = ? OR email = ?", login, login)
}

// FindActiveByEmail loads an active admin by email
func (r *AdminRepo) FindActiveByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.one(ctx, "email = ? AND is_active = 1", email)
}

// List returns every admin, newest first
func (r *AdminRepo) List(ctx context.Context) ([]domain.Admin, error) {
	admins := []domain.Admin{}
	err := r.db.Query(ctx, &admins, "SELECT "+adminColumns+" FROM admins ORDER BY created_at DESC")
	return admins, err
}

// Create inserts a with its already hashed password and returns the new id
func (r *AdminRepo) Create(ctx context.Context, a *domain.Admin) (uint, error) {
	ts := now()
	id, err := r.db.Insert(ctx,
		"INSERT INTO admins (username, email, password, full_name, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.Username, a.Email, a.Password, a.FullName, a.Role, a.IsActive, ts, ts)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Update sets the given columns (username, email, full_name, role, is_active)
func (r *AdminRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	return updateColumns(ctx, r.db, "admins", id, fields, adminUpdatable)
}

// Delete removes an admin; false means no such admin
func (r *AdminRepo) Delete(ctx context.Context, id uint) (bool, error) {
	n, err := r.db.Delete(ctx, "DELETE FROM admins WHERE id = ?", id)
	return n > 0, err
}

// TouchLogin records a successful login
func (r *AdminRepo) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	_, err := r.db.Update(ctx, "UPDATE admins SET last_login = ? WHERE id = ?", at, id)
	return err
}

// SetPassword replaces the stored hash
func (r *AdminRepo) SetPassword(ctx context.Context, id uint, hash string) error {
	n, err := r.db.Update(ctx, "UPDATE admins SET password = ?, updated_at = ? WHERE id = ?", hash, now(), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UsernameTaken reports whether another admin than exceptID uses username
func (r *AdminRepo) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var one int
	return r.db.GetOne(ctx, &one, "SELECT 1 FROM admins WHERE username = ? AND id <> ? LIMIT 1", username, exceptID)
}

// EmailTaken reports whether another admin than exceptID uses email
func (r *AdminRepo) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var one int
	return r.db.GetOne(ctx, &one, "SELECT 1 FROM admins WHERE email = ? AND id <> ? LIMIT 1", email, exceptID)
}
