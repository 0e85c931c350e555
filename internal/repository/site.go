package repository

import (
	"context"       // Context for queries
	"encoding/json" // Typed setting values and activity details
	"strconv"       // Number settings
	"time"          // Token expiry

	"storefront/internal/db"     // Data-access helper
	"storefront/internal/domain" // Importing domain models
)

// SettingRepo reads and writes site settings
type SettingRepo struct {
	db *db.DB
}

// SettingValue is one key/value pair sent by the settings form
type SettingValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// All returns every setting ordered by key
func (r *SettingRepo) All(ctx context.Context) ([]domain.SiteSetting, error) {
	settings := []domain.SiteSetting{}
	err := r.db.Query(ctx, &settings, "SELECT * FROM site_settings ORDER BY setting_key")
	return settings, err
}

// Update writes every value in one transaction and returns how many settings changed.
// Unknown keys are skipped.
func (r *SettingRepo) Update(ctx context.Context, values []SettingValue) (int64, error) {
	var changed int64
	err := r.db.Transaction(ctx, func(tx *db.DB) error {
		ts := now()
		for _, v := range values {
			n, err := tx.Update(ctx, "UPDATE site_settings SET setting_value = ?, updated_at = ? WHERE setting_key = ?", v.Value, ts, v.Key)
			if err != nil {
				return err
			}
			changed += n
		}
		return nil
	})
	return changed, err
}

// Config returns every setting converted to its declared type
func (r *SettingRepo) Config(ctx context.Context) (map[string]any, error) {
	settings, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return TypedSettings(settings), nil
}

// TypedSettings converts settings into a key to typed value map. Values that fail to
// parse as their declared type are kept as strings.
func TypedSettings(settings []domain.SiteSetting) map[string]any {
	config := make(map[string]any, len(settings))
	for _, s := range settings {
		config[s.SettingKey] = typedValue(s)
	}
	return config
}

func typedValue(s domain.SiteSetting) any {
	switch s.SettingType {
	case domain.SettingNumber:
		if f, err := strconv.ParseFloat(s.SettingValue, 64); err == nil {
			return f
		}
	case domain.SettingBoolean:
		return s.SettingValue == "true"
	case domain.SettingJSON:
		var v any
		if err := json.Unmarshal([]byte(s.SettingValue), &v); err == nil {
			return v
		}
	}
	return s.SettingValue
}

// NewsletterRepo stores newsletter subscriptions
type NewsletterRepo struct {
	db *db.DB
}

// Subscribe adds email; an existing subscription yields ErrDuplicate
func (r *NewsletterRepo) Subscribe(ctx context.Context, email string) error {
	exists, err := r.db.Exists(ctx, "newsletter_subscribers", map[string]any{"email": email})
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicate
	}
	_, err = r.db.Insert(ctx, "INSERT INTO newsletter_subscribers (email, is_active, subscribed_at) VALUES (?, ?, ?)", email, true, now())
	return err
}

// List returns one page of subscribers, newest first
func (r *NewsletterRepo) List(ctx context.Context, search string, page, limit int) ([]domain.NewsletterSubscriber, db.Pagination, error) {
	var w filter
	if search != "" {
		cond, args := db.SearchIn(search, []string{"email"})
		w.add(cond, args...)
	}
	subs := []domain.NewsletterSubscriber{}
	p, err := r.db.Paginate(ctx, &subs, "SELECT * FROM newsletter_subscribers"+w.where()+" ORDER BY subscribed_at DESC, id DESC", w.args, page, limit)
	return subs, p, err
}

// Delete removes a subscriber
func (r *NewsletterRepo) Delete(ctx context.Context, id uint) error {
	n, err := r.db.Delete(ctx, "DELETE FROM newsletter_subscribers WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PageRepo reads static content pages
type PageRepo struct {
	db *db.DB
}

// FindBySlug loads an active page
func (r *PageRepo) FindBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	var p domain.Page
	found, err := r.db.GetOne(ctx, &p, "SELECT * FROM pages WHERE slug = ? AND is_active = 1", slug)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ResetTokenRepo stores password reset tokens
type ResetTokenRepo struct {
	db *db.DB
}

// Create stores a token for adminID valid until expiresAt
func (r *ResetTokenRepo) Create(ctx context.Context, adminID uint, token string, expiresAt time.Time) error {
	_, err := r.db.Insert(ctx,
		"INSERT INTO password_reset_tokens (admin_id, token, expires_at, used, created_at) VALUES (?, ?, ?, ?, ?)",
		adminID, token, expiresAt, false, now())
	return err
}

// Consume marks token used and sets the admin's password hash in one transaction.
// A used, expired or unknown token yields ErrNotFound and changes nothing.
func (r *ResetTokenRepo) Consume(ctx context.Context, token, passwordHash string, at time.Time) (uint, error) {
	var adminID uint
	err := r.db.Transaction(ctx, func(tx *db.DB) error {
		n, err := tx.Update(ctx,
			"UPDATE password_reset_tokens SET used = 1 WHERE token = ? AND used = 0 AND expires_at > ?", token, at)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		if _, err := tx.GetOne(ctx, &adminID, "SELECT admin_id FROM password_reset_tokens WHERE token = ?", token); err != nil {
			return err
		}
		n, err = tx.Update(ctx, "UPDATE admins SET password = ?, updated_at = ? WHERE id = ?", passwordHash, now(), adminID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return adminID, nil
}

// ActivityRepo records back-office actions
type ActivityRepo struct {
	db *db.DB
}

// ActivityRow is a log entry with the acting admin's username
type ActivityRow struct {
	domain.ActivityLog
	Username *string `json:"username"`
}

// Log stores one action with its details encoded as JSON
func (r *ActivityRepo) Log(ctx context.Context, adminID uint, action string, details map[string]any, ip string) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	if ip == "" {
		ip = "unknown"
	}
	_, err = r.db.Insert(ctx,
		"INSERT INTO admin_activity_logs (admin_id, action, details, ip_address, created_at) VALUES (?, ?, ?, ?, ?)",
		adminID, action, string(raw), ip, now())
	return err
}

// List returns one page of log entries, newest first, optionally for one admin or action
func (r *ActivityRepo) List(ctx context.Context, adminID uint, action string, page, limit int) ([]ActivityRow, db.Pagination, error) {
	var w filter
	if adminID != 0 {
		w.add("l.admin_id = ?", adminID)
	}
	if action != "" {
		w.add("l.action = ?", action)
	}
	rows := []ActivityRow{}
	p, err := r.db.Paginate(ctx, &rows, `SELECT l.*, a.username
		FROM admin_activity_logs l
		LEFT JOIN admins a ON l.admin_id = a.id`+w.where()+" ORDER BY l.created_at DESC, l.id DESC", w.args, page, limit)
	return rows, p, err
}
