package api

import (
	"context"
	"sync"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/go-sql-driver/mysql"
)

// duplicateKey builds the server error MySQL returns for a unique index violation
func duplicateKey(table, column, value string) error {
	return &mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry '" + value + "' for key '" + table + ".idx_" + table + "_" + column + "'",
	}
}

type fakeAdmins struct {
	mu      sync.Mutex
	byID    map[uint]*domain.Admin
	updates map[uint]map[string]any
	deleted []uint
}

func newFakeAdmins(admins ...*domain.Admin) *fakeAdmins {
	f := &fakeAdmins{byID: map[uint]*domain.Admin{}, updates: map[uint]map[string]any{}}
	for _, a := range admins {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeAdmins) FindByID(_ context.Context, id uint) (*domain.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdmins) FindByLogin(_ context.Context, login string) (*domain.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Username == login || a.Email == login {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdmins) FindActiveByEmail(_ context.Context, email string) (*domain.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == email && a.IsActive {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdmins) List(context.Context) ([]domain.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := []domain.Admin{}
	for _, a := range f.byID {
		list = append(list, *a)
	}
	return list, nil
}

func (f *fakeAdmins) Create(_ context.Context, a *domain.Admin) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = uint(len(f.byID) + 1)
	f.byID[a.ID] = a
	return a.ID, nil
}

func (f *fakeAdmins) Update(_ context.Context, id uint, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	f.updates[id] = fields
	return nil
}

func (f *fakeAdmins) Delete(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return true, nil
}

func (f *fakeAdmins) TouchLogin(_ context.Context, id uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.LastLogin = &at
	}
	return nil
}

func (f *fakeAdmins) SetPassword(_ context.Context, id uint, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.Password = hash
		return nil
	}
	return repository.ErrNotFound
}

func (f *fakeAdmins) UsernameTaken(_ context.Context, username string, exceptID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Username == username && a.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAdmins) EmailTaken(_ context.Context, email string, exceptID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.Email == email && a.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

// fakeTokens consumes each stored token once
type fakeTokens struct {
	mu      sync.Mutex
	tokens  map[string]uint
	used    map[string]bool
	hashes  map[uint]string
	created int
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]uint{}, used: map[string]bool{}, hashes: map[uint]string{}}
}

func (f *fakeTokens) Create(_ context.Context, adminID uint, token string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = adminID
	f.created++
	return nil
}

func (f *fakeTokens) Consume(_ context.Context, token, hash string, _ time.Time) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[token]
	if !ok || f.used[token] {
		return 0, repository.ErrNotFound
	}
	f.used[token] = true
	f.hashes[id] = hash
	return id, nil
}

type activityEntry struct {
	AdminID uint
	Action  string
	Details map[string]any
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []activityEntry
}

func (f *fakeActivity) Log(_ context.Context, adminID uint, action string, details map[string]any, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, activityEntry{AdminID: adminID, Action: action, Details: details})
	return nil
}

func (f *fakeActivity) List(_ context.Context, _ uint, _ string, page, limit int) ([]repository.ActivityRow, db.Pagination, error) {
	return []repository.ActivityRow{}, db.NewPagination(page, limit, 0), nil
}

func (f *fakeActivity) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeProducts keeps products in memory; only the behavior the handlers exercise is modeled
type fakeProducts struct {
	mu       sync.Mutex
	slugRace bool
	slugs    map[string]bool
	created  []repository.ProductInput
	images   [][]string
	deleted  map[uint][]string
	total    int64
	lastList repository.ProductFilter
}

func newFakeProducts(slugs ...string) *fakeProducts {
	f := &fakeProducts{slugs: map[string]bool{}, deleted: map[uint][]string{}}
	for _, s := range slugs {
		f.slugs[s] = true
	}
	return f
}

func (f *fakeProducts) List(_ context.Context, filter repository.ProductFilter) ([]repository.ProductRow, db.Pagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = filter
	p := db.NewPagination(filter.Page, filter.Limit, f.total)
	rows := []repository.ProductRow{}
	start := int64((p.Page - 1) * p.Limit)
	for i := start; i < f.total && i < start+int64(p.Limit); i++ {
		rows = append(rows, repository.ProductRow{})
	}
	return rows, p, nil
}

func (f *fakeProducts) Search(context.Context, string, repository.ProductFilter, int, int) ([]repository.ProductRow, error) {
	return []repository.ProductRow{}, nil
}

func (f *fakeProducts) Featured(context.Context, int) ([]repository.ProductRow, error) {
	return []repository.ProductRow{}, nil
}

func (f *fakeProducts) Related(context.Context, *repository.ProductDetail, int) ([]repository.ProductRow, error) {
	return []repository.ProductRow{}, nil
}

func (f *fakeProducts) FindByID(context.Context, uint, bool) (*repository.ProductDetail, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeProducts) FindBySlug(context.Context, string) (*repository.ProductDetail, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeProducts) SlugExists(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slugs[slug], nil
}

func (f *fakeProducts) Create(_ context.Context, in repository.ProductInput, images []string) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugs[in.Slug] = true
	if f.slugRace {
		f.slugRace = false
		return 0, duplicateKey("products", "slug", in.Slug)
	}
	f.created = append(f.created, in)
	f.images = append(f.images, images)
	return uint(len(f.created)), nil
}

func (f *fakeProducts) Update(context.Context, uint, map[string]any, []string) error {
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id uint) (string, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	files, ok := f.deleted[id]
	if !ok {
		return "", nil, repository.ErrNotFound
	}
	delete(f.deleted, id)
	return "Producto", files, nil
}

func (f *fakeProducts) SetPrimaryImage(context.Context, uint, uint) error {
	return nil
}

func (f *fakeProducts) DeleteImage(context.Context, uint, uint) (string, error) {
	return "", repository.ErrNotFound
}

// fakeOrders fails placement with err when set
type fakeOrders struct {
	err    error
	placed []repository.OrderInput
}

func (f *fakeOrders) Place(_ context.Context, in repository.OrderInput) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.placed = append(f.placed, in)
	return &domain.Order{ID: 1, OrderNumber: "ORD-20240101-ABCDEF12", Status: domain.OrderPending}, nil
}

func (f *fakeOrders) List(_ context.Context, _, _ string, page, limit int) ([]repository.OrderRow, db.Pagination, error) {
	return []repository.OrderRow{}, db.NewPagination(page, limit, 0), nil
}

func (f *fakeOrders) FindByID(context.Context, uint) (*repository.OrderDetail, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeOrders) UpdateStatus(context.Context, uint, domain.OrderStatus) (string, error) {
	return "", repository.ErrNotFound
}

type fakeSettings struct {
	config map[string]any
}

func (f *fakeSettings) All(context.Context) ([]domain.SiteSetting, error) {
	return []domain.SiteSetting{}, nil
}

func (f *fakeSettings) Update(_ context.Context, values []repository.SettingValue) (int64, error) {
	return int64(len(values)), nil
}

func (f *fakeSettings) Config(context.Context) (map[string]any, error) {
	return f.config, nil
}

type fakeHealth struct {
	status string
}

func (f fakeHealth) Health(context.Context) db.PoolHealth {
	return db.PoolHealth{Status: f.status}
}

// fakeCategories fails the next Create with a slug violation when slugRace is set
type fakeCategories struct {
	rows     []repository.CategoryRow
	created  []domain.Category
	slugRace bool
}

func (f *fakeCategories) List(context.Context, bool, int) ([]repository.CategoryRow, error) {
	return append([]repository.CategoryRow{}, f.rows...), nil
}

func (f *fakeCategories) FindBySlug(_ context.Context, slug string) (*repository.CategoryRow, error) {
	for i := range f.rows {
		if f.rows[i].Slug == slug {
			return &f.rows[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCategories) FindByID(context.Context, uint) (*domain.Category, error) {
	return nil, repository.ErrNotFound
}

func (f *fakeCategories) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, r := range f.rows {
		if r.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategories) Create(_ context.Context, c *domain.Category) (uint, error) {
	f.rows = append(f.rows, repository.CategoryRow{Category: *c})
	if f.slugRace {
		f.slugRace = false
		return 0, duplicateKey("categories", "slug", c.Slug)
	}
	f.created = append(f.created, *c)
	return uint(len(f.created)), nil
}

func (f *fakeCategories) Update(context.Context, uint, map[string]any) error {
	return nil
}

func (f *fakeCategories) Delete(context.Context, uint) (*domain.Category, error) {
	return nil, repository.ErrNotFound
}
