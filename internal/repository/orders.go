package repository

import (
	"context" // Context for queries
	"fmt"     // Error wrapping
	"sort"    // Lock ordering
	"strings" // Order numbers
	"time"    // Order numbers

	"storefront/internal/db"     // Data-access helper
	"storefront/internal/domain" // Importing domain models

	"github.com/google/uuid"        // Order number suffix
	"github.com/shopspring/decimal" // Money
)

// OrderRow is an order joined with its customer's contact fields
type OrderRow struct {
	domain.Order
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone,omitempty"`
}

// OrderItemRow is an order line with the current product SKU
type OrderItemRow struct {
	domain.OrderItem
	ProductSKU *string `json:"product_sku"`
}

// OrderDetail is an order with its lines
type OrderDetail struct {
	OrderRow
	Items []OrderItemRow `gorm:"-" json:"items"`
}

// CustomerInput carries the customer fields collected at checkout
type CustomerInput struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string
}

// OrderLine is one requested product and quantity
type OrderLine struct {
	ProductID uint
	Quantity  int
}

// ProductError reports which order line could not be fulfilled
type ProductError struct {
	Err       error
	ProductID uint
	Name      string
	Available int
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("product %d: %v", e.ProductID, e.Err)
}

func (e *ProductError) Unwrap() error { return e.Err }

// OrderInput is a checkout request
type OrderInput struct {
	Customer        CustomerInput
	Items           []OrderLine
	ShippingAmount  decimal.Decimal
	ShippingAddress string
	Notes           string
}

const orderJoined = `SELECT o.*, c.first_name, c.last_name, c.email, c.phone
	FROM orders o
	LEFT JOIN customers c ON o.customer_id = c.id`

// OrderRepo reads and writes orders
type OrderRepo struct {
	db *db.DB
}

// NewOrderNumber returns a unique, human readable order number
func NewOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD-" + at.Format("20060102") + "-" + suffix
}

// mergeLines sums quantities per product and sorts by product id so row locks are always taken in the same order
func mergeLines(lines []OrderLine) []OrderLine {
	qty := make(map[uint]int, len(lines))
	for _, l := range lines {
		qty[l.ProductID] += l.Quantity
	}
	merged := make([]OrderLine, 0, len(qty))
	for id, q := range qty {
		merged = append(merged, OrderLine{ProductID: id, Quantity: q})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged
}

type lockedProduct struct {
	ID            uint
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	ManageStock   bool
	IsActive      bool
}

// Place creates the customer (or refreshes it by email), the order and its lines, and
// decrements stock, all in one transaction. Products are locked while stock is checked.
func (r *OrderRepo) Place(ctx context.Context, in OrderInput) (*domain.Order, error) {
	lines := mergeLines(in.Items)
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}

	var order domain.Order
	err := r.db.Transaction(ctx, func(tx *db.DB) error {
		ts := now()
		customerID, err := customerForOrder(ctx, tx, in.Customer, ts)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		items := make([]domain.OrderItem, 0, len(lines))
		for _, line := range lines {
			var p lockedProduct
			found, err := tx.GetOne(ctx, &p,
				"SELECT id, name, price, stock_quantity, manage_stock, is_active FROM products WHERE id = ? FOR UPDATE", line.ProductID)
			if err != nil {
				return err
			}
			if !found || !p.IsActive {
				return &ProductError{Err: ErrProductUnavailable, ProductID: line.ProductID}
			}
			if p.ManageStock && p.StockQuantity < line.Quantity {
				return &ProductError{Err: ErrInsufficientStock, ProductID: p.ID, Name: p.Name, Available: p.StockQuantity}
			}
			pid := p.ID
			total := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(total)
			items = append(items, domain.OrderItem{
				ProductID:   &pid,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitPrice:   p.Price,
				TotalPrice:  total,
			})
			if p.ManageStock {
				if _, err := tx.Update(ctx,
					"UPDATE products SET stock_quantity = stock_quantity - ?, updated_at = ? WHERE id = ?",
					line.Quantity, ts, p.ID); err != nil {
					return err
				}
			}
		}

		order = domain.Order{
			OrderNumber:     NewOrderNumber(ts),
			CustomerID:      &customerID,
			Status:          domain.OrderPending,
			Subtotal:        subtotal,
			ShippingAmount:  in.ShippingAmount,
			TotalAmount:     subtotal.Add(in.ShippingAmount),
			ShippingAddress: in.ShippingAddress,
			Notes:           in.Notes,
			CreatedAt:       ts,
			UpdatedAt:       ts,
		}
		id, err := tx.Insert(ctx, `INSERT INTO orders (
			order_number, customer_id, status, subtotal, shipping_amount, total_amount,
			shipping_address, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.OrderNumber, customerID, string(order.Status), order.Subtotal, order.ShippingAmount, order.TotalAmount,
			order.ShippingAddress, order.Notes, ts, ts)
		if err != nil {
			return err
		}
		order.ID = uint(id)

		for _, it := range items {
			if _, err := tx.Insert(ctx,
				"INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
				order.ID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.TotalPrice, ts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// customerForOrder returns the id of the customer with c.Email, creating one when none exists.
// An existing customer's stored details are left unchanged.
func customerForOrder(ctx context.Context, tx *db.DB, c CustomerInput, ts time.Time) (uint, error) {
	var id uint
	found, err := tx.GetOne(ctx, &id, "SELECT id FROM customers WHERE email = ? FOR UPDATE", c.Email)
	if err != nil || found {
		return id, err
	}
	newID, err := tx.Insert(ctx, `INSERT INTO customers (
		first_name, last_name, email, phone, address, city, postal_code, country, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.City, c.PostalCode, c.Country, ts, ts)
	return uint(newID), err
}

// List returns one page of orders, optionally by status and matching search
func (r *OrderRepo) List(ctx context.Context, status, search string, page, limit int) ([]OrderRow, db.Pagination, error) {
	var w filter
	if status != "" {
		w.add("o.status = ?", status)
	}
	if search != "" {
		cond, args := db.SearchIn(search, []string{"o.order_number", "c.first_name", "c.last_name", "c.email"})
		w.add(cond, args...)
	}
	rows := []OrderRow{}
	p, err := r.db.Paginate(ctx, &rows, orderJoined+w.where()+" ORDER BY o.created_at DESC, o.id DESC", w.args, page, limit)
	return rows, p, err
}

// Recent returns the latest limit orders
func (r *OrderRepo) Recent(ctx context.Context, limit int) ([]OrderRow, error) {
	rows := []OrderRow{}
	err := r.db.Query(ctx, &rows, orderJoined+" ORDER BY o.created_at DESC, o.id DESC "+db.BuildLimit(limit, 0))
	return rows, err
}

// FindByID loads an order with its lines
func (r *OrderRepo) FindByID(ctx context.Context, id uint) (*OrderDetail, error) {
	var d OrderDetail
	found, err := r.db.GetOne(ctx, &d.OrderRow, orderJoined+" WHERE o.id = ?", id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	d.Items = []OrderItemRow{}
	err = r.db.Query(ctx, &d.Items, `SELECT oi.*, p.sku AS product_sku
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ? ORDER BY oi.id`, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateStatus sets the status and returns the order number
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus) (string, error) {
	var number string
	found, err := r.db.GetOne(ctx, &number, "SELECT order_number FROM orders WHERE id = ?", id)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	_, err = r.db.Update(ctx, "UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", string(status), now(), id)
	return number, err
}

// CustomerRow is a customer with order totals
type CustomerRow struct {
	domain.Customer
	OrderCount int64           `json:"order_count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// CustomerDetail is a customer with their orders
type CustomerDetail struct {
	CustomerRow
	Orders []domain.Order `gorm:"-" json:"orders"`
}

var customerUpdatable = map[string]bool{
	"first_name": true, "last_name": true, "email": true, "phone": true, "address": true,
	"city": true, "postal_code": true, "country": true,
}

const customerTotals = `SELECT c.*, COUNT(o.id) AS order_count,
	COALESCE(SUM(CASE WHEN o.status NOT IN ('cancelled', 'refunded') THEN o.total_amount ELSE 0 END), 0) AS total_spent
	FROM customers c
	LEFT JOIN orders o ON o.customer_id = c.id`

// CustomerRepo reads and writes customers
type CustomerRepo struct {
	db *db.DB
}

// List returns one page of customers matching search
func (r *CustomerRepo) List(ctx context.Context, search string, page, limit int) ([]CustomerRow, db.Pagination, error) {
	var w filter
	if search != "" {
		cond, args := db.SearchIn(search, []string{"c.first_name", "c.last_name", "c.email", "c.phone"})
		w.add(cond, args...)
	}
	rows := []CustomerRow{}
	p, err := r.db.Paginate(ctx, &rows, customerTotals+w.where()+" GROUP BY c.id ORDER BY c.created_at DESC, c.id DESC", w.args, page, limit)
	return rows, p, err
}

// FindByID loads a customer with totals and orders
func (r *CustomerRepo) FindByID(ctx context.Context, id uint) (*CustomerDetail, error) {
	var d CustomerDetail
	found, err := r.db.GetOne(ctx, &d.CustomerRow, customerTotals+" WHERE c.id = ? GROUP BY c.id", id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	d.Orders = []domain.Order{}
	if err := r.db.Query(ctx, &d.Orders, "SELECT * FROM orders WHERE customer_id = ? ORDER BY created_at DESC", id); err != nil {
		return nil, err
	}
	return &d, nil
}

// EmailTaken reports whether a customer other than exceptID uses email
func (r *CustomerRepo) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var one int
	return r.db.GetOne(ctx, &one, "SELECT 1 FROM customers WHERE email = ? AND id <> ? LIMIT 1", email, exceptID)
}

// Create inserts a customer; a used email yields ErrDuplicate
func (r *CustomerRepo) Create(ctx context.Context, c CustomerInput) (uint, error) {
	taken, err := r.EmailTaken(ctx, c.Email, 0)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, ErrDuplicate
	}
	ts := now()
	id, err := r.db.Insert(ctx, `INSERT INTO customers (
		first_name, last_name, email, phone, address, city, postal_code, country, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Address, c.City, c.PostalCode, c.Country, ts, ts)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Update sets the given customer columns
func (r *CustomerRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	return updateColumns(ctx, r.db, "customers", id, fields, customerUpdatable)
}

// Delete removes a customer; their orders are kept and detached
func (r *CustomerRepo) Delete(ctx context.Context, id uint) error {
	return r.db.Transaction(ctx, func(tx *db.DB) error {
		if _, err := tx.Update(ctx, "UPDATE orders SET customer_id = NULL WHERE customer_id = ?", id); err != nil {
			return err
		}
		n, err := tx.Delete(ctx, "DELETE FROM customers WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
