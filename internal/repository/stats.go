package repository

import (
	"context" // Context for queries
	"time"    // Month boundaries

	"storefront/internal/db" // Data-access helper

	"github.com/shopspring/decimal" // Money
)

// LowStockThreshold is the stock level at or below which a managed product is reported
const LowStockThreshold = 10

// LowStockProduct is a product running out of stock
type LowStockProduct struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	SKU           *string `gorm:"column:sku" json:"sku"`
	StockQuantity int     `json:"stock_quantity"`
}

// TopProduct is a best seller by quantity
type TopProduct struct {
	Name         string `json:"name"`
	SoldQuantity int64  `json:"sold_quantity"`
}

// Dashboard is the back-office summary
type Dashboard struct {
	Products         int64             `json:"products"`
	Categories       int64             `json:"categories"`
	Orders           int64             `json:"orders"`
	Customers        int64             `json:"customers"`
	MonthlySales     decimal.Decimal   `json:"monthly_sales"`
	LowStockProducts []LowStockProduct `json:"low_stock_products"`
	RecentOrders     []OrderRow        `json:"recent_orders"`
	TopProducts      []TopProduct      `json:"top_products"`
}

// StatsRepo computes dashboard figures
type StatsRepo struct {
	db     *db.DB
	orders *OrderRepo
}

// Dashboard gathers counts, sales for the calendar month containing at, and the short lists
func (r *StatsRepo) Dashboard(ctx context.Context, at time.Time) (*Dashboard, error) {
	d := &Dashboard{
		LowStockProducts: []LowStockProduct{},
		RecentOrders:     []OrderRow{},
		TopProducts:      []TopProduct{},
	}
	counts := []struct {
		dest *int64
		sql  string
	}{
		{&d.Products, "SELECT COUNT(*) AS count FROM products WHERE is_active = 1"},
		{&d.Categories, "SELECT COUNT(*) AS count FROM categories WHERE is_active = 1"},
	}
	for _, c := range counts {
		if _, err := r.db.GetOne(ctx, c.dest, c.sql); err != nil {
			return nil, err
		}
	}
	var err error
	if d.Orders, err = r.db.TableCount(ctx, "orders"); err != nil {
		return nil, err
	}
	if d.Customers, err = r.db.TableCount(ctx, "customers"); err != nil {
		return nil, err
	}

	monthStart := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, at.Location())
	if _, err := r.db.GetOne(ctx, &d.MonthlySales, `SELECT COALESCE(SUM(total_amount), 0) AS total
		FROM orders
		WHERE created_at >= ? AND created_at < ? AND status NOT IN ('cancelled', 'refunded')`,
		monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return nil, err
	}

	if err := r.db.Query(ctx, &d.LowStockProducts, `SELECT id, name, sku, stock_quantity
		FROM products
		WHERE stock_quantity <= ? AND manage_stock = 1 AND is_active = 1
		ORDER BY stock_quantity ASC LIMIT 5`, LowStockThreshold); err != nil {
		return nil, err
	}

	if d.RecentOrders, err = r.orders.Recent(ctx, 10); err != nil {
		return nil, err
	}

	if err := r.db.Query(ctx, &d.TopProducts, `SELECT p.name, SUM(oi.quantity) AS sold_quantity
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		JOIN orders o ON oi.order_id = o.id
		WHERE o.status NOT IN ('cancelled', 'refunded')
		GROUP BY p.id, p.name
		ORDER BY sold_quantity DESC
		LIMIT 5`); err != nil {
		return nil, err
	}
	return d, nil
}
