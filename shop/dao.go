package shop

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/storekit"
)

// CustomerDAO provides direct access to the customer table. It performs
// no validation; use Service for the validated surface.
type CustomerDAO struct {
	db *storekit.DB
}

func NewCustomerDAO(db *storekit.DB) *CustomerDAO {
	return &CustomerDAO{db: db}
}

func (d *CustomerDAO) Create(ctx context.Context, db storekit.IDB, c *Customer) error {
	return storekit.CreateReturning(ctx, db, c)
}

func (d *CustomerDAO) GetByID(ctx context.Context, id int64) (*Customer, error) {
	c := &Customer{ID: id}
	if err := storekit.FindByPK(ctx, d.db, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *CustomerDAO) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	return storekit.FindOne[Customer](ctx, d.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", email)
	})
}

func (d *CustomerDAO) List(ctx context.Context) ([]Customer, error) {
	return storekit.FindAll[Customer](ctx, d.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("customer_id ASC")
	})
}

// Search matches name or email case-insensitively, newest first.
func (d *CustomerDAO) Search(ctx context.Context, term string, limit, offset int) ([]Customer, error) {
	pattern := "%" + term + "%"
	return storekit.FindAll[Customer](ctx, d.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern).
			OrderExpr("customer_id DESC").
			Limit(limit).
			Offset(offset)
	})
}

func (d *CustomerDAO) Update(ctx context.Context, db storekit.IDB, c *Customer) error {
	return storekit.Update(ctx, db, c)
}

func (d *CustomerDAO) Delete(ctx context.Context, db storekit.IDB, id int64) error {
	return storekit.Delete(ctx, db, &Customer{ID: id})
}

// Stats aggregates order history for one customer. A customer with no
// orders gets zero counts, not an error.
func (d *CustomerDAO) Stats(ctx context.Context, id int64) (*CustomerStats, error) {
	return storekit.RawOne[CustomerStats](ctx, d.db, `
SELECT c.customer_id,
       COUNT(DISTINCT o.order_id)                 AS total_orders,
       COALESCE(SUM(op.quantity * op.unit_price), 0) AS total_spent,
       COALESCE(SUM(op.quantity * op.unit_price), 0) /
           GREATEST(COUNT(DISTINCT o.order_id), 1)   AS avg_order_value,
       COUNT(DISTINCT op.product_id)              AS distinct_products
FROM customer c
LEFT JOIN orders o        ON o.customer_id = c.customer_id
LEFT JOIN order_product op ON op.order_id = o.order_id
WHERE c.customer_id = ?
GROUP BY c.customer_id`, id)
}

// ProductDAO provides direct access to the product table.
type ProductDAO struct {
	db *storekit.DB
}

func NewProductDAO(db *storekit.DB) *ProductDAO {
	return &ProductDAO{db: db}
}

func (d *ProductDAO) Create(ctx context.Context, db storekit.IDB, p *Product) error {
	return storekit.CreateReturning(ctx, db, p)
}

// GetByID reads a product on db, which may be an open transaction. It
// takes the executor explicitly so callers already holding a
// transaction do not borrow a second connection.
func (d *ProductDAO) GetByID(ctx context.Context, db storekit.IDB, id int64) (*Product, error) {
	p := &Product{ID: id}
	if err := storekit.FindByPK(ctx, db, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (d *ProductDAO) GetByName(ctx context.Context, name string) (*Product, error) {
	return storekit.FindOne[Product](ctx, d.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("product_name = ?", name)
	})
}

func (d *ProductDAO) List(ctx context.Context) ([]Product, error) {
	return storekit.FindAll[Product](ctx, d.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("product_id ASC")
	})
}

func (d *ProductDAO) Update(ctx context.Context, db storekit.IDB, p *Product) error {
	return storekit.Update(ctx, db, p)
}

func (d *ProductDAO) Delete(ctx context.Context, db storekit.IDB, id int64) error {
	return storekit.Delete(ctx, db, &Product{ID: id})
}

// OrderDAO provides direct access to the orders and order_product tables.
type OrderDAO struct {
	db *storekit.DB
}

func NewOrderDAO(db *storekit.DB) *OrderDAO {
	return &OrderDAO{db: db}
}

func (d *OrderDAO) Create(ctx context.Context, db storekit.IDB, o *Order) error {
	return storekit.CreateReturning(ctx, db, o)
}

func (d *OrderDAO) GetByID(ctx context.Context, id int64) (*Order, error) {
	o := &Order{ID: id}
	if err := storekit.FindByPK(ctx, d.db, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (d *OrderDAO) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	return storekit.FindAll[Order](ctx, d.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("customer_id = ?", customerID).OrderExpr("order_id ASC")
	})
}

func (d *OrderDAO) Lines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	return storekit.FindAll[OrderLine](ctx, d.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("order_id = ?", orderID).OrderExpr("product_id ASC")
	})
}

// AddLines inserts order lines in one statement-per-row batch on db,
// which may be an open transaction.
func (d *OrderDAO) AddLines(ctx context.Context, db storekit.IDB, lines []OrderLine) ([]int64, error) {
	rows := make([][]any, len(lines))
	for i, l := range lines {
		rows[i] = []any{l.OrderID, l.ProductID, l.Quantity, l.UnitPrice}
	}
	return storekit.ExecBatch(ctx, db,
		"INSERT INTO order_product (order_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?)",
		rows)
}

func (d *OrderDAO) DeleteLines(ctx context.Context, db storekit.IDB, orderID int64) (int64, error) {
	return storekit.DeleteWhere[OrderLine](ctx, db, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("order_id = ?", orderID)
	})
}

func (d *OrderDAO) Delete(ctx context.Context, db storekit.IDB, id int64) error {
	return storekit.Delete(ctx, db, &Order{ID: id})
}
