package shop

import (
	"context"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/storekit"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// Service is the validated business surface over the shop schema. All
// mutations validate input before touching the store and translate
// storekit errors into the shop taxonomy.
type Service struct {
	db        *storekit.DB
	customers *CustomerDAO
	products  *ProductDAO
	orders    *OrderDAO
	logger    *slog.Logger
}

func NewService(db *storekit.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		db:        db,
		customers: NewCustomerDAO(db),
		products:  NewProductDAO(db),
		orders:    NewOrderDAO(db),
		logger:    logger,
	}
}

// CreateCustomer validates and inserts a customer. The email must not
// already be registered.
func (s *Service) CreateCustomer(ctx context.Context, c *Customer) error {
	if err := validateCustomer(c); err != nil {
		return err
	}
	existing, err := s.GetCustomerByEmail(ctx, c.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return newError(KindConflict, "customer with email %q already exists", c.Email)
	}
	if err := s.customers.Create(ctx, s.db, c); err != nil {
		return translate(err, "customer")
	}
	s.logger.Info("customer created", "customer_id", c.ID, "email", c.Email)
	return nil
}

// GetCustomer returns the customer, or nil when no such customer
// exists. A read miss is a normal result, not an error.
func (s *Service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if storekit.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "customer")
	}
	return c, nil
}

// GetCustomerByEmail returns the customer with the given email, or nil
// when none is registered.
func (s *Service) GetCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	c, err := s.customers.GetByEmail(ctx, email)
	if storekit.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "customer")
	}
	return c, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	cs, err := s.customers.List(ctx)
	if err != nil {
		return nil, translate(err, "customers")
	}
	return cs, nil
}

// SearchCustomers matches name or email against term. limit is clamped
// to [1, 100]; offset below zero is treated as zero.
func (s *Service) SearchCustomers(ctx context.Context, term string, limit, offset int) ([]Customer, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	if offset < 0 {
		offset = 0
	}
	cs, err := s.customers.Search(ctx, term, limit, offset)
	if err != nil {
		return nil, translate(err, "customers")
	}
	return cs, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, c *Customer) error {
	if err := validateCustomer(c); err != nil {
		return err
	}
	if err := s.customers.Update(ctx, s.db, c); err != nil {
		return translate(err, "customer")
	}
	return nil
}

// DeleteCustomer removes a customer together with their orders and
// order lines in a single transaction.
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	err := s.db.Transaction(ctx, func(tx *storekit.Tx) error {
		_, err := storekit.DeleteWhere[OrderLine](ctx, tx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.Where("order_id IN (SELECT order_id FROM orders WHERE customer_id = ?)", id)
		})
		if err != nil {
			return err
		}
		_, err = storekit.DeleteWhere[Order](ctx, tx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.Where("customer_id = ?", id)
		})
		if err != nil {
			return err
		}
		return s.customers.Delete(ctx, tx, id)
	})
	if err != nil {
		return translate(err, "customer")
	}
	s.logger.Info("customer deleted", "customer_id", id)
	return nil
}

// CustomerStats returns order aggregates for a customer.
func (s *Service) CustomerStats(ctx context.Context, id int64) (*CustomerStats, error) {
	stats, err := s.customers.Stats(ctx, id)
	if err != nil {
		return nil, translate(err, "customer")
	}
	return stats, nil
}

// BatchCreateCustomers validates and inserts customers in one
// transaction, filling in generated IDs. Either all rows are persisted
// or none are.
func (s *Service) BatchCreateCustomers(ctx context.Context, customers []Customer) error {
	if len(customers) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(customers))
	for i := range customers {
		if err := validateCustomer(&customers[i]); err != nil {
			return err
		}
		if _, dup := seen[customers[i].Email]; dup {
			return newError(KindConflict, "duplicate email %q in batch", customers[i].Email)
		}
		seen[customers[i].Email] = struct{}{}
	}
	err := s.db.Transaction(ctx, func(tx *storekit.Tx) error {
		return storekit.InsertReturning(ctx, tx, &customers)
	})
	if err != nil {
		return translate(err, "customers")
	}
	s.logger.Info("customers created", "count", len(customers))
	return nil
}

// CreateProduct validates and inserts a product.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.products.Create(ctx, s.db, p); err != nil {
		return translate(err, "product")
	}
	return nil
}

// GetProduct returns the product, or nil when no such product exists.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := s.products.GetByID(ctx, s.db, id)
	if storekit.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "product")
	}
	return p, nil
}

// GetProductByName returns the product with the given name, or nil when
// none exists.
func (s *Service) GetProductByName(ctx context.Context, name string) (*Product, error) {
	p, err := s.products.GetByName(ctx, name)
	if storekit.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "product")
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	ps, err := s.products.List(ctx)
	if err != nil {
		return nil, translate(err, "products")
	}
	return ps, nil
}

func (s *Service) UpdateProduct(ctx context.Context, p *Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.products.Update(ctx, s.db, p); err != nil {
		return translate(err, "product")
	}
	return nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, s.db, id); err != nil {
		return translate(err, "product")
	}
	return nil
}

// PlaceOrder creates an order and its lines in one transaction. Lines
// with a zero unit price take the current catalog price. The order date
// defaults to today.
func (s *Service) PlaceOrder(ctx context.Context, customerID int64, orderDate time.Time, lines []OrderLine) (*Order, error) {
	if len(lines) == 0 {
		return nil, newError(KindInvalidInput, "order must have at least one line")
	}
	for i := range lines {
		if err := validateOrderLine(&lines[i]); err != nil {
			return nil, err
		}
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	order := &Order{OrderDate: orderDate, CustomerID: customerID}
	err := s.db.Transaction(ctx, func(tx *storekit.Tx) error {
		if err := s.orders.Create(ctx, tx, order); err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
			if lines[i].UnitPrice == 0 {
				// Read the catalog price on the transaction's own
				// connection; a pool borrow here could deadlock an
				// exhausted pool.
				p, err := s.products.GetByID(ctx, tx, lines[i].ProductID)
				if err != nil {
					return err
				}
				lines[i].UnitPrice = p.Price
			}
		}
		_, err := s.orders.AddLines(ctx, tx, lines)
		return err
	})
	if err != nil {
		return nil, translate(err, "order")
	}
	s.logger.Info("order placed", "order_id", order.ID, "customer_id", customerID, "lines", len(lines))
	return order, nil
}

// AddOrderLines appends lines to an existing order in one transaction.
func (s *Service) AddOrderLines(ctx context.Context, orderID int64, lines []OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		if err := validateOrderLine(&lines[i]); err != nil {
			return err
		}
		lines[i].OrderID = orderID
	}
	if _, err := s.orders.AddLines(ctx, s.db, lines); err != nil {
		return translate(err, "order lines")
	}
	return nil
}

// GetOrder returns the order, or nil when no such order exists.
func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if storekit.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err, "order")
	}
	return o, nil
}

func (s *Service) OrdersByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	os, err := s.orders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, translate(err, "orders")
	}
	return os, nil
}

func (s *Service) OrderLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	ls, err := s.orders.Lines(ctx, orderID)
	if err != nil {
		return nil, translate(err, "order lines")
	}
	return ls, nil
}

// OrderTotal sums quantity * unit price over an order's lines.
func (s *Service) OrderTotal(ctx context.Context, orderID int64) (float64, error) {
	ls, err := s.OrderLines(ctx, orderID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, l := range ls {
		total += float64(l.Quantity) * l.UnitPrice
	}
	return total, nil
}

// DeleteOrder removes an order and its lines in one transaction.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	err := s.db.Transaction(ctx, func(tx *storekit.Tx) error {
		if _, err := s.orders.DeleteLines(ctx, tx, id); err != nil {
			return err
		}
		return s.orders.Delete(ctx, tx, id)
	})
	if err != nil {
		return translate(err, "order")
	}
	return nil
}
