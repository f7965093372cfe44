package shop

import (
	"time"

	"github.com/uptrace/bun"
)

// Customer is a registered buyer. Email is unique across the store.
type Customer struct {
	bun.BaseModel `bun:"table:customer,alias:c"`

	ID          int64  `bun:"customer_id,pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Email       string `bun:"email,notnull,unique"`
	PhoneNumber string `bun:"phone_number,notnull"`
}

// Product is a catalog entry. Price carries two decimal places.
type Product struct {
	bun.BaseModel `bun:"table:product,alias:p"`

	ID    int64   `bun:"product_id,pk,autoincrement"`
	Name  string  `bun:"product_name,notnull"`
	Price float64 `bun:"price,notnull"`
}

// Order is a purchase placed by a customer on a given date.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID         int64     `bun:"order_id,pk,autoincrement"`
	OrderDate  time.Time `bun:"order_date,notnull,type:date"`
	CustomerID int64     `bun:"customer_id,notnull"`
}

// OrderLine links an order to a product with the ordered quantity and
// the unit price at purchase time. The (order, product) pair is unique.
type OrderLine struct {
	bun.BaseModel `bun:"table:order_product,alias:op"`

	OrderID   int64   `bun:"order_id,pk"`
	ProductID int64   `bun:"product_id,pk"`
	Quantity  int     `bun:"quantity,notnull"`
	UnitPrice float64 `bun:"unit_price,notnull"`
}

// CustomerStats aggregates a customer's purchase history.
type CustomerStats struct {
	CustomerID       int64   `bun:"customer_id"`
	TotalOrders      int64   `bun:"total_orders"`
	TotalSpent       float64 `bun:"total_spent"`
	AvgOrderValue    float64 `bun:"avg_order_value"`
	DistinctProducts int64   `bun:"distinct_products"`
}
