package shop

import "github.com/fernandezvara/storekit"

// Migrations is the ordered schema history for the shop database.
// Pass it to storekit.NewLifecycle or db.Migrate.
var Migrations = []storekit.Migration{
	{
		ID:          "001",
		Description: "Create customer and product tables",
		SQL: `
CREATE TABLE customer (
    customer_id  BIGSERIAL PRIMARY KEY,
    name         VARCHAR(100) NOT NULL,
    email        VARCHAR(100) NOT NULL UNIQUE,
    phone_number VARCHAR(15)  NOT NULL
);

CREATE TABLE product (
    product_id   BIGSERIAL PRIMARY KEY,
    product_name VARCHAR(100) NOT NULL,
    price        NUMERIC(10,2) NOT NULL CHECK (price >= 0)
);
`,
	},
	{
		ID:          "002",
		Description: "Create orders and order_product tables",
		SQL: `
CREATE TABLE orders (
    order_id    BIGSERIAL PRIMARY KEY,
    order_date  DATE   NOT NULL,
    customer_id BIGINT NOT NULL REFERENCES customer (customer_id) ON DELETE CASCADE
);

CREATE INDEX orders_customer_id_idx ON orders (customer_id);

CREATE TABLE order_product (
    order_id   BIGINT NOT NULL REFERENCES orders (order_id)    ON DELETE CASCADE,
    product_id BIGINT NOT NULL REFERENCES product (product_id) ON DELETE CASCADE,
    quantity   INT           NOT NULL CHECK (quantity > 0),
    unit_price NUMERIC(10,2) NOT NULL CHECK (unit_price >= 0),
    PRIMARY KEY (order_id, product_id)
);
`,
	},
	{
		ID:          "003",
		Description: "Seed product catalog",
		SQL: `
INSERT INTO product (product_name, price) VALUES
    ('Laptop',     1200.00),
    ('Smartphone',  800.00),
    ('Headphones',  150.00),
    ('Monitor',     300.00),
    ('Keyboard',     45.50);
`,
	},
}
