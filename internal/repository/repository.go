// Package repository provides Postgres access for the ordering API.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/toledos-acai/api/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Errors returned by the repository.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrAddonNotFound   = errors.New("addon not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrAdminNotFound   = errors.New("admin not found")
	// ErrProductMissing is returned when an order item references a product
	// that was removed between snapshot and insert.
	ErrProductMissing = errors.New("order item references a missing product")
)

// DBTX is the subset of pgx methods the queries need. Satisfied by both
// *pgxpool.Pool and pgx.Tx, so the same Queries type works inside and
// outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the application's SQL against a DBTX.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given pool or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Connect opens a pgx pool, verifies connectivity and applies the embedded
// goose migrations.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// --- Catalog ---

// ListCategories returns all categories in display order.
func (q *Queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, name, slug, sort_order FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return categories, nil
}

// ListProducts returns active products, optionally filtered by category.
// Pass uuid.Nil for all categories.
func (q *Queries) ListProducts(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error) {
	query := `SELECT id, category_id, name, description, price, image_url, is_active
	          FROM products WHERE is_active = true`
	args := []any{}
	if categoryID != uuid.Nil {
		query += ` AND category_id = $1`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name`

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return products, nil
}

// GetProduct returns one active product.
func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, category_id, name, description, price, image_url, is_active
		 FROM products WHERE id = $1 AND is_active = true`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, ErrProductNotFound
		}
		return model.Product{}, err
	}
	return p, nil
}

// ListAddonsForProduct returns the active add-ons associated to a product.
func (q *Queries) ListAddonsForProduct(ctx context.Context, productID uuid.UUID) ([]model.Addon, error) {
	rows, err := q.db.Query(ctx,
		`SELECT a.id, a.name, a.price
		 FROM addons a
		 JOIN product_addons pa ON pa.addon_id = a.id
		 WHERE pa.product_id = $1 AND a.is_active = true
		 ORDER BY a.name`, productID)
	if err != nil {
		return nil, fmt.Errorf("select addons: %w", err)
	}
	defer rows.Close()

	var addons []model.Addon
	for rows.Next() {
		var a model.Addon
		var price pgtype.Numeric
		if err := rows.Scan(&a.ID, &a.Name, &price); err != nil {
			return nil, fmt.Errorf("scan addon: %w", err)
		}
		a.Price = numericToDecimal(price)
		addons = append(addons, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return addons, nil
}

// --- Checkout writes ---

type CreateCustomerParams struct {
	FullName string
	Phone    string
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (model.Customer, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO customers (full_name, phone) VALUES ($1, $2)
		 RETURNING id, full_name, phone, created_at`,
		arg.FullName, arg.Phone)

	var c model.Customer
	if err := row.Scan(&c.ID, &c.FullName, &c.Phone, &c.CreatedAt); err != nil {
		return model.Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

type CreateAddressParams struct {
	CustomerID uuid.UUID
	Cep        string
	Street     string
	Number     string
	District   string
}

func (q *Queries) CreateAddress(ctx context.Context, arg CreateAddressParams) (model.Address, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO addresses (customer_id, cep, street, number, district)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, customer_id, cep, street, number, district`,
		arg.CustomerID, arg.Cep, arg.Street, arg.Number, arg.District)

	var a model.Address
	if err := row.Scan(&a.ID, &a.CustomerID, &a.Cep, &a.Street, &a.Number, &a.District); err != nil {
		return model.Address{}, fmt.Errorf("insert address: %w", err)
	}
	return a, nil
}

type CreateOrderParams struct {
	CustomerID    uuid.UUID
	AddressID     uuid.UUID
	Total         decimal.Decimal
	PaymentMethod string
	Status        string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (model.Order, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO orders (customer_id, address_id, total, payment_method, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, customer_id, address_id, total, payment_method, status, created_at, updated_at`,
		arg.CustomerID, arg.AddressID, decimalToNumeric(arg.Total), arg.PaymentMethod, arg.Status)

	o, err := scanOrder(row)
	if err != nil {
		return model.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int32
	UnitPrice decimal.Decimal
	Extras    []model.Addon
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (model.OrderItem, error) {
	extras, err := json.Marshal(arg.Extras)
	if err != nil {
		return model.OrderItem{}, fmt.Errorf("marshal extras: %w", err)
	}

	row := q.db.QueryRow(ctx,
		`INSERT INTO order_items (order_id, product_id, quantity, unit_price, extras)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, order_id, product_id, quantity, unit_price, extras`,
		arg.OrderID, arg.ProductID, arg.Quantity, decimalToNumeric(arg.UnitPrice), extras)

	item, err := scanOrderItem(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return model.OrderItem{}, fmt.Errorf("%w: %s", ErrProductMissing, arg.ProductID)
		}
		return model.OrderItem{}, fmt.Errorf("insert order item: %w", err)
	}
	return item, nil
}

// --- Order reads & status ---

// GetOrderDetail returns the fully joined order view for the status page.
func (q *Queries) GetOrderDetail(ctx context.Context, id uuid.UUID) (model.OrderDetail, error) {
	row := q.db.QueryRow(ctx,
		`SELECT o.id, o.customer_id, o.address_id, o.total, o.payment_method, o.status,
		        o.created_at, o.updated_at,
		        c.id, c.full_name, c.phone, c.created_at,
		        a.id, a.customer_id, a.cep, a.street, a.number, a.district
		 FROM orders o
		 JOIN customers c ON c.id = o.customer_id
		 JOIN addresses a ON a.id = o.address_id
		 WHERE o.id = $1`, id)

	var d model.OrderDetail
	var total pgtype.Numeric
	err := row.Scan(
		&d.ID, &d.CustomerID, &d.AddressID, &total, &d.PaymentMethod, &d.Status,
		&d.CreatedAt, &d.UpdatedAt,
		&d.Customer.ID, &d.Customer.FullName, &d.Customer.Phone, &d.Customer.CreatedAt,
		&d.Address.ID, &d.Address.CustomerID, &d.Address.Cep, &d.Address.Street,
		&d.Address.Number, &d.Address.District,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OrderDetail{}, ErrOrderNotFound
		}
		return model.OrderDetail{}, fmt.Errorf("select order: %w", err)
	}
	d.Total = numericToDecimal(total)

	items, err := q.listOrderItemDetails(ctx, d.ID)
	if err != nil {
		return model.OrderDetail{}, err
	}
	d.Items = items
	return d, nil
}

// ListOrderDetails returns the newest orders first, fully joined, for the
// admin dashboard.
func (q *Queries) ListOrderDetails(ctx context.Context, limit int32) ([]model.OrderDetail, error) {
	rows, err := q.db.Query(ctx,
		`SELECT o.id, o.customer_id, o.address_id, o.total, o.payment_method, o.status,
		        o.created_at, o.updated_at,
		        c.id, c.full_name, c.phone, c.created_at,
		        a.id, a.customer_id, a.cep, a.street, a.number, a.district
		 FROM orders o
		 JOIN customers c ON c.id = o.customer_id
		 JOIN addresses a ON a.id = o.address_id
		 ORDER BY o.created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var details []model.OrderDetail
	for rows.Next() {
		var d model.OrderDetail
		var total pgtype.Numeric
		err := rows.Scan(
			&d.ID, &d.CustomerID, &d.AddressID, &total, &d.PaymentMethod, &d.Status,
			&d.CreatedAt, &d.UpdatedAt,
			&d.Customer.ID, &d.Customer.FullName, &d.Customer.Phone, &d.Customer.CreatedAt,
			&d.Address.ID, &d.Address.CustomerID, &d.Address.Cep, &d.Address.Street,
			&d.Address.Number, &d.Address.District,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		d.Total = numericToDecimal(total)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range details {
		items, err := q.listOrderItemDetails(ctx, details[i].ID)
		if err != nil {
			return nil, err
		}
		details[i].Items = items
	}
	return details, nil
}

func (q *Queries) listOrderItemDetails(ctx context.Context, orderID uuid.UUID) ([]model.OrderItemDetail, error) {
	rows, err := q.db.Query(ctx,
		`SELECT i.id, i.order_id, i.product_id, i.quantity, i.unit_price, i.extras,
		        p.name, p.image_url
		 FROM order_items i
		 JOIN products p ON p.id = i.product_id
		 WHERE i.order_id = $1
		 ORDER BY i.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItemDetail
	for rows.Next() {
		var d model.OrderItemDetail
		var price pgtype.Numeric
		var extras []byte
		err := rows.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.Quantity, &price, &extras,
			&d.ProductName, &d.ProductImageURL)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		d.UnitPrice = numericToDecimal(price)
		if len(extras) > 0 {
			// extras is a display-only snapshot; an unreadable blob just
			// renders as no add-ons.
			_ = json.Unmarshal(extras, &d.Extras)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

// UpdateOrderStatus replaces the order's status. Last write wins; there is
// no transition table because the dashboard may move an order to any stage.
func (q *Queries) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) (model.Order, error) {
	row := q.db.QueryRow(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
		 RETURNING id, customer_id, address_id, total, payment_method, status, created_at, updated_at`,
		id, status)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, fmt.Errorf("update order status: %w", err)
	}
	return o, nil
}

// --- Admin accounts ---

func (q *Queries) GetAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, email, hashed_password, full_name, created_at
		 FROM admins WHERE email = $1`, email)

	var a model.Admin
	err := row.Scan(&a.ID, &a.Email, &a.HashedPassword, &a.FullName, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Admin{}, ErrAdminNotFound
		}
		return model.Admin{}, fmt.Errorf("select admin: %w", err)
	}
	return a, nil
}

// --- Scan helpers ---

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	var price pgtype.Numeric
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &price, &p.ImageURL, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Product{}, err
		}
		return model.Product{}, fmt.Errorf("scan product: %w", err)
	}
	p.Price = numericToDecimal(price)
	return p, nil
}

func scanOrderItem(row pgx.Row) (model.OrderItem, error) {
	var item model.OrderItem
	var price pgtype.Numeric
	var extras []byte
	err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &price, &extras)
	if err != nil {
		return model.OrderItem{}, err
	}
	item.UnitPrice = numericToDecimal(price)
	if len(extras) > 0 {
		_ = json.Unmarshal(extras, &item.Extras)
	}
	return item, nil
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	var total pgtype.Numeric
	err := row.Scan(&o.ID, &o.CustomerID, &o.AddressID, &total, &o.PaymentMethod,
		&o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.Order{}, err
	}
	o.Total = numericToDecimal(total)
	return o, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
