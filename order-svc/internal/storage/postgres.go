package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"quiosco/order-svc/internal/domain"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	DB *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

func (r *PostgresRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name, slug FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PostgresRepository) GetCategory(ctx context.Context, id int) (*domain.Category, error) {
	var c domain.Category
	err := r.DB.QueryRowContext(ctx, "SELECT id, name, slug FROM categories WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &c.Slug)
	if err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

const productColumns = `p.id, p.name, p.price, p.image, p.category_id, c.name
	FROM products p
	JOIN categories c ON c.id = p.category_id`

func (r *PostgresRepository) ListProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	return r.queryProducts(ctx, "SELECT "+productColumns+" WHERE c.slug = $1 ORDER BY p.id", slug)
}

func (r *PostgresRepository) ListProducts(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	return r.queryProducts(ctx, "SELECT "+productColumns+" ORDER BY p.name LIMIT $1 OFFSET $2", limit, offset)
}

func (r *PostgresRepository) ProductCount(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count)
	return count, err
}

// SearchProducts matches the term against product name, category name or id, case-insensitively.
func (r *PostgresRepository) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return r.queryProducts(ctx, "SELECT "+productColumns+`
	WHERE LOWER(p.name) LIKE $1 ESCAPE '\'
	   OR LOWER(c.name) LIKE $1 ESCAPE '\'
	   OR CAST(p.id AS TEXT) LIKE $1 ESCAPE '\'
	ORDER BY p.name`, pattern)
}

func (r *PostgresRepository) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	var p domain.Product
	err := r.DB.QueryRowContext(ctx, "SELECT "+productColumns+" WHERE p.id = $1", id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.CategoryID, &p.CategoryName)
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (r *PostgresRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	err := r.DB.QueryRowContext(ctx,
		"INSERT INTO products (name, price, image, category_id) VALUES ($1, $2, $3, $4) RETURNING id",
		p.Name, p.Price, p.Image, p.CategoryID,
	).Scan(&p.ID)
	return translateError(err)
}

func (r *PostgresRepository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.CategoryID, &p.CategoryName); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *PostgresRepository) CountExistingProducts(ctx context.Context, ids []int) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE id = ANY($1)", pq.Array(ids),
	).Scan(&count)
	return count, err
}

// CreateOrder writes the order and all its lines atomically.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (name, phone, total, status)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, date
	`, order.Name, order.Phone, order.Total).Scan(&order.ID, &order.Date); err != nil {
		return translateError(err)
	}

	for i := range order.Products {
		item := &order.Products[i]
		item.OrderID = order.ID
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO order_products (order_id, product_id, quantity)
			VALUES ($1, $2, $3)
			RETURNING id
		`, order.ID, item.ProductID, item.Quantity).Scan(&item.ID); err != nil {
			return translateError(err)
		}
	}

	return translateError(tx.Commit())
}

func (r *PostgresRepository) MarkReady(ctx context.Context, orderID int, at time.Time) error {
	result, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status = TRUE, order_ready_at = $1 WHERE id = $2", at, orderID)
	if err != nil {
		return translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SaveQRCode(ctx context.Context, orderID int, png []byte) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE orders SET qr_code = $1 WHERE id = $2", png, orderID)
	return err
}

func (r *PostgresRepository) GetQRCode(ctx context.Context, orderID int) ([]byte, error) {
	var qr []byte
	if err := r.DB.QueryRowContext(ctx, "SELECT qr_code FROM orders WHERE id = $1", orderID).Scan(&qr); err != nil {
		return nil, translateError(err)
	}
	return qr, nil
}

const orderColumns = "id, name, phone, total, date, status, order_ready_at FROM orders"

func (r *PostgresRepository) GetOrder(ctx context.Context, orderID int) (*domain.Order, error) {
	var order domain.Order
	if err := scanOrder(r.DB.QueryRowContext(ctx, "SELECT "+orderColumns+" WHERE id = $1", orderID), &order); err != nil {
		return nil, translateError(err)
	}

	orders := []domain.Order{order}
	if err := r.attachProducts(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListOrders returns pending orders oldest first, or ready orders most recently finished first.
func (r *PostgresRepository) ListOrders(ctx context.Context, ready bool) ([]domain.Order, error) {
	query := "SELECT " + orderColumns + " WHERE status = $1 ORDER BY date ASC"
	if ready {
		query = "SELECT " + orderColumns + " WHERE status = $1 ORDER BY order_ready_at DESC"
	}

	rows, err := r.DB.QueryContext(ctx, query, ready)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachProducts(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner, order *domain.Order) error {
	var readyAt sql.NullTime
	if err := row.Scan(&order.ID, &order.Name, &order.Phone, &order.Total, &order.Date, &order.Status, &readyAt); err != nil {
		return err
	}
	if readyAt.Valid {
		order.OrderReadyAt = &readyAt.Time
	}
	return nil
}

// attachProducts loads the lines of every order in one query.
func (r *PostgresRepository) attachProducts(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int, len(orders))
	index := make(map[int]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Products = []domain.OrderProduct{}
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT op.id, op.order_id, op.product_id, p.name, p.price, op.quantity
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = ANY($1)
		ORDER BY op.id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderProduct
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return err
		}
		i := index[item.OrderID]
		orders[i].Products = append(orders[i].Products, item)
	}
	return rows.Err()
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			price NUMERIC(10, 2) NOT NULL CHECK (price >= 0),
			image TEXT NOT NULL,
			category_id INTEGER NOT NULL REFERENCES categories(id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			total NUMERIC(10, 2) NOT NULL,
			date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status BOOLEAN NOT NULL DEFAULT FALSE,
			order_ready_at TIMESTAMPTZ NULL
		)`,
		"ALTER TABLE IF EXISTS orders ADD COLUMN IF NOT EXISTS qr_code BYTEA",
		`CREATE TABLE IF NOT EXISTS order_products (
			id SERIAL PRIMARY KEY,
			order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id INTEGER NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL CHECK (quantity >= 1),
			UNIQUE (order_id, product_id)
		)`,
		"CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status)",
	}
	for _, stmt := range statements {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema `%s`: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// DefaultCategories is the menu the kiosk ships with.
var DefaultCategories = []domain.Category{
	{Name: "Café", Slug: "cafe"},
	{Name: "Hamburguesas", Slug: "hamburguesas"},
	{Name: "Pizzas", Slug: "pizzas"},
	{Name: "Donas", Slug: "donas"},
	{Name: "Pasteles", Slug: "pasteles"},
	{Name: "Galletas", Slug: "galletas"},
}

// SeedCategories inserts the given categories, skipping slugs already present.
func (r *PostgresRepository) SeedCategories(ctx context.Context, categories []domain.Category) (int, error) {
	inserted := 0
	for _, c := range categories {
		result, err := r.DB.ExecContext(ctx,
			"INSERT INTO categories (name, slug) VALUES ($1, $2) ON CONFLICT (slug) DO NOTHING", c.Name, c.Slug)
		if err != nil {
			return inserted, fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
