package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"product-catalog-api/internal/domain"
	"product-catalog-api/internal/paging"
)

// Schema bootstraps the products table for local runs and tests. Production
// schema changes are applied out of band.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id       BIGSERIAL PRIMARY KEY,
	name     VARCHAR(100) NOT NULL,
	price    NUMERIC(10,2) NOT NULL CHECK (price > 0),
	category VARCHAR(32) NOT NULL,
	active   BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS products_active_id_idx ON products (active, id);
`

const productColumns = "id, name, price, category, active"

// pq error codes mapped to ErrConstraint.
var constraintCodes = map[pq.ErrorCode]bool{
	"23505": true, // unique_violation
	"23514": true, // check_violation
	"22001": true, // string_data_right_truncation
	"22003": true, // numeric_value_out_of_range
}

// PostgresStore implements ProductStore on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies Schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("store: EnsureSchema failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		id       int64
		name     string
		price    decimal.Decimal
		category string
		active   bool
	)
	if err := row.Scan(&id, &name, &price, &category, &active); err != nil {
		return nil, err
	}
	p := domain.Product{
		ID:       &id,
		Name:     name,
		Price:    price,
		Category: domain.Category(category),
		Active:   active,
	}
	return &p, nil
}

func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && constraintCodes[pqErr.Code] {
		return fmt.Errorf("%w: %s", ErrConstraint, pqErr.Message)
	}
	return fmt.Errorf("store: %s failed to scan row: %w", op, err)
}

func (s *PostgresStore) Save(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == nil {
		return s.insert(ctx, product)
	}
	return s.update(ctx, product)
}

func (s *PostgresStore) insert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	query := `INSERT INTO products (name, price, category, active) VALUES ($1, $2, $3, $4) RETURNING ` + productColumns + `;`
	row := s.db.QueryRowContext(ctx, query, product.Name, product.Price, string(product.Category), product.Active)

	created, err := scanProduct(row)
	if err != nil {
		return nil, mapWriteError("Save(insert)", err)
	}
	return created, nil
}

func (s *PostgresStore) update(ctx context.Context, product domain.Product) (*domain.Product, error) {
	query := `UPDATE products SET name = $1, price = $2, category = $3, active = $4 WHERE id = $5 RETURNING ` + productColumns + `;`
	row := s.db.QueryRowContext(ctx, query, product.Name, product.Price, string(product.Category), product.Active, *product.ID)

	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, mapWriteError("Save(update)", err)
	}
	return updated, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1;`
	return s.findOne(ctx, "FindByID", query, id)
}

func (s *PostgresStore) FindActiveByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND active = TRUE;`
	return s.findOne(ctx, "FindActiveByID", query, id)
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, id int64) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: %s failed to scan row: %w", op, err)
	}
	return p, nil
}

// DeactivateProduct is a single UPDATE, so deactivating an inactive product
// rewrites the same value and returns the stored row.
func (s *PostgresStore) DeactivateProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `UPDATE products SET active = FALSE WHERE id = $1 RETURNING ` + productColumns + `;`
	p, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: DeactivateProduct failed to scan row: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindActiveProducts(ctx context.Context, query domain.PaginationQuery, filter domain.ProductFilter) (domain.PaginatedResult[domain.Product], error) {
	return paginate(ctx, s, query, filter)
}

// FetchWindow builds the keyset query for one window.
func (s *PostgresStore) FetchWindow(ctx context.Context, w paging.Window) ([]domain.Product, error) {
	var queryArgs []any
	var whereClauses []string
	argID := 1

	if w.After != nil {
		op := ">"
		if w.Descending {
			op = "<"
		}
		whereClauses = append(whereClauses, fmt.Sprintf("id %s $%d", op, argID))
		queryArgs = append(queryArgs, *w.After)
		argID++
	}

	whereClauses = append(whereClauses, fmt.Sprintf("active = $%d", argID))
	queryArgs = append(queryArgs, w.Predicate.Active)
	argID++

	if w.Predicate.Category != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("category = $%d", argID))
		queryArgs = append(queryArgs, string(*w.Predicate.Category))
		argID++
	}
	if w.Predicate.Name != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", argID))
		queryArgs = append(queryArgs, escapeLike(*w.Predicate.Name))
		argID++
	}

	sortOrder := "ASC"
	if w.Descending {
		sortOrder = "DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM products WHERE %s ORDER BY id %s LIMIT $%d",
		productColumns, strings.Join(whereClauses, " AND "), sortOrder, argID)
	queryArgs = append(queryArgs, w.Limit)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("store: FetchWindow failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, w.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: FetchWindow failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: FetchWindow iteration error: %w", err)
	}
	return products, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
	}
	return nil
}
