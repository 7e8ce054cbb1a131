package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, price_minor, quantity, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		product.ID, product.Name, product.PriceMinor, product.Quantity,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductNameTaken
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *productRepository) FindByName(name string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price_minor, quantity, created_at, updated_at
		FROM products
		WHERE name = $1
	`, name).Scan(
		&product.ID, &product.Name, &product.PriceMinor, &product.Quantity,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product by name: %w", err)
	}

	return product, nil
}

// FindAllByID возвращает только существующие товары; отсутствие отдельных
// идентификаторов ошибкой не считается.
func (r *productRepository) FindAllByID(ids []string) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_minor, quantity, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
		ORDER BY created_at, id
	`, idsParam(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProductNotFound, err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// UpdateQuantity списывает остатки в одной транзакции. Блокировка строк через
// SELECT ... FOR UPDATE делает последовательность чтение-списание-запись
// атомарной относительно конкурентных транзакций: два списания по одному
// товару сериализуются на уровне строки.
func (r *productRepository) UpdateQuantity(requests []domain.ProductQuantity) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.ProductID)
	}

	var rows *sql.Rows
	rows, err = tx.QueryContext(ctx, `
		SELECT id, name, price_minor, quantity, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, idsParam(ids))
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrProductNotFound, err)
		return nil, err
	}

	var found []domain.Product
	found, err = scanProducts(rows)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range found {
		for _, req := range requests {
			if found[i].ID != req.ProductID {
				continue
			}
			found[i].Quantity -= req.Qty
			if found[i].Quantity <= 0 {
				err = &domain.OutOfStockError{ProductName: found[i].Name}
				return nil, err
			}
			found[i].UpdatedAt = now
		}
	}

	for _, product := range found {
		if _, err = tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = $1,
			    updated_at = $2
			WHERE id = $3
		`, product.Quantity, product.UpdatedAt, product.ID); err != nil {
			err = fmt.Errorf("update product quantity: %w", err)
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update quantity: %w", err)
	}

	return found, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.PriceMinor, &product.Quantity,
			&product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// idsParam адаптирует срез идентификаторов под параметр ANY($1) драйвера pgx.
func idsParam(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.ProductRepository = (*productRepository)(nil)
