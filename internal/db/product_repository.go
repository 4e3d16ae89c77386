package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openmart/storefront/internal/models"
)

// ProductRepository serves the catalog. Stock is read-only here: the only
// writers of stock_quantity are the order transaction paths in
// OrderRepository.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(database *PostgresDB) *ProductRepository {
	return &ProductRepository{db: database.Conn}
}

const productColumns = `id, seller_id, title, description, category, product_image, price, stock_quantity, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	var sellerID sql.NullInt64
	err := row.Scan(&p.ID, &sellerID, &p.Title, &p.Description, &p.Category,
		&p.ProductImage, &p.Price, &p.StockQuantity, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.SellerID = int(sellerID.Int64)
	return &p, nil
}

// List returns one page of the catalog plus the total product count.
func (r *ProductRepository) List(ctx context.Context, page, limit int) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	result := &models.ProductPage{CurrentPage: page, Products: []models.Product{}}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result.Products = append(result.Products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&result.TotalProducts); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	result.TotalPages = (result.TotalProducts + limit - 1) / limit

	return result, nil
}

// ListBySeller returns all products owned by one seller, newest first.
func (r *ProductRepository) ListBySeller(ctx context.Context, sellerID int) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE seller_id = $1 ORDER BY created_at DESC`,
		sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query seller products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, sellerID int, req models.CreateProductRequest) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO products (seller_id, title, description, category, product_image, price, stock_quantity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+productColumns,
		sellerID, req.Title, req.Description, req.Category, req.ProductImage, req.Price, req.StockQuantity,
	)
	p, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// Update applies the non-nil fields of req to a product owned by sellerID.
func (r *ProductRepository) Update(ctx context.Context, id, sellerID int, req models.UpdateProductRequest) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE products SET
		     title         = COALESCE($3, title),
		     description   = COALESCE($4, description),
		     category      = COALESCE($5, category),
		     product_image = COALESCE($6, product_image),
		     price         = COALESCE($7, price)
		 WHERE id = $1 AND seller_id = $2
		 RETURNING `+productColumns,
		id, sellerID, req.Title, req.Description, req.Category, req.ProductImage, req.Price,
	)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id, sellerID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1 AND seller_id = $2`, id, sellerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
