package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardshop/internal/model"

	"github.com/jmoiron/sqlx"
)

// ProductRepository 商品存储库
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository 创建商品存储库
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create 创建商品
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	query := `INSERT INTO products (id, name, price, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, product.ID, product.Name, product.Price, product.IsActive, now, now); err != nil {
		return fmt.Errorf("创建商品失败: %w", err)
	}
	return nil
}

// GetActiveProducts 获取所有上架商品
func (r *ProductRepository) GetActiveProducts(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	query := `SELECT * FROM products WHERE is_active = ? ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &products, query, true)
	return products, err
}

// GetProductByID 根据ID获取商品，包括已下架商品
func (r *ProductRepository) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = ?`
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// GetAllProducts 管理员获取所有商品，包括已下架商品
func (r *ProductRepository) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	err := r.db.SelectContext(ctx, &products, `SELECT * FROM products ORDER BY created_at DESC`)
	return products, err
}

// Update 更新商品名称、价格和上架状态
func (r *ProductRepository) Update(ctx context.Context, product *model.Product) error {
	product.UpdatedAt = time.Now()
	query := `UPDATE products SET name = ?, price = ?, is_active = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, product.Name, product.Price, product.IsActive, product.UpdatedAt, product.ID)
	if err != nil {
		return fmt.Errorf("更新商品失败: %w", err)
	}
	return requireAffected(res)
}
