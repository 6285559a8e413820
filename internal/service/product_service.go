package service

import (
	"context"
	"errors"
	"strings"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductUpdate 商品修改项，nil 表示不修改
type ProductUpdate struct {
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price"`
}

// ProductService 管理员商品管理服务
type ProductService struct {
	productRepo *repository.ProductRepository
	stock       *StockCache
	logger      *logger.Logger
}

// NewProductService 创建商品服务
func NewProductService(productRepo *repository.ProductRepository, stock *StockCache, logger *logger.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		stock:       stock,
		logger:      logger,
	}
}

// ListProducts 获取所有商品及可用库存，包括已下架商品
func (s *ProductService) ListProducts(ctx context.Context, caller model.Caller) ([]model.ProductWithStock, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	products, err := s.productRepo.GetAllProducts(ctx)
	if err != nil {
		s.logger.Error("获取商品列表失败", "error", err)
		return nil, err
	}

	result := make([]model.ProductWithStock, 0, len(products))
	for _, p := range products {
		stock, err := s.stock.AvailableStock(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, model.ProductWithStock{Product: p, Stock: stock})
	}
	return result, nil
}

// UpdateProduct 修改商品名称或价格，已下单的订单保留下单时的价格
func (s *ProductService) UpdateProduct(ctx context.Context, caller model.Caller, id string, update ProductUpdate) (*model.Product, error) {
	product, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperr.New(apperr.KindValidation, constants.ErrProductNameEmpty)
		}
		product.Name = name
	}
	if update.Price != nil {
		if !update.Price.IsPositive() {
			return nil, apperr.New(apperr.KindValidation, constants.ErrInvalidPrice)
		}
		product.Price = update.Price.Round(2)
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		s.logger.Error("更新商品失败", "product_id", id, "error", err)
		return nil, err
	}
	s.logger.Info("更新商品", "product_id", id, "name", product.Name, "price", product.Price.StringFixed(2), "admin", caller.UserID)
	return product, nil
}

// SetActive 上架或下架商品，下架商品不能下单但已支付订单仍可发货
func (s *ProductService) SetActive(ctx context.Context, caller model.Caller, id string, active bool) (*model.Product, error) {
	product, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if product.IsActive == active {
		return product, nil
	}

	product.IsActive = active
	if err := s.productRepo.Update(ctx, product); err != nil {
		s.logger.Error("更新商品状态失败", "product_id", id, "error", err)
		return nil, err
	}
	s.logger.Info("更新商品状态", "product_id", id, "active", active, "admin", caller.UserID)
	return product, nil
}

func (s *ProductService) load(ctx context.Context, caller model.Caller, id string) (*model.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, constants.ErrInvalidProductID, err)
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, constants.ErrProductMissing, err)
		}
		return nil, err
	}
	return product, nil
}
