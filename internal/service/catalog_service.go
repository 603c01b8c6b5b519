package service

import (
	"context"
	"fmt"
	"strings"

	"smrt/internal/models"
	"smrt/internal/store"
	"smrt/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService handles categories, products and product images
type CatalogService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateProductRequest represents a request to create a product. Slug is
// derived from Name when empty.
type CreateProductRequest struct {
	Name         string    `json:"name" validate:"required,max=200"`
	PriceInCents int64     `json:"price_in_cents" validate:"gte=0"`
	Body         string    `json:"body" validate:"max=20000"`
	CategoryID   uuid.UUID `json:"category_id" validate:"required"`
	Stock        int       `json:"stock" validate:"gte=0"`
	Slug         string    `json:"slug,omitempty" validate:"max=200"`
}

// UpdateProductRequest carries only the fields to change
type UpdateProductRequest struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	PriceInCents *int64     `json:"price_in_cents,omitempty" validate:"omitempty,gte=0"`
	Body         *string    `json:"body,omitempty" validate:"omitempty,max=20000"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	Stock        *int       `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Slug         *string    `json:"slug,omitempty" validate:"omitempty,max=200"`
}

// AddImageRequest attaches an image URL to a product
type AddImageRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
}

// CreateCategory creates a category
func (s *CatalogService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateCategory")
	defer span.End()

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	category := &models.Category{Name: optionalString(req.Name)}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		recordViolation("create_category", err)
		return nil, err
	}

	s.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	return category, nil
}

// ListCategories lists every category
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// DeleteCategory fails with store.ErrForeignKeyViolation while products remain.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteCategory")
	defer span.End()

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		recordViolation("delete_category", err)
		util.SpanError(span, err)
		return err
	}
	return nil
}

func resolveSlug(name, explicit string) (string, error) {
	slug := strings.TrimSpace(explicit)
	if slug == "" {
		slug = util.Slugify(name)
	}
	if !util.IsValidSlug(slug) {
		return "", validationErrorf("slug %q must be lowercase letters, digits and single dashes", slug)
	}
	return slug, nil
}

// CreateProduct creates a product under an existing category
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := validateStruct(req); err != nil {
		return nil, err
	}
	slug, err := resolveSlug(req.Name, req.Slug)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:         optionalString(req.Name),
		PriceInCents: req.PriceInCents,
		Body:         optionalString(req.Body),
		CategoryID:   req.CategoryID,
		Stock:        req.Stock,
		Slug:         slug,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		recordViolation("create_product", err)
		util.SpanError(span, err)
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("slug", product.Slug),
		zap.String("price", util.FormatCents(product.PriceInCents)))
	return product, nil
}

// UpdateProduct applies a partial update inside a transaction
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var product *models.Product
	err := s.store.WithTx(ctx, func(tx *store.Store) error {
		current, err := tx.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		if err := applyProductUpdate(current, req); err != nil {
			return err
		}
		if err := tx.UpdateProduct(ctx, current); err != nil {
			return err
		}
		product = current
		return nil
	})
	if err != nil {
		recordViolation("update_product", err)
		util.SpanError(span, err)
		return nil, err
	}
	return product, nil
}

func applyProductUpdate(p *models.Product, req *UpdateProductRequest) error {
	if req.Name != nil {
		p.Name = optionalString(*req.Name)
	}
	if req.PriceInCents != nil {
		p.PriceInCents = *req.PriceInCents
	}
	if req.Body != nil {
		p.Body = optionalString(*req.Body)
	}
	if req.CategoryID != nil {
		p.CategoryID = *req.CategoryID
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Slug != nil {
		name := ""
		if p.Name != nil {
			name = *p.Name
		}
		slug, err := resolveSlug(name, *req.Slug)
		if err != nil {
			return err
		}
		p.Slug = slug
	}
	return nil
}

// DeleteProduct deletes a product and its images
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		recordViolation("delete_product", err)
		util.SpanError(span, err)
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// AddProductImage attaches an image to a product
func (s *CatalogService) AddProductImage(ctx context.Context, productID uuid.UUID, req *AddImageRequest) (*models.ProductImage, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	image := &models.ProductImage{ProductID: productID, ImageURL: optionalString(req.ImageURL)}
	if err := s.store.AddProductImage(ctx, image); err != nil {
		recordViolation("add_product_image", err)
		return nil, err
	}
	return image, nil
}

// ListProducts lists products, optionally by category
func (s *CatalogService) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return s.store.ListProducts(ctx, filter)
}

// GetProductDetail loads a product page by slug
func (s *CatalogService) GetProductDetail(ctx context.Context, slug string) (*models.ProductDetail, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProductDetail")
	defer span.End()

	detail, err := s.store.GetProductDetail(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %q: %w", slug, err)
	}
	return detail, nil
}
