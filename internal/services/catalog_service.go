package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type CatalogService struct {
	Cats     *repos.CategoryRepo
	Prods    *repos.ProductRepo
	Variants *repos.VariantRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, variants *repos.VariantRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Variants: variants}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	c := &domain.Category{ID: uuid.NewString(), Name: name}
	if err := s.Cats.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	return s.Prods.List(ctx, f)
}

// GetProduct hides inactive products unless includeInactive is set.
func (s *CatalogService) GetProduct(ctx context.Context, id string, includeInactive bool) (*domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active && !includeInactive {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

type NewProduct struct {
	CategoryID  string
	Name        string
	Description string
	SKU         *string
	BasePrice   decimal.Decimal
	Active      bool
	// ImageURLs are stored in the order given.
	ImageURLs []string
}

func (s *CatalogService) CreateProduct(ctx context.Context, in NewProduct) (*domain.Product, error) {
	p := &domain.Product{
		ID:          uuid.NewString(),
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		SKU:         in.SKU,
		BasePrice:   in.BasePrice,
		Active:      in.Active,
	}
	for i, u := range in.ImageURLs {
		p.Images = append(p.Images, domain.ProductImage{ID: uuid.NewString(), URL: u, SortOrder: i})
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) AddImage(ctx context.Context, productID, url string, sortOrder int) (*domain.ProductImage, error) {
	img := &domain.ProductImage{ID: uuid.NewString(), ProductID: productID, URL: url, SortOrder: sortOrder}
	if err := s.Prods.AddImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	return s.Prods.Update(ctx, id, patch)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.Prods.Delete(ctx, id)
}

// AddVariant adds a size to a product. Price defaults to the product's base price.
func (s *CatalogService) AddVariant(ctx context.Context, productID, size string, stock int, price *decimal.Decimal) (*domain.Variant, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	v := &domain.Variant{ID: uuid.NewString(), ProductID: p.ID, Size: size, StockQuantity: stock, Price: p.BasePrice}
	if price != nil {
		v.Price = *price
	}
	if err := s.Variants.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *CatalogService) SetStock(ctx context.Context, variantID string, qty int) (domain.Variant, error) {
	return s.Variants.SetStock(ctx, variantID, qty)
}
