package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/currency"
	"storefront/internal/models"
)

// Home is everything the home screen shows.
type Home struct {
	Products   []models.Product     `json:"products"`
	Offer      *models.SpecialOffer `json:"special_offer"`
	Currencies []currency.Currency  `json:"currencies"`
}

// CatalogService handles business logic related to products and offers.
type CatalogService struct {
	deps Deps
	now  func() time.Time
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(deps Deps) *CatalogService {
	return &CatalogService{deps: deps, now: time.Now}
}

// Home loads the product list and the active special offer concurrently and
// returns once both are in.
func (s *CatalogService) Home(ctx context.Context) (*Home, error) {
	repos := s.deps.Store.Repositories()
	home := &Home{Currencies: s.deps.Formatter.Currencies()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := repos.Products.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		home.Products = products
		return nil
	})
	g.Go(func() error {
		offer, err := repos.Offers.GetActive(gctx, s.now())
		if err != nil {
			return fmt.Errorf("failed to load special offer: %w", err)
		}
		home.Offer = offer
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return home, nil
}

// GetAllProducts retrieves all products.
func (s *CatalogService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.deps.Store.Repositories().Products.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *CatalogService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.deps.Store.Repositories().Products.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound, id)
	}
	return product, nil
}

// CreateProduct adds a product to the catalog.
func (s *CatalogService) CreateProduct(ctx context.Context, actor models.Actor, product *models.Product) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !product.Price.IsPositive() {
		return ErrInvalidAmount
	}
	if err := s.deps.Store.Repositories().Products.Create(ctx, product); err != nil {
		return err
	}
	s.deps.Logger.Info().Str("product_id", product.ID).Msg("product created")
	return nil
}

// UpdateProduct replaces the editable fields of a product.
func (s *CatalogService) UpdateProduct(ctx context.Context, actor models.Actor, product *models.Product) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !product.Price.IsPositive() {
		return ErrInvalidAmount
	}
	if err := s.deps.Store.Repositories().Products.Update(ctx, product); err != nil {
		return notFound(err, ErrProductNotFound, product.ID)
	}
	return nil
}

// DeleteProduct removes a product from the catalog.
func (s *CatalogService) DeleteProduct(ctx context.Context, actor models.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.deps.Store.Repositories().Products.Delete(ctx, id); err != nil {
		return notFound(err, ErrProductNotFound, id)
	}
	return nil
}

// CreateSpecialOffer publishes a promotion.
func (s *CatalogService) CreateSpecialOffer(ctx context.Context, actor models.Actor, offer *models.SpecialOffer) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if offer.DiscountPercent.IsNegative() || offer.DiscountPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount percent must be between 0 and 100", ErrInvalidOffer)
	}
	if offer.StartsAt != nil && offer.EndsAt != nil && !offer.EndsAt.After(*offer.StartsAt) {
		return fmt.Errorf("%w: offer must end after it starts", ErrInvalidOffer)
	}
	return s.deps.Store.Repositories().Offers.Create(ctx, offer)
}
