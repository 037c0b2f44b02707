package handlers

import (
	"github.com/jmoiron/sqlx"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type Deps struct {
	Auth   *services.AuthService
	Policy auth.Policy

	AuthHandler     *AuthHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	UserHandler     *UserHandler
}

// NewDeps builds every repo, service and handler on top of db. A nil pub
// disables order events.
func NewDeps(db *sqlx.DB, cfg config.Config, tokens *auth.TokenIssuer, pub events.Publisher) *Deps {
	userRepo := repos.NewUserRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	varRepo := repos.NewVariantRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	policy := auth.DefaultPolicy()
	authSvc := services.NewAuthService(userRepo, tokens, auth.Hasher{Cost: cfg.BcryptCost})
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, varRepo)
	cartSvc := services.NewCartService(cartRepo, varRepo)
	orderSvc := services.NewOrderService(varRepo, orderRepo, cartRepo, pub, cfg.TrackStock)
	userSvc := services.NewUserService(userRepo)

	return &Deps{
		Auth:            authSvc,
		Policy:          policy,
		AuthHandler:     &AuthHandler{Auth: authSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc, Order: orderSvc},
		OrderHandler:    &OrderHandler{Order: orderSvc, Policy: policy},
		UserHandler:     &UserHandler{Users: userSvc, Policy: policy},
	}
}
