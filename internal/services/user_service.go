package services

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type UserService struct {
	Users *repos.UserRepo
}

func NewUserService(users *repos.UserRepo) *UserService { return &UserService{Users: users} }

func (s *UserService) List(ctx context.Context) ([]domain.User, error) { return s.Users.List(ctx) }

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.Users.ByID(ctx, id)
}

// Update applies a profile patch. Role and activation changes need admin rights;
// asAdmin is false for self-service edits.
func (s *UserService) Update(ctx context.Context, id string, p domain.UserPatch, asAdmin bool) (*domain.User, error) {
	if !asAdmin && (p.Role != nil || p.Active != nil) {
		return nil, domain.ErrForbidden
	}
	if p.FirstName == nil && p.LastName == nil && p.Role == nil && p.Active == nil {
		return nil, domain.Invalid("nothing to update")
	}
	return s.Users.Update(ctx, id, p)
}

func (s *UserService) Deactivate(ctx context.Context, id string) error {
	return s.Users.Deactivate(ctx, id)
}
