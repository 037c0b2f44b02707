package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/auth"
	"storefront/internal/domain"
)

type UserStore interface {
	ByEmail(ctx context.Context, email string) (*domain.User, error)
	ByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

type AuthService struct {
	Users  UserStore
	Tokens *auth.TokenIssuer
	Hasher auth.Hasher

	// compared against when the email is unknown so both paths cost one bcrypt check
	dummyHash string
}

func NewAuthService(users UserStore, tokens *auth.TokenIssuer, hasher auth.Hasher) *AuthService {
	s := &AuthService{Users: users, Tokens: tokens, Hasher: hasher}
	s.dummyHash, _ = hasher.Hash(uuid.NewString())
	return s
}

type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Signup creates a customer account and returns it with a fresh access token.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, auth.AccessToken, error) {
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, auth.AccessToken{}, err
	}
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Hash:      hash,
		Role:      domain.RoleCustomer,
		Active:    true,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, auth.AccessToken{}, err
	}
	tok, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, auth.AccessToken{}, err
	}
	return u, tok, nil
}

// Login verifies the password. Unknown email, wrong password and a
// deactivated account all yield domain.ErrBadCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, auth.AccessToken, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.Hasher.Matches(s.dummyHash, password)
			return nil, auth.AccessToken{}, domain.ErrBadCredentials
		}
		return nil, auth.AccessToken{}, err
	}
	if !s.Hasher.Matches(u.Hash, password) || !u.Active {
		return nil, auth.AccessToken{}, domain.ErrBadCredentials
	}
	tok, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, auth.AccessToken{}, err
	}
	return u, tok, nil
}

// Authenticate turns a bearer token into the caller's identity. The role comes
// from the store, so demotions and deactivations apply to tokens already issued.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, domain.ErrInvalidCredential
	}
	sub, err := s.Tokens.Subject(token)
	if err != nil {
		return domain.Identity{}, err
	}
	u, err := s.Users.ByID(ctx, sub)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}
	if !u.Active {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}
	return domain.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}
