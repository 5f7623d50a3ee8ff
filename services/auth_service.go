package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storefront/models"
)

const minPasswordLength = 6

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type AuthService struct {
	users     UserStore
	tokens    *TokenIssuer
	blacklist TokenBlacklist
	hashCost  int
	now       func() time.Time
}

func NewAuthService(users UserStore, tokens *TokenIssuer, blacklist TokenBlacklist) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		blacklist: blacklist,
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
	}
}

// SetHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AuthService) SetHashCost(cost int) {
	s.hashCost = cost
}

// Register creates a regular user. Roles are never taken from the request.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, Validation("Name and email are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, Validation("Password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Name:      name,
		Email:     email,
		Password:  string(hash),
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, Conflict("Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID.Hex())
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := AuthRequired("Invalid email or password")

	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, invalid
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

// Logout revokes token for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		// Already unusable; nothing to revoke.
		return nil
	}

	ttl := s.tokens.TTL()
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, token, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate resolves a raw token to its caller.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Caller, error) {
	if token == "" {
		return Caller{}, AuthRequired("Access token required")
	}

	revoked, err := s.blacklist.IsRevoked(ctx, token)
	if err != nil {
		return Caller{}, fmt.Errorf("check token blacklist: %w", err)
	}
	if revoked {
		return Caller{}, AuthRequired("Token has been revoked")
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Caller{}, AuthRequired("Invalid or expired token")
	}
	return Caller{UserID: claims.UserID, Role: claims.Role}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
