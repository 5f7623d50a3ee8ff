package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

type UserStore interface {
	// Create inserts u; a duplicate email yields models.ErrConflict.
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateContact sets the non-nil fields and returns the updated user.
	UpdateContact(ctx context.Context, id primitive.ObjectID, phone *string, address *models.Address) (*models.User, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// FindByIDs returns the products that still exist, in no particular order.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	List(ctx context.Context, filter models.ProductFilter, skip, limit int64) ([]models.Product, error)
	Count(ctx context.Context, filter models.ProductFilter) (int64, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// ReserveStock decrements stock by qty only if enough is available.
	ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

type CartStore interface {
	// FindByUser returns the user's cart, or an unsaved empty cart with Version 0.
	FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Cart, error)
	// Save writes the cart when its Version still matches the stored one and
	// bumps Version on success. A stale version yields models.ErrConflict.
	Save(ctx context.Context, cart *models.Cart) error
	// Clear empties the cart only if it is still at version.
	Clear(ctx context.Context, user primitive.ObjectID, version int64) (bool, error)
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// List returns orders newest first.
	List(ctx context.Context, filter models.OrderFilter, skip, limit int64) ([]models.Order, error)
	Count(ctx context.Context, filter models.OrderFilter) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// UpdateStatus moves the order from one status to another; a mismatch
	// on from yields models.ErrConflict.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error)
}

// Atomic runs fn so that its writes commit or fail together.
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
	// Transactional reports whether RunAtomic rolls back on its own. When
	// false, callers compensate completed writes themselves.
	Transactional() bool
}

type TokenBlacklist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
