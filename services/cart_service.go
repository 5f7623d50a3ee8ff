package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

const cartWriteAttempts = 3

type CartLine struct {
	Product   *models.Product    `json:"product"`
	ProductID primitive.ObjectID `json:"productId"`
	Qty       int                `json:"qty"`
	Price     float64            `json:"price"`
	LineTotal float64            `json:"lineTotal"`
}

type CartView struct {
	Items    []CartLine `json:"items"`
	Subtotal float64    `json:"subtotal"`
	Version  int64      `json:"version"`
}

type CartService struct {
	carts    CartStore
	products ProductStore
	now      func() time.Time
}

func NewCartService(carts CartStore, products ProductStore) *CartService {
	return &CartService{carts: carts, products: products, now: time.Now}
}

func (s *CartService) View(ctx context.Context, caller Caller) (*CartView, error) {
	user, err := caller.ObjectID()
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.FindByUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return s.view(ctx, cart)
}

// AddItem merges qty into the existing line for the product, if any.
func (s *CartService) AddItem(ctx context.Context, caller Caller, productID string, qty int) (*CartView, error) {
	if qty < 1 {
		return nil, Validation("Quantity must be at least 1")
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, caller, func(cart *models.Cart) error {
		i := cart.Index(product.ID)
		existing := 0
		if i >= 0 {
			existing = cart.Items[i].Qty
		}
		// Compared before adding so a huge qty cannot wrap.
		if qty > product.Stock-existing {
			return Validation("Only %d of %s left in stock", product.Stock, product.Name)
		}
		total := existing + qty
		if i >= 0 {
			cart.Items[i].Qty = total
		} else {
			cart.Items = append(cart.Items, models.CartItem{Product: product.ID, Qty: total})
		}
		return nil
	})
}

// SetQty replaces the quantity of a line. Zero removes it.
func (s *CartService) SetQty(ctx context.Context, caller Caller, productID string, qty int) (*CartView, error) {
	if qty < 0 {
		return nil, Validation("Quantity must not be negative")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, caller, productID)
	}
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > product.Stock {
		return nil, Validation("Only %d of %s left in stock", product.Stock, product.Name)
	}

	return s.mutate(ctx, caller, func(cart *models.Cart) error {
		i := cart.Index(product.ID)
		if i < 0 {
			return NotFound("Item not in cart")
		}
		cart.Items[i].Qty = qty
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, caller Caller, productID string) (*CartView, error) {
	id, err := parseID(productID, "product")
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, caller, func(cart *models.Cart) error {
		i := cart.Index(id)
		if i < 0 {
			return NotFound("Item not in cart")
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, caller Caller) (*CartView, error) {
	return s.mutate(ctx, caller, func(cart *models.Cart) error {
		cart.Items = []models.CartItem{}
		return nil
	})
}

// mutate reloads the cart and reapplies fn until the versioned save wins.
func (s *CartService) mutate(ctx context.Context, caller Caller, fn func(cart *models.Cart) error) (*CartView, error) {
	user, err := caller.ObjectID()
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= cartWriteAttempts; attempt++ {
		cart, err := s.carts.FindByUser(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("find cart: %w", err)
		}
		if err := fn(cart); err != nil {
			return nil, err
		}
		cart.UpdatedAt = s.now()

		err = s.carts.Save(ctx, cart)
		if errors.Is(err, models.ErrConflict) {
			slog.DebugContext(ctx, "cart write conflict", "user_id", user.Hex(), "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save cart: %w", err)
		}
		return s.view(ctx, cart)
	}
	return nil, Conflict("Cart was modified concurrently, please retry")
}

func (s *CartService) product(ctx context.Context, productID string) (*models.Product, error) {
	id, err := parseID(productID, "product")
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *CartService) view(ctx context.Context, cart *models.Cart) (*CartView, error) {
	ids := make([]primitive.ObjectID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.Product
	}
	byID, err := productsByID(ctx, s.products, ids)
	if err != nil {
		return nil, err
	}

	v := &CartView{Items: make([]CartLine, 0, len(cart.Items)), Version: cart.Version}
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		line := CartLine{ProductID: item.Product, Qty: item.Qty}
		if p, ok := byID[item.Product]; ok {
			line.Product = p
			line.Price = p.Price
			line.LineTotal = LineTotal(p.Price, item.Qty)
			subtotal = subtotal.Add(decimal.NewFromFloat(line.LineTotal))
		}
		v.Items = append(v.Items, line)
	}
	v.Subtotal = subtotal.Round(2).InexactFloat64()
	return v, nil
}

func productsByID(ctx context.Context, store ProductStore, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	byID := make(map[primitive.ObjectID]*models.Product, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	products, err := store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}
