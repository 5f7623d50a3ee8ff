package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront/models"
)

type CreateOrderInput struct {
	PaymentMethod string
	// ShippingAddress falls back to the saved address when nil or blank.
	ShippingAddress *models.Address
	Phone           string
}

// UserRef stands in for a user whose record is not loaded or no longer exists.
type UserRef struct {
	ID primitive.ObjectID `json:"_id"`
}

type OrderLine struct {
	Product   *models.Product    `json:"product"`
	ProductID primitive.ObjectID `json:"productId"`
	Qty       int                `json:"qty"`
	PriceAt   float64            `json:"priceAt"`
	LineTotal float64            `json:"lineTotal"`
}

type OrderView struct {
	ID              primitive.ObjectID `json:"_id"`
	User            any                `json:"user"`
	Items           []OrderLine        `json:"items"`
	ShippingAddress models.Address     `json:"shippingAddress"`
	Phone           string             `json:"phone"`
	Subtotal        float64            `json:"subtotal"`
	DeliveryCharge  float64            `json:"deliveryCharge"`
	DiscountPercent float64            `json:"discountPercent"`
	DiscountAmount  float64            `json:"discountAmount"`
	TotalPayable    float64            `json:"totalPayable"`
	Status          models.OrderStatus `json:"status"`
	PaymentMethod   string             `json:"paymentMethod"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type OrderPage struct {
	Orders      []OrderView `json:"orders"`
	Page        int64       `json:"page"`
	Limit       int64       `json:"limit"`
	TotalOrders int64       `json:"totalOrders"`
	TotalPages  int64       `json:"totalPages"`
}

type OrderService struct {
	orders   OrderStore
	carts    CartStore
	products ProductStore
	users    UserStore
	atomic   Atomic
	pricing  *Pricing
	now      func() time.Time
}

func NewOrderService(orders OrderStore, carts CartStore, products ProductStore, users UserStore, atomic Atomic, pricing *Pricing) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		products: products,
		users:    users,
		atomic:   atomic,
		pricing:  pricing,
		now:      time.Now,
	}
}

func normalizePaymentMethod(raw string) (string, error) {
	switch m := strings.ToLower(strings.TrimSpace(raw)); m {
	case models.PaymentCOD, models.PaymentCard, models.PaymentOnline:
		return m, nil
	default:
		return "", Validation("Payment method must be one of cod, card, online")
	}
}

// Create turns the caller's cart into a pending order. Stock reservation,
// the order insert and the cart clear commit together or not at all.
func (s *OrderService) Create(ctx context.Context, caller Caller, in CreateOrderInput) (*OrderView, error) {
	userID, err := caller.ObjectID()
	if err != nil {
		return nil, err
	}
	method, err := normalizePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if cart.Empty() {
		return nil, ErrCartEmpty
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	shipping := models.Address{}
	if in.ShippingAddress != nil {
		shipping = *in.ShippingAddress
	}
	phone := strings.TrimSpace(in.Phone)
	if shipping.IsZero() && user != nil {
		shipping = user.Address
		if phone == "" {
			phone = user.Phone
		}
	}

	ids := make([]primitive.ObjectID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.Product
	}
	byID, err := productsByID(ctx, s.products, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(cart.Items))
	lines := make([]PricedLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		p, ok := byID[item.Product]
		if !ok {
			return nil, Validation("Product %s is no longer available", item.Product.Hex())
		}
		if item.Qty < 1 {
			return nil, Validation("Invalid quantity for %s", p.Name)
		}
		items = append(items, models.OrderItem{Product: p.ID, Qty: item.Qty, PriceAt: p.Price})
		lines = append(lines, PricedLine{PriceAt: p.Price, Qty: item.Qty})
	}
	quote := s.pricing.Quote(lines)

	now := s.now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		User:            userID,
		Items:           items,
		ShippingAddress: shipping,
		Phone:           phone,
		Subtotal:        quote.Subtotal,
		DeliveryCharge:  quote.DeliveryCharge,
		DiscountPercent: quote.DiscountPercent,
		DiscountAmount:  quote.DiscountAmount,
		Total:           quote.Total,
		Status:          models.OrderStatusPending,
		PaymentMethod:   method,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var (
		reserved []models.OrderItem
		inserted bool
	)
	err = s.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		// A transaction may rerun this body after a transient error.
		reserved, inserted = reserved[:0], false

		for _, item := range order.Items {
			ok, err := s.products.ReserveStock(ctx, item.Product, item.Qty)
			if err != nil {
				return fmt.Errorf("reserve stock: %w", err)
			}
			if !ok {
				return Validation("Insufficient stock for %s", byID[item.Product].Name)
			}
			reserved = append(reserved, item)
		}

		if err := s.orders.Create(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		inserted = true

		cleared, err := s.carts.Clear(ctx, userID, cart.Version)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if !cleared {
			return Conflict("Cart changed during checkout, please retry")
		}
		return nil
	})
	if err != nil {
		if !s.atomic.Transactional() {
			s.compensate(ctx, order.ID, reserved, inserted)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "order created",
		"order_id", order.ID.Hex(),
		"user_id", userID.Hex(),
		"total", order.Total,
		"items", len(order.Items),
	)

	return s.view(ctx, order, contactOrRef(user, userID))
}

// compensate undoes completed checkout writes in reverse order.
func (s *OrderService) compensate(ctx context.Context, orderID primitive.ObjectID, reserved []models.OrderItem, inserted bool) {
	ctx = context.WithoutCancel(ctx)

	if inserted {
		if err := s.orders.Delete(ctx, orderID); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to remove order during rollback",
				"order_id", orderID.Hex(), "error", err)
		}
	}
	for i := len(reserved) - 1; i >= 0; i-- {
		item := reserved[i]
		if err := s.products.ReleaseStock(ctx, item.Product, item.Qty); err != nil {
			slog.ErrorContext(ctx, "CRITICAL: failed to release stock during rollback",
				"order_id", orderID.Hex(), "product_id", item.Product.Hex(), "qty", item.Qty, "error", err)
		}
	}
}

func (s *OrderService) Get(ctx context.Context, caller Caller, id string) (*OrderView, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(caller, order.User); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, order.User)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return s.view(ctx, order, contactOrRef(user, order.User))
}

// List pages through orders newest first. Non-admins only see their own.
func (s *OrderService) List(ctx context.Context, caller Caller, page Page) (*OrderPage, error) {
	var filter models.OrderFilter
	if !caller.IsAdmin() {
		userID, err := caller.ObjectID()
		if err != nil {
			return nil, err
		}
		filter.User = &userID
	}

	var (
		orders []models.Order
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.orders.List(gctx, filter, page.Skip(), page.Limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.orders.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	var ids []primitive.ObjectID
	for _, o := range orders {
		for _, item := range o.Items {
			ids = append(ids, item.Product)
		}
	}
	byID, err := productsByID(ctx, s.products, ids)
	if err != nil {
		return nil, err
	}

	// Listed orders carry the bare user id; only single-order reads expand it.
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, buildView(&orders[i], orders[i].User, byID))
	}
	return &OrderPage{
		Orders:      views,
		Page:        page.Page,
		Limit:       page.Limit,
		TotalOrders: total,
		TotalPages:  TotalPages(total, page.Limit),
	}, nil
}

func (s *OrderService) Delete(ctx context.Context, caller Caller, id string) error {
	order, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(caller, order.User); err != nil {
		return err
	}

	err = s.orders.Delete(ctx, order.ID)
	if errors.Is(err, models.ErrNotFound) {
		return NotFound("Order not found")
	}
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	slog.InfoContext(ctx, "order deleted", "order_id", order.ID.Hex(), "by", caller.UserID)
	return nil
}

// UpdateStatus moves an order along the status table. Canceling or refunding
// returns the reserved stock to the catalog in the same atomic unit.
func (s *OrderService) UpdateStatus(ctx context.Context, caller Caller, id, status string) (*OrderView, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	next := models.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, Validation("Invalid status value")
	}

	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(next) {
		return nil, Validation("Cannot change status from %s to %s", order.Status, next)
	}

	restock := next == models.OrderStatusCanceled || next == models.OrderStatusRefunded
	var (
		updated  *models.Order
		released []models.OrderItem
	)
	err = s.atomic.RunAtomic(ctx, func(ctx context.Context) error {
		released = released[:0]

		var err error
		updated, err = s.orders.UpdateStatus(ctx, order.ID, order.Status, next)
		if err != nil {
			return err
		}
		if !restock {
			return nil
		}
		for _, item := range order.Items {
			if err := s.products.ReleaseStock(ctx, item.Product, item.Qty); err != nil && !errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("release stock: %w", err)
			}
			released = append(released, item)
		}
		return nil
	})
	if err != nil && !s.atomic.Transactional() && updated != nil {
		s.revertStatus(ctx, order, next, released)
	}
	switch {
	case errors.Is(err, models.ErrConflict):
		return nil, Conflict("Order status changed concurrently, please retry")
	case errors.Is(err, models.ErrNotFound):
		return nil, NotFound("Order not found")
	case err != nil:
		return nil, fmt.Errorf("update order status: %w", err)
	}

	slog.InfoContext(ctx, "order status updated",
		"order_id", order.ID.Hex(), "from", order.Status, "to", next)

	user, err := s.users.FindByID(ctx, updated.User)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return s.view(ctx, updated, contactOrRef(user, updated.User))
}

func (s *OrderService) revertStatus(ctx context.Context, order *models.Order, next models.OrderStatus, released []models.OrderItem) {
	ctx = context.WithoutCancel(ctx)
	for i := len(released) - 1; i >= 0; i-- {
		item := released[i]
		ok, err := s.products.ReserveStock(ctx, item.Product, item.Qty)
		switch {
		case err != nil:
			slog.ErrorContext(ctx, "CRITICAL: failed to re-reserve stock during rollback",
				"order_id", order.ID.Hex(), "product_id", item.Product.Hex(), "error", err)
		case !ok:
			slog.ErrorContext(ctx, "CRITICAL: released stock was taken before rollback",
				"order_id", order.ID.Hex(), "product_id", item.Product.Hex(), "qty", item.Qty)
		}
	}
	if _, err := s.orders.UpdateStatus(ctx, order.ID, next, order.Status); err != nil {
		slog.ErrorContext(ctx, "CRITICAL: failed to restore order status during rollback",
			"order_id", order.ID.Hex(), "status", order.Status, "error", err)
	}
}

func (s *OrderService) find(ctx context.Context, id string) (*models.Order, error) {
	oid, err := parseID(id, "order")
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, oid)
	if errors.Is(err, models.ErrNotFound) {
		return nil, NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *OrderService) view(ctx context.Context, order *models.Order, user any) (*OrderView, error) {
	ids := make([]primitive.ObjectID, len(order.Items))
	for i, item := range order.Items {
		ids[i] = item.Product
	}
	byID, err := productsByID(ctx, s.products, ids)
	if err != nil {
		return nil, err
	}
	v := buildView(order, user, byID)
	return &v, nil
}

func buildView(order *models.Order, user any, products map[primitive.ObjectID]*models.Product) OrderView {
	lines := make([]OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, OrderLine{
			Product:   products[item.Product],
			ProductID: item.Product,
			Qty:       item.Qty,
			PriceAt:   item.PriceAt,
			LineTotal: LineTotal(item.PriceAt, item.Qty),
		})
	}
	return OrderView{
		ID:              order.ID,
		User:            user,
		Items:           lines,
		ShippingAddress: order.ShippingAddress,
		Phone:           order.Phone,
		Subtotal:        order.Subtotal,
		DeliveryCharge:  order.DeliveryCharge,
		DiscountPercent: order.DiscountPercent,
		DiscountAmount:  order.DiscountAmount,
		TotalPayable:    order.Total,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func contactOrRef(user *models.User, id primitive.ObjectID) any {
	if user == nil {
		return UserRef{ID: id}
	}
	return user.Contact()
}
