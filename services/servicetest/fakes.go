// Package servicetest provides in-memory stores with the same conditional
// write semantics as the MongoDB stores.
package servicetest

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

type Users struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]models.User
}

func NewUsers() *Users {
	return &Users{byID: make(map[primitive.ObjectID]models.User)}
}

func (s *Users) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return models.ErrConflict
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.byID[u.ID] = *u
	return nil
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Users) UpdateContact(_ context.Context, id primitive.ObjectID, phone *string, address *models.Address) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if phone != nil {
		u.Phone = *phone
	}
	if address != nil {
		u.Address = *address
	}
	u.UpdatedAt = time.Now()
	s.byID[id] = u
	return &u, nil
}

func (s *Users) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := maps.Clone(s.byID)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byID = saved
	}
}

// Remove deletes a user record outright.
func (s *Users) Remove(id primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

type Products struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]models.Product
	order []primitive.ObjectID

	// ReleaseErr, when set, fails every ReleaseStock call.
	ReleaseErr error
	// BeforeRelease runs ahead of every ReleaseStock, outside the lock.
	// A non-nil result fails the call.
	BeforeRelease func(id primitive.ObjectID) error
	// ReleaseCalls counts ReleaseStock calls, failed ones included.
	ReleaseCalls int
}

func NewProducts() *Products {
	return &Products{byID: make(map[primitive.ObjectID]models.Product)}
}

func (s *Products) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.byID[p.ID] = cloneProduct(*p)
	s.order = append(s.order, p.ID)
	return nil
}

func (s *Products) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (s *Products) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if p, ok := s.byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (s *Products) matching(filter models.ProductFilter) []models.Product {
	var out []models.Product
	for i := len(s.order) - 1; i >= 0; i-- {
		p, ok := s.byID[s.order[i]]
		if !ok {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Query)) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out
}

func (s *Products) List(_ context.Context, filter models.ProductFilter, skip, limit int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return window(s.matching(filter), skip, limit), nil
}

func (s *Products) Count(_ context.Context, filter models.ProductFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matching(filter))), nil
}

func (s *Products) Update(_ context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Images != nil {
		p.Images = slices.Clone(*patch.Images)
	}
	p.UpdatedAt = time.Now()
	s.byID[id] = p
	p = cloneProduct(p)
	return &p, nil
}

func (s *Products) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Products) ReserveStock(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	s.byID[id] = p
	return true, nil
}

func (s *Products) ReleaseStock(_ context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	s.ReleaseCalls++
	hook := s.BeforeRelease
	s.mu.Unlock()
	if hook != nil {
		if err := hook(id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReleaseErr != nil {
		return s.ReleaseErr
	}
	p, ok := s.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	p.Stock += qty
	s.byID[id] = p
	return nil
}

func (s *Products) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[primitive.ObjectID]models.Product, len(s.byID))
	for id, p := range s.byID {
		saved[id] = cloneProduct(p)
	}
	order := slices.Clone(s.order)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byID, s.order = saved, order
	}
}

func cloneProduct(p models.Product) models.Product {
	p.Images = slices.Clone(p.Images)
	return p
}

type Carts struct {
	mu     sync.Mutex
	byUser map[primitive.ObjectID]models.Cart

	// BeforeClear runs ahead of every Clear, outside the lock.
	BeforeClear func(user primitive.ObjectID)
	// SaveConflicts makes the next n Save calls fail as stale.
	SaveConflicts int
}

func NewCarts() *Carts {
	return &Carts{byUser: make(map[primitive.ObjectID]models.Cart)}
}

func (s *Carts) FindByUser(_ context.Context, user primitive.ObjectID) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byUser[user]
	if !ok {
		return &models.Cart{User: user, Items: []models.CartItem{}}, nil
	}
	c.Items = slices.Clone(c.Items)
	return &c, nil
}

func (s *Carts) Save(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveConflicts > 0 {
		s.SaveConflicts--
		return models.ErrConflict
	}
	stored, ok := s.byUser[cart.User]
	if (ok && stored.Version != cart.Version) || (!ok && cart.Version != 0) {
		return models.ErrConflict
	}
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = time.Now()
	}
	cart.Version++
	c := *cart
	c.Items = slices.Clone(cart.Items)
	s.byUser[cart.User] = c
	return nil
}

func (s *Carts) Clear(_ context.Context, user primitive.ObjectID, version int64) (bool, error) {
	if s.BeforeClear != nil {
		s.BeforeClear(user)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byUser[user]
	if !ok || c.Version != version {
		return false, nil
	}
	c.Items = []models.CartItem{}
	c.Version++
	c.UpdatedAt = time.Now()
	s.byUser[user] = c
	return true, nil
}

func (s *Carts) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[primitive.ObjectID]models.Cart, len(s.byUser))
	for user, c := range s.byUser {
		c.Items = slices.Clone(c.Items)
		saved[user] = c
	}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byUser = saved
	}
}

// Put stores cart as-is, bypassing the version check.
func (s *Carts) Put(cart models.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart.Items = slices.Clone(cart.Items)
	s.byUser[cart.User] = cart
}

type Orders struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]models.Order
	order []primitive.ObjectID

	// CreateErr, when set, fails every Create call.
	CreateErr error
}

func NewOrders() *Orders {
	return &Orders{byID: make(map[primitive.ObjectID]models.Order)}
}

func (s *Orders) Create(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	c := *o
	c.Items = slices.Clone(o.Items)
	s.byID[o.ID] = c
	s.order = append(s.order, o.ID)
	return nil
}

func (s *Orders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}

func (s *Orders) matching(filter models.OrderFilter) []models.Order {
	var out []models.Order
	for i := len(s.order) - 1; i >= 0; i-- {
		o, ok := s.byID[s.order[i]]
		if !ok || (filter.User != nil && o.User != *filter.User) {
			continue
		}
		o.Items = slices.Clone(o.Items)
		out = append(out, o)
	}
	// Newest first; later inserts win ties.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Orders) List(_ context.Context, filter models.OrderFilter, skip, limit int64) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return window(s.matching(filter), skip, limit), nil
}

func (s *Orders) Count(_ context.Context, filter models.OrderFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matching(filter))), nil
}

func (s *Orders) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *Orders) UpdateStatus(_ context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if o.Status != from {
		return nil, models.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	s.byID[id] = o
	o.Items = slices.Clone(o.Items)
	return &o, nil
}

func (s *Orders) Snapshot() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := make(map[primitive.ObjectID]models.Order, len(s.byID))
	for id, o := range s.byID {
		o.Items = slices.Clone(o.Items)
		saved[id] = o
	}
	order := slices.Clone(s.order)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byID, s.order = saved, order
	}
}

// Len reports how many orders are stored.
func (s *Orders) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Atomic runs callbacks directly without a transaction, so callers take the
// compensation path.
type Atomic struct {
	mu    sync.Mutex
	Calls int
}

func (a *Atomic) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	a.mu.Lock()
	a.Calls++
	a.mu.Unlock()
	return fn(ctx)
}

func (a *Atomic) Transactional() bool { return false }

// Snapshotter captures a store's state and returns a func that puts it back.
type Snapshotter interface {
	Snapshot() (restore func())
}

// TxAtomic rolls every store back when the callback fails, standing in for
// a database transaction. It serializes callbacks.
type TxAtomic struct {
	Stores []Snapshotter

	mu       sync.Mutex
	Calls    int
	Restores int
}

func NewTxAtomic(stores ...Snapshotter) *TxAtomic {
	return &TxAtomic{Stores: stores}
}

func (a *TxAtomic) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Calls++
	restores := make([]func(), len(a.Stores))
	for i, store := range a.Stores {
		restores[i] = store.Snapshot()
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		a.Restores++
		return err
	}
	return nil
}

func (a *TxAtomic) Transactional() bool { return true }

type Blacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewBlacklist() *Blacklist {
	return &Blacklist{revoked: make(map[string]time.Time)}
}

func (b *Blacklist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = time.Now().Add(ttl)
	return nil
}

func (b *Blacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.revoked[token]
	return ok && time.Now().Before(exp), nil
}

func window[T any](items []T, skip, limit int64) []T {
	if skip < 0 || skip >= int64(len(items)) {
		return []T{}
	}
	end := int64(len(items))
	if limit > 0 && limit < end-skip {
		end = skip + limit
	}
	return items[skip:end]
}
