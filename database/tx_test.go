package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/config"
	"storefront/models"
	"storefront/services"
)

// txDB is testDB plus a transactional runner. It skips on servers that
// cannot run transactions, such as a standalone mongod.
func txDB(t *testing.T) (*DB, *TxRunner) {
	t.Helper()
	db := testDB(t)
	tx := NewTxRunner(db.Client, true)

	err := tx.RunAtomic(context.Background(), func(ctx context.Context) error {
		_, err := db.Database.Collection(OrdersCollection).CountDocuments(ctx, bson.M{})
		return err
	})
	if err != nil {
		t.Skipf("MongoDB transactions not available: %v", err)
	}
	return db, tx
}

// staleCarts clears with a version that no longer matches, as if the cart
// was edited between the read and the checkout commit.
type staleCarts struct {
	*CartStore
}

func (s staleCarts) Clear(ctx context.Context, user primitive.ObjectID, version int64) (bool, error) {
	return s.CartStore.Clear(ctx, user, version+1)
}

type checkoutFixture struct {
	db       *DB
	orders   *OrderStore
	carts    *CartStore
	products *ProductStore
	user     *models.User
	mug      *models.Product
	lamp     *models.Product
}

func newCheckoutFixture(t *testing.T) (*checkoutFixture, *TxRunner) {
	t.Helper()
	db, tx := txDB(t)
	ctx := context.Background()
	f := &checkoutFixture{
		db:       db,
		orders:   NewOrderStore(db.Database),
		carts:    NewCartStore(db.Database),
		products: NewProductStore(db.Database),
	}

	f.user = &models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleUser, Password: "hash"}
	require.NoError(t, NewUserStore(db.Database).Create(ctx, f.user))
	f.mug = &models.Product{Name: "Mug", Category: "kitchen", Price: 10, Stock: 5}
	require.NoError(t, f.products.Create(ctx, f.mug))
	f.lamp = &models.Product{Name: "Lamp", Category: "office", Price: 20, Stock: 1}
	require.NoError(t, f.products.Create(ctx, f.lamp))
	return f, tx
}

func (f *checkoutFixture) service(tx *TxRunner, carts services.CartStore) *services.OrderService {
	pricing := services.NewPricing(config.Pricing{DeliveryCharge: 50})
	return services.NewOrderService(f.orders, carts, f.products, NewUserStore(f.db.Database), tx, pricing)
}

func (f *checkoutFixture) fillCart(t *testing.T, items ...models.CartItem) {
	t.Helper()
	require.NoError(t, f.carts.Save(context.Background(), &models.Cart{User: f.user.ID, Items: items}))
}

func (f *checkoutFixture) stock(t *testing.T, id primitive.ObjectID) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *checkoutFixture) orderCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.orders.Count(context.Background(), models.OrderFilter{})
	require.NoError(t, err)
	return n
}

func (f *checkoutFixture) caller() services.Caller {
	return services.Caller{UserID: f.user.ID.Hex(), Role: f.user.Role}
}

func TestCheckoutTransaction_Commit(t *testing.T) {
	f, tx := newCheckoutFixture(t)
	ctx := context.Background()
	f.fillCart(t, models.CartItem{Product: f.mug.ID, Qty: 2})

	view, err := f.service(tx, f.carts).Create(ctx, f.caller(), services.CreateOrderInput{PaymentMethod: "cod"})
	require.NoError(t, err)
	assert.Equal(t, 70.0, view.TotalPayable)

	assert.Equal(t, int64(1), f.orderCount(t))
	assert.Equal(t, 3, f.stock(t, f.mug.ID))
	cart, err := f.carts.FindByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, cart.Empty())
}

func TestCheckoutTransaction_CartVersionMismatchRollsBack(t *testing.T) {
	f, tx := newCheckoutFixture(t)
	ctx := context.Background()
	f.fillCart(t, models.CartItem{Product: f.mug.ID, Qty: 2})

	_, err := f.service(tx, staleCarts{f.carts}).Create(ctx, f.caller(), services.CreateOrderInput{PaymentMethod: "cod"})
	assert.True(t, services.IsKind(err, services.KindConflict))

	assert.Equal(t, int64(0), f.orderCount(t))
	assert.Equal(t, 5, f.stock(t, f.mug.ID))
	cart, err := f.carts.FindByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(1), cart.Version)
}

func TestCheckoutTransaction_InsufficientStockRollsBack(t *testing.T) {
	f, tx := newCheckoutFixture(t)
	ctx := context.Background()
	f.fillCart(t,
		models.CartItem{Product: f.mug.ID, Qty: 2},
		models.CartItem{Product: f.lamp.ID, Qty: 3},
	)

	_, err := f.service(tx, f.carts).Create(ctx, f.caller(), services.CreateOrderInput{PaymentMethod: "cod"})
	assert.True(t, services.IsKind(err, services.KindValidation))

	assert.Equal(t, int64(0), f.orderCount(t))
	assert.Equal(t, 5, f.stock(t, f.mug.ID), "earlier reservation undone")
	assert.Equal(t, 1, f.stock(t, f.lamp.ID))
}
