package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/services/servicetest"
)

type cartFixture struct {
	svc      *CartService
	carts    *servicetest.Carts
	products *servicetest.Products
	caller   Caller
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	carts := servicetest.NewCarts()
	products := servicetest.NewProducts()
	return &cartFixture{
		svc:      NewCartService(carts, products),
		carts:    carts,
		products: products,
		caller:   Caller{UserID: primitive.NewObjectID().Hex(), Role: models.RoleUser},
	}
}

func TestCartService_AddItemMergesLines(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	mug := seedProduct(t, f.products, "Mug", "kitchen", 2.5, 10)

	view, err := f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), 2)
	require.NoError(t, err)
	view, err = f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), 3)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Qty)
	assert.Equal(t, 12.5, view.Items[0].LineTotal)
	assert.Equal(t, 12.5, view.Subtotal)
	assert.Equal(t, int64(2), view.Version)
}

func TestCartService_AddItemRejects(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	mug := seedProduct(t, f.products, "Mug", "kitchen", 2.5, 2)

	_, err := f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), 0)
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.svc.AddItem(ctx, f.caller, primitive.NewObjectID().Hex(), 1)
	assert.True(t, IsKind(err, KindNotFound))

	_, err = f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), 3)
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.svc.AddItem(ctx, f.caller, "nope", 1)
	assert.True(t, IsKind(err, KindValidation))
}

func TestCartService_AddItemHugeQtyDoesNotWrap(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	mug := seedProduct(t, f.products, "Mug", "kitchen", 2.5, 10)

	_, err := f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), 1)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), math.MaxInt)
	assert.True(t, IsKind(err, KindValidation))

	view, err := f.svc.View(ctx, f.caller)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Qty)
	assert.Equal(t, 2.5, view.Subtotal)
}

func TestCartService_SetQtyAndRemove(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	mug := seedProduct(t, f.products, "Mug", "kitchen", 2, 10)
	lamp := seedProduct(t, f.products, "Lamp", "office", 15, 10)

	_, err := f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), 1)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.caller, lamp.ID.Hex(), 1)
	require.NoError(t, err)

	view, err := f.svc.SetQty(ctx, f.caller, mug.ID.Hex(), 4)
	require.NoError(t, err)
	assert.Equal(t, 23.0, view.Subtotal)

	view, err = f.svc.SetQty(ctx, f.caller, mug.ID.Hex(), 0)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, lamp.ID, view.Items[0].ProductID)

	_, err = f.svc.RemoveItem(ctx, f.caller, mug.ID.Hex())
	assert.True(t, IsKind(err, KindNotFound))

	_, err = f.svc.SetQty(ctx, f.caller, lamp.ID.Hex(), 11)
	assert.True(t, IsKind(err, KindValidation))

	view, err = f.svc.Clear(ctx, f.caller)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.NotNil(t, view.Items)
}

func TestCartService_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	mug := seedProduct(t, f.products, "Mug", "kitchen", 2, 10)

	f.carts.SaveConflicts = cartWriteAttempts - 1
	view, err := f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), 1)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	f.carts.SaveConflicts = cartWriteAttempts
	_, err = f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), 1)
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, 409, StatusOf(err))
}

func TestCartService_ViewShowsDeletedProducts(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	mug := seedProduct(t, f.products, "Mug", "kitchen", 2, 10)
	_, err := f.svc.AddItem(ctx, f.caller, mug.ID.Hex(), 2)
	require.NoError(t, err)
	require.NoError(t, f.products.Delete(ctx, mug.ID))

	view, err := f.svc.View(ctx, f.caller)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Nil(t, view.Items[0].Product)
	assert.Equal(t, 0.0, view.Subtotal)
}
