package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

func TestProductQuery(t *testing.T) {
	assert.Equal(t, bson.M{}, productQuery(models.ProductFilter{}))

	q := productQuery(models.ProductFilter{Category: "kitchen", Query: "mug (large)"})
	assert.Equal(t, "kitchen", q["category"])
	assert.Equal(t, primitive.Regex{Pattern: `mug \(large\)`, Options: "i"}, q["name"])
}

func TestProductUpdate(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	price := 12.5
	stock := 0

	got := productUpdate(models.ProductPatch{Price: &price, Stock: &stock}, now)
	assert.Equal(t, bson.M{"$set": bson.M{"price": 12.5, "stock": 0, "updatedAt": now}}, got)
}

func TestOrderQuery(t *testing.T) {
	assert.Equal(t, bson.M{}, orderQuery(models.OrderFilter{}))

	id := primitive.NewObjectID()
	assert.Equal(t, bson.M{"user": id}, orderQuery(models.OrderFilter{User: &id}))
}
