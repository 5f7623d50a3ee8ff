package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

// CartStore keeps one document per user. Every write matches on the version
// the caller read and increments it.
type CartStore struct {
	coll *mongo.Collection
}

func NewCartStore(db *mongo.Database) *CartStore {
	return &CartStore{coll: db.Collection(CartsCollection)}
}

func (s *CartStore) FindByUser(ctx context.Context, user primitive.ObjectID) (*models.Cart, error) {
	var c models.Cart
	err := s.coll.FindOne(ctx, bson.M{"user": user}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Cart{User: user, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return &c, nil
}

// Save writes cart.Items if the stored version still equals cart.Version.
// A cart that was never saved (Version 0) is upserted; losing that race
// trips the unique user index and is reported as a conflict too.
func (s *CartStore) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now()
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	update := bson.M{
		"$set":         bson.M{"items": items, "updatedAt": now},
		"$inc":         bson.M{"version": 1},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(cart.Version == 0).
		SetReturnDocument(options.After)

	var saved models.Cart
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"user": cart.User, "version": cart.Version}, update, opts).Decode(&saved)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments), mongo.IsDuplicateKeyError(err):
		return models.ErrConflict
	case err != nil:
		return fmt.Errorf("save cart: %w", err)
	}

	cart.ID = saved.ID
	cart.Version = saved.Version
	cart.CreatedAt = saved.CreatedAt
	cart.UpdatedAt = saved.UpdatedAt
	return nil
}

func (s *CartStore) Clear(ctx context.Context, user primitive.ObjectID, version int64) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"user": user, "version": version},
		bson.M{
			"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return false, fmt.Errorf("clear cart: %w", err)
	}
	return res.MatchedCount == 1, nil
}
