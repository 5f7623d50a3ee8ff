package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	Product primitive.ObjectID `bson:"product" json:"product"`
	Qty     int                `bson:"qty" json:"qty"`
}

// Cart is the per-user basket. Version is bumped by every write and guards
// concurrent modification; a cart that was never saved has Version 0.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User      primitive.ObjectID `bson:"user" json:"user"`
	Items     []CartItem         `bson:"items" json:"items"`
	Version   int64              `bson:"version" json:"version"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// Index returns the position of the line for product, or -1.
func (c *Cart) Index(product primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.Product == product {
			return i
		}
	}
	return -1
}
