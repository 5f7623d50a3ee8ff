package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusCompleted OrderStatus = "completed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:      {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered: {OrderStatusCompleted},
	OrderStatusCanceled:  {},
	OrderStatusRefunded:  {},
	OrderStatusCompleted: {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether an order in status s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const (
	PaymentCOD    = "cod"
	PaymentCard   = "card"
	PaymentOnline = "online"
)

// OrderItem is a line frozen at checkout. PriceAt is never rewritten after insert.
type OrderItem struct {
	Product primitive.ObjectID `bson:"product" json:"product"`
	Qty     int                `bson:"qty" json:"qty"`
	PriceAt float64            `bson:"priceAt" json:"priceAt"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress Address            `bson:"shippingAddress" json:"shippingAddress"`
	Phone           string             `bson:"phone" json:"phone"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	DeliveryCharge  float64            `bson:"deliveryCharge" json:"deliveryCharge"`
	DiscountPercent float64            `bson:"discountPercent" json:"discountPercent"`
	DiscountAmount  float64            `bson:"discountAmount" json:"discountAmount"`
	Total           float64            `bson:"total" json:"total"`
	Status          OrderStatus        `bson:"status" json:"status"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderFilter scopes order queries. A nil User matches every order.
type OrderFilter struct {
	User *primitive.ObjectID
}
