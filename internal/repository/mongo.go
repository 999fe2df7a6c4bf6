package repository

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names.
const (
	colUsers        = "users"
	colProducts     = "products"
	colReviews      = "reviews"
	colCarts        = "carts"
	colOrders       = "orders"
	colTransactions = "payment_transactions"
)

// NewMongoStores wires every repository to its collection.
func NewMongoStores(db *mongo.Database) *Stores {
	return &Stores{
		Users:        &mongoUsers{col: db.Collection(colUsers)},
		Products:     &mongoProducts{col: db.Collection(colProducts)},
		Reviews:      &mongoReviews{col: db.Collection(colReviews)},
		Carts:        &mongoCarts{col: db.Collection(colCarts)},
		Orders:       &mongoOrders{col: db.Collection(colOrders)},
		Transactions: &mongoTransactions{col: db.Collection(colTransactions)},
	}
}
