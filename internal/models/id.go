package models

import (
	"strings"

	"github.com/google/uuid"
)

// newID builds a prefixed identifier like "ord_3f2a9c1b8d4e".
func newID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + hex[:12]
}

func NewUserID() string        { return newID("user") }
func NewProductID() string     { return newID("prod") }
func NewReviewID() string      { return newID("rev") }
func NewCartID() string        { return newID("cart") }
func NewOrderID() string       { return newID("ord") }
func NewTransactionID() string { return newID("txn") }
