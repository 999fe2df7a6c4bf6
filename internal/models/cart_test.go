package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeItemMergesOnSameLine(t *testing.T) {
	cart := Cart{}
	cart.MergeItem(CartItem{ProductID: "prod_a", Price: 500, Quantity: 1, Size: "M", Color: "red"})
	cart.MergeItem(CartItem{ProductID: "prod_a", Price: 500, Quantity: 2, Size: "M", Color: "red"})

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestMergeItemKeepsDistinctVariants(t *testing.T) {
	cart := Cart{}
	cart.MergeItem(CartItem{ProductID: "prod_a", Quantity: 1, Size: "M", Color: "red"})
	cart.MergeItem(CartItem{ProductID: "prod_a", Quantity: 1, Size: "L", Color: "red"})
	cart.MergeItem(CartItem{ProductID: "prod_a", Quantity: 1, Size: "M", Color: "blue"})
	cart.MergeItem(CartItem{ProductID: "prod_b", Quantity: 1, Size: "M", Color: "red"})

	assert.Len(t, cart.Items, 4)
}

func TestSubtotal(t *testing.T) {
	cart := Cart{Items: []CartItem{
		{Price: 500, Quantity: 2},
		{Price: 1200, Quantity: 1},
	}}
	assert.Equal(t, 2200.0, cart.Subtotal())

	assert.Zero(t, Cart{}.Subtotal())
}

func TestDeliveryFeeFor(t *testing.T) {
	assert.Equal(t, 200.0, DeliveryFeeFor(DeliveryPickupMtaani))
	assert.Equal(t, 350.0, DeliveryFeeFor(DeliveryDoorstep))
}

func TestIDPrefixes(t *testing.T) {
	cases := map[string]func() string{
		"user_": NewUserID,
		"prod_": NewProductID,
		"rev_":  NewReviewID,
		"cart_": NewCartID,
		"ord_":  NewOrderID,
		"txn_":  NewTransactionID,
	}
	for prefix, newID := range cases {
		id := newID()
		assert.True(t, strings.HasPrefix(id, prefix), id)
		assert.Len(t, id, len(prefix)+12, id)
	}
}
