package models

import "time"

// PaymentTransaction records one payment attempt against an order. Exactly
// one correlation key is set per attempt: SessionID for Stripe checkout
// sessions, CheckoutRequestID for M-Pesa STK pushes. The key is unique
// across all transactions of its method.
type PaymentTransaction struct {
	TransactionID     string    `bson:"transaction_id" json:"transaction_id"`
	OrderID           string    `bson:"order_id" json:"order_id"`
	UserID            string    `bson:"user_id" json:"user_id"`
	Amount            float64   `bson:"amount" json:"amount"`
	Currency          string    `bson:"currency" json:"currency"`
	PaymentMethod     string    `bson:"payment_method" json:"payment_method"`
	SessionID         string    `bson:"session_id,omitempty" json:"session_id,omitempty"`
	CheckoutRequestID string    `bson:"checkout_request_id,omitempty" json:"checkout_request_id,omitempty"`
	MpesaReceipt      string    `bson:"mpesa_receipt,omitempty" json:"mpesa_receipt,omitempty"`
	Status            string    `bson:"status" json:"status"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}
