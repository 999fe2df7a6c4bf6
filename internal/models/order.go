package models

import "time"

// Order lifecycle statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses. Transitions are monotonic: pending→paid or
// pending→failed, never back.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment methods.
const (
	PaymentMethodStripe = "stripe"
	PaymentMethodMpesa  = "mpesa"
)

// Delivery methods and their fixed tariffs in KES.
const (
	DeliveryPickupMtaani = "pickup_mtaani"
	DeliveryDoorstep     = "doorstep"

	PickupMtaaniFee = 200.0
	DoorstepFee     = 350.0
)

// Order snapshots the cart lines at creation time. Subtotal, delivery fee
// and total are computed once and never recomputed from live prices.
type Order struct {
	OrderID          string         `bson:"order_id" json:"order_id"`
	UserID           string         `bson:"user_id" json:"user_id"`
	Items            []CartItem     `bson:"items" json:"items"`
	Subtotal         float64        `bson:"subtotal" json:"subtotal"`
	DeliveryFee      float64        `bson:"delivery_fee" json:"delivery_fee"`
	Total            float64        `bson:"total" json:"total"`
	Status           string         `bson:"status" json:"status"`
	PaymentMethod    string         `bson:"payment_method" json:"payment_method"`
	PaymentStatus    string         `bson:"payment_status" json:"payment_status"`
	PaymentReference string         `bson:"payment_reference,omitempty" json:"payment_reference,omitempty"`
	DeliveryMethod   string         `bson:"delivery_method" json:"delivery_method"`
	DeliveryAddress  map[string]any `bson:"delivery_address,omitempty" json:"delivery_address,omitempty"`
	PickupAgentID    string         `bson:"pickup_agent_id,omitempty" json:"pickup_agent_id,omitempty"`
	TrackingNumber   string         `bson:"tracking_number,omitempty" json:"tracking_number,omitempty"`
	CustomerPhone    string         `bson:"customer_phone" json:"customer_phone"`
	CustomerEmail    string         `bson:"customer_email" json:"customer_email"`
	CustomerName     string         `bson:"customer_name" json:"customer_name"`
	Notes            string         `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at" json:"updated_at"`
}

// DeliveryFeeFor returns the fixed tariff for a delivery method.
func DeliveryFeeFor(method string) float64 {
	if method == DeliveryPickupMtaani {
		return PickupMtaaniFee
	}
	return DoorstepFee
}
