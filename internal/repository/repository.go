package repository

import (
	"context"
	"errors"

	"jojos_back_end/internal/models"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrCartNotFound = errors.New("cart not found")
)

// ProductFilter narrows catalog listings. Nil pointer fields are ignored.
type ProductFilter struct {
	Category string
	Featured *bool
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Limit    int64
	Skip     int64
}

type UserRepository interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// UpsertOAuth inserts the user on first login, otherwise refreshes
	// name/picture. Returns the stored user.
	UpsertOAuth(ctx context.Context, email, name, picture string) (*models.User, error)
	PromoteByEmail(ctx context.Context, email string) error
	Count(ctx context.Context) (int64, error)
}

type ProductRepository interface {
	List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error)
	FindByID(ctx context.Context, productID string) (*models.Product, error)
	Insert(ctx context.Context, p models.Product) error
	Update(ctx context.Context, productID string, fields map[string]any) error
	Delete(ctx context.Context, productID string) error
	AppendImage(ctx context.Context, productID, url string) error
	CountActive(ctx context.Context) (int64, error)
}

type ReviewRepository interface {
	Insert(ctx context.Context, r models.Review) error
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
}

type CartRepository interface {
	// GetOrCreate resolves a cart by user id when set, else by anonymous
	// session id, creating an empty one when absent.
	GetOrCreate(ctx context.Context, userID, sessionID string) (*models.Cart, error)
	Find(ctx context.Context, userID, sessionID string) (*models.Cart, error)
	SetItems(ctx context.Context, userID, sessionID string, items []models.CartItem) error
	// ClearByUser empties the cart owned by userID. Clearing an already
	// empty (or missing) cart is a no-op, not an error.
	ClearByUser(ctx context.Context, userID string) error
}

type OrderRepository interface {
	Insert(ctx context.Context, o models.Order) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	FindByIDForUser(ctx context.Context, orderID, userID string) (*models.Order, error)
	FindByTracking(ctx context.Context, trackingNumber string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context, status string, skip, limit int64) ([]models.Order, int64, error)
	// SetPaymentAttempt records the chosen method and provider reference
	// at initiation time.
	SetPaymentAttempt(ctx context.Context, orderID, method, reference string) error
	// MarkPaid flips payment_status to paid and status to processing.
	// Re-applying to an already paid order is a harmless no-op.
	MarkPaid(ctx context.Context, orderID string) error
	UpdateStatus(ctx context.Context, orderID, status, trackingNumber string) error
	CountByStatus(ctx context.Context, status string) (int64, error)
	PaidRevenue(ctx context.Context) (float64, error)
}

type TransactionRepository interface {
	Insert(ctx context.Context, t models.PaymentTransaction) error
	// FindByCorrelationKey looks a transaction up by its provider key:
	// session id for stripe, checkout-request id for mpesa.
	FindByCorrelationKey(ctx context.Context, method, key string) (*models.PaymentTransaction, error)
	FindByCheckoutRequestIDForUser(ctx context.Context, key, userID string) (*models.PaymentTransaction, error)
	// MarkPaid settles the transaction. The update is guarded on
	// status != paid so the flip happens exactly once; it reports whether
	// this call performed the flip.
	MarkPaid(ctx context.Context, method, key, receipt string) (bool, error)
	// MarkFailed is guarded on status == pending so a late failure can
	// never downgrade a paid transaction.
	MarkFailed(ctx context.Context, method, key string) (bool, error)
}

// Stores groups the Mongo-backed repositories behind one handle.
type Stores struct {
	Users        UserRepository
	Products     ProductRepository
	Reviews      ReviewRepository
	Carts        CartRepository
	Orders       OrderRepository
	Transactions TransactionRepository
}
