package payments

import (
	"context"
	"sync"
	"testing"

	"jojos_back_end/internal/models"
	"jojos_back_end/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTxns struct {
	mu   sync.Mutex
	txns map[string]*models.PaymentTransaction // correlation key → txn
}

func newMockTxns(txns ...models.PaymentTransaction) *mockTxns {
	m := &mockTxns{txns: map[string]*models.PaymentTransaction{}}
	for i := range txns {
		t := txns[i]
		key := t.SessionID
		if key == "" {
			key = t.CheckoutRequestID
		}
		m.txns[key] = &t
	}
	return m
}

func (m *mockTxns) Insert(_ context.Context, t models.PaymentTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := t.SessionID
	if key == "" {
		key = t.CheckoutRequestID
	}
	m.txns[key] = &t
	return nil
}

func (m *mockTxns) FindByCorrelationKey(_ context.Context, _, key string) (*models.PaymentTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *txn
	return &copied, nil
}

func (m *mockTxns) FindByCheckoutRequestIDForUser(_ context.Context, key, _ string) (*models.PaymentTransaction, error) {
	return m.FindByCorrelationKey(context.Background(), "", key)
}

func (m *mockTxns) MarkPaid(_ context.Context, _, key, receipt string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[key]
	if !ok || txn.Status == models.PaymentStatusPaid {
		return false, nil
	}
	txn.Status = models.PaymentStatusPaid
	if receipt != "" {
		txn.MpesaReceipt = receipt
	}
	return true, nil
}

func (m *mockTxns) MarkFailed(_ context.Context, _, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[key]
	if !ok || txn.Status != models.PaymentStatusPending {
		return false, nil
	}
	txn.Status = models.PaymentStatusFailed
	return true, nil
}

func (m *mockTxns) status(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txns[key].Status
}

type mockOrders struct {
	repository.OrderRepository

	mu       sync.Mutex
	order    *models.Order
	paidHits int
}

func (m *mockOrders) FindByID(_ context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.order == nil || m.order.OrderID != orderID {
		return nil, repository.ErrNotFound
	}
	copied := *m.order
	return &copied, nil
}

func (m *mockOrders) MarkPaid(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.order != nil && m.order.OrderID == orderID {
		m.order.PaymentStatus = models.PaymentStatusPaid
		m.order.Status = models.OrderStatusProcessing
		m.paidHits++
	}
	return nil
}

type mockCarts struct {
	repository.CartRepository

	mu     sync.Mutex
	items  []models.CartItem
	clears int
}

func (m *mockCarts) ClearByUser(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = []models.CartItem{}
	m.clears++
	return nil
}

type mockNotifier struct {
	mu    sync.Mutex
	paid  []string
	calls int
}

func (m *mockNotifier) OrderPaid(_ context.Context, order models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paid = append(m.paid, order.OrderID)
	m.calls++
}

func pendingStripeTxn() models.PaymentTransaction {
	return models.PaymentTransaction{
		TransactionID: "txn_a1",
		OrderID:       "ord_a1",
		UserID:        "user_a1",
		Amount:        1350,
		Currency:      "KES",
		PaymentMethod: models.PaymentMethodStripe,
		SessionID:     "cs_test_123",
		Status:        models.PaymentStatusPending,
	}
}

func pendingOrder() *models.Order {
	return &models.Order{
		OrderID:       "ord_a1",
		UserID:        "user_a1",
		Total:         1350,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}
}

func TestSettleAppliesOnce(t *testing.T) {
	txns := newMockTxns(pendingStripeTxn())
	orders := &mockOrders{order: pendingOrder()}
	carts := &mockCarts{items: []models.CartItem{{ProductID: "prod_1", Quantity: 2}}}
	notifier := &mockNotifier{}

	engine := NewEngine(txns, orders, carts, notifier)

	outcome, err := engine.Settle(context.Background(), models.PaymentMethodStripe, "cs_test_123", "")
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)

	assert.Equal(t, models.PaymentStatusPaid, txns.status("cs_test_123"))
	assert.Equal(t, models.PaymentStatusPaid, orders.order.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, orders.order.Status)
	assert.Empty(t, carts.items)
	assert.Equal(t, []string{"ord_a1"}, notifier.paid)
}

func TestSettleIsIdempotent(t *testing.T) {
	txns := newMockTxns(pendingStripeTxn())
	orders := &mockOrders{order: pendingOrder()}
	carts := &mockCarts{items: []models.CartItem{{ProductID: "prod_1", Quantity: 1}}}
	notifier := &mockNotifier{}

	engine := NewEngine(txns, orders, carts, notifier)
	ctx := context.Background()

	first, err := engine.Settle(ctx, models.PaymentMethodStripe, "cs_test_123", "")
	require.NoError(t, err)
	second, err := engine.Settle(ctx, models.PaymentMethodStripe, "cs_test_123", "")
	require.NoError(t, err)

	assert.Equal(t, Applied, first)
	assert.Equal(t, AlreadySettled, second)

	// Same final state as a single settle, and one notification.
	assert.Equal(t, models.PaymentStatusPaid, orders.order.PaymentStatus)
	assert.Empty(t, carts.items)
	assert.Equal(t, 1, notifier.calls)
}

func TestSettleOrphanWritesNothing(t *testing.T) {
	txns := newMockTxns()
	orders := &mockOrders{order: pendingOrder()}
	carts := &mockCarts{items: []models.CartItem{{ProductID: "prod_1", Quantity: 1}}}

	engine := NewEngine(txns, orders, carts, nil)

	outcome, err := engine.Settle(context.Background(), models.PaymentMethodMpesa, "ws_CO_unknown", "ABC123")
	require.NoError(t, err)
	assert.Equal(t, Orphan, outcome)

	assert.Equal(t, models.PaymentStatusPending, orders.order.PaymentStatus)
	assert.Len(t, carts.items, 1)
	assert.Zero(t, carts.clears)
}

func TestSettleReplayConvergesPartialCompletion(t *testing.T) {
	// Transaction already flipped to paid (crash happened before the
	// order/cart writes); the next event must still finish the job.
	txn := pendingStripeTxn()
	txn.Status = models.PaymentStatusPaid

	txns := newMockTxns(txn)
	orders := &mockOrders{order: pendingOrder()}
	carts := &mockCarts{items: []models.CartItem{{ProductID: "prod_1", Quantity: 1}}}

	engine := NewEngine(txns, orders, carts, nil)

	outcome, err := engine.Settle(context.Background(), models.PaymentMethodStripe, "cs_test_123", "")
	require.NoError(t, err)
	assert.Equal(t, AlreadySettled, outcome)

	assert.Equal(t, models.PaymentStatusPaid, orders.order.PaymentStatus)
	assert.Equal(t, models.OrderStatusProcessing, orders.order.Status)
	assert.Empty(t, carts.items)
}

func TestSettleStoresMpesaReceipt(t *testing.T) {
	txn := models.PaymentTransaction{
		TransactionID:     "txn_m1",
		OrderID:           "ord_a1",
		UserID:            "user_a1",
		PaymentMethod:     models.PaymentMethodMpesa,
		CheckoutRequestID: "ws_CO_191220191020363925",
		Status:            models.PaymentStatusPending,
	}
	txns := newMockTxns(txn)
	orders := &mockOrders{order: pendingOrder()}
	carts := &mockCarts{}

	engine := NewEngine(txns, orders, carts, nil)

	outcome, err := engine.Settle(context.Background(), models.PaymentMethodMpesa, "ws_CO_191220191020363925", "NLJ7RT61SV")
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, "NLJ7RT61SV", txns.txns["ws_CO_191220191020363925"].MpesaReceipt)
}

func TestConcurrentSettlesApplyExactlyOnce(t *testing.T) {
	txns := newMockTxns(pendingStripeTxn())
	orders := &mockOrders{order: pendingOrder()}
	carts := &mockCarts{items: []models.CartItem{{ProductID: "prod_1", Quantity: 3}}}
	notifier := &mockNotifier{}

	engine := NewEngine(txns, orders, carts, notifier)

	const n = 16
	outcomes := make(chan Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := engine.Settle(context.Background(), models.PaymentMethodStripe, "cs_test_123", "")
			assert.NoError(t, err)
			outcomes <- out
		}()
	}
	wg.Wait()
	close(outcomes)

	applied := 0
	for out := range outcomes {
		if out == Applied {
			applied++
		} else {
			assert.Equal(t, AlreadySettled, out)
		}
	}

	assert.Equal(t, 1, applied, "exactly one settle wins the flip")
	assert.Equal(t, 1, notifier.calls)
	assert.Empty(t, carts.items)
	assert.Equal(t, models.OrderStatusProcessing, orders.order.Status)
}

func TestFailIsMonotonic(t *testing.T) {
	txn := models.PaymentTransaction{
		TransactionID:     "txn_m2",
		OrderID:           "ord_a1",
		UserID:            "user_a1",
		PaymentMethod:     models.PaymentMethodMpesa,
		CheckoutRequestID: "ws_CO_42",
		Status:            models.PaymentStatusPending,
	}
	txns := newMockTxns(txn)
	orders := &mockOrders{order: pendingOrder()}
	engine := NewEngine(txns, orders, &mockCarts{}, nil)
	ctx := context.Background()

	outcome, err := engine.Fail(ctx, models.PaymentMethodMpesa, "ws_CO_42")
	require.NoError(t, err)
	assert.Equal(t, MarkedFailed, outcome)
	assert.Equal(t, models.PaymentStatusFailed, txns.status("ws_CO_42"))

	// Failed is terminal for the attempt: a second signal changes nothing.
	outcome, err = engine.Fail(ctx, models.PaymentMethodMpesa, "ws_CO_42")
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome)
}

func TestFailNeverDowngradesPaid(t *testing.T) {
	txns := newMockTxns(pendingStripeTxn())
	orders := &mockOrders{order: pendingOrder()}
	engine := NewEngine(txns, orders, &mockCarts{}, nil)
	ctx := context.Background()

	_, err := engine.Settle(ctx, models.PaymentMethodStripe, "cs_test_123", "")
	require.NoError(t, err)

	outcome, err := engine.Fail(ctx, models.PaymentMethodStripe, "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome)
	assert.Equal(t, models.PaymentStatusPaid, txns.status("cs_test_123"))
}

func TestFailOrphan(t *testing.T) {
	engine := NewEngine(newMockTxns(), &mockOrders{}, &mockCarts{}, nil)

	outcome, err := engine.Fail(context.Background(), models.PaymentMethodMpesa, "ws_CO_nope")
	require.NoError(t, err)
	assert.Equal(t, Orphan, outcome)
}
