// Package payments drives the order/payment reconciliation flow: the
// settle transition shared by the Stripe poll + webhook paths and the
// M-Pesa callback path.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log"

	"jojos_back_end/internal/models"
	"jojos_back_end/internal/repository"
)

// Outcome tells the boundary layer what a provider event amounted to. The
// boundary always acknowledges the provider regardless of the outcome; the
// kind is for logging and response enrichment only.
type Outcome int

const (
	// Applied: this call flipped the transaction to paid and ran the
	// order/cart writes.
	Applied Outcome = iota
	// AlreadySettled: the transaction was paid before this call; the
	// order/cart writes were re-applied so a partially completed settle
	// still converges. Treated as success.
	AlreadySettled
	// Orphan: no transaction matches the correlation key. Logged and
	// ignored so the provider's retry/ack contract is never broken.
	Orphan
	// MarkedFailed: a pending transaction was marked failed.
	MarkedFailed
	// Ignored: a failure signal arrived for a transaction that is not
	// pending anymore (paid is terminal, failed already recorded).
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case AlreadySettled:
		return "already_settled"
	case Orphan:
		return "orphan"
	case MarkedFailed:
		return "marked_failed"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Notifier receives the order exactly once, after the settle flip that won.
type Notifier interface {
	OrderPaid(ctx context.Context, order models.Order)
}

// Engine applies payment-provider events to the order ledger. All writes
// it performs are idempotent single-document updates, so the transition is
// safely re-runnable from any partial-completion point: correctness does
// not depend on locks, only on the repositories' guarded updates.
type Engine struct {
	txns     repository.TransactionRepository
	orders   repository.OrderRepository
	carts    repository.CartRepository
	notifier Notifier // optional
}

func NewEngine(txns repository.TransactionRepository, orders repository.OrderRepository, carts repository.CartRepository, notifier Notifier) *Engine {
	return &Engine{txns: txns, orders: orders, carts: carts, notifier: notifier}
}

// Settle marks the transaction identified by (method, correlation key) as
// paid, moves its order to paid/processing and clears the owning user's
// cart. receipt is the provider receipt (M-Pesa only, empty for Stripe).
//
// A duplicate settle is a no-op success, never an error. When the
// transaction is unknown the event is an orphan and nothing is written.
func (e *Engine) Settle(ctx context.Context, method, key, receipt string) (Outcome, error) {
	txn, err := e.txns.FindByCorrelationKey(ctx, method, key)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("⚠️ Orphan %s event for correlation key %s — ignored", method, key)
		return Orphan, nil
	}
	if err != nil {
		return Orphan, fmt.Errorf("settle lookup %s: %w", key, err)
	}

	flipped, err := e.txns.MarkPaid(ctx, method, key, receipt)
	if err != nil {
		return AlreadySettled, fmt.Errorf("settle transaction %s: %w", txn.TransactionID, err)
	}

	// Run the order and cart writes even on a replay: a crash between the
	// transaction flip and these writes leaves the next event to finish
	// the job. Both are $set updates, re-applying them changes nothing.
	if err := e.orders.MarkPaid(ctx, txn.OrderID); err != nil {
		return outcomeFor(flipped), fmt.Errorf("settle order %s: %w", txn.OrderID, err)
	}
	if err := e.carts.ClearByUser(ctx, txn.UserID); err != nil {
		return outcomeFor(flipped), fmt.Errorf("settle cart for %s: %w", txn.UserID, err)
	}

	if flipped {
		log.Printf("💰 Order %s settled via %s (key %s)", txn.OrderID, method, key)
		e.notifyPaid(ctx, txn.OrderID)
		return Applied, nil
	}

	log.Printf("🔁 Duplicate settle for %s key %s — already paid", method, key)
	return AlreadySettled, nil
}

// Fail records a provider-reported failure for a pending attempt. Paid is
// terminal: a late failure signal for a settled transaction is ignored.
func (e *Engine) Fail(ctx context.Context, method, key string) (Outcome, error) {
	_, err := e.txns.FindByCorrelationKey(ctx, method, key)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("⚠️ Orphan %s failure for correlation key %s — ignored", method, key)
		return Orphan, nil
	}
	if err != nil {
		return Orphan, fmt.Errorf("fail lookup %s: %w", key, err)
	}

	flipped, err := e.txns.MarkFailed(ctx, method, key)
	if err != nil {
		return Ignored, fmt.Errorf("fail transaction %s: %w", key, err)
	}
	if !flipped {
		return Ignored, nil
	}
	log.Printf("❌ Payment attempt failed for %s key %s", method, key)
	return MarkedFailed, nil
}

func (e *Engine) notifyPaid(ctx context.Context, orderID string) {
	if e.notifier == nil {
		return
	}
	order, err := e.orders.FindByID(ctx, orderID)
	if err != nil {
		log.Printf("⚠️ Settled order %s not readable for notification: %v", orderID, err)
		return
	}
	e.notifier.OrderPaid(ctx, *order)
}

func outcomeFor(flipped bool) Outcome {
	if flipped {
		return Applied
	}
	return AlreadySettled
}
