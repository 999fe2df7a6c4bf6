package repository

import (
	"context"
	"errors"
	"time"

	"jojos_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTransactions struct {
	col *mongo.Collection
}

// correlationField maps a payment method to the provider key field.
func correlationField(method string) string {
	if method == models.PaymentMethodStripe {
		return "session_id"
	}
	return "checkout_request_id"
}

func (r *mongoTransactions) Insert(ctx context.Context, t models.PaymentTransaction) error {
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *mongoTransactions) FindByCorrelationKey(ctx context.Context, method, key string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.col.FindOne(ctx, bson.M{correlationField(method): key}).Decode(&txn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *mongoTransactions) FindByCheckoutRequestIDForUser(ctx context.Context, key, userID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.col.FindOne(ctx, bson.M{"checkout_request_id": key, "user_id": userID}).Decode(&txn)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *mongoTransactions) MarkPaid(ctx context.Context, method, key, receipt string) (bool, error) {
	fields := bson.M{
		"status":     models.PaymentStatusPaid,
		"updated_at": time.Now().UTC(),
	}
	if receipt != "" {
		fields["mpesa_receipt"] = receipt
	}

	// Guarded on status != paid: under concurrent settles the flip happens
	// exactly once, and a replay is reported as not-modified.
	res, err := r.col.UpdateOne(ctx, bson.M{
		correlationField(method): key,
		"status":                 bson.M{"$ne": models.PaymentStatusPaid},
	}, bson.M{"$set": fields})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoTransactions) MarkFailed(ctx context.Context, method, key string) (bool, error) {
	// Only a pending attempt can fail; paid is terminal.
	res, err := r.col.UpdateOne(ctx, bson.M{
		correlationField(method): key,
		"status":                 models.PaymentStatusPending,
	}, bson.M{"$set": bson.M{
		"status":     models.PaymentStatusFailed,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
