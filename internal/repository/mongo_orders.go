package repository

import (
	"context"
	"errors"
	"time"

	"jojos_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOrders struct {
	col *mongo.Collection
}

func (r *mongoOrders) Insert(ctx context.Context, o models.Order) error {
	_, err := r.col.InsertOne(ctx, o)
	return err
}

func (r *mongoOrders) findOne(ctx context.Context, query bson.M) (*models.Order, error) {
	var order models.Order
	err := r.col.FindOne(ctx, query).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoOrders) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"order_id": orderID})
}

func (r *mongoOrders) FindByIDForUser(ctx context.Context, orderID, userID string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"order_id": orderID, "user_id": userID})
}

func (r *mongoOrders) FindByTracking(ctx context.Context, trackingNumber string) (*models.Order, error) {
	return r.findOne(ctx, bson.M{"tracking_number": trackingNumber})
}

func (r *mongoOrders) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(100)

	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *mongoOrders) ListAll(ctx context.Context, status string, skip, limit int64) ([]models.Order, int64, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *mongoOrders) SetPaymentAttempt(ctx context.Context, orderID, method, reference string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"order_id": orderID}, bson.M{
		"$set": bson.M{
			"payment_method":    method,
			"payment_reference": reference,
			"updated_at":        time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoOrders) MarkPaid(ctx context.Context, orderID string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"order_id": orderID}, bson.M{
		"$set": bson.M{
			"payment_status": models.PaymentStatusPaid,
			"status":         models.OrderStatusProcessing,
			"updated_at":     time.Now().UTC(),
		},
	})
	return err
}

func (r *mongoOrders) UpdateStatus(ctx context.Context, orderID, status, trackingNumber string) error {
	fields := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if trackingNumber != "" {
		fields["tracking_number"] = trackingNumber
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"order_id": orderID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoOrders) CountByStatus(ctx context.Context, status string) (int64, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	return r.col.CountDocuments(ctx, query)
}

func (r *mongoOrders) PaidRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"payment_status": models.PaymentStatusPaid}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$total"}}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
