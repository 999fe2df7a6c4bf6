package repository

import (
	"context"
	"errors"
	"time"

	"jojos_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoCarts struct {
	col *mongo.Collection
}

// ownerQuery prefers the user id; anonymous carts are matched by the
// client-held session id instead.
func ownerQuery(userID, sessionID string) bson.M {
	if userID != "" {
		return bson.M{"user_id": userID}
	}
	return bson.M{"session_id": sessionID}
}

func (r *mongoCarts) Find(ctx context.Context, userID, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.col.FindOne(ctx, ownerQuery(userID, sessionID)).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *mongoCarts) GetOrCreate(ctx context.Context, userID, sessionID string) (*models.Cart, error) {
	cart, err := r.Find(ctx, userID, sessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	fresh := models.Cart{
		CartID:    models.NewCartID(),
		Items:     []models.CartItem{},
		UpdatedAt: time.Now().UTC(),
	}
	if userID != "" {
		fresh.UserID = userID
	} else {
		fresh.SessionID = sessionID
	}

	if _, err := r.col.InsertOne(ctx, fresh); err != nil {
		return nil, err
	}
	return &fresh, nil
}

func (r *mongoCarts) SetItems(ctx context.Context, userID, sessionID string, items []models.CartItem) error {
	_, err := r.col.UpdateOne(ctx, ownerQuery(userID, sessionID), bson.M{
		"$set": bson.M{"items": items, "updated_at": time.Now().UTC()},
	})
	return err
}

func (r *mongoCarts) ClearByUser(ctx context.Context, userID string) error {
	// Single-document $set; replaying it converges to the same state.
	_, err := r.col.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$set": bson.M{"items": []models.CartItem{}, "updated_at": time.Now().UTC()},
	})
	return err
}
