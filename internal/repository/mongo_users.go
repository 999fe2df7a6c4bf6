package repository

import (
	"context"
	"errors"
	"time"

	"jojos_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoUsers struct {
	col *mongo.Collection
}

func (r *mongoUsers) FindByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *mongoUsers) UpsertOAuth(ctx context.Context, email, name, picture string) (*models.User, error) {
	existing, err := r.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		_, err := r.col.UpdateOne(ctx,
			bson.M{"user_id": existing.UserID},
			bson.M{"$set": bson.M{"name": name, "picture": picture}},
		)
		if err != nil {
			return nil, err
		}
		existing.Name = name
		existing.Picture = picture
		return existing, nil
	}

	user := models.User{
		UserID:    models.NewUserID(),
		Email:     email,
		Name:      name,
		Picture:   picture,
		IsAdmin:   false,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *mongoUsers) PromoteByEmail(ctx context.Context, email string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"is_admin": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUsers) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
