package repository

import (
	"context"
	"errors"

	"jojos_back_end/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoProducts struct {
	col *mongo.Collection
}

func (r *mongoProducts) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	query := bson.M{"is_active": true}

	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Featured != nil {
		query["is_featured"] = *f.Featured
	}
	if f.Search != "" {
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": f.Search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": f.Search, "$options": "i"}},
		}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	opts := options.Find().SetSkip(f.Skip).SetLimit(limit)
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *mongoProducts) FindByID(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := r.col.FindOne(ctx, bson.M{"product_id": productID}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *mongoProducts) Insert(ctx context.Context, p models.Product) error {
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *mongoProducts) Update(ctx context.Context, productID string, fields map[string]any) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"product_id": productID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProducts) Delete(ctx context.Context, productID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"product_id": productID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProducts) AppendImage(ctx context.Context, productID, url string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"product_id": productID},
		bson.M{"$push": bson.M{"images": url}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProducts) CountActive(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"is_active": true})
}

type mongoReviews struct {
	col *mongo.Collection
}

func (r *mongoReviews) Insert(ctx context.Context, review models.Review) error {
	_, err := r.col.InsertOne(ctx, review)
	return err
}

func (r *mongoReviews) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	cursor, err := r.col.Find(ctx, bson.M{"product_id": productID}, options.Find().SetLimit(100))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
