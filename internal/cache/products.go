// Package cache is a Redis read-through cache for hot catalog lookups. Cart
// additions hit the same handful of products hard; singleflight collapses
// concurrent misses into one Mongo read.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"jojos_back_end/internal/models"
	"jojos_back_end/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const ProductCacheTTL = 10 * time.Minute

type ProductCache struct {
	rdb      *redis.Client
	products repository.ProductRepository
	group    singleflight.Group
}

func NewProductCache(rdb *redis.Client, products repository.ProductRepository) *ProductCache {
	return &ProductCache{rdb: rdb, products: products}
}

// Get returns the product from Redis when fresh, otherwise loads it from
// Mongo and caches it. Cache errors degrade to a plain Mongo read.
func (pc *ProductCache) Get(ctx context.Context, productID string) (*models.Product, error) {
	key := "product:" + productID

	if data, err := pc.rdb.Get(ctx, key).Result(); err == nil {
		var product models.Product
		if json.Unmarshal([]byte(data), &product) == nil {
			return &product, nil
		}
	}

	v, err, _ := pc.group.Do(productID, func() (any, error) {
		product, err := pc.products.FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(product); err == nil {
			pc.rdb.Set(ctx, key, data, ProductCacheTTL)
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Product), nil
}

// Invalidate drops a product after an admin write.
func (pc *ProductCache) Invalidate(ctx context.Context, productID string) {
	pc.rdb.Del(ctx, "product:"+productID)
}
