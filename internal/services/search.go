package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"jojos_back_end/internal/models"
	"jojos_back_end/internal/repository"

	"github.com/elastic/go-elasticsearch/v8"
)

const productIndex = "products"

// SearchService answers catalog text queries from Elasticsearch, falling
// back to Mongo regex matching when the index is unavailable.
type SearchService struct {
	es       *elasticsearch.Client // nil when search runs on Mongo only
	products repository.ProductRepository
}

func NewSearchService(es *elasticsearch.Client, products repository.ProductRepository) *SearchService {
	return &SearchService{es: es, products: products}
}

// IndexProduct pushes a product document into the search index. Indexing is
// best effort: a failure is logged, never surfaced to the admin write.
func (s *SearchService) IndexProduct(ctx context.Context, p models.Product) {
	if s.es == nil {
		return
	}

	body, err := json.Marshal(p)
	if err != nil {
		return
	}

	res, err := s.es.Index(productIndex, bytes.NewReader(body),
		s.es.Index.WithDocumentID(p.ProductID),
		s.es.Index.WithContext(ctx),
	)
	if err != nil {
		log.Println("⚠️ ES index failed for", p.ProductID, ":", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Println("⚠️ ES index error for", p.ProductID, ":", res.String())
	}
}

// RemoveProduct drops a product from the index after deletion.
func (s *SearchService) RemoveProduct(ctx context.Context, productID string) {
	if s.es == nil {
		return
	}
	res, err := s.es.Delete(productIndex, productID, s.es.Delete.WithContext(ctx))
	if err != nil {
		log.Println("⚠️ ES delete failed for", productID, ":", err)
		return
	}
	res.Body.Close()
}

// Search runs a multi-field text query. Any Elasticsearch trouble degrades
// to the Mongo regex path so the endpoint never 500s over a search outage.
func (s *SearchService) Search(ctx context.Context, query string, limit int64) ([]models.Product, error) {
	if s.es == nil {
		return s.mongoFallback(ctx, query, limit)
	}

	esQuery := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^3", "description", "category"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"is_active": true},
				},
			},
		},
	}
	body, err := json.Marshal(esQuery)
	if err != nil {
		return nil, err
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(productIndex),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		log.Println("⚠️ ES search failed, falling back to Mongo:", err)
		return s.mongoFallback(ctx, query, limit)
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Println("⚠️ ES search error, falling back to Mongo:", res.String())
		return s.mongoFallback(ctx, query, limit)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("es search decode: %w", err)
	}

	products := make([]models.Product, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		products = append(products, hit.Source)
	}
	return products, nil
}

func (s *SearchService) mongoFallback(ctx context.Context, query string, limit int64) ([]models.Product, error) {
	products, _, err := s.products.List(ctx, repository.ProductFilter{Search: query, Limit: limit})
	return products, err
}
