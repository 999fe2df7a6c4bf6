package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"jojos_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Deps bundles the long-lived backing clients. It is constructed once in
// main and passed down; no package-level state.
type Deps struct {
	client *mongo.Client

	Mongo   *mongo.Database
	Redis   *redis.Client
	Elastic *elasticsearch.Client // nil when ELASTIC_URL is unset
	MinIO   *minio.Client         // nil when MINIO_ENDPOINT is unset

	MinioBucket string
}

// Connect opens Mongo and Redis (both required) plus Elasticsearch and
// MinIO when configured.
func Connect(ctx context.Context, cfg config.Config) (*Deps, error) {
	deps := &Deps{MinioBucket: cfg.MinioBucket}

	if err := deps.connectMongo(ctx, cfg); err != nil {
		return nil, err
	}
	if err := deps.connectRedis(ctx, cfg); err != nil {
		return nil, err
	}
	deps.connectElastic(cfg)
	deps.connectMinIO(ctx, cfg)

	log.Println("✅ All datastores connected")
	return deps, nil
}

func (d *Deps) connectMongo(ctx context.Context, cfg config.Config) error {
	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}

	d.client = client
	d.Mongo = client.Database(cfg.DBName)
	log.Println("✅ Connected to MongoDB:", cfg.DBName)
	return nil
}

func (d *Deps) connectRedis(ctx context.Context, cfg config.Config) error {
	d.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := d.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	log.Println("✅ Connected to Redis")
	return nil
}

func (d *Deps) connectElastic(cfg config.Config) {
	if cfg.ElasticURL == "" {
		log.Println("⚠️ ELASTIC_URL not set — product search falls back to Mongo")
		return
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		log.Println("⚠️ Elasticsearch unavailable:", err)
		return
	}

	res, err := client.Info()
	if err != nil {
		log.Println("⚠️ Elasticsearch unreachable:", err)
		return
	}
	defer res.Body.Close()

	d.Elastic = client
	log.Println("✅ Connected to Elasticsearch")
}

func (d *Deps) connectMinIO(ctx context.Context, cfg config.Config) {
	if cfg.MinioEndpoint == "" {
		log.Println("⚠️ MINIO_ENDPOINT not set — image upload disabled")
		return
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		log.Println("⚠️ MinIO unavailable:", err)
		return
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		log.Println("⚠️ MinIO bucket check failed:", err)
		return
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			log.Println("⚠️ MinIO bucket creation failed:", err)
			return
		}
		log.Println("🪣 Bucket created:", cfg.MinioBucket)
	}

	d.MinIO = client
	log.Println("✅ Connected to MinIO:", cfg.MinioEndpoint)
}

// Close releases the underlying connections.
func (d *Deps) Close(ctx context.Context) {
	if d.client != nil {
		if err := d.client.Disconnect(ctx); err != nil {
			log.Println("⚠️ Mongo disconnect:", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			log.Println("⚠️ Redis close:", err)
		}
	}
}
