package models

import "time"

// Product categories: dresses, skirts, coats, 2_piece, sunglasses.
type Product struct {
	ProductID   string    `bson:"product_id" json:"product_id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	Price       float64   `bson:"price" json:"price"`
	Category    string    `bson:"category" json:"category"`
	Images      []string  `bson:"images" json:"images"`
	Sizes       []string  `bson:"sizes" json:"sizes"`
	Colors      []string  `bson:"colors" json:"colors"`
	Stock       int       `bson:"stock" json:"stock"`
	IsFeatured  bool      `bson:"is_featured" json:"is_featured"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

type Review struct {
	ReviewID  string    `bson:"review_id" json:"review_id"`
	ProductID string    `bson:"product_id" json:"product_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	UserName  string    `bson:"user_name" json:"user_name"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
