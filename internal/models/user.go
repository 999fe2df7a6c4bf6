package models

import "time"

type User struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Picture   string    `bson:"picture,omitempty" json:"picture,omitempty"`
	IsAdmin   bool      `bson:"is_admin" json:"is_admin"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
