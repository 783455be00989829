package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address represents a single saved address entry for a user.
type Address struct {
	ID           string `bson:"id" json:"id"`
	Title        string `bson:"title" json:"title"`
	Department   string `bson:"department" json:"department"`
	Municipality string `bson:"municipality" json:"municipality"`
	Street       string `bson:"street" json:"street"`
	Phone        string `bson:"phone" json:"phone"`
	Reference    string `bson:"reference,omitempty" json:"reference,omitempty"`
	IsDefault    bool   `bson:"isDefault" json:"isDefault"`
}

// User represents the application user account.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         string             `bson:"role" json:"role"`
	Addresses    []Address          `bson:"addresses" json:"addresses"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
