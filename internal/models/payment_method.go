package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentMethod is a saved card instrument. Only the last four digits and a
// one-way bcrypt hash of the number are stored; the raw number and CVC never
// touch the database.
type PaymentMethod struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Brand      string             `bson:"brand" json:"brand"`
	LastFour   string             `bson:"lastFour" json:"lastFour"`
	CardHash   string             `bson:"cardHash" json:"-"`
	HolderName string             `bson:"holderName" json:"holderName"`
	Active     bool               `bson:"active" json:"active"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
