package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Design status values.
const (
	DesignDraft     = "draft"
	DesignQuoted    = "quoted"
	DesignApproved  = "approved"
	DesignRejected  = "rejected"
	DesignCancelled = "cancelled"
)

// Design is the customer's finalized canvas layout, quoted by an admin before
// it can become an order. The editor itself lives in the frontend; this side
// only cares about ownership, status and the quote.
type Design struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	ProductID      primitive.ObjectID `bson:"productId" json:"productId"`
	Name           string             `bson:"name" json:"name"`
	Status         string             `bson:"status" json:"status"`
	Price          float64            `bson:"price" json:"price"`
	ProductionDays int                `bson:"productionDays" json:"productionDays"`
	OptionNames    []string           `bson:"optionNames,omitempty" json:"optionNames,omitempty"`
	PreviewURL     string             `bson:"previewUrl,omitempty" json:"previewUrl,omitempty"`
	QuotedAt       *time.Time         `bson:"quotedAt,omitempty" json:"quotedAt,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
