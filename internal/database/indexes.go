package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sublimarket/internal/models"
)

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	// One active (non-cancelled, non-rejected) order per design. Backing
	// the duplicate-order guard with a real constraint closes the race
	// between two concurrent creations for the same design.
	// $in inside a partialFilterExpression needs MongoDB 6.0+; startup
	// aborts when this index cannot be created.
	activeDesignIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "designId", Value: 1}},
		Options: options.Index().
			SetName("designId_active_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{
				"status": bson.M{"$in": models.ActiveOrderStatuses},
			}),
	}

	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_index"),
	}

	orderNumberIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderNumber", Value: 1}},
		Options: options.Index().
			SetName("orderNumber_unique").
			SetUnique(true),
	}

	log.Println("EnsureOrderIndexes: creating order indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{activeDesignIndex, userIDIndex, orderNumberIndex})
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	log.Println("EnsureOrderIndexes: order indexes created")
	return nil
}

func EnsureDesignIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("designs").Indexes()

	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("userId_status_index"),
	}

	log.Println("EnsureDesignIndexes: creating userId_status_index index")
	_, err := indexes.CreateOne(ctx, userIDIndex)
	if err != nil {
		log.Println("EnsureDesignIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsurePaymentMethodIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("payment_methods").Indexes()

	userIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_index"),
	}

	log.Println("EnsurePaymentMethodIndexes: creating userId_index index")
	_, err := indexes.CreateOne(ctx, userIDIndex)
	if err != nil {
		log.Println("EnsurePaymentMethodIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureOutboxIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("outbox").Indexes()

	claimIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}, {Key: "nextAttemptAt", Value: 1}},
		Options: options.Index().SetName("status_nextAttemptAt_index"),
	}

	log.Println("EnsureOutboxIndexes: creating status_nextAttemptAt_index index")
	_, err := indexes.CreateOne(ctx, claimIndex)
	if err != nil {
		log.Println("EnsureOutboxIndexes: index error:", err)
		return err
	}
	return nil
}
