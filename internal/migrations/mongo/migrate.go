package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medibook/internal/migrations/mongo/validators"
	"medibook/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Run creates the collections with their schema validators and indexes.
/// It is idempotent: existing collections are left alone and index
// creation tolerates already-present definitions.
func Run(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	collections := map[string]bson.M{
		"Schedules":    validators.Schedule(),
		"Appointments": validators.Appointment(),
		"Bills":        validators.Bill(),
		"BillPayments": nil,
	}

	for name, validator := range collections {
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			if !isNamespaceExists(err) {
				return fmt.Errorf("failed to create collection %s: %w", name, err)
			}
			log.Info("collection already exists, skipping", "collection", name)
		} else {
			log.Info("collection created", "collection", name)
		}
	}

	if err := createIndexes(ctx, db, log); err != nil {
		return err
	}

	return nil
}

func createIndexes(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	indexes := map[string][]mongo.IndexModel{
		"Schedules": {
			{
				// One schedule per doctor per day.
				Keys:    bson.D{{Key: "doctor_id", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"Appointments": {
			{
				Keys:    bson.D{{Key: "booking_code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "created_at", Value: -1}},
			},
			{
				// Serves the queue-number max scan and day listings.
				Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "date", Value: 1}, {Key: "status", Value: 1}},
			},
		},
		"Bills": {
			{
				Keys:    bson.D{{Key: "booking_code", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "patient_id", Value: 1}},
			},
		},
		"BillPayments": {
			{
				Keys: bson.D{{Key: "booking_code", Value: 1}, {Key: "created_at", Value: 1}},
			},
		},
	}

	for collection, models := range indexes {
		names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
		log.Info("indexes ensured", "collection", collection, "indexes", names)
	}

	return nil
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 48
	}
	return strings.Contains(err.Error(), "NamespaceExists")
}
