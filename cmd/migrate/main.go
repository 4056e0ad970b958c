package main

import (
	"context"

	migrations "medibook/internal/migrations/mongo"
	"medibook/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load("migrate")
	cfg.SetMongo()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnTimeout)
	defer cancel()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := migrations.Run(ctx, db, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	if err := cfg.Client.Mongo.Disconnect(ctx); err != nil {
		cfg.Log.Fatal("Failed to disconnect from MongoDB", "error", err)
	}

	cfg.Log.Info("Migration completed")
}
