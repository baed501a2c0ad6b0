package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"finhealth/internal/catalog"
	"finhealth/internal/engine"
	"finhealth/internal/repository"
)

// seed loads the base questionnaire into MongoDB, or the catalog file given as the first argument
func main() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "finhealth"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := engine.DefaultCatalog()
	if len(os.Args) > 1 {
		loaded, err := catalog.NewFileSource(os.Args[1]).Load(ctx)
		if err != nil {
			log.Fatalf("Failed to read catalog: %v", err)
		}
		c = loaded
	}
	if err := engine.ValidateCatalog(c); err != nil {
		log.Fatalf("Refusing to seed an invalid catalog: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	repo := repository.NewCatalogRepo(client.Database(dbName))
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	if err := repo.ReplaceQuestions(ctx, c.Questions); err != nil {
		log.Fatalf("Failed to seed questions: %v", err)
	}
	for i := range c.Variations {
		if err := repo.CreateVariation(ctx, &c.Variations[i]); err != nil && !mongo.IsDuplicateKeyError(err) {
			log.Fatalf("Failed to seed variation %s: %v", c.Variations[i].ID, err)
		}
	}
	for i := range c.VariationSets {
		if err := repo.CreateVariationSet(ctx, &c.VariationSets[i]); err != nil && !mongo.IsDuplicateKeyError(err) {
			log.Fatalf("Failed to seed variation set %s: %v", c.VariationSets[i].ID, err)
		}
	}
	for i := range c.Assignments {
		if err := repo.AssignVariationSet(ctx, &c.Assignments[i]); err != nil {
			log.Fatalf("Failed to seed assignment for %s: %v", c.Assignments[i].CompanyID, err)
		}
	}
	for i := range c.Rules {
		if err := repo.CreateRule(ctx, &c.Rules[i]); err != nil && !mongo.IsDuplicateKeyError(err) {
			log.Fatalf("Failed to seed rule %s: %v", c.Rules[i].ID, err)
		}
	}

	log.Printf("Seeded %d questions, %d variations, %d variation sets, %d rules into %s",
		len(c.Questions), len(c.Variations), len(c.VariationSets), len(c.Rules), dbName)
}
