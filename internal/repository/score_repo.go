package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"finhealth/internal/model"
)

// ErrScoreExists is returned when a response already has a score calculation
var ErrScoreExists = errors.New("score calculation already exists for response")

// ScoreRepo stores write-once score calculations keyed by response id
type ScoreRepo interface {
	Create(ctx context.Context, calc *model.ScoreCalculation) error
	GetByResponseID(ctx context.Context, responseID string) (*model.ScoreCalculation, error)
	EnsureIndexes(ctx context.Context) error
}

type scoreRepo struct {
	collection *mongo.Collection
}

// NewScoreRepo creates a new score repository
func NewScoreRepo(db *mongo.Database) ScoreRepo {
	return &scoreRepo{
		collection: db.Collection("score_calculations"),
	}
}

// Create inserts calc; a second calculation for the same response fails with ErrScoreExists
func (r *scoreRepo) Create(ctx context.Context, calc *model.ScoreCalculation) error {
	_, err := r.collection.InsertOne(ctx, calc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("response %q: %w", calc.ResponseID, ErrScoreExists)
	}
	return err
}

func (r *scoreRepo) GetByResponseID(ctx context.Context, responseID string) (*model.ScoreCalculation, error) {
	var calc model.ScoreCalculation
	err := r.collection.FindOne(ctx, bson.M{"responseId": responseID}).Decode(&calc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

func (r *scoreRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "responseId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
