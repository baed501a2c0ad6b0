package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"finhealth/internal/model"
)

// ErrNotFound is returned by updates that match no document
var ErrNotFound = errors.New("not found")

// CatalogRepo handles MongoDB operations for the question catalog
type CatalogRepo interface {
	LoadCatalog(ctx context.Context) (model.Catalog, error)
	ReplaceQuestions(ctx context.Context, questions []model.BaseQuestion) error
	CreateVariation(ctx context.Context, v *model.QuestionVariation) error
	SetVariationActive(ctx context.Context, id string, active bool) error
	CreateVariationSet(ctx context.Context, set *model.VariationSet) error
	SetVariationSetActive(ctx context.Context, id string, active bool) error
	AssignVariationSet(ctx context.Context, a *model.VariationSetAssignment) error
	CreateRule(ctx context.Context, r *model.DemographicRule) error
	SetRuleActive(ctx context.Context, id string, active bool) error
	EnsureIndexes(ctx context.Context) error
}

type catalogRepo struct {
	questions   *mongo.Collection
	variations  *mongo.Collection
	sets        *mongo.Collection
	assignments *mongo.Collection
	rules       *mongo.Collection
}

// NewCatalogRepo creates a new catalog repository
func NewCatalogRepo(db *mongo.Database) CatalogRepo {
	return &catalogRepo{
		questions:   db.Collection("base_questions"),
		variations:  db.Collection("question_variations"),
		sets:        db.Collection("variation_sets"),
		assignments: db.Collection("variation_set_assignments"),
		rules:       db.Collection("demographic_rules"),
	}
}

// LoadCatalog reads all five collections concurrently
func (r *catalogRepo) LoadCatalog(ctx context.Context) (model.Catalog, error) {
	var c model.Catalog
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return findAll(ctx, r.questions, options.Find().SetSort(bson.D{{Key: "number", Value: 1}}), &c.Questions)
	})
	g.Go(func() error {
		return findAll(ctx, r.variations, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}), &c.Variations)
	})
	g.Go(func() error {
		return findAll(ctx, r.sets, nil, &c.VariationSets)
	})
	g.Go(func() error {
		return findAll(ctx, r.assignments, nil, &c.Assignments)
	})
	g.Go(func() error {
		return findAll(ctx, r.rules, options.Find().SetSort(bson.D{{Key: "priority", Value: 1}, {Key: "_id", Value: 1}}), &c.Rules)
	})
	if err := g.Wait(); err != nil {
		return model.Catalog{}, err
	}
	return c, nil
}

func findAll(ctx context.Context, coll *mongo.Collection, opts *options.FindOptions, out interface{}) error {
	findOpts := []*options.FindOptions{}
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := coll.Find(ctx, bson.M{}, findOpts...)
	if err != nil {
		return fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return nil
}

// ReplaceQuestions upserts every question by id
func (r *catalogRepo) ReplaceQuestions(ctx context.Context, questions []model.BaseQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(questions))
	for i := range questions {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": questions[i].ID}).
			SetReplacement(questions[i]).
			SetUpsert(true))
	}
	_, err := r.questions.BulkWrite(ctx, writes)
	return err
}

func (r *catalogRepo) CreateVariation(ctx context.Context, v *model.QuestionVariation) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := r.variations.InsertOne(ctx, v)
	return err
}

func (r *catalogRepo) SetVariationActive(ctx context.Context, id string, active bool) error {
	return setActive(ctx, r.variations, id, active)
}

func (r *catalogRepo) CreateVariationSet(ctx context.Context, set *model.VariationSet) error {
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}
	_, err := r.sets.InsertOne(ctx, set)
	return err
}

func (r *catalogRepo) SetVariationSetActive(ctx context.Context, id string, active bool) error {
	return setActive(ctx, r.sets, id, active)
}

// AssignVariationSet replaces the company's assignment
func (r *catalogRepo) AssignVariationSet(ctx context.Context, a *model.VariationSetAssignment) error {
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.assignments.ReplaceOne(ctx, bson.M{"_id": a.CompanyID}, a, opts)
	return err
}

func (r *catalogRepo) CreateRule(ctx context.Context, rule *model.DemographicRule) error {
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	_, err := r.rules.InsertOne(ctx, rule)
	return err
}

func (r *catalogRepo) SetRuleActive(ctx context.Context, id string, active bool) error {
	return setActive(ctx, r.rules, id, active)
}

func setActive(ctx context.Context, coll *mongo.Collection, id string, active bool) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isActive": active}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %q: %w", coll.Name(), id, ErrNotFound)
	}
	return nil
}

func (r *catalogRepo) EnsureIndexes(ctx context.Context) error {
	if _, err := r.questions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("index base_questions.number: %w", err)
	}
	if _, err := r.variations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "baseQuestionId", Value: 1}, {Key: "isActive", Value: 1}},
	}); err != nil {
		return fmt.Errorf("index question_variations.baseQuestionId: %w", err)
	}
	if _, err := r.rules.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "priority", Value: 1}},
	}); err != nil {
		return fmt.Errorf("index demographic_rules.priority: %w", err)
	}
	return nil
}
