package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finhealth/internal/cache"
	"finhealth/internal/engine"
	"finhealth/internal/model"
	"finhealth/internal/repository"
)

type fakeSessionCache struct {
	mu        sync.Mutex
	sessions  map[string]model.SurveySession
	answers   map[string]map[string]int
	submitted map[string]string
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{
		sessions:  make(map[string]model.SurveySession),
		answers:   make(map[string]map[string]int),
		submitted: make(map[string]string),
	}
}

func (c *fakeSessionCache) Create(ctx context.Context, session *model.SurveySession, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.ID] = *session
	c.answers[session.ID] = make(map[string]int)
	return nil
}

func (c *fakeSessionCache) Get(ctx context.Context, id string) (*model.SurveySession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	session, ok := c.sessions[id]
	if !ok {
		return nil, cache.ErrSessionNotFound
	}
	session.Answers = make(map[string]int)
	for k, v := range c.answers[id] {
		session.Answers[k] = v
	}
	if responseID, ok := c.submitted[id]; ok {
		session.Status = model.SessionSubmitted
		session.ResponseID = responseID
	}
	return &session, nil
}

func (c *fakeSessionCache) SetAnswer(ctx context.Context, id, questionID string, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; !ok {
		return cache.ErrSessionNotFound
	}
	c.answers[id][questionID] = value
	return nil
}

func (c *fakeSessionCache) MarkSubmitted(ctx context.Context, id, responseID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.submitted[id]; ok {
		return false, nil
	}
	c.submitted[id] = responseID
	return true, nil
}

func (c *fakeSessionCache) ReleaseSubmit(ctx context.Context, id, responseID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitted[id] == responseID {
		delete(c.submitted, id)
	}
	return nil
}

func (c *fakeSessionCache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	delete(c.answers, id)
	delete(c.submitted, id)
	return nil
}

type fakeResponseRepo struct {
	mu        sync.Mutex
	responses map[string]model.SurveyResponse
	err       error
}

func (r *fakeResponseRepo) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{responses: make(map[string]model.SurveyResponse)}
}

func (r *fakeResponseRepo) Create(ctx context.Context, resp *model.SurveyResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.responses[resp.ID] = *resp
	return nil
}

func (r *fakeResponseRepo) GetByID(ctx context.Context, id string) (*model.SurveyResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[id]
	if !ok {
		return nil, nil
	}
	return &resp, nil
}

type fakeScoreRepo struct {
	mu     sync.Mutex
	scores map[string]model.ScoreCalculation
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{scores: make(map[string]model.ScoreCalculation)}
}

func (r *fakeScoreRepo) Create(ctx context.Context, calc *model.ScoreCalculation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scores[calc.ResponseID]; ok {
		return fmt.Errorf("response %q: %w", calc.ResponseID, repository.ErrScoreExists)
	}
	r.scores[calc.ResponseID] = *calc
	return nil
}

func (r *fakeScoreRepo) GetByResponseID(ctx context.Context, responseID string) (*model.ScoreCalculation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	calc, ok := r.scores[responseID]
	if !ok {
		return nil, nil
	}
	return &calc, nil
}

func (r *fakeScoreRepo) EnsureIndexes(ctx context.Context) error { return nil }

// fakeCatalogRepo keeps the catalog in memory; it also serves as the store's catalog.Reader
type fakeCatalogRepo struct {
	mu        sync.Mutex
	catalog   model.Catalog
	createErr error
}

func newFakeCatalogRepo(c model.Catalog) *fakeCatalogRepo {
	return &fakeCatalogRepo{catalog: c}
}

func (r *fakeCatalogRepo) LoadCatalog(ctx context.Context) (model.Catalog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return engine.NewSnapshot(r.catalog).Catalog(), nil
}

func (r *fakeCatalogRepo) ReplaceQuestions(ctx context.Context, questions []model.BaseQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog.Questions = append([]model.BaseQuestion(nil), questions...)
	return nil
}

func (r *fakeCatalogRepo) CreateVariation(ctx context.Context, v *model.QuestionVariation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.catalog.Variations = append(r.catalog.Variations, *v)
	return nil
}

func (r *fakeCatalogRepo) SetVariationActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.catalog.Variations {
		if r.catalog.Variations[i].ID == id {
			r.catalog.Variations[i].IsActive = active
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeCatalogRepo) CreateVariationSet(ctx context.Context, set *model.VariationSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog.VariationSets = append(r.catalog.VariationSets, *set)
	return nil
}

func (r *fakeCatalogRepo) SetVariationSetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.catalog.VariationSets {
		if r.catalog.VariationSets[i].ID == id {
			r.catalog.VariationSets[i].IsActive = active
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeCatalogRepo) AssignVariationSet(ctx context.Context, a *model.VariationSetAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.catalog.Assignments {
		if r.catalog.Assignments[i].CompanyID == a.CompanyID {
			r.catalog.Assignments[i] = *a
			return nil
		}
	}
	r.catalog.Assignments = append(r.catalog.Assignments, *a)
	return nil
}

func (r *fakeCatalogRepo) CreateRule(ctx context.Context, rule *model.DemographicRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalog.Rules = append(r.catalog.Rules, *rule)
	return nil
}

func (r *fakeCatalogRepo) SetRuleActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.catalog.Rules {
		if r.catalog.Rules[i].ID == id {
			r.catalog.Rules[i].IsActive = active
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeCatalogRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeNotifier struct {
	mu        sync.Mutex
	published []string
	onChange  func(version string)
}

func (n *fakeNotifier) Publish(ctx context.Context, version string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, version)
	return nil
}

func (n *fakeNotifier) Subscribe(ctx context.Context, onChange func(version string)) error {
	n.mu.Lock()
	n.onChange = onChange
	n.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (n *fakeNotifier) subscriber() func(version string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.onChange
}

func (n *fakeNotifier) Published() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.published...)
}

type broadcast struct {
	msgType string
	payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
}

func (b *recordingBroadcaster) BroadcastToAdmins(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcast{msgType: msgType, payload: payload})
}

func (b *recordingBroadcaster) Events() []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcast(nil), b.events...)
}

type staticSnapshots struct {
	snap *engine.Snapshot
}

func (p *staticSnapshots) Snapshot() *engine.Snapshot { return p.snap }
