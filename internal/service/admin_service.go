package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"finhealth/internal/cache"
	"finhealth/internal/engine"
	"finhealth/internal/model"
	"finhealth/internal/observability"
	"finhealth/internal/repository"
)

// ErrCatalogReadOnly is returned by mutations while the catalog is served from a file
var ErrCatalogReadOnly = errors.New("catalog is read-only")

// CatalogStore is the published snapshot plus the ability to reload it
type CatalogStore interface {
	SnapshotProvider
	Reload(ctx context.Context) (bool, error)
	OnChange(fn func(*engine.Snapshot))
}

// CatalogView is the admin listing of the current catalog
type CatalogView struct {
	Version string         `json:"version"`
	Stats   map[string]int `json:"stats"`
	model.Catalog
}

// ReloadResult reports the outcome of a catalog reload
type ReloadResult struct {
	Changed bool   `json:"changed"`
	Version string `json:"version"`
}

// AdminService handles catalog administration. Every mutation is validated against a candidate
// catalog before it is written, so the stored catalog always loads.
type AdminService struct {
	repo        repository.CatalogRepo
	store       CatalogStore
	notifier    cache.CatalogNotifier
	readOnly    bool
	logger      *observability.Logger
	broadcaster Broadcaster

	// version announced by a peer; its reload is not announced again
	peerVersion atomic.Pointer[string]
}

// NewAdminService creates a new admin service. A nil notifier disables cross-instance reloads.
// Every snapshot the store publishes from then on, whatever triggered the reload, is announced
// to peers and to the admin feed.
func NewAdminService(
	repo repository.CatalogRepo,
	store CatalogStore,
	notifier cache.CatalogNotifier,
	readOnly bool,
	logger *observability.Logger,
) *AdminService {
	if logger == nil {
		logger = observability.NopLogger()
	}
	s := &AdminService{
		repo:     repo,
		store:    store,
		notifier: notifier,
		readOnly: readOnly,
		logger:   logger.Component("admin"),
	}
	store.OnChange(s.announce)
	return s
}

// SetBroadcaster sets the admin feed broadcaster
func (s *AdminService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// ListCatalog returns the catalog of the current snapshot
func (s *AdminService) ListCatalog(ctx context.Context) *CatalogView {
	snap := s.store.Snapshot()
	return &CatalogView{
		Version: snap.Version(),
		Stats:   snap.Stats(),
		Catalog: snap.Catalog(),
	}
}

// CreateVariation adds a new active variation
func (s *AdminService) CreateVariation(ctx context.Context, v model.QuestionVariation) (*model.QuestionVariation, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	prepareVariation(&v)

	if err := s.validate(func(c *model.Catalog) {
		c.Variations = append(c.Variations, v)
	}); err != nil {
		return nil, err
	}
	if err := s.repo.CreateVariation(ctx, &v); err != nil {
		return nil, fmt.Errorf("failed to create variation: %w", err)
	}

	s.logger.WithContext(ctx).Info("variation created", "variation_id", v.ID, "question_id", v.BaseQuestionID)
	s.refresh(ctx)
	return &v, nil
}

// ReviseVariation stores the revision as a new variation superseding id and deactivates id.
// The old row stays readable so scored responses keep their original wording.
func (s *AdminService) ReviseVariation(ctx context.Context, id string, v model.QuestionVariation) (*model.QuestionVariation, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	old, ok := s.store.Snapshot().Variation(id)
	if !ok {
		return nil, fmt.Errorf("variation %q: %w", id, repository.ErrNotFound)
	}

	v.ID = ""
	v.BaseQuestionID = old.BaseQuestionID
	v.Supersedes = old.ID
	prepareVariation(&v)

	if err := s.validate(func(c *model.Catalog) {
		setVariationActive(c, old.ID, false)
		c.Variations = append(c.Variations, v)
	}); err != nil {
		return nil, err
	}
	// at most one version of a variation is active at any time
	if err := s.repo.SetVariationActive(ctx, old.ID, false); err != nil {
		return nil, fmt.Errorf("failed to deactivate %q: %w", old.ID, err)
	}
	if err := s.repo.CreateVariation(ctx, &v); err != nil {
		if old.IsActive {
			if rbErr := s.repo.SetVariationActive(ctx, old.ID, true); rbErr != nil {
				s.logger.WithContext(ctx).Error("revision rollback failed", "variation_id", old.ID, "error", rbErr)
			}
		}
		return nil, fmt.Errorf("failed to create revision: %w", err)
	}

	s.logger.WithContext(ctx).Info("variation revised", "variation_id", v.ID, "supersedes", old.ID)
	s.refresh(ctx)
	return &v, nil
}

// DeactivateVariation stops a variation from being served
func (s *AdminService) DeactivateVariation(ctx context.Context, id string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	if _, ok := s.store.Snapshot().Variation(id); !ok {
		return fmt.Errorf("variation %q: %w", id, repository.ErrNotFound)
	}
	if err := s.repo.SetVariationActive(ctx, id, false); err != nil {
		return err
	}

	s.logger.WithContext(ctx).Info("variation deactivated", "variation_id", id)
	s.refresh(ctx)
	return nil
}

// CreateVariationSet validates that set fills every unconditional question before saving it
func (s *AdminService) CreateVariationSet(ctx context.Context, set model.VariationSet) (*model.VariationSet, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	if set.ID == "" {
		set.ID = "set_" + uuid.New().String()[:8]
	}
	set.IsActive = true
	set.CreatedAt = time.Now().UTC()

	if err := s.store.Snapshot().ValidateVariationSet(set); err != nil {
		return nil, err
	}
	if err := s.validate(func(c *model.Catalog) {
		c.VariationSets = append(c.VariationSets, set)
	}); err != nil {
		return nil, err
	}
	if err := s.repo.CreateVariationSet(ctx, &set); err != nil {
		return nil, fmt.Errorf("failed to create variation set: %w", err)
	}

	s.logger.WithContext(ctx).Info("variation set created", "set_id", set.ID, "slots", len(set.Slots))
	s.refresh(ctx)
	return &set, nil
}

// AssignVariationSet makes setID the variation set of companyID, replacing any previous assignment
func (s *AdminService) AssignVariationSet(ctx context.Context, companyID, setID string) (*model.VariationSetAssignment, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	if companyID == "" {
		return nil, errors.New("companyId is required")
	}
	if _, ok := s.store.Snapshot().VariationSet(setID); !ok {
		return nil, fmt.Errorf("variation set %q: %w", setID, repository.ErrNotFound)
	}

	a := model.VariationSetAssignment{
		CompanyID:      companyID,
		VariationSetID: setID,
		AssignedAt:     time.Now().UTC(),
	}
	if err := s.validate(func(c *model.Catalog) {
		c.Assignments = append(c.Assignments, a)
	}); err != nil {
		return nil, err
	}
	if err := s.repo.AssignVariationSet(ctx, &a); err != nil {
		return nil, fmt.Errorf("failed to assign variation set: %w", err)
	}

	s.logger.WithContext(ctx).Info("variation set assigned", "company_id", companyID, "set_id", setID)
	s.refresh(ctx)
	return &a, nil
}

// CreateRule adds a new active demographic rule
func (s *AdminService) CreateRule(ctx context.Context, rule model.DemographicRule) (*model.DemographicRule, error) {
	if err := s.checkWritable(); err != nil {
		return nil, err
	}
	if rule.ID == "" {
		rule.ID = "rule_" + uuid.New().String()[:8]
	}
	rule.IsActive = true
	rule.CreatedAt = time.Now().UTC()

	if err := s.validate(func(c *model.Catalog) {
		c.Rules = append(c.Rules, rule)
	}); err != nil {
		return nil, err
	}
	if err := s.repo.CreateRule(ctx, &rule); err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	s.logger.WithContext(ctx).Info("rule created", "rule_id", rule.ID, "priority", rule.Priority)
	s.refresh(ctx)
	return &rule, nil
}

// DeactivateRule stops a rule from being evaluated
func (s *AdminService) DeactivateRule(ctx context.Context, id string) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	if err := s.repo.SetRuleActive(ctx, id, false); err != nil {
		return err
	}

	s.logger.WithContext(ctx).Info("rule deactivated", "rule_id", id)
	s.refresh(ctx)
	return nil
}

// Reload reloads the catalog; a changed catalog is announced through the store listener
func (s *AdminService) Reload(ctx context.Context) (*ReloadResult, error) {
	changed, err := s.store.Reload(ctx)
	if err != nil {
		return nil, err
	}
	return &ReloadResult{Changed: changed, Version: s.store.Snapshot().Version()}, nil
}

// announce tells the other instances and the admin feed about a newly published snapshot
func (s *AdminService) announce(snap *engine.Snapshot) {
	version := snap.Version()
	if s.notifier != nil {
		if peer := s.peerVersion.Load(); peer == nil || *peer != version {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.notifier.Publish(ctx, version); err != nil {
				s.logger.Warn("catalog change not published", "version", version, "error", err)
			}
			cancel()
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAdmins(EventCatalogChanged, map[string]string{"version": version})
	}
}

// WatchPeers reloads whenever another instance announces a catalog version this one lacks.
// It blocks until ctx is done.
func (s *AdminService) WatchPeers(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.Subscribe(ctx, func(version string) {
		if version == s.store.Snapshot().Version() {
			return
		}
		s.peerVersion.Store(&version)
		if _, err := s.store.Reload(ctx); err != nil {
			s.logger.Warn("peer reload failed", "version", version, "error", err)
			return
		}
		s.logger.Info("catalog reloaded from peer", "version", s.store.Snapshot().Version())
	})
}

func (s *AdminService) checkWritable() error {
	if s.readOnly {
		return ErrCatalogReadOnly
	}
	return nil
}

// validate applies mutate to a copy of the current catalog and validates the result
func (s *AdminService) validate(mutate func(c *model.Catalog)) error {
	candidate := s.store.Snapshot().Catalog()
	mutate(&candidate)
	return engine.ValidateCatalog(candidate)
}

// refresh publishes the write; the write already succeeded, so a failed reload is only logged
func (s *AdminService) refresh(ctx context.Context) {
	if _, err := s.Reload(ctx); err != nil {
		s.logger.WithContext(ctx).Error("catalog reload after write failed", "error", err)
	}
}

func prepareVariation(v *model.QuestionVariation) {
	if v.ID == "" {
		v.ID = "var_" + uuid.New().String()[:8]
	}
	v.Language = v.Language.Normalize()
	if v.Language == "" {
		v.Language = model.LanguageEnglish
	}
	v.IsActive = true
	v.CreatedAt = time.Now().UTC()
}

func setVariationActive(c *model.Catalog, id string, active bool) {
	for i := range c.Variations {
		if c.Variations[i].ID == id {
			c.Variations[i].IsActive = active
		}
	}
}
