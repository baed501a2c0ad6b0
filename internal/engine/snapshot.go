package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"finhealth/internal/model"
)

// Snapshot is an immutable, indexed view of the catalog.
// Every resolve, assemble and validate call reads from exactly one snapshot; reloads build a new one.
type Snapshot struct {
	version string
	catalog model.Catalog

	questions        []*model.BaseQuestion // ordered by number
	questionsByID    map[string]*model.BaseQuestion
	questionsByNum   map[int]*model.BaseQuestion
	variationsByBase map[string][]*model.QuestionVariation
	variationsByID   map[string]*model.QuestionVariation
	setsByID         map[string]*model.VariationSet
	companySets      map[string]string // companyID -> variation set id
	rules            []*model.DemographicRule
}

// NewSnapshot copies c and indexes it. It does not validate; see ValidateCatalog.
func NewSnapshot(c model.Catalog) *Snapshot {
	c = cloneCatalog(c)
	s := &Snapshot{
		catalog:          c,
		questionsByID:    make(map[string]*model.BaseQuestion, len(c.Questions)),
		questionsByNum:   make(map[int]*model.BaseQuestion, len(c.Questions)),
		variationsByBase: make(map[string][]*model.QuestionVariation),
		variationsByID:   make(map[string]*model.QuestionVariation, len(c.Variations)),
		setsByID:         make(map[string]*model.VariationSet, len(c.VariationSets)),
		companySets:      make(map[string]string, len(c.Assignments)),
	}

	for i := range c.Questions {
		q := &c.Questions[i]
		if q.MaxPoints == 0 {
			q.MaxPoints = DefaultMaxPoints
		}
		s.questions = append(s.questions, q)
		s.questionsByID[q.ID] = q
		s.questionsByNum[q.Number] = q
	}
	sort.SliceStable(s.questions, func(i, j int) bool {
		return s.questions[i].Number < s.questions[j].Number
	})

	for i := range c.Variations {
		v := &c.Variations[i]
		v.Language = v.Language.Normalize()
		s.variationsByID[v.ID] = v
		s.variationsByBase[v.BaseQuestionID] = append(s.variationsByBase[v.BaseQuestionID], v)
	}

	for i := range c.VariationSets {
		set := &c.VariationSets[i]
		s.setsByID[set.ID] = set
	}

	assignedAt := make(map[string]int)
	for i, a := range c.Assignments {
		if prev, ok := assignedAt[a.CompanyID]; ok && c.Assignments[prev].AssignedAt.After(a.AssignedAt) {
			continue
		}
		assignedAt[a.CompanyID] = i
		s.companySets[a.CompanyID] = a.VariationSetID
	}

	for i := range c.Rules {
		s.rules = append(s.rules, &c.Rules[i])
	}
	sort.SliceStable(s.rules, func(i, j int) bool {
		if s.rules[i].Priority != s.rules[j].Priority {
			return s.rules[i].Priority < s.rules[j].Priority
		}
		return s.rules[i].ID < s.rules[j].ID
	})

	s.version = catalogVersion(c)
	return s
}

// EmptySnapshot has no questions; assembling from it fails with ErrEmptyQuestionSet
func EmptySnapshot() *Snapshot {
	return NewSnapshot(model.Catalog{})
}

// Version is a content hash of the catalog the snapshot was built from
func (s *Snapshot) Version() string {
	return s.version
}

// Catalog returns a copy of the catalog data
func (s *Snapshot) Catalog() model.Catalog {
	return cloneCatalog(s.catalog)
}

// Questions returns the base questions ordered by number
func (s *Snapshot) Questions() []model.BaseQuestion {
	out := make([]model.BaseQuestion, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, cloneQuestion(*q))
	}
	return out
}

// Question looks up a base question by id
func (s *Snapshot) Question(id string) (model.BaseQuestion, bool) {
	q, ok := s.questionsByID[id]
	if !ok {
		return model.BaseQuestion{}, false
	}
	return cloneQuestion(*q), true
}

// Variation looks up a variation by id
func (s *Snapshot) Variation(id string) (model.QuestionVariation, bool) {
	v, ok := s.variationsByID[id]
	if !ok {
		return model.QuestionVariation{}, false
	}
	return cloneVariation(*v), true
}

// VariationSet looks up a variation set by id
func (s *Snapshot) VariationSet(id string) (model.VariationSet, bool) {
	set, ok := s.setsByID[id]
	if !ok {
		return model.VariationSet{}, false
	}
	out := *set
	out.Slots = append([]model.VariationSlot(nil), set.Slots...)
	return out, true
}

// CompanyVariationSet returns the id of the variation set assigned to companyID
func (s *Snapshot) CompanyVariationSet(companyID string) (string, bool) {
	id, ok := s.companySets[companyID]
	return id, ok
}

// Stats summarises snapshot contents for logs and the admin surface
func (s *Snapshot) Stats() map[string]int {
	return map[string]int{
		"questions":     len(s.catalog.Questions),
		"variations":    len(s.catalog.Variations),
		"variationSets": len(s.catalog.VariationSets),
		"assignments":   len(s.catalog.Assignments),
		"rules":         len(s.catalog.Rules),
	}
}

func catalogVersion(c model.Catalog) string {
	data, err := json.Marshal(c)
	if err != nil {
		return "unversioned"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}

func cloneCatalog(c model.Catalog) model.Catalog {
	out := model.Catalog{
		Questions:     make([]model.BaseQuestion, 0, len(c.Questions)),
		Variations:    make([]model.QuestionVariation, 0, len(c.Variations)),
		VariationSets: make([]model.VariationSet, 0, len(c.VariationSets)),
		Assignments:   append([]model.VariationSetAssignment(nil), c.Assignments...),
		Rules:         make([]model.DemographicRule, 0, len(c.Rules)),
	}
	for _, q := range c.Questions {
		out.Questions = append(out.Questions, cloneQuestion(q))
	}
	for _, v := range c.Variations {
		out.Variations = append(out.Variations, cloneVariation(v))
	}
	for _, set := range c.VariationSets {
		set.Slots = append([]model.VariationSlot(nil), set.Slots...)
		out.VariationSets = append(out.VariationSets, set)
	}
	for _, r := range c.Rules {
		r.Conditions = cloneCondition(r.Conditions)
		actions := make([]model.RuleAction, 0, len(r.Actions))
		for _, a := range r.Actions {
			a.QuestionIDs = append([]string(nil), a.QuestionIDs...)
			actions = append(actions, a)
		}
		r.Actions = actions
		out.Rules = append(out.Rules, r)
	}
	return out
}

func cloneQuestion(q model.BaseQuestion) model.BaseQuestion {
	q.Options = append([]model.Option(nil), q.Options...)
	return q
}

func cloneVariation(v model.QuestionVariation) model.QuestionVariation {
	v.Options = append([]model.Option(nil), v.Options...)
	v.CompanyIDs = append([]string(nil), v.CompanyIDs...)
	v.Conditions = cloneCondition(v.Conditions)
	return v
}

func cloneCondition(c *model.Condition) *model.Condition {
	if c == nil {
		return nil
	}
	out := *c
	if c.Value.List != nil {
		out.Value.List = append(make([]string, 0, len(c.Value.List)), c.Value.List...)
	}
	if c.Value.Num != nil {
		n := *c.Value.Num
		out.Value.Num = &n
	}
	if c.Children != nil {
		out.Children = make([]model.Condition, len(c.Children))
		for i := range c.Children {
			out.Children[i] = *cloneCondition(&c.Children[i])
		}
	}
	return &out
}
