package engine

import (
	"sort"

	"finhealth/internal/model"
)

// Resolve selects the single effective rendering of a base question for one respondent.
//
// Precedence: a variation pinned by the company's variation set (if active), then the
// candidate variations narrowed by the first matching demographic rule, newest first,
// then the base question's own text and options. Missing variations never fail.
func (s *Snapshot) Resolve(baseQuestionID string, lang model.Language, companyID string, d model.Demographics) (model.EffectiveQuestion, error) {
	lang, err := checkLanguage(lang)
	if err != nil {
		return model.EffectiveQuestion{}, err
	}
	q, ok := s.questionsByID[baseQuestionID]
	if !ok {
		return model.EffectiveQuestion{}, &UnknownQuestionError{QuestionID: baseQuestionID}
	}
	return s.resolve(q, lang, companyID, d), nil
}

func checkLanguage(lang model.Language) (model.Language, error) {
	normalized := lang.Normalize()
	if !normalized.Valid() {
		return "", &UnsupportedLanguageError{Language: string(lang)}
	}
	return normalized, nil
}

func (s *Snapshot) resolve(q *model.BaseQuestion, lang model.Language, companyID string, d model.Demographics) model.EffectiveQuestion {
	if v := s.pinnedVariation(q, companyID); v != nil {
		return fromVariation(q, v, lang, model.SourceVariationSet)
	}

	candidates := s.candidates(q, lang, companyID, d)
	candidates = s.applyRules(q, lang, candidates, d)
	if v := newest(candidates); v != nil {
		return fromVariation(q, v, lang, model.SourceVariation)
	}
	return fromBase(q, lang)
}

// pinnedVariation returns the active variation the company's variation set pins to q
func (s *Snapshot) pinnedVariation(q *model.BaseQuestion, companyID string) *model.QuestionVariation {
	if companyID == "" {
		return nil
	}
	setID, ok := s.companySets[companyID]
	if !ok {
		return nil
	}
	set, ok := s.setsByID[setID]
	if !ok || !set.IsActive {
		return nil
	}
	variationID, ok := set.Slot(q.Number)
	if !ok {
		return nil
	}
	v, ok := s.variationsByID[variationID]
	if !ok || !v.IsActive || v.BaseQuestionID != q.ID {
		return nil
	}
	return v
}

// candidates lists active variations of q in lang that apply to the company and whose own conditions hold
func (s *Snapshot) candidates(q *model.BaseQuestion, lang model.Language, companyID string, d model.Demographics) []*model.QuestionVariation {
	var out []*model.QuestionVariation
	for _, v := range s.variationsByBase[q.ID] {
		if !v.IsActive || v.Language != lang {
			continue
		}
		if !v.AppliesToCompany(companyID) {
			continue
		}
		if !EvaluateCondition(v.Conditions, d) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// applyRules applies the actions of the first active rule whose conditions hold.
// Actions only touch variations of q; ids of other questions' variations are ignored.
func (s *Snapshot) applyRules(q *model.BaseQuestion, lang model.Language, candidates []*model.QuestionVariation, d model.Demographics) []*model.QuestionVariation {
	for _, rule := range s.rules {
		if !rule.IsActive || !EvaluateCondition(rule.Conditions, d) {
			continue
		}
		for _, action := range rule.Actions {
			switch action.Type {
			case model.ActionIncludeQuestions:
				targets := s.targetsFor(q, action.QuestionIDs)
				if len(targets) == 0 {
					continue
				}
				kept := candidates[:0:0]
				for _, v := range candidates {
					if targets[v.ID] {
						kept = append(kept, v)
					}
				}
				candidates = kept
			case model.ActionExcludeQuestions:
				targets := s.targetsFor(q, action.QuestionIDs)
				kept := candidates[:0:0]
				for _, v := range candidates {
					if !targets[v.ID] {
						kept = append(kept, v)
					}
				}
				candidates = kept
			case model.ActionAddQuestions:
				for _, id := range action.QuestionIDs {
					v, ok := s.variationsByID[id]
					if !ok || v.BaseQuestionID != q.ID || !v.IsActive || v.Language != lang {
						continue
					}
					if !containsVariation(candidates, id) {
						candidates = append(candidates, v)
					}
				}
			}
		}
		return candidates
	}
	return candidates
}

func (s *Snapshot) targetsFor(q *model.BaseQuestion, ids []string) map[string]bool {
	targets := make(map[string]bool)
	for _, id := range ids {
		if v, ok := s.variationsByID[id]; ok && v.BaseQuestionID == q.ID {
			targets[id] = true
		}
	}
	return targets
}

func containsVariation(list []*model.QuestionVariation, id string) bool {
	for _, v := range list {
		if v.ID == id {
			return true
		}
	}
	return false
}

// newest picks the most recently created variation; equal timestamps go to the greatest id
func newest(candidates []*model.QuestionVariation) *model.QuestionVariation {
	if len(candidates) == 0 {
		return nil
	}
	sorted := append([]*model.QuestionVariation(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted[0]
}

func fromBase(q *model.BaseQuestion, lang model.Language) model.EffectiveQuestion {
	return model.EffectiveQuestion{
		ID:          q.ID,
		Number:      q.Number,
		Factor:      q.Factor,
		Weight:      q.Weight,
		MaxPoints:   q.MaxPoints,
		Text:        q.Text(lang),
		Options:     renderOptions(q.Options, lang),
		Conditional: q.Conditional,
		Source:      model.SourceDefault,
	}
}

func fromVariation(q *model.BaseQuestion, v *model.QuestionVariation, lang model.Language, source model.QuestionSource) model.EffectiveQuestion {
	eq := fromBase(q, lang)
	if text := v.Text(lang); text != "" {
		eq.Text = text
	}
	if validateOptions(v.Options) == nil {
		eq.Options = renderOptions(v.Options, lang)
	}
	eq.VariationID = v.ID
	eq.Source = source
	return eq
}

// renderOptions labels options in lang, ordered 5..1
func renderOptions(options []model.Option, lang model.Language) []model.EffectiveOption {
	out := make([]model.EffectiveOption, 0, len(options))
	for _, o := range options {
		out = append(out, model.EffectiveOption{Value: o.Value, Label: o.Label(lang)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}
