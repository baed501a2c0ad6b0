package engine

import "finhealth/internal/model"

// Assemble builds the ordered question list for one respondent.
// Conditional questions are included only when the respondent has children. MaxPossibleScore
// is the sum of the included questions' MaxPoints, so it follows the catalog.
func (s *Snapshot) Assemble(profile model.RespondentProfile, lang model.Language, companyID string) (*model.QuestionSet, error) {
	lang, err := checkLanguage(lang)
	if err != nil {
		return nil, err
	}

	set := &model.QuestionSet{
		Language:       lang,
		CompanyID:      companyID,
		CatalogVersion: s.version,
	}
	for _, q := range s.questions {
		if q.Conditional && !profile.HasChildren {
			continue
		}
		set.Questions = append(set.Questions, s.resolve(q, lang, companyID, profile.Demographics))
		set.MaxPossibleScore += q.MaxPoints
	}

	if len(set.Questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	return set, nil
}

// MaxPossibleScore sums the raw-score ceilings of questions
func MaxPossibleScore(questions []model.EffectiveQuestion) int {
	total := 0
	for _, q := range questions {
		total += q.MaxPoints
	}
	return total
}
