package engine

import (
	"math"

	"finhealth/internal/model"
)

// Absolute band thresholds on the total raw score. They do not move with MaxPossibleScore,
// so 75-point and 80-point respondents are graded on the same scale.
const (
	ExcellentThreshold        = 65
	GoodThreshold             = 50
	NeedsImprovementThreshold = 35
)

// Pillar interpretation thresholds on the pillar percentage
const (
	PillarExcellentPercent        = 80
	PillarGoodPercent             = 60
	PillarNeedsImprovementPercent = 40
)

// Scorer turns complete responses into score calculations
type Scorer struct {
	advisor Advisor
}

// NewScorer creates a scorer; a nil advisor uses WeakestPillarAdvisor
func NewScorer(advisor Advisor) *Scorer {
	if advisor == nil {
		advisor = WeakestPillarAdvisor{}
	}
	return &Scorer{advisor: advisor}
}

// Score scores response with the default advisor
func Score(questions []model.EffectiveQuestion, response model.SurveyResponse) (*model.ScoreCalculation, error) {
	return NewScorer(nil).Score(questions, response)
}

// Score aggregates answers into pillar scores, a total score and a band.
// Every question needs exactly one answer in 1..5; nothing is ever defaulted.
func (sc *Scorer) Score(questions []model.EffectiveQuestion, response model.SurveyResponse) (*model.ScoreCalculation, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}

	answers := make(map[string]int, len(response.Answers))
	duplicated := make(map[string]bool)
	for _, a := range response.Answers {
		if _, seen := answers[a.QuestionID]; seen {
			duplicated[a.QuestionID] = true
		}
		answers[a.QuestionID] = a.Value
	}

	type pillarTotals struct {
		score float64
		max   float64
	}
	totals := make(map[model.Pillar]*pillarTotals)
	var weighted, weightTotal float64

	for _, q := range questions {
		value, ok := answers[q.ID]
		switch {
		case !ok:
			return nil, &IncompleteResponseError{QuestionID: q.ID, Reason: "has no answer"}
		case duplicated[q.ID]:
			return nil, &IncompleteResponseError{QuestionID: q.ID, Reason: "has more than one answer"}
		case value < model.LikertMin || value > model.LikertMax:
			return nil, &IncompleteResponseError{QuestionID: q.ID, Reason: "has an answer outside 1..5"}
		}

		t, ok := totals[q.Factor]
		if !ok {
			t = &pillarTotals{}
			totals[q.Factor] = t
		}
		t.score += float64(value*q.MaxPoints) / model.LikertMax
		t.max += float64(q.MaxPoints)

		weighted += float64(q.Weight*value) / model.LikertMax
		weightTotal += float64(q.Weight)
	}

	calc := &model.ScoreCalculation{
		ResponseID:       response.ID,
		CompanyID:        response.CompanyID,
		CatalogVersion:   response.CatalogVersion,
		MaxPossibleScore: MaxPossibleScore(questions),
	}
	for _, pillar := range orderedPillars(questions) {
		t := totals[pillar]
		pct := PillarPercentage(t.score, t.max)
		calc.PillarScores = append(calc.PillarScores, model.PillarScore{
			Pillar:         pillar,
			Score:          t.score,
			MaxScore:       t.max,
			Percentage:     pct,
			Interpretation: InterpretPercentage(pct),
		})
		calc.TotalScore += t.score
	}
	if weightTotal > 0 {
		calc.WeightedPercentage = CalculatePillarPercentage(weighted / weightTotal * 100)
	}
	calc.Band = ClassifyBand(calc.TotalScore)
	calc.Advice = sc.advisor.Advise(calc.PillarScores)
	if calc.Advice == nil {
		calc.Advice = []string{}
	}
	return calc, nil
}

// orderedPillars lists the pillars present in questions in report order, then any unknown ones by first use
func orderedPillars(questions []model.EffectiveQuestion) []model.Pillar {
	present := make(map[model.Pillar]bool)
	var firstSeen []model.Pillar
	for _, q := range questions {
		if !present[q.Factor] {
			present[q.Factor] = true
			firstSeen = append(firstSeen, q.Factor)
		}
	}
	var out []model.Pillar
	for _, p := range model.Pillars() {
		if present[p] {
			out = append(out, p)
			delete(present, p)
		}
	}
	for _, p := range firstSeen {
		if present[p] {
			out = append(out, p)
		}
	}
	return out
}

// PillarPercentage is score/max as a clamped percentage; a zero max yields 0
func PillarPercentage(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return CalculatePillarPercentage(score / max * 100)
}

// CalculatePillarPercentage clamps a percentage into [0,100] and rounds it to two decimals.
// It is idempotent, so percentages arriving from storage can be passed through it again.
func CalculatePillarPercentage(pct float64) float64 {
	if math.IsNaN(pct) || pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return math.Round(pct*100) / 100
}

// ClassifyBand maps a total raw score onto the absolute band thresholds
func ClassifyBand(totalScore float64) model.Band {
	switch {
	case totalScore >= ExcellentThreshold:
		return model.BandExcellent
	case totalScore >= GoodThreshold:
		return model.BandGood
	case totalScore >= NeedsImprovementThreshold:
		return model.BandNeedsImprovement
	default:
		return model.BandAtRisk
	}
}

// InterpretPercentage reads a pillar percentage
func InterpretPercentage(pct float64) model.Interpretation {
	switch {
	case pct >= PillarExcellentPercent:
		return model.InterpretationExcellent
	case pct >= PillarGoodPercent:
		return model.InterpretationGood
	case pct >= PillarNeedsImprovementPercent:
		return model.InterpretationNeedsImprovement
	default:
		return model.InterpretationAtRisk
	}
}
