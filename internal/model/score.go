package model

import "time"

// Band is the qualitative label for a total score
type Band string

const (
	BandExcellent        Band = "Excellent"
	BandGood             Band = "Good"
	BandNeedsImprovement Band = "Needs Improvement"
	BandAtRisk           Band = "At Risk"
)

// Interpretation is the qualitative reading of one pillar percentage
type Interpretation string

const (
	InterpretationExcellent        Interpretation = "excellent"
	InterpretationGood             Interpretation = "good"
	InterpretationNeedsImprovement Interpretation = "needs_improvement"
	InterpretationAtRisk           Interpretation = "at_risk"
)

// PillarScore is the sub-score of one pillar
type PillarScore struct {
	Pillar         Pillar         `json:"pillar" bson:"pillar"`
	Score          float64        `json:"score" bson:"score"`
	MaxScore       float64        `json:"maxScore" bson:"maxScore"`
	Percentage     float64        `json:"percentage" bson:"percentage"`
	Interpretation Interpretation `json:"interpretation" bson:"interpretation"`
}

// ScoreCalculation is the write-once result of scoring a completed response
type ScoreCalculation struct {
	ResponseID         string        `json:"responseId" bson:"responseId"`
	PillarScores       []PillarScore `json:"pillarScores" bson:"pillarScores"`
	TotalScore         float64       `json:"totalScore" bson:"totalScore"`
	MaxPossibleScore   int           `json:"maxPossibleScore" bson:"maxPossibleScore"`
	WeightedPercentage float64       `json:"weightedPercentage" bson:"weightedPercentage"`
	Band               Band          `json:"band" bson:"band"`
	Advice             []string      `json:"advice" bson:"advice"`
	CompanyID          string        `json:"companyId,omitempty" bson:"companyId,omitempty"`
	CatalogVersion     string        `json:"catalogVersion,omitempty" bson:"catalogVersion,omitempty"`
	CalculatedAt       time.Time     `json:"calculatedAt" bson:"calculatedAt"`
}
