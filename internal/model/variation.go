package model

import "time"

// QuestionVariation is a company, demographic or language specific rendering of a base question.
// Variations referenced by scored responses are never edited; revisions create a new row.
type QuestionVariation struct {
	ID             string     `json:"id" bson:"_id" yaml:"id"`
	BaseQuestionID string     `json:"baseQuestionId" bson:"baseQuestionId" yaml:"baseQuestionId"`
	VariationName  string     `json:"variationName" bson:"variationName" yaml:"variationName"`
	Language       Language   `json:"language" bson:"language" yaml:"language"`
	TextEn         string     `json:"textEn" bson:"textEn" yaml:"textEn"`
	TextAr         string     `json:"textAr" bson:"textAr" yaml:"textAr"`
	Options        []Option   `json:"options" bson:"options" yaml:"options"`
	Conditions     *Condition `json:"demographicRules,omitempty" bson:"demographicRules,omitempty" yaml:"demographicRules,omitempty"`
	CompanyIDs     []string   `json:"companyIds,omitempty" bson:"companyIds,omitempty" yaml:"companyIds,omitempty"`
	IsActive       bool       `json:"isActive" bson:"isActive" yaml:"isActive"`
	Supersedes     string     `json:"supersedes,omitempty" bson:"supersedes,omitempty" yaml:"supersedes,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt" yaml:"createdAt"`
}

// Text returns the variation text for lang, falling back to English
func (v QuestionVariation) Text(lang Language) string {
	if lang == LanguageArabic && v.TextAr != "" {
		return v.TextAr
	}
	return v.TextEn
}

// AppliesToCompany reports whether the variation may be shown to respondents of companyID
func (v QuestionVariation) AppliesToCompany(companyID string) bool {
	if len(v.CompanyIDs) == 0 {
		return true
	}
	for _, id := range v.CompanyIDs {
		if id == companyID {
			return true
		}
	}
	return false
}

// VariationSlot pins one variation to a question number
type VariationSlot struct {
	QuestionNumber int    `json:"questionNumber" bson:"questionNumber" yaml:"questionNumber"`
	VariationID    string `json:"variationId" bson:"variationId" yaml:"variationId"`
}

// VariationSet bundles one variation per base question into a complete alternate questionnaire
type VariationSet struct {
	ID          string          `json:"id" bson:"_id" yaml:"id"`
	Name        string          `json:"name" bson:"name" yaml:"name"`
	Description string          `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Slots       []VariationSlot `json:"slots" bson:"slots" yaml:"slots"`
	IsActive    bool            `json:"isActive" bson:"isActive" yaml:"isActive"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt" yaml:"createdAt"`
}

// Slot returns the variation id pinned to questionNumber
func (s VariationSet) Slot(questionNumber int) (string, bool) {
	for _, slot := range s.Slots {
		if slot.QuestionNumber == questionNumber {
			return slot.VariationID, true
		}
	}
	return "", false
}

// VariationSetAssignment assigns a variation set to a company
type VariationSetAssignment struct {
	CompanyID      string    `json:"companyId" bson:"_id" yaml:"companyId"`
	VariationSetID string    `json:"variationSetId" bson:"variationSetId" yaml:"variationSetId"`
	AssignedAt     time.Time `json:"assignedAt" bson:"assignedAt" yaml:"assignedAt"`
}
