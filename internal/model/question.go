package model

import "strings"

// Pillar is one of the fixed financial-health categories questions are grouped into
type Pillar string

const (
	PillarIncomeStream       Pillar = "income_stream"
	PillarMonthlyExpenses    Pillar = "monthly_expenses"
	PillarSavingsHabit       Pillar = "savings_habit"
	PillarDebtManagement     Pillar = "debt_management"
	PillarRetirementPlanning Pillar = "retirement_planning"
	PillarProtection         Pillar = "protection"
	PillarFuturePlanning     Pillar = "future_planning"
)

// Pillars returns every pillar in report order
func Pillars() []Pillar {
	return []Pillar{
		PillarIncomeStream,
		PillarMonthlyExpenses,
		PillarSavingsHabit,
		PillarDebtManagement,
		PillarRetirementPlanning,
		PillarProtection,
		PillarFuturePlanning,
	}
}

// Valid reports whether p is a known pillar
func (p Pillar) Valid() bool {
	for _, known := range Pillars() {
		if p == known {
			return true
		}
	}
	return false
}

// Language is a survey rendering language
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// Normalize lowercases and trims the language code
func (l Language) Normalize() Language {
	return Language(strings.ToLower(strings.TrimSpace(string(l))))
}

// Valid reports whether l is a supported language
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageArabic
}

// Likert scale bounds used by every question
const (
	LikertMin = 1
	LikertMax = 5
)

// Option is one bilingual Likert choice
type Option struct {
	Value   int    `json:"value" bson:"value" yaml:"value"`
	LabelEn string `json:"labelEn" bson:"labelEn" yaml:"labelEn"`
	LabelAr string `json:"labelAr" bson:"labelAr" yaml:"labelAr"`
}

// Label returns the label for lang, falling back to English
func (o Option) Label(lang Language) string {
	if lang == LanguageArabic && o.LabelAr != "" {
		return o.LabelAr
	}
	return o.LabelEn
}

// BaseQuestion is the canonical, language-neutral question definition
type BaseQuestion struct {
	ID          string   `json:"id" bson:"_id" yaml:"id"` // e.g. "q13_retirement_planning"
	Number      int      `json:"number" bson:"number" yaml:"number"`
	Factor      Pillar   `json:"factor" bson:"factor" yaml:"factor"`
	Weight      int      `json:"weight" bson:"weight" yaml:"weight"`          // percentage points
	MaxPoints   int      `json:"maxPoints" bson:"maxPoints" yaml:"maxPoints"` // raw points at answer 5
	TextEn      string   `json:"textEn" bson:"textEn" yaml:"textEn"`
	TextAr      string   `json:"textAr" bson:"textAr" yaml:"textAr"`
	Options     []Option `json:"options" bson:"options" yaml:"options"` // ordered 5..1
	Conditional bool     `json:"conditional" bson:"conditional" yaml:"conditional"`
}

// Text returns the question text for lang, falling back to English
func (q BaseQuestion) Text(lang Language) string {
	if lang == LanguageArabic && q.TextAr != "" {
		return q.TextAr
	}
	return q.TextEn
}

// QuestionSource records where an effective question's wording came from
type QuestionSource string

const (
	SourceDefault      QuestionSource = "default"
	SourceVariation    QuestionSource = "variation"
	SourceVariationSet QuestionSource = "variation_set"
)

// EffectiveOption is a rendered Likert choice
type EffectiveOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// EffectiveQuestion is the single rendering of a base question shown to one respondent
type EffectiveQuestion struct {
	ID          string            `json:"id"`
	Number      int               `json:"number"`
	Factor      Pillar            `json:"factor"`
	Weight      int               `json:"weight"`
	MaxPoints   int               `json:"maxPoints"`
	Text        string            `json:"text"`
	Options     []EffectiveOption `json:"options"`
	Conditional bool              `json:"conditional"`
	VariationID string            `json:"variationId,omitempty"`
	Source      QuestionSource    `json:"source"`
}

// QuestionSet is the assembled, ordered question list for one respondent
type QuestionSet struct {
	Questions        []EffectiveQuestion `json:"questions"`
	MaxPossibleScore int                 `json:"maxPossibleScore"`
	Language         Language            `json:"language"`
	CompanyID        string              `json:"companyId,omitempty"`
	CatalogVersion   string              `json:"catalogVersion"`
}
