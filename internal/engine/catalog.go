package engine

import (
	"fmt"

	"finhealth/internal/model"
)

const (
	// DefaultMaxPoints is the raw-score contribution of a question answered 5
	DefaultMaxPoints = 5
	// UnconditionalWeightTotal is the weight every unconditional question adds up to
	UnconditionalWeightTotal = 100
	// MaxQuestions bounds the catalog size
	MaxQuestions = 16
)

// LikertOptions returns the default agreement scale ordered 5..1
func LikertOptions() []model.Option {
	return []model.Option{
		{Value: 5, LabelEn: "Strongly agree", LabelAr: "أوافق بشدة"},
		{Value: 4, LabelEn: "Agree", LabelAr: "أوافق"},
		{Value: 3, LabelEn: "Neutral", LabelAr: "محايد"},
		{Value: 2, LabelEn: "Disagree", LabelAr: "لا أوافق"},
		{Value: 1, LabelEn: "Strongly disagree", LabelAr: "لا أوافق بشدة"},
	}
}

// DefaultCatalog returns the product's base questionnaire with no variations or rules
func DefaultCatalog() model.Catalog {
	q := func(number int, id string, factor model.Pillar, weight int, en, ar string) model.BaseQuestion {
		return model.BaseQuestion{
			ID:        id,
			Number:    number,
			Factor:    factor,
			Weight:    weight,
			MaxPoints: DefaultMaxPoints,
			TextEn:    en,
			TextAr:    ar,
			Options:   LikertOptions(),
		}
	}

	children := q(16, "q16_children_planning", model.PillarFuturePlanning, 5,
		"I am saving for my children's education and future needs.",
		"أدخر لتعليم أبنائي واحتياجاتهم المستقبلية.")
	children.Conditional = true

	return model.Catalog{
		Questions: []model.BaseQuestion{
			q(1, "q1_income_stability", model.PillarIncomeStream, 8,
				"My income is stable and predictable from month to month.",
				"دخلي مستقر ويمكن توقعه من شهر لآخر."),
			q(2, "q2_income_sources", model.PillarIncomeStream, 6,
				"I have more than one source of income or could quickly replace my main income.",
				"لدي أكثر من مصدر للدخل أو يمكنني تعويض دخلي الرئيسي بسرعة."),
			q(3, "q3_living_expenses", model.PillarMonthlyExpenses, 7,
				"My monthly income comfortably covers my living expenses.",
				"يغطي دخلي الشهري نفقات معيشتي بشكل مريح."),
			q(4, "q4_budget_tracking", model.PillarMonthlyExpenses, 6,
				"I follow a budget and track where my money goes each month.",
				"ألتزم بميزانية وأتابع أين يذهب مالي كل شهر."),
			q(5, "q5_bill_payments", model.PillarMonthlyExpenses, 6,
				"I pay my bills on time every month.",
				"أسدد فواتيري في موعدها كل شهر."),
			q(6, "q6_regular_saving", model.PillarSavingsHabit, 7,
				"I save a fixed part of my income every month.",
				"أدخر جزءاً ثابتاً من دخلي كل شهر."),
			q(7, "q7_emergency_fund", model.PillarSavingsHabit, 8,
				"I have emergency savings that would cover at least three months of expenses.",
				"لدي مدخرات للطوارئ تغطي نفقات ثلاثة أشهر على الأقل."),
			q(8, "q8_debt_burden", model.PillarDebtManagement, 7,
				"My debt repayments are a manageable share of my income.",
				"تمثل أقساط ديوني نسبة يمكن تحملها من دخلي."),
			q(9, "q9_debt_repayment", model.PillarDebtManagement, 6,
				"I repay my loans and credit cards without missing payments.",
				"أسدد قروضي وبطاقاتي الائتمانية دون التأخر عن أي دفعة."),
			q(10, "q10_credit_standing", model.PillarDebtManagement, 6,
				"I understand my credit record and keep it in good standing.",
				"أفهم سجلي الائتماني وأحافظ عليه في وضع جيد."),
			q(11, "q11_insurance_coverage", model.PillarProtection, 7,
				"I have adequate insurance cover for my health, life and property.",
				"لدي تغطية تأمينية كافية لصحتي وحياتي وممتلكاتي."),
			q(12, "q12_family_protection", model.PillarProtection, 6,
				"My family would be financially secure if something happened to me.",
				"ستكون أسرتي في أمان مالي إذا حدث لي مكروه."),
			q(13, "q13_retirement_planning", model.PillarRetirementPlanning, 8,
				"I am saving regularly towards my retirement.",
				"أدخر بانتظام من أجل تقاعدي."),
			q(14, "q14_financial_goals", model.PillarFuturePlanning, 6,
				"I have clear financial goals and a plan to reach them.",
				"لدي أهداف مالية واضحة وخطة لتحقيقها."),
			q(15, "q15_investment_planning", model.PillarFuturePlanning, 6,
				"I invest part of my savings to grow my wealth over the long term.",
				"أستثمر جزءاً من مدخراتي لتنمية ثروتي على المدى الطويل."),
			children,
		},
	}
}

// ValidateCatalog checks a catalog before it is published as a snapshot.
// It returns a *CatalogError listing every problem, or nil.
func ValidateCatalog(c model.Catalog) error {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(c.Questions) == 0 {
		addf("no questions")
	}
	if len(c.Questions) > MaxQuestions {
		addf("%d questions exceeds the maximum of %d", len(c.Questions), MaxQuestions)
	}

	ids := make(map[string]bool)
	numbers := make(map[int]bool)
	weight := 0
	for _, q := range c.Questions {
		if q.ID == "" {
			addf("question %d has no id", q.Number)
		} else if ids[q.ID] {
			addf("duplicate question id %q", q.ID)
		}
		ids[q.ID] = true
		if q.Number < 1 || q.Number > MaxQuestions {
			addf("question %q number %d out of range", q.ID, q.Number)
		} else if numbers[q.Number] {
			addf("duplicate question number %d", q.Number)
		}
		numbers[q.Number] = true
		if !q.Factor.Valid() {
			addf("question %q has unknown pillar %q", q.ID, q.Factor)
		}
		if q.Weight <= 0 {
			addf("question %q weight must be positive", q.ID)
		}
		if q.MaxPoints < 0 {
			addf("question %q maxPoints must not be negative", q.ID)
		}
		if q.TextEn == "" {
			addf("question %q has no English text", q.ID)
		}
		if err := validateOptions(q.Options); err != nil {
			addf("question %q: %v", q.ID, err)
		}
		if !q.Conditional {
			weight += q.Weight
		}
	}
	if len(c.Questions) > 0 && weight != UnconditionalWeightTotal {
		addf("unconditional weights sum to %d, want %d", weight, UnconditionalWeightTotal)
	}

	variationIDs := make(map[string]bool)
	for _, v := range c.Variations {
		if v.ID == "" {
			addf("variation for %q has no id", v.BaseQuestionID)
		} else if variationIDs[v.ID] {
			addf("duplicate variation id %q", v.ID)
		}
		variationIDs[v.ID] = true
		if err := ValidateVariation(c, v); err != nil {
			addf("%v", err)
		}
	}

	ruleIDs := make(map[string]bool)
	for _, r := range c.Rules {
		if r.ID == "" {
			addf("rule %q has no id", r.Name)
		} else if ruleIDs[r.ID] {
			addf("duplicate rule id %q", r.ID)
		}
		ruleIDs[r.ID] = true
		if err := ValidateRule(r); err != nil {
			addf("%v", err)
		}
	}

	snap := NewSnapshot(c)
	setIDs := make(map[string]bool)
	for _, set := range c.VariationSets {
		if setIDs[set.ID] {
			addf("duplicate variation set id %q", set.ID)
		}
		setIDs[set.ID] = true
		if err := snap.ValidateVariationSet(set); err != nil {
			addf("%v", err)
		}
	}
	for _, a := range c.Assignments {
		if !setIDs[a.VariationSetID] {
			addf("company %q assigned to unknown variation set %q", a.CompanyID, a.VariationSetID)
		}
	}

	if len(problems) > 0 {
		return &CatalogError{Problems: problems}
	}
	return nil
}

// ValidateVariation checks one variation against the catalog's base questions
func ValidateVariation(c model.Catalog, v model.QuestionVariation) error {
	found := false
	for _, q := range c.Questions {
		if q.ID == v.BaseQuestionID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("variation %q: %w", v.ID, &UnknownQuestionError{QuestionID: v.BaseQuestionID})
	}
	if !v.Language.Valid() {
		return fmt.Errorf("variation %q: %w", v.ID, &UnsupportedLanguageError{Language: string(v.Language)})
	}
	if v.TextEn == "" && v.TextAr == "" {
		return fmt.Errorf("variation %q has no text", v.ID)
	}
	if err := validateOptions(v.Options); err != nil {
		return fmt.Errorf("variation %q: %w", v.ID, err)
	}
	if v.Conditions != nil {
		if err := ValidateCondition(*v.Conditions); err != nil {
			return fmt.Errorf("variation %q: %w", v.ID, err)
		}
	}
	return nil
}

// ValidateRule checks a demographic rule's condition tree and actions
func ValidateRule(r model.DemographicRule) error {
	if r.Conditions != nil {
		if err := ValidateCondition(*r.Conditions); err != nil {
			return fmt.Errorf("rule %q: %w", r.ID, err)
		}
	}
	for _, a := range r.Actions {
		if !a.Type.Valid() {
			return fmt.Errorf("rule %q: unknown action %q", r.ID, a.Type)
		}
	}
	return nil
}

func validateOptions(options []model.Option) error {
	if len(options) != model.LikertMax {
		return fmt.Errorf("want %d options, got %d", model.LikertMax, len(options))
	}
	seen := make(map[int]bool)
	for _, o := range options {
		if o.Value < model.LikertMin || o.Value > model.LikertMax {
			return fmt.Errorf("option value %d out of range", o.Value)
		}
		if seen[o.Value] {
			return fmt.Errorf("duplicate option value %d", o.Value)
		}
		seen[o.Value] = true
		if o.LabelEn == "" {
			return fmt.Errorf("option %d has no English label", o.Value)
		}
	}
	return nil
}
