package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/model"
)

const savingQ = "q6_regular_saving"

func TestResolveFallsBackToBaseQuestion(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot(DefaultCatalog())
	eq, err := snap.Resolve(savingQ, model.LanguageEnglish, "", nil)
	require.NoError(t, err)

	base, _ := snap.Question(savingQ)
	assert.Equal(t, model.SourceDefault, eq.Source)
	assert.Empty(t, eq.VariationID)
	assert.Equal(t, base.TextEn, eq.Text)
	assert.Equal(t, base.Number, eq.Number)
	assert.Equal(t, base.Weight, eq.Weight)
	assert.Equal(t, DefaultMaxPoints, eq.MaxPoints)
	require.Len(t, eq.Options, 5)
	assert.Equal(t, 5, eq.Options[0].Value)
	assert.Equal(t, "Strongly agree", eq.Options[0].Label)

	ar, err := snap.Resolve(savingQ, "AR", "", nil)
	require.NoError(t, err)
	assert.Equal(t, base.TextAr, ar.Text)
	assert.Equal(t, "أوافق بشدة", ar.Options[0].Label)
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()

	snap := NewSnapshot(DefaultCatalog())

	_, err := snap.Resolve("q99_unknown", model.LanguageEnglish, "", nil)
	var unknown *UnknownQuestionError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "q99_unknown", unknown.QuestionID)
	assert.True(t, errors.Is(err, ErrUnknownQuestion))

	_, err = snap.Resolve(savingQ, "fr", "", nil)
	var lang *UnsupportedLanguageError
	require.True(t, errors.As(err, &lang))
	assert.Equal(t, "fr", lang.Language)
}

func TestResolveCandidateFiltering(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	inactive := variationOf(savingQ, "v_inactive", model.LanguageEnglish, epoch.Add(5*time.Hour))
	inactive.IsActive = false
	arabic := variationOf(savingQ, "v_ar", model.LanguageArabic, epoch.Add(4*time.Hour))
	otherCompany := variationOf(savingQ, "v_globex", model.LanguageEnglish, epoch.Add(3*time.Hour))
	otherCompany.CompanyIDs = []string{"globex"}
	conditioned := variationOf(savingQ, "v_seniors", model.LanguageEnglish, epoch.Add(2*time.Hour))
	seniors := model.Leaf(model.FieldAge, model.OpGte, model.NumberValue(60))
	conditioned.Conditions = &seniors
	plain := variationOf(savingQ, "v_plain", model.LanguageEnglish, epoch)
	c.Variations = append(c.Variations, inactive, arabic, otherCompany, conditioned, plain)
	snap := NewSnapshot(c)

	eq, err := snap.Resolve(savingQ, model.LanguageEnglish, "acme", demographics(model.FieldAge, 30))
	require.NoError(t, err)
	assert.Equal(t, "v_plain", eq.VariationID)
	assert.Equal(t, model.SourceVariation, eq.Source)
	assert.Equal(t, "EN v_plain", eq.Text)

	eq, err = snap.Resolve(savingQ, model.LanguageEnglish, "globex", demographics(model.FieldAge, 30))
	require.NoError(t, err)
	assert.Equal(t, "v_globex", eq.VariationID)

	eq, err = snap.Resolve(savingQ, model.LanguageEnglish, "acme", demographics(model.FieldAge, 65))
	require.NoError(t, err)
	assert.Equal(t, "v_seniors", eq.VariationID)

	eq, err = snap.Resolve(savingQ, model.LanguageArabic, "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "v_ar", eq.VariationID)
	assert.Equal(t, "AR v_ar", eq.Text)
}

func TestResolveTieBreakNewestThenGreatestID(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	c.Variations = append(c.Variations,
		variationOf(savingQ, "v_old", model.LanguageEnglish, epoch),
		variationOf(savingQ, "v_new", model.LanguageEnglish, epoch.Add(time.Hour)),
	)
	eq, err := NewSnapshot(c).Resolve(savingQ, model.LanguageEnglish, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "v_new", eq.VariationID)

	c = DefaultCatalog()
	c.Variations = append(c.Variations,
		variationOf(savingQ, "v_b", model.LanguageEnglish, epoch),
		variationOf(savingQ, "v_c", model.LanguageEnglish, epoch),
		variationOf(savingQ, "v_a", model.LanguageEnglish, epoch),
	)
	eq, err = NewSnapshot(c).Resolve(savingQ, model.LanguageEnglish, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "v_c", eq.VariationID)
}

func TestResolveArabicFallsBackToEnglishText(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	v := variationOf(savingQ, "v_ar", model.LanguageArabic, epoch)
	v.TextAr = ""
	v.Options[0].LabelAr = ""
	c.Variations = append(c.Variations, v)

	eq, err := NewSnapshot(c).Resolve(savingQ, model.LanguageArabic, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "EN v_ar", eq.Text)
	assert.Equal(t, "Strongly agree", eq.Options[0].Label)
}

func TestResolveVariationWithBrokenOptionsKeepsDefaultOptions(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	v := variationOf(savingQ, "v_short", model.LanguageEnglish, epoch)
	v.Options = v.Options[:3]
	c.Variations = append(c.Variations, v)

	eq, err := NewSnapshot(c).Resolve(savingQ, model.LanguageEnglish, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "v_short", eq.VariationID)
	assert.Len(t, eq.Options, 5)
}

func TestResolveDemographicRules(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	vA := variationOf(savingQ, "v_a", model.LanguageEnglish, epoch)
	vB := variationOf(savingQ, "v_b", model.LanguageEnglish, epoch.Add(time.Hour))
	vHidden := variationOf(savingQ, "v_hidden", model.LanguageEnglish, epoch.Add(2*time.Hour))
	vHidden.CompanyIDs = []string{"nobody"}
	vOther := variationOf("q7_emergency_fund", "v_other", model.LanguageEnglish, epoch.Add(3*time.Hour))
	c.Variations = append(c.Variations, vA, vB, vHidden, vOther)

	dubai := model.Leaf(model.FieldEmirate, model.OpEq, model.StringValue("Dubai"))
	young := model.Leaf(model.FieldAge, model.OpLt, model.NumberValue(30))
	islamic := model.Leaf(model.FieldFinancePreference, model.OpEq, model.StringValue("islamic"))
	c.Rules = []model.DemographicRule{
		{
			ID: "r_dubai", Priority: 1, IsActive: true, Conditions: &dubai,
			Actions: []model.RuleAction{{Type: model.ActionIncludeQuestions, QuestionIDs: []string{"v_a"}}},
		},
		{
			ID: "r_young", Priority: 2, IsActive: true, Conditions: &young,
			Actions: []model.RuleAction{{Type: model.ActionExcludeQuestions, QuestionIDs: []string{"v_b", "v_a"}}},
		},
		{
			ID: "r_islamic", Priority: 3, IsActive: true, Conditions: &islamic,
			Actions: []model.RuleAction{{Type: model.ActionAddQuestions, QuestionIDs: []string{"v_hidden", "v_other"}}},
		},
		{
			ID: "r_off", Priority: 0, IsActive: false,
			Actions: []model.RuleAction{{Type: model.ActionExcludeQuestions, QuestionIDs: []string{"v_a", "v_b"}}},
		},
	}
	snap := NewSnapshot(c)

	tests := []struct {
		name string
		d    model.Demographics
		want string
	}{
		{"no rule matches", demographics(model.FieldAge, 40), "v_b"},
		{"include restricts", demographics(model.FieldEmirate, "Dubai"), "v_a"},
		{"first match stops evaluation", demographics(model.FieldEmirate, "Dubai", model.FieldAge, 20), "v_a"},
		{"exclude everything falls back", demographics(model.FieldAge, 20), ""},
		{"add bypasses company filter", demographics(model.FieldFinancePreference, "islamic"), "v_hidden"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			eq, err := snap.Resolve(savingQ, model.LanguageEnglish, "acme", tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eq.VariationID)
			if tt.want == "" {
				assert.Equal(t, model.SourceDefault, eq.Source)
			}
		})
	}

	eq, err := snap.Resolve("q7_emergency_fund", model.LanguageEnglish, "acme", demographics(model.FieldEmirate, "Dubai"))
	require.NoError(t, err)
	assert.Equal(t, "v_other", eq.VariationID, "include targets of another question leave this one alone")
}

func TestResolveRulePriorityTieBreaksOnID(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	c.Variations = append(c.Variations,
		variationOf(savingQ, "v_a", model.LanguageEnglish, epoch),
		variationOf(savingQ, "v_b", model.LanguageEnglish, epoch),
	)
	c.Rules = []model.DemographicRule{
		{ID: "r2", Priority: 1, IsActive: true, Actions: []model.RuleAction{{Type: model.ActionIncludeQuestions, QuestionIDs: []string{"v_b"}}}},
		{ID: "r1", Priority: 1, IsActive: true, Actions: []model.RuleAction{{Type: model.ActionIncludeQuestions, QuestionIDs: []string{"v_a"}}}},
	}

	eq, err := NewSnapshot(c).Resolve(savingQ, model.LanguageEnglish, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "v_a", eq.VariationID)
}

func TestResolvePinnedVariationSet(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	set := fullVariationSet(&c, "gov")
	c.VariationSets = append(c.VariationSets, set)
	c.Assignments = append(c.Assignments, model.VariationSetAssignment{CompanyID: "acme", VariationSetID: "gov", AssignedAt: epoch})
	newer := variationOf(savingQ, "v_newer", model.LanguageEnglish, epoch.Add(time.Hour))
	c.Variations = append(c.Variations, newer)
	snap := NewSnapshot(c)

	eq, err := snap.Resolve(savingQ, model.LanguageEnglish, "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "gov_"+savingQ, eq.VariationID)
	assert.Equal(t, model.SourceVariationSet, eq.Source)

	eq, err = snap.Resolve(savingQ, model.LanguageEnglish, "globex", nil)
	require.NoError(t, err)
	assert.Equal(t, "v_newer", eq.VariationID)
}

func TestResolvePinnedInactiveVariationFallsThrough(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	set := fullVariationSet(&c, "gov")
	for i := range c.Variations {
		if c.Variations[i].ID == "gov_"+savingQ {
			c.Variations[i].IsActive = false
		}
	}
	c.Variations = append(c.Variations, variationOf(savingQ, "v_plain", model.LanguageEnglish, epoch.Add(-time.Hour)))
	c.VariationSets = append(c.VariationSets, set)
	c.Assignments = append(c.Assignments, model.VariationSetAssignment{CompanyID: "acme", VariationSetID: "gov"})

	eq, err := NewSnapshot(c).Resolve(savingQ, model.LanguageEnglish, "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "v_plain", eq.VariationID)
	assert.Equal(t, model.SourceVariation, eq.Source)
}

func TestResolveInactiveSetIsIgnored(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	set := fullVariationSet(&c, "gov")
	set.IsActive = false
	c.VariationSets = append(c.VariationSets, set)
	c.Assignments = append(c.Assignments, model.VariationSetAssignment{CompanyID: "acme", VariationSetID: "gov"})

	eq, err := NewSnapshot(c).Resolve(savingQ, model.LanguageEnglish, "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, model.SourceVariation, eq.Source, "set variations still compete as ordinary candidates")
}

func TestResolveLatestAssignmentWins(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	first := fullVariationSet(&c, "first")
	second := fullVariationSet(&c, "second")
	c.VariationSets = append(c.VariationSets, first, second)
	c.Assignments = append(c.Assignments,
		model.VariationSetAssignment{CompanyID: "acme", VariationSetID: "second", AssignedAt: epoch.Add(time.Hour)},
		model.VariationSetAssignment{CompanyID: "acme", VariationSetID: "first", AssignedAt: epoch},
	)

	eq, err := NewSnapshot(c).Resolve(savingQ, model.LanguageEnglish, "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "second_"+savingQ, eq.VariationID)
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	for i, id := range []string{"v1", "v2", "v3", "v4"} {
		c.Variations = append(c.Variations, variationOf(savingQ, id, model.LanguageEnglish, epoch.Add(time.Duration(i%2)*time.Minute)))
	}
	snap := NewSnapshot(c)
	d := demographics(model.FieldAge, 41, model.FieldEmirate, "Ajman")

	first, err := snap.Resolve(savingQ, model.LanguageEnglish, "acme", d)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := snap.Resolve(savingQ, model.LanguageEnglish, "acme", d)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "v4", first.VariationID)
}

func TestSnapshotIsIsolatedFromCallerMutation(t *testing.T) {
	t.Parallel()

	c := DefaultCatalog()
	snap := NewSnapshot(c)
	version := snap.Version()

	c.Questions[5].TextEn = "mutated"
	base, ok := snap.Question(savingQ)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", base.TextEn)
	assert.Equal(t, version, snap.Version())
	assert.Equal(t, version, NewSnapshot(DefaultCatalog()).Version())
	assert.NotEqual(t, version, NewSnapshot(c).Version())
}
