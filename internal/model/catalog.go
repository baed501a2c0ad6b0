package model

// Catalog is the full administrator-authored state the engine reads
type Catalog struct {
	Questions     []BaseQuestion           `json:"questions" yaml:"questions"`
	Variations    []QuestionVariation      `json:"variations,omitempty" yaml:"variations,omitempty"`
	VariationSets []VariationSet           `json:"variationSets,omitempty" yaml:"variationSets,omitempty"`
	Assignments   []VariationSetAssignment `json:"assignments,omitempty" yaml:"assignments,omitempty"`
	Rules         []DemographicRule        `json:"rules,omitempty" yaml:"rules,omitempty"`
}
