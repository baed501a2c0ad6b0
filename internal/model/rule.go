package model

import "time"

// ActionType is what a matching demographic rule does to the variation candidates
type ActionType string

const (
	ActionIncludeQuestions ActionType = "include_questions" // restrict candidates to the listed variations
	ActionExcludeQuestions ActionType = "exclude_questions" // drop the listed variations
	ActionAddQuestions     ActionType = "add_questions"     // add the listed variations
)

// Valid reports whether t is a known action
func (t ActionType) Valid() bool {
	switch t {
	case ActionIncludeQuestions, ActionExcludeQuestions, ActionAddQuestions:
		return true
	}
	return false
}

// RuleAction names the question variations a rule acts on
type RuleAction struct {
	Type        ActionType `json:"type" bson:"type" yaml:"type"`
	QuestionIDs []string   `json:"questionIds" bson:"questionIds" yaml:"questionIds"`
}

// DemographicRule adjusts variation candidates for respondents matching Conditions.
// Lower Priority is evaluated first; ties go to the smaller ID.
type DemographicRule struct {
	ID         string       `json:"id" bson:"_id" yaml:"id"`
	Name       string       `json:"name,omitempty" bson:"name,omitempty" yaml:"name,omitempty"`
	Conditions *Condition   `json:"conditions,omitempty" bson:"conditions,omitempty" yaml:"conditions,omitempty"`
	Actions    []RuleAction `json:"actions" bson:"actions" yaml:"actions"`
	Priority   int          `json:"priority" bson:"priority" yaml:"priority"`
	IsActive   bool         `json:"isActive" bson:"isActive" yaml:"isActive"`
	CreatedAt  time.Time    `json:"createdAt" bson:"createdAt" yaml:"createdAt"`
}
