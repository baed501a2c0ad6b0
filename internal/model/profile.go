package model

// RespondentProfile holds the attributes used to evaluate rules and gate conditional questions
type RespondentProfile struct {
	RespondentID string       `json:"respondentId,omitempty" bson:"respondentId,omitempty"`
	HasChildren  bool         `json:"hasChildren" bson:"hasChildren"`
	Demographics Demographics `json:"demographics,omitempty" bson:"demographics,omitempty"`
}
