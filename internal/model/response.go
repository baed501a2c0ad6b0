package model

import "time"

// Answer is one Likert response
type Answer struct {
	QuestionID string `json:"questionId" bson:"questionId"`
	Value      int    `json:"value" bson:"value"`
}

// SurveyResponse is a respondent's answers, one per assembled question
type SurveyResponse struct {
	ID                string            `json:"id" bson:"_id"`
	SessionID         string            `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	RespondentID      string            `json:"respondentId,omitempty" bson:"respondentId,omitempty"`
	CompanyID         string            `json:"companyId,omitempty" bson:"companyId,omitempty"`
	Language          Language          `json:"language" bson:"language"`
	Profile           RespondentProfile `json:"profile" bson:"profile"`
	Answers           []Answer          `json:"answers" bson:"answers"`
	QuestionsAnswered int               `json:"questionsAnswered" bson:"questionsAnswered"`
	TotalQuestions    int               `json:"totalQuestions" bson:"totalQuestions"`
	CatalogVersion    string            `json:"catalogVersion,omitempty" bson:"catalogVersion,omitempty"`
	SubmittedAt       time.Time         `json:"submittedAt" bson:"submittedAt"`
}
