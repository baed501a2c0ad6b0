package model

import "time"

// SessionStatus is the lifecycle state of a survey session
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionSubmitted  SessionStatus = "submitted"
)

// SurveySession is the Redis state of one respondent taking the survey.
// Questions are frozen at start so a catalog reload never changes a running session.
type SurveySession struct {
	ID               string              `json:"id"`
	Profile          RespondentProfile   `json:"profile"`
	CompanyID        string              `json:"companyId,omitempty"`
	Language         Language            `json:"language"`
	CatalogVersion   string              `json:"catalogVersion"`
	Questions        []EffectiveQuestion `json:"questions"`
	MaxPossibleScore int                 `json:"maxPossibleScore"`
	Answers          map[string]int      `json:"answers"`
	Status           SessionStatus       `json:"status"`
	ResponseID       string              `json:"responseId,omitempty"`
	StartedAt        time.Time           `json:"startedAt"`
	SubmittedAt      *time.Time          `json:"submittedAt,omitempty"`
}

// SessionProgress reports completion of a session
type SessionProgress struct {
	SessionID         string `json:"sessionId"`
	QuestionsAnswered int    `json:"questionsAnswered"`
	TotalQuestions    int    `json:"totalQuestions"`
	Complete          bool   `json:"complete"`
}
