package engine

import (
	"errors"
	"fmt"
	"strings"
)

// All engine errors are deterministic given their inputs; callers surface them and never retry.
var (
	ErrUnknownQuestion     = errors.New("unknown question")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyQuestionSet    = errors.New("assembled question set is empty")
	ErrIncompleteResponse  = errors.New("incomplete response")
	ErrInvalidVariationSet = errors.New("invalid variation set")
	ErrInvalidCatalog      = errors.New("invalid catalog")
	ErrInvalidAnswer       = errors.New("invalid answer")
)

// UnknownQuestionError names a question id missing from the catalog or question set
type UnknownQuestionError struct {
	QuestionID string
}

func (e *UnknownQuestionError) Error() string {
	return fmt.Sprintf("unknown question %q", e.QuestionID)
}

func (e *UnknownQuestionError) Unwrap() error {
	return ErrUnknownQuestion
}

// UnsupportedLanguageError names a language other than en or ar
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q", e.Language)
}

func (e *UnsupportedLanguageError) Unwrap() error {
	return ErrUnsupportedLanguage
}

// IncompleteResponseError names the question whose answer is missing, duplicated or out of range
type IncompleteResponseError struct {
	QuestionID string
	Reason     string
}

func (e *IncompleteResponseError) Error() string {
	return fmt.Sprintf("incomplete response: question %q %s", e.QuestionID, e.Reason)
}

func (e *IncompleteResponseError) Unwrap() error {
	return ErrIncompleteResponse
}

// InvalidVariationSetError describes an unfilled or mismatched variation set slot
type InvalidVariationSetError struct {
	SetID          string
	QuestionNumber int
	VariationID    string
	Reason         string
}

func (e *InvalidVariationSetError) Error() string {
	if e.QuestionNumber == 0 {
		return fmt.Sprintf("invalid variation set %q: %s", e.SetID, e.Reason)
	}
	return fmt.Sprintf("invalid variation set %q: slot %d: %s", e.SetID, e.QuestionNumber, e.Reason)
}

func (e *InvalidVariationSetError) Unwrap() error {
	return ErrInvalidVariationSet
}

// InvalidAnswerError rejects a recorded answer value
type InvalidAnswerError struct {
	QuestionID string
	Value      int
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid answer %d for question %q: must be between 1 and 5", e.Value, e.QuestionID)
}

func (e *InvalidAnswerError) Unwrap() error {
	return ErrInvalidAnswer
}

// CatalogError lists every problem found while validating a catalog
type CatalogError struct {
	Problems []string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("invalid catalog: %s", strings.Join(e.Problems, "; "))
}

func (e *CatalogError) Unwrap() error {
	return ErrInvalidCatalog
}
