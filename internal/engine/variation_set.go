package engine

import (
	"fmt"

	"finhealth/internal/model"
)

// ValidateVariationSet checks that set pins a variation of the right base question to every
// unconditional question number. The conditional question's slot is optional.
// It returns an *InvalidVariationSetError describing the first problem found.
func (s *Snapshot) ValidateVariationSet(set model.VariationSet) error {
	invalid := func(number int, variationID, format string, args ...interface{}) error {
		return &InvalidVariationSetError{
			SetID:          set.ID,
			QuestionNumber: number,
			VariationID:    variationID,
			Reason:         fmt.Sprintf(format, args...),
		}
	}

	if set.ID == "" {
		return invalid(0, "", "missing id")
	}
	if set.Name == "" {
		return invalid(0, "", "missing name")
	}

	seen := make(map[int]bool, len(set.Slots))
	for _, slot := range set.Slots {
		if seen[slot.QuestionNumber] {
			return invalid(slot.QuestionNumber, slot.VariationID, "question number pinned twice")
		}
		seen[slot.QuestionNumber] = true

		q, ok := s.questionsByNum[slot.QuestionNumber]
		if !ok {
			return invalid(slot.QuestionNumber, slot.VariationID, "no base question with this number")
		}
		if slot.VariationID == "" {
			return invalid(slot.QuestionNumber, "", "no variation pinned")
		}
		v, ok := s.variationsByID[slot.VariationID]
		if !ok {
			return invalid(slot.QuestionNumber, slot.VariationID, "variation %q does not exist", slot.VariationID)
		}
		if v.BaseQuestionID != q.ID {
			return invalid(slot.QuestionNumber, slot.VariationID,
				"variation %q belongs to %q, not %q", v.ID, v.BaseQuestionID, q.ID)
		}
	}

	for _, q := range s.questions {
		if q.Conditional || seen[q.Number] {
			continue
		}
		return invalid(q.Number, "", "question %q has no variation", q.ID)
	}
	return nil
}
