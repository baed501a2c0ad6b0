package engine

import (
	"finhealth/internal/model"
)

// Collector holds one answer per included question of an assembled set.
// It is not safe for concurrent use; sessions keep their own collector.
type Collector struct {
	questions []model.EffectiveQuestion
	index     map[string]int
	answers   map[string]int
}

// NewCollector starts an empty collector for questions
func NewCollector(questions []model.EffectiveQuestion) *Collector {
	c := &Collector{
		questions: questions,
		index:     make(map[string]int, len(questions)),
		answers:   make(map[string]int, len(questions)),
	}
	for i, q := range questions {
		c.index[q.ID] = i
	}
	return c
}

// RestoreCollector rebuilds a collector from previously recorded answers.
// Answers for unknown questions or with out-of-range values are dropped.
func RestoreCollector(questions []model.EffectiveQuestion, answers map[string]int) *Collector {
	c := NewCollector(questions)
	for id, v := range answers {
		_ = c.Record(id, v)
	}
	return c
}

// Record stores value for questionID, replacing any earlier answer
func (c *Collector) Record(questionID string, value int) error {
	if _, ok := c.index[questionID]; !ok {
		return &UnknownQuestionError{QuestionID: questionID}
	}
	if value < model.LikertMin || value > model.LikertMax {
		return &InvalidAnswerError{QuestionID: questionID, Value: value}
	}
	c.answers[questionID] = value
	return nil
}

// Answer returns the recorded value for questionID
func (c *Collector) Answer(questionID string) (int, bool) {
	v, ok := c.answers[questionID]
	return v, ok
}

func (c *Collector) Answered() int { return len(c.answers) }

func (c *Collector) Total() int { return len(c.questions) }

func (c *Collector) Complete() bool { return len(c.answers) == len(c.questions) }

// Missing lists unanswered question ids in question order
func (c *Collector) Missing() []string {
	var out []string
	for _, q := range c.questions {
		if _, ok := c.answers[q.ID]; !ok {
			out = append(out, q.ID)
		}
	}
	return out
}

// Answers returns a copy of the recorded answers keyed by question id
func (c *Collector) Answers() map[string]int {
	out := make(map[string]int, len(c.answers))
	for k, v := range c.answers {
		out[k] = v
	}
	return out
}

// Response builds a SurveyResponse with answers in question order
func (c *Collector) Response() model.SurveyResponse {
	resp := model.SurveyResponse{
		Answers:           make([]model.Answer, 0, len(c.answers)),
		QuestionsAnswered: c.Answered(),
		TotalQuestions:    c.Total(),
	}
	for _, q := range c.questions {
		if v, ok := c.answers[q.ID]; ok {
			resp.Answers = append(resp.Answers, model.Answer{QuestionID: q.ID, Value: v})
		}
	}
	return resp
}
