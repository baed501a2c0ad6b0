package engine

import (
	"fmt"
	"time"

	"finhealth/internal/model"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func variationOf(baseID, id string, lang model.Language, created time.Time) model.QuestionVariation {
	return model.QuestionVariation{
		ID:             id,
		BaseQuestionID: baseID,
		VariationName:  id,
		Language:       lang,
		TextEn:         "EN " + id,
		TextAr:         "AR " + id,
		Options:        LikertOptions(),
		IsActive:       true,
		CreatedAt:      created,
	}
}

// fullVariationSet pins one new variation to every unconditional question of c and returns the set
func fullVariationSet(c *model.Catalog, setID string) model.VariationSet {
	set := model.VariationSet{ID: setID, Name: setID, IsActive: true, CreatedAt: epoch}
	for _, q := range c.Questions {
		if q.Conditional {
			continue
		}
		id := fmt.Sprintf("%s_%s", setID, q.ID)
		c.Variations = append(c.Variations, variationOf(q.ID, id, model.LanguageEnglish, epoch))
		set.Slots = append(set.Slots, model.VariationSlot{QuestionNumber: q.Number, VariationID: id})
	}
	return set
}

func answerAll(questions []model.EffectiveQuestion, value int) model.SurveyResponse {
	resp := model.SurveyResponse{ID: "resp-1"}
	for _, q := range questions {
		resp.Answers = append(resp.Answers, model.Answer{QuestionID: q.ID, Value: value})
	}
	return resp
}

func demographics(pairs ...interface{}) model.Demographics {
	d := model.Demographics{}
	for i := 0; i+1 < len(pairs); i += 2 {
		field := pairs[i].(model.Field)
		switch v := pairs[i+1].(type) {
		case string:
			d[field] = model.StringValue(v)
		case float64:
			d[field] = model.NumberValue(v)
		case int:
			d[field] = model.NumberValue(float64(v))
		case []string:
			d[field] = model.ListValue(v...)
		}
	}
	return d
}
