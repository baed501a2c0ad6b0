package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorTracksCompletion(t *testing.T) {
	t.Parallel()

	set := assemble(t, false)
	c := NewCollector(set.Questions)
	assert.Equal(t, 0, c.Answered())
	assert.Equal(t, 15, c.Total())
	assert.False(t, c.Complete())
	assert.Len(t, c.Missing(), 15)

	for i, q := range set.Questions {
		require.NoError(t, c.Record(q.ID, i%5+1))
	}
	require.NoError(t, c.Record(set.Questions[0].ID, 5))

	assert.Equal(t, 15, c.Answered())
	assert.True(t, c.Complete())
	assert.Empty(t, c.Missing())
	v, ok := c.Answer(set.Questions[0].ID)
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	resp := c.Response()
	assert.Equal(t, 15, resp.QuestionsAnswered)
	assert.Equal(t, 15, resp.TotalQuestions)
	require.Len(t, resp.Answers, 15)
	for i, a := range resp.Answers {
		assert.Equal(t, set.Questions[i].ID, a.QuestionID)
	}

	_, err := Score(set.Questions, resp)
	assert.NoError(t, err)
}

func TestCollectorRejectsBadAnswers(t *testing.T) {
	t.Parallel()

	set := assemble(t, false)
	c := NewCollector(set.Questions)

	err := c.Record(childrenQ, 3)
	assert.True(t, errors.Is(err, ErrUnknownQuestion))

	for _, v := range []int{0, 6, -1} {
		err = c.Record(set.Questions[0].ID, v)
		var invalid *InvalidAnswerError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, v, invalid.Value)
	}
	assert.Equal(t, 0, c.Answered())
}

func TestRestoreCollectorDropsInvalidAnswers(t *testing.T) {
	t.Parallel()

	set := assemble(t, false)
	c := RestoreCollector(set.Questions, map[string]int{
		set.Questions[0].ID: 4,
		set.Questions[1].ID: 9,
		"stale":             2,
	})
	assert.Equal(t, 1, c.Answered())
	assert.Equal(t, map[string]int{set.Questions[0].ID: 4}, c.Answers())
	assert.Equal(t, set.Questions[1].ID, c.Missing()[0])

	partial := c.Response()
	_, err := Score(set.Questions, partial)
	var incomplete *IncompleteResponseError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, set.Questions[1].ID, incomplete.QuestionID)
}
