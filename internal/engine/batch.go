package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"finhealth/internal/model"
)

// ScoreRequest pairs an assembled question list with the response to score against it
type ScoreRequest struct {
	Questions []model.EffectiveQuestion
	Response  model.SurveyResponse
}

// ScoreResult is the outcome for one request; exactly one of Score and Err is set
type ScoreResult struct {
	Score *model.ScoreCalculation
	Err   error
}

// ScoreBatch scores independent responses concurrently. Results keep request order and a failing
// response does not stop the others. Only context cancellation aborts the batch.
func (sc *Scorer) ScoreBatch(ctx context.Context, requests []ScoreRequest) ([]ScoreResult, error) {
	results := make([]ScoreResult, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range requests {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			calc, err := sc.Score(requests[i].Questions, requests[i].Response)
			results[i] = ScoreResult{Score: calc, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
