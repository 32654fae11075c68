package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkerdavis/leadscout/internal/pipeline"
	"github.com/parkerdavis/leadscout/internal/query"
)

type fakeExecutor struct {
	run    func(ctx context.Context, q query.Query) (*pipeline.Outcome, error)
	closed *int
	mu     *sync.Mutex
}

func (f *fakeExecutor) Run(ctx context.Context, q query.Query) (*pipeline.Outcome, error) {
	return f.run(ctx, q)
}

func (f *fakeExecutor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	*f.closed++
	return nil
}

func unitFor(name string) Unit {
	return Unit{Name: name, Query: query.Query{RoleTitles: []string{name}, MaxResults: 1, MaxPages: 1}}
}

func TestRunner_ResultsInInputOrder(t *testing.T) {
	var mu sync.Mutex
	closed := 0
	factory := func(context.Context) (Executor, error) {
		return &fakeExecutor{
			mu:     &mu,
			closed: &closed,
			run: func(_ context.Context, q query.Query) (*pipeline.Outcome, error) {
				return &pipeline.Outcome{Query: q, Reason: pipeline.ReasonSatisfied}, nil
			},
		}, nil
	}

	units := []Unit{unitFor("ceo"), unitFor("cto"), unitFor("cfo")}
	results, err := New(factory, 2, false).RunAll(context.Background(), units)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, units[i].Name, res.Unit.Name)
		require.NoError(t, res.Err)
		assert.Equal(t, units[i].Query.RoleTitles, res.Outcome.Query.RoleTitles)
	}
	assert.Equal(t, 3, closed, "every executor is closed")
}

func TestRunner_UnitFailureDoesNotAbortSiblings(t *testing.T) {
	var mu sync.Mutex
	closed := 0
	boom := errors.New("browser crashed")
	factory := func(context.Context) (Executor, error) {
		return &fakeExecutor{
			mu:     &mu,
			closed: &closed,
			run: func(_ context.Context, q query.Query) (*pipeline.Outcome, error) {
				if q.RoleTitles[0] == "cto" {
					return nil, boom
				}
				return &pipeline.Outcome{Query: q}, nil
			},
		}, nil
	}

	results, err := New(factory, 1, false).RunAll(context.Background(),
		[]Unit{unitFor("ceo"), unitFor("cto"), unitFor("cfo")})
	require.NoError(t, err)

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err, "the failure stays contained to its unit")
	assert.Equal(t, 3, closed)
}

func TestRunner_RespectsConcurrencyBound(t *testing.T) {
	var mu sync.Mutex
	closed, inFlight, peak := 0, 0, 0

	factory := func(context.Context) (Executor, error) {
		return &fakeExecutor{
			mu:     &mu,
			closed: &closed,
			run: func(context.Context, query.Query) (*pipeline.Outcome, error) {
				mu.Lock()
				inFlight++
				if inFlight > peak {
					peak = inFlight
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return &pipeline.Outcome{}, nil
			},
		}, nil
	}

	units := []Unit{unitFor("a"), unitFor("b"), unitFor("c"), unitFor("d"), unitFor("e")}
	_, err := New(factory, 2, false).RunAll(context.Background(), units)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, 2)
}

func TestRunner_FactoryFailureIsPerUnit(t *testing.T) {
	factory := func(context.Context) (Executor, error) {
		return nil, errors.New("no browser available")
	}

	results, err := New(factory, 1, false).RunAll(context.Background(), []Unit{unitFor("ceo")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Nil(t, results[0].Outcome)
}
