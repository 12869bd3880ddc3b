package slice_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/repository/memory"
	"github.com/maxviazov/convention-catalog-service/internal/slice"
)

func seededRules(t *testing.T, n int) *memory.Store[model.CodingRule] {
	t.Helper()
	store := memory.New(catalog.CodingRules)
	for i := 1; i <= n; i++ {
		_, err := store.Create(context.Background(), model.CodingRule{
			LayerID:  int64(1 + i%2),
			Code:     "R-" + slice.EncodeCursor(int64(i)),
			Name:     "rule",
			Severity: model.SeverityMajor,
			Category: "STYLE",
		})
		require.NoError(t, err)
	}
	return store
}

func ids(rows []model.CodingRule) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func span(from, to int64) []int64 {
	var out []int64
	if from >= to {
		for k := from; k >= to; k-- {
			out = append(out, k)
		}
		return out
	}
	for k := from; k <= to; k++ {
		out = append(out, k)
	}
	return out
}

func TestEngine_WalksTwentyFiveRowsInTens(t *testing.T) {
	eng := slice.NewEngine[model.CodingRule](seededRules(t, 25), catalog.CodingRules.Key)
	ctx := context.Background()
	limits := slice.DefaultLimits()
	size := 10

	c, err := slice.NewCriteria(catalog.CodingRules.Schema, slice.NewPageRequest(limits, "", &size))
	require.NoError(t, err)
	first, err := eng.Search(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, span(25, 16), ids(first.Content))
	assert.True(t, first.HasNext)
	assert.Equal(t, "16", first.Cursor())

	c, err = slice.NewCriteria(catalog.CodingRules.Schema, slice.NewPageRequest(limits, first.Cursor(), &size))
	require.NoError(t, err)
	second, err := eng.Search(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, span(15, 6), ids(second.Content))
	assert.Equal(t, "6", second.Cursor())

	c, err = slice.NewCriteria(catalog.CodingRules.Schema, slice.NewPageRequest(limits, second.Cursor(), &size))
	require.NoError(t, err)
	third, err := eng.Search(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, span(5, 1), ids(third.Content))
	assert.False(t, third.HasNext)
	assert.Nil(t, third.NextCursor)
}

func TestEngine_AscendingWalk(t *testing.T) {
	eng := slice.NewEngine[model.CodingRule](seededRules(t, 12), catalog.CodingRules.Key)
	c, err := slice.NewCriteria(catalog.CodingRules.Schema,
		slice.FirstPage(slice.DefaultLimits(), 5).WithDirection(slice.Ascending))
	require.NoError(t, err)

	var slices [][]int64
	err = eng.Walk(context.Background(), c, func(rows []model.CodingRule) error {
		slices = append(slices, ids(rows))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]int64{span(1, 5), span(6, 10), span(11, 12)}, slices)
}

func TestEngine_GarbageCursorRestartsAtFirstPage(t *testing.T) {
	eng := slice.NewEngine[model.CodingRule](seededRules(t, 4), catalog.CodingRules.Key)
	size := 2
	c, err := slice.NewCriteria(catalog.CodingRules.Schema, slice.NewPageRequest(slice.DefaultLimits(), "%%%", &size))
	require.NoError(t, err)
	res, err := eng.Search(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3}, ids(res.Content))
}

func TestEngine_EmptyFilterEqualsNoFilter(t *testing.T) {
	eng := slice.NewEngine[model.CodingRule](seededRules(t, 6), catalog.CodingRules.Key)
	ctx := context.Background()
	page := slice.FirstPage(slice.DefaultLimits(), 10)

	plain, err := slice.NewCriteria(catalog.CodingRules.Schema, page)
	require.NoError(t, err)
	withEmpty, err := slice.NewCriteria(catalog.CodingRules.Schema, page, slice.WithIn(catalog.DimLayerID, []int64{}))
	require.NoError(t, err)

	a, err := eng.Search(ctx, plain)
	require.NoError(t, err)
	b, err := eng.Search(ctx, withEmpty)
	require.NoError(t, err)
	assert.Equal(t, ids(a.Content), ids(b.Content))

	odd, err := slice.NewCriteria(catalog.CodingRules.Schema, page, slice.WithIn(catalog.DimLayerID, []int64{2}))
	require.NoError(t, err)
	c, err := eng.Search(ctx, odd)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 3, 1}, ids(c.Content))
}

func TestEngine_StoreErrorsPropagateUnchanged(t *testing.T) {
	boom := errors.New("connection reset")
	store := slice.StoreFunc[model.CodingRule](func(context.Context, slice.Query) ([]model.CodingRule, error) {
		return nil, boom
	})
	eng := slice.NewEngine[model.CodingRule](store, catalog.CodingRules.Key)
	c, err := slice.NewCriteria(catalog.CodingRules.Schema, slice.FirstPage(slice.DefaultLimits(), 3))
	require.NoError(t, err)

	_, err = eng.Search(context.Background(), c)
	assert.Same(t, boom, err)
	_, err = eng.All(context.Background(), c)
	assert.Same(t, boom, err)
}

func TestEngine_SingleOverFetchingRoundTrip(t *testing.T) {
	var calls []slice.Query
	store := slice.StoreFunc[model.CodingRule](func(_ context.Context, q slice.Query) ([]model.CodingRule, error) {
		calls = append(calls, q)
		return []model.CodingRule{{ID: 9}, {ID: 8}, {ID: 7}, {ID: 6}}, nil
	})
	eng := slice.NewEngine[model.CodingRule](store, catalog.CodingRules.Key)
	c, err := slice.NewCriteria(catalog.CodingRules.Schema, slice.FirstPage(slice.DefaultLimits(), 3))
	require.NoError(t, err)

	res, err := eng.Search(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, 4, calls[0].Limit)
	assert.Equal(t, []int64{9, 8, 7}, ids(res.Content))
	assert.Equal(t, "7", res.Cursor())
}

func TestEngine_WalkStopsOnCallbackError(t *testing.T) {
	eng := slice.NewEngine[model.CodingRule](seededRules(t, 9), catalog.CodingRules.Key)
	c, err := slice.NewCriteria(catalog.CodingRules.Schema, slice.FirstPage(slice.DefaultLimits(), 3))
	require.NoError(t, err)

	stop := errors.New("stop")
	visits := 0
	err = eng.Walk(context.Background(), c, func([]model.CodingRule) error {
		visits++
		if visits == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, visits)
}

func TestEngine_WalkHonorsCancellation(t *testing.T) {
	eng := slice.NewEngine[model.CodingRule](seededRules(t, 3), catalog.CodingRules.Key)
	c, err := slice.NewCriteria(catalog.CodingRules.Schema, slice.FirstPage(slice.DefaultLimits(), 1))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.All(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingObserver struct {
	entity   string
	returned int
	hasNext  bool
	err      error
	calls    int
}

func (o *recordingObserver) ObserveSlice(entity string, returned int, hasNext bool, _ time.Duration, err error) {
	o.entity, o.returned, o.hasNext, o.err = entity, returned, hasNext, err
	o.calls++
}

func TestEngine_ObserverAndDebugLog(t *testing.T) {
	var buf bytes.Buffer
	obs := &recordingObserver{}
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	eng := slice.NewEngine[model.CodingRule](seededRules(t, 5), catalog.CodingRules.Key,
		slice.WithLogger(log), slice.WithObserver(obs))

	c, err := slice.NewCriteria(catalog.CodingRules.Schema, slice.FirstPage(slice.DefaultLimits(), 2),
		slice.WithIn(catalog.DimCategory, []string{"STYLE"}))
	require.NoError(t, err)
	_, err = eng.Search(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 1, obs.calls)
	assert.Equal(t, "coding_rule", obs.entity)
	assert.Equal(t, 2, obs.returned)
	assert.True(t, obs.hasNext)
	assert.NoError(t, obs.err)

	out := buf.String()
	assert.Contains(t, out, `"message":"slice fetched"`)
	assert.Contains(t, out, `"entity":"coding_rule"`)
	assert.Contains(t, out, `"dimensions":["category"]`)
	assert.Contains(t, out, `"fetched":3`)
}
