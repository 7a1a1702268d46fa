package monitor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tx-code/subwatch/internal/domain/schedule"
	"github.com/tx-code/subwatch/internal/repository/file"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

type fakeFetcher struct {
	res *FetchResult
	err error
}

func (f *fakeFetcher) Fetch(context.Context, string) (*FetchResult, error) {
	return f.res, f.err
}

type cycleFixture struct {
	cycle *Cycle
	store *file.StateStore
	log   *file.ObservationLog
	clock *fakeClock
}

func newCycleFixture(t *testing.T, fetcher PageFetcher) *cycleFixture {
	t.Helper()
	clock := newFakeClock()
	dir := t.TempDir()
	defaults := schedule.DefaultState("https://www.reddit.com/r/CNC/", 10, dir, true, clock.Now())
	store := file.NewStateStore(filepath.Join(dir, "config.json"), defaults, clock, zap.NewNop())
	log := file.NewObservationLog(dir)
	return &cycleFixture{
		cycle: &Cycle{
			Log:          zap.NewNop(),
			Store:        store,
			Observations: log,
			Fetcher:      fetcher,
			Extractor:    NewPageExtractor(),
			Clock:        clock,
		},
		store: store,
		log:   log,
		clock: clock,
	}
}

func TestCycleSuccessAppendsRowAndUpdatesStats(t *testing.T) {
	fx := newCycleFixture(t, &fakeFetcher{res: &FetchResult{
		StatusCode: 200,
		Body:       `<div active="150" subscribers="4567"></div>`,
	}})

	require.True(t, fx.cycle.Run(context.Background()))

	last, err := fx.log.Last()
	require.NoError(t, err)
	require.NotNil(t, last)
	require.True(t, last.Success)
	require.Equal(t, "CNC", last.Subreddit)
	require.Equal(t, 150, *last.OnlineCount)
	require.Equal(t, 4567, *last.MemberCount)

	st := fx.store.State()
	require.Equal(t, 1, st.Monitor.TotalChecks)
	require.Zero(t, st.Monitor.FailedChecks)
	require.NotEmpty(t, st.Monitor.NextScheduledCheck)
}

func TestCycleFetchFailureRecordsFailedRow(t *testing.T) {
	fx := newCycleFixture(t, &fakeFetcher{err: context.DeadlineExceeded})

	require.False(t, fx.cycle.Run(context.Background()))

	last, err := fx.log.Last()
	require.NoError(t, err)
	require.NotNil(t, last)
	require.False(t, last.Success)
	require.NotEmpty(t, last.Error)
	require.Nil(t, last.OnlineCount)

	st := fx.store.State()
	require.Equal(t, 1, st.Monitor.TotalChecks)
	require.Equal(t, 1, st.Monitor.FailedChecks)
}

func TestCycleExtractionMissIsStillSuccess(t *testing.T) {
	fx := newCycleFixture(t, &fakeFetcher{res: &FetchResult{
		StatusCode: 200,
		Body:       "<html><p>no numbers here</p></html>",
	}})

	require.True(t, fx.cycle.Run(context.Background()))

	last, err := fx.log.Last()
	require.NoError(t, err)
	require.True(t, last.Success)
	require.Nil(t, last.OnlineCount)
	require.Nil(t, last.MemberCount)
}

func TestCycleAlwaysAppendsEvenWhenUnchanged(t *testing.T) {
	fx := newCycleFixture(t, &fakeFetcher{res: &FetchResult{
		StatusCode: 200,
		Body:       `<div active="150"></div>`,
	}})

	require.True(t, fx.cycle.Run(context.Background()))
	require.True(t, fx.cycle.Run(context.Background()))

	rows, err := fx.log.Recent(0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}
