package monitor

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tx-code/subwatch/internal/domain/observation"
	"github.com/tx-code/subwatch/internal/domain/schedule"
)

// Cycle runs one fetch -> extract -> detect-change -> append ->
// update-statistics pass. It never lets an I/O failure escape: a
// failed fetch or append is recorded as an unsuccessful check and
// reflected in the boolean result.
type Cycle struct {
	Log          *zap.Logger
	Store        schedule.Store
	Observations observation.Log
	Fetcher      PageFetcher
	Extractor    Extractor
	Clock        schedule.Clock
}

func (c *Cycle) Run(ctx context.Context) bool {
	st := c.Store.State()
	url := st.Monitor.URL
	sub := SubredditFromURL(url)

	tr := otel.Tracer("monitor.cycle")
	ctx, span := tr.Start(ctx, "monitor.cycle",
		trace.WithAttributes(
			attribute.String("check.url", url),
			attribute.String("check.subreddit", sub),
		),
	)
	defer span.End()

	c.Log.Info("starting monitoring cycle", zap.String("url", url))

	res, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		span.RecordError(err)
		c.Log.Warn("fetch failed", zap.String("url", url), zap.Error(err))
		c.record(&observation.Observation{
			Timestamp: c.Clock.Now(),
			Subreddit: sub,
			Success:   false,
			Error:     err.Error(),
		})
		c.updateCheckTime(false)
		return false
	}

	counts := c.Extractor.Extract(res.Body)
	if counts.Online == nil {
		c.Log.Warn("could not extract online count", zap.String("subreddit", sub))
	}

	// Change detection is informational only; the row is appended
	// either way for full time-series fidelity.
	var prev *int
	if last, lerr := c.Observations.Last(); lerr == nil && last != nil {
		prev = last.OnlineCount
	}
	if HasChanged(counts.Online, prev) {
		span.SetAttributes(attribute.Bool("check.changed", true))
		c.Log.Info("online count changed",
			zap.Int("old", intOrZero(prev)), zap.Int("new", intOrZero(counts.Online)))
	} else {
		c.Log.Info("online count unchanged", zap.Int("online", intOrZero(counts.Online)))
	}

	success := c.record(&observation.Observation{
		Timestamp:   c.Clock.Now(),
		Subreddit:   sub,
		OnlineCount: counts.Online,
		MemberCount: counts.Member,
		Success:     true,
	})
	if success {
		c.Log.Info("observation recorded",
			zap.String("subreddit", sub),
			zap.Any("online", counts.Online),
			zap.Any("members", counts.Member),
		)
	}
	c.updateCheckTime(success)

	stats := c.Store.Stats()
	c.Log.Info("cycle complete",
		zap.Int("total_checks", stats.TotalChecks),
		zap.Float64("success_rate", stats.SuccessRate),
	)
	return success
}

func (c *Cycle) record(o *observation.Observation) bool {
	path, err := c.Observations.Append(o)
	if err != nil {
		c.Log.Error("append observation", zap.Error(err))
		return false
	}
	c.Log.Debug("row appended", zap.String("file", path))
	return true
}

func (c *Cycle) updateCheckTime(success bool) {
	if err := c.Store.UpdateCheckTime(success); err != nil {
		c.Log.Error("update check time", zap.Error(err))
	}
}
