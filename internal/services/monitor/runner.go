package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/tx-code/subwatch/internal/domain/schedule"
)

// ErrCheckInFlight is returned by CheckNow when another cycle, manual
// or scheduled, is already running against the target.
var ErrCheckInFlight = errors.New("a check is already in flight")

// defaultPoll is how often the loop re-evaluates due-ness while idle,
// which is also how fast it reacts to interval edits and stop signals.
const defaultPoll = 10 * time.Second

type RunnerConfig struct {
	Poll time.Duration
}

// Runner is the continuous-loop controller. One Runner owns the
// at-most-one-cycle-in-flight guarantee for its target: the scheduled
// loop and manual CheckNow calls share a single-flight slot.
type Runner struct {
	log   *zap.Logger
	cycle *Cycle
	store schedule.Store
	poll  time.Duration

	inFlight atomic.Bool

	mCycles   prometheus.Counter
	mFailures prometheus.Counter
	mSkips    prometheus.Counter
	mCycleDur prometheus.Histogram
}

func NewRunner(log *zap.Logger, cycle *Cycle, store schedule.Store, cfg RunnerConfig, reg prometheus.Registerer) *Runner {
	poll := cfg.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	m := promauto.With(reg)
	return &Runner{
		log:   log,
		cycle: cycle,
		store: store,
		poll:  poll,
		mCycles: m.NewCounter(prometheus.CounterOpts{
			Name: "subwatch_cycles_total", Help: "Monitoring cycles executed",
		}),
		mFailures: m.NewCounter(prometheus.CounterOpts{
			Name: "subwatch_cycle_failures_total", Help: "Monitoring cycles that did not record a successful check",
		}),
		mSkips: m.NewCounter(prometheus.CounterOpts{
			Name: "subwatch_cycles_skipped_total", Help: "Due cycles skipped because another check was in flight",
		}),
		mCycleDur: m.NewHistogram(prometheus.HistogramOpts{
			Name: "subwatch_cycle_duration_seconds", Help: "Monitoring cycle duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Run drives the monitoring loop until ctx is cancelled or a cycle
// panics. Either way the session is closed and final statistics are
// logged before Run returns.
func (r *Runner) Run(ctx context.Context) (err error) {
	if serr := r.store.StartSession(); serr != nil {
		r.log.Warn("start session", zap.Error(serr))
	}
	st := r.store.State()
	r.log.Info("monitor started",
		zap.String("url", st.Monitor.URL),
		zap.Duration("interval", st.Interval()),
	)

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("unexpected monitor error", zap.Any("panic", p))
			err = fmt.Errorf("monitor loop: %v", p)
		}
		r.finish()
	}()

	if wait := r.resumeDelay(); wait > 0 {
		r.log.Info("resuming previous schedule", zap.Duration("wait", wait))
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !r.store.ShouldCheckNow() {
			if !sleep(ctx, r.poll) {
				return ctx.Err()
			}
			continue
		}

		r.runScheduled(ctx)

		wait := r.store.TimeUntilNextCheck()
		if wait <= 0 {
			wait = r.store.State().Interval()
		}
		r.log.Info("next check scheduled", zap.Duration("in", wait))
		if !sleep(ctx, wait) {
			return ctx.Err()
		}
	}
}

// resumeDelay is the bounded catch-up wait applied once on start: the
// remainder of the persisted schedule when one exists, never a full
// interval, zero when the stored next-check time is already past.
func (r *Runner) resumeDelay() time.Duration {
	st := r.store.State()
	if st.Monitor.LastCheckTime == "" {
		r.log.Info("starting fresh monitoring session")
		return 0
	}
	r.log.Info("resuming from last check", zap.String("last_check", st.Monitor.LastCheckTime))
	wait := r.store.TimeUntilNextCheck()
	if wait <= 0 || wait >= st.Interval() {
		return 0
	}
	return wait
}

func (r *Runner) runScheduled(ctx context.Context) {
	if !r.inFlight.CompareAndSwap(false, true) {
		r.mSkips.Inc()
		r.log.Debug("check already in flight, skipping scheduled cycle")
		return
	}
	defer r.inFlight.Store(false)
	r.observeCycle(ctx)
}

// CheckNow runs one cycle outside the schedule, for manual triggers
// from presentation layers. It refuses to overlap a running cycle.
// A panicking cycle is converted to an error here instead of taking
// the caller down.
func (r *Runner) CheckNow(ctx context.Context) (ok bool, err error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return false, ErrCheckInFlight
	}
	defer r.inFlight.Store(false)
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("manual check panic", zap.Any("panic", p))
			ok, err = false, fmt.Errorf("manual check: %v", p)
		}
	}()
	return r.observeCycle(ctx), nil
}

func (r *Runner) observeCycle(ctx context.Context) bool {
	start := time.Now()
	ok := r.cycle.Run(ctx)
	r.mCycles.Inc()
	if !ok {
		r.mFailures.Inc()
	}
	r.mCycleDur.Observe(time.Since(start).Seconds())
	return ok
}

// finish closes the session and logs final statistics. It runs on
// every exit path out of Run, including the panic one.
func (r *Runner) finish() {
	if err := r.store.EndSession(); err != nil {
		r.log.Warn("end session", zap.Error(err))
	}
	stats := r.store.Stats()
	r.log.Info("session completed",
		zap.Int("session_checks", stats.SessionChecks),
		zap.Int("total_checks", stats.TotalChecks),
		zap.Float64("success_rate", stats.SuccessRate),
	)
}

// sleep waits for d or until ctx is cancelled; false means cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
