package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/gasgate-labs/gasgate-backend/internal/watcher/metrics"
	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

// watchWorker is the per-job monitoring record: one polling loop, the last
// observed fee reading, and the retry count. It exists from enrollment until
// the job is confirmed to have left the Active state.
type watchWorker struct {
	jobID   uint64
	watcher *Watcher

	ctx    context.Context
	cancel context.CancelFunc

	mutex       sync.RWMutex
	running     bool
	inFlight    bool
	lastReading *types.FeeReading
	lastCheck   time.Time
	retryCount  int
}

func (w *Watcher) newWorker(jobID uint64) *watchWorker {
	ctx, cancel := context.WithCancel(w.ctx)
	return &watchWorker{
		jobID:   jobID,
		watcher: w,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// run performs an immediate evaluation, then one evaluation per poll
// interval until the entry closes or the worker is stopped.
func (ww *watchWorker) run() {
	ww.mutex.Lock()
	ww.running = true
	ww.mutex.Unlock()

	logger := ww.watcher.logger

	if done := ww.evaluate(); done {
		ww.watcher.closeEntry(ww.jobID)
		return
	}

	ticker := time.NewTicker(ww.watcher.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ww.ctx.Done():
			logger.Debug("Watch worker stopped", "job_id", ww.jobID)
			return
		case <-ticker.C:
			if done := ww.evaluate(); done {
				ww.watcher.closeEntry(ww.jobID)
				return
			}
		}
	}
}

// evaluate performs one gate evaluation tick. It returns true when the entry
// should close: the job reached a terminal state, or no further attempt can
// ever be useful. Transient failures and closed gates return false so the
// next tick retries.
func (ww *watchWorker) evaluate() bool {
	logger := ww.watcher.logger
	metrics.EvaluationsTotal.Inc()

	job, err := ww.watcher.ledger.GetJob(ww.jobID)
	if err != nil {
		logger.Warnf("Job %d disappeared from ledger, closing watch entry: %v", ww.jobID, err)
		return true
	}
	if job.Status != types.JobStatusActive {
		logger.Info("Job reached terminal state, closing watch entry",
			"job_id", ww.jobID,
			"status", job.Status,
		)
		return true
	}

	// A fee reading is only needed while the gate can actually be enforced.
	var reading *types.FeeReading
	if job.FeeGate.Enforced {
		reading, err = ww.watcher.oracle.GetCurrentFeeReading(ww.ctx, job.Network)
		if err != nil {
			// Transient infra failure: retry on the normal cadence.
			metrics.OracleErrors.Inc()
			ww.noteCheck(nil, true)
			logger.Warnf("Fee oracle read failed for job %d, will retry: %v", ww.jobID, err)
			return false
		}
	}
	ww.noteCheck(reading, false)

	ok, reason := ww.watcher.ledger.CanExecute(ww.watcher.cfg.Address, ww.watcher.cfg.Network, ww.jobID, reading)
	if ok {
		metrics.GateOpenTotal.Inc()
		return ww.submit(reading)
	}

	switch reason {
	case types.ReasonTooEarly, types.ReasonFeeTooHigh:
		// Expected, frequent, non-fatal. Retry next tick.
		logger.Debug("Execution gate closed",
			"job_id", ww.jobID,
			"reason", reason,
		)
		return false
	case types.ReasonWindowExpired:
		// Expiry without executeOnExpiry precludes any further useful attempt.
		logger.Info("Job window expired without forced execution, closing watch entry", "job_id", ww.jobID)
		return true
	case types.ReasonJobNotActive, types.ReasonWrongNetwork:
		// State error: stop watching, nothing to do.
		logger.Info("Job no longer executable from this watcher, closing watch entry",
			"job_id", ww.jobID,
			"reason", reason,
		)
		return true
	case types.ReasonUnauthorized:
		// Authorization may be granted later; keep the entry open.
		logger.Warn("Watcher is not an authorized relayer for gated job", "job_id", ww.jobID)
		return false
	default:
		logger.Warn("Unexpected evaluation reason", "job_id", ww.jobID, "reason", reason)
		return false
	}
}

// submit sends the execute call and awaits its confirmation. At most one
// submission per job may be in flight; the guard also protects against
// overlapping ticks. Returns true once the job is confirmed terminal.
func (ww *watchWorker) submit(reading *types.FeeReading) bool {
	ww.mutex.Lock()
	if ww.inFlight {
		ww.mutex.Unlock()
		return false
	}
	ww.inFlight = true
	ww.mutex.Unlock()

	defer func() {
		ww.mutex.Lock()
		ww.inFlight = false
		ww.mutex.Unlock()
	}()

	logger := ww.watcher.logger
	metrics.SubmissionsTotal.Inc()

	// The submission runs under the watcher's root context, not the
	// worker's: closing this entry must not abort a submission already in
	// flight.
	if err := ww.watcher.submitter.Submit(ww.watcher.ctx, ww.jobID, reading); err != nil {
		metrics.SubmissionFailures.Inc()
		ww.mutex.Lock()
		ww.retryCount++
		ww.mutex.Unlock()
		// Entry stays open; the next poll re-evaluates and retries.
		logger.Errorf("Execute submission for job %d failed: %v", ww.jobID, err)
		return false
	}

	// Confirm the terminal status before closing the entry.
	job, err := ww.watcher.ledger.GetJob(ww.jobID)
	if err != nil || job.Status == types.JobStatusActive {
		logger.Warn("Submission confirmed but job still active, keeping watch entry", "job_id", ww.jobID)
		return false
	}

	logger.Info("Job execution confirmed",
		"job_id", ww.jobID,
		"status", job.Status,
	)
	return true
}

func (ww *watchWorker) noteCheck(reading *types.FeeReading, failed bool) {
	ww.mutex.Lock()
	defer ww.mutex.Unlock()
	if reading != nil {
		ww.lastReading = reading
	}
	ww.lastCheck = time.Now()
	if failed {
		ww.retryCount++
	}
}

func (ww *watchWorker) stop() {
	ww.mutex.Lock()
	defer ww.mutex.Unlock()
	if ww.running {
		ww.cancel()
		ww.running = false
	}
}

func (ww *watchWorker) isRunning() bool {
	ww.mutex.RLock()
	defer ww.mutex.RUnlock()
	return ww.running
}

func (ww *watchWorker) stats() map[string]interface{} {
	ww.mutex.RLock()
	defer ww.mutex.RUnlock()

	stats := map[string]interface{}{
		"job_id":      ww.jobID,
		"is_running":  ww.running,
		"in_flight":   ww.inFlight,
		"last_check":  ww.lastCheck,
		"retry_count": ww.retryCount,
	}
	if ww.lastReading != nil {
		stats["last_total_fee"] = ww.lastReading.TotalFee.String()
		stats["last_fee_source"] = ww.lastReading.Source
	}
	return stats
}
