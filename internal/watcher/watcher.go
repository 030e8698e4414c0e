package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/gasgate-labs/gasgate-backend/internal/oracle"
	"github.com/gasgate-labs/gasgate-backend/internal/watcher/metrics"
	"github.com/gasgate-labs/gasgate-backend/pkg/eventbus"
	"github.com/gasgate-labs/gasgate-backend/pkg/events"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

const (
	// defaultPollInterval matches the expected block interval; one gate
	// evaluation per block is enough.
	defaultPollInterval = 12 * time.Second
	defaultMaxWorkers   = 1000
	defaultResyncSpec   = "@every 5m"
)

// JobSource is the ledger read view the watcher monitors.
type JobSource interface {
	GetJob(jobID uint64) (types.Job, error)
	CanExecute(caller common.Address, callerNetwork string, jobID uint64, observed *types.FeeReading) (bool, types.ExecReason)
	ListActiveJobs() []types.Job
}

// Submitter sends an execute call for a job and awaits its confirmation.
type Submitter interface {
	Submit(ctx context.Context, jobID uint64, observed *types.FeeReading) error
}

// Config holds the watcher's construction parameters.
type Config struct {
	// Address is the relayer identity used for gated executions.
	Address common.Address
	// Network is the network this watcher submits on.
	Network string
	// PollInterval between gate evaluations per job.
	PollInterval time.Duration
	// MaxWorkers bounds the number of concurrently watched jobs.
	MaxWorkers int
	// ResyncSpec is the cron schedule for rebuilding the watch set from
	// ledger queries. Empty selects the default; "-" disables resync.
	ResyncSpec string
}

// Watcher drives timely execution of active jobs. Each watched job gets its
// own polling worker; workers share only read access to the oracle and the
// ledger view.
type Watcher struct {
	ctx    context.Context
	cancel context.CancelFunc

	logger    logging.Logger
	ledger    JobSource
	oracle    oracle.FeeOracle
	submitter Submitter

	workers      map[uint64]*watchWorker
	workersMutex sync.RWMutex

	cfg        Config
	instanceID string
	cron       *cron.Cron
}

// New creates a Watcher. Callers wire event-driven enrollment with
// SubscribeTo and start periodic resync with Start.
func New(cfg Config, ledger JobSource, feeOracle oracle.FeeOracle, submitter Submitter, logger logging.Logger) (*Watcher, error) {
	if ledger == nil || submitter == nil {
		return nil, fmt.Errorf("ledger and submitter are required")
	}
	if logger == nil {
		logger = &logging.NoopLogger{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultMaxWorkers
	}
	if cfg.ResyncSpec == "" {
		cfg.ResyncSpec = defaultResyncSpec
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
		ledger:     ledger,
		oracle:     feeOracle,
		submitter:  submitter,
		workers:    make(map[uint64]*watchWorker),
		cfg:        cfg,
		instanceID: uuid.NewString(),
	}

	logger.Info("Relayer watcher initialized",
		"instance_id", w.instanceID,
		"relayer", cfg.Address.Hex(),
		"network", cfg.Network,
		"poll_interval", cfg.PollInterval,
		"max_workers", cfg.MaxWorkers,
	)
	return w, nil
}

// SubscribeTo attaches the watcher to the ledger's creation facts so new
// jobs are enrolled without polling for them.
func (w *Watcher) SubscribeTo(bus *eventbus.EventBus) {
	bus.Subscribe(events.JobCreated, func(event events.Event) {
		payload, ok := event.Payload.(events.JobCreatedEvent)
		if !ok {
			w.logger.Warn("Ignoring malformed job creation event")
			return
		}
		w.OnJobCreated(payload.JobID)
	})
}

// OnJobCreated is the push-style enrollment hook.
func (w *Watcher) OnJobCreated(jobID uint64) {
	if err := w.Enroll(jobID); err != nil {
		w.logger.Warnf("Failed to enroll job %d from creation event: %v", jobID, err)
	}
}

// Start launches the periodic watch-set resync and performs an initial one.
// It does not block; use StopAll to shut down.
func (w *Watcher) Start() error {
	w.Resync()

	if w.cfg.ResyncSpec == "-" {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(w.cfg.ResyncSpec, w.Resync); err != nil {
		return fmt.Errorf("invalid resync schedule %q: %w", w.cfg.ResyncSpec, err)
	}
	c.Start()
	w.cron = c
	return nil
}

// Enroll opens a watch entry for the job and starts its polling worker with
// an immediate first evaluation.
func (w *Watcher) Enroll(jobID uint64) error {
	w.workersMutex.Lock()
	defer w.workersMutex.Unlock()

	if _, exists := w.workers[jobID]; exists {
		return fmt.Errorf("job %d is already being watched", jobID)
	}
	if len(w.workers) >= w.cfg.MaxWorkers {
		return fmt.Errorf("maximum number of watch workers (%d) reached, cannot enroll job %d", w.cfg.MaxWorkers, jobID)
	}

	job, err := w.ledger.GetJob(jobID)
	if err != nil {
		return fmt.Errorf("cannot watch job %d: %w", jobID, err)
	}
	if job.Status != types.JobStatusActive {
		return fmt.Errorf("job %d is not active", jobID)
	}

	worker := w.newWorker(jobID)
	w.workers[jobID] = worker
	go worker.run()

	metrics.JobsEnrolled.Inc()
	metrics.JobsWatching.Inc()

	w.logger.Info("Job enrolled for watching",
		"job_id", jobID,
		"window_start", job.Window.Start,
		"window_end", job.Window.End,
		"fee_gate_enforced", job.FeeGate.Enforced,
		"active_workers", len(w.workers),
	)
	return nil
}

// Stop closes the watch entry for one job without affecting others. An
// execute submission already in flight is not aborted; its outcome is
// handled by the normal confirmation path.
func (w *Watcher) Stop(jobID uint64) error {
	w.workersMutex.Lock()
	defer w.workersMutex.Unlock()

	worker, exists := w.workers[jobID]
	if !exists {
		return fmt.Errorf("job %d is not being watched", jobID)
	}

	worker.stop()
	delete(w.workers, jobID)
	metrics.JobsWatching.Dec()

	w.logger.Info("Job watch stopped", "job_id", jobID)
	return nil
}

// StopAll releases all watch entries and detaches the resync schedule.
func (w *Watcher) StopAll() {
	w.logger.Info("Stopping relayer watcher", "instance_id", w.instanceID)

	if w.cron != nil {
		w.cron.Stop()
	}
	w.cancel()

	w.workersMutex.Lock()
	for jobID, worker := range w.workers {
		worker.stop()
		w.logger.Debug("Stopped watch worker", "job_id", jobID)
	}
	count := len(w.workers)
	w.workers = make(map[uint64]*watchWorker)
	w.workersMutex.Unlock()

	metrics.JobsWatching.Sub(float64(count))
	w.logger.Info("Relayer watcher stopped")
}

// Resync rebuilds the watch set from ledger queries, enrolling any active
// job that is not yet watched. Jobs already watched are left alone.
func (w *Watcher) Resync() {
	active := w.ledger.ListActiveJobs()

	enrolled := 0
	for _, job := range active {
		w.workersMutex.RLock()
		_, watched := w.workers[job.ID]
		w.workersMutex.RUnlock()
		if watched {
			continue
		}
		if err := w.Enroll(job.ID); err != nil {
			w.logger.Warnf("Resync could not enroll job %d: %v", job.ID, err)
			continue
		}
		enrolled++
	}

	if enrolled > 0 {
		w.logger.Info("Watch set resynced from ledger", "enrolled", enrolled, "active_jobs", len(active))
	}
}

// closeEntry removes a worker after its loop decided to finish. Safe to call
// from the worker goroutine.
func (w *Watcher) closeEntry(jobID uint64) {
	w.workersMutex.Lock()
	defer w.workersMutex.Unlock()

	if worker, exists := w.workers[jobID]; exists {
		worker.stop()
		delete(w.workers, jobID)
		metrics.JobsWatching.Dec()
	}
}

// IsWatching reports whether the job currently has an open watch entry.
func (w *Watcher) IsWatching(jobID uint64) bool {
	w.workersMutex.RLock()
	defer w.workersMutex.RUnlock()
	_, exists := w.workers[jobID]
	return exists
}

// Stats returns current watcher statistics.
func (w *Watcher) Stats() map[string]interface{} {
	w.workersMutex.RLock()
	defer w.workersMutex.RUnlock()

	running := 0
	for _, worker := range w.workers {
		if worker.isRunning() {
			running++
		}
	}

	return map[string]interface{}{
		"instance_id":           w.instanceID,
		"relayer":               w.cfg.Address.Hex(),
		"network":               w.cfg.Network,
		"total_workers":         len(w.workers),
		"running_workers":       running,
		"max_workers":           w.cfg.MaxWorkers,
		"poll_interval_seconds": w.cfg.PollInterval.Seconds(),
	}
}

// JobStats returns statistics for one watch entry.
func (w *Watcher) JobStats(jobID uint64) (map[string]interface{}, error) {
	w.workersMutex.RLock()
	defer w.workersMutex.RUnlock()

	worker, exists := w.workers[jobID]
	if !exists {
		return nil, fmt.Errorf("job %d is not being watched", jobID)
	}
	return worker.stats(), nil
}
