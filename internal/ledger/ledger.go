package ledger

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gasgate-labs/gasgate-backend/pkg/eventbus"
	"github.com/gasgate-labs/gasgate-backend/pkg/events"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

const maxFeeBps = 1000 // 10%

// custodyAccount holds all locked job funds between creation and terminal
// resolution.
var custodyAccount = common.HexToAddress("0x000000000000000000000000000000000000CafE")

// Config holds the ledger's construction parameters.
type Config struct {
	Network      string
	Admin        common.Address
	FeeBps       uint32
	FeeCollector common.Address
}

// Ledger is the authoritative store of jobs and custody funds. Every state
// transition is applied under one lock against a consistent snapshot, so no
// two executions of the same job can both succeed.
type Ledger struct {
	mu sync.Mutex

	logger logging.Logger
	bus    *eventbus.EventBus
	book   *Book

	network   string
	admin     common.Address
	feeBps    uint32
	collector common.Address

	jobs      map[uint64]*types.Job
	nextJobID uint64
	nonces    map[common.Address]uint64
	relayers  map[common.Address]bool

	now func() time.Time
}

// Option configures a Ledger at construction time.
type Option func(*Ledger)

// WithClock overrides the ledger's time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a Ledger. The event bus may be nil when no observer is wired.
func New(cfg Config, bus *eventbus.EventBus, logger logging.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = &logging.NoopLogger{}
	}

	l := &Ledger{
		logger:    logger,
		bus:       bus,
		book:      NewBook(),
		network:   cfg.Network,
		admin:     cfg.Admin,
		feeBps:    cfg.FeeBps,
		collector: cfg.FeeCollector,
		jobs:      make(map[uint64]*types.Job),
		nextJobID: 1,
		nonces:    make(map[common.Address]uint64),
		relayers:  make(map[common.Address]bool),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Book exposes the custody book, mainly for funding accounts and for balance
// queries by the API layer.
func (l *Ledger) Book() *Book {
	return l.book
}

// Network returns the network this ledger instance is recorded on.
func (l *Ledger) Network() string {
	return l.network
}

// CreateParams are the inputs to Create. Value is the native currency
// attached to the call; a native job must attach exactly Amount, a token job
// must attach none.
type CreateParams struct {
	Owner       common.Address
	Destination common.Address
	Asset       types.Asset
	Amount      *big.Int
	FeeGate     types.FeeGate
	Window      types.TimeWindow
	Memo        string
	Value       *big.Int
}

// Create validates the parameters, takes the funds into custody and stores a
// new Active job. Returns the assigned job id.
func (l *Ledger) Create(params CreateParams) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().Unix()

	if params.Destination == (common.Address{}) {
		return 0, ErrInvalidRecipient
	}
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	if params.Window.Start < now || params.Window.End <= params.Window.Start {
		return 0, ErrInvalidWindow
	}

	value := params.Value
	if value == nil {
		value = big.NewInt(0)
	}
	if params.Asset.IsNative() {
		// The call must carry exactly the job amount.
		if value.Cmp(params.Amount) != 0 {
			return 0, ErrFundingMismatch
		}
	} else if value.Sign() != 0 {
		// No native value may accompany a token job.
		return 0, ErrFundingMismatch
	}

	// Take custody. For a token asset this is the pull-transfer of exactly
	// Amount from the owner.
	if err := l.book.Transfer(params.Owner, custodyAccount, params.Asset, params.Amount); err != nil {
		return 0, ErrFundingMismatch
	}

	jobID := l.nextJobID
	l.nextJobID++
	l.nonces[params.Owner]++

	job := &types.Job{
		ID:          jobID,
		Owner:       params.Owner,
		Destination: params.Destination,
		Asset:       params.Asset,
		Amount:      new(big.Int).Set(params.Amount),
		FeeGate:     params.FeeGate,
		Window:      params.Window,
		Network:     l.network,
		Status:      types.JobStatusActive,
		Nonce:       l.nonces[params.Owner],
		Memo:        params.Memo,
		CreatedAt:   now,
	}
	l.jobs[jobID] = job

	l.logger.Info("Job created",
		"job_id", jobID,
		"owner", params.Owner.Hex(),
		"destination", params.Destination.Hex(),
		"asset", params.Asset.String(),
		"amount", params.Amount.String(),
		"window_start", params.Window.Start,
		"window_end", params.Window.End,
		"fee_gate_enforced", params.FeeGate.Enforced,
	)

	l.publish(events.Event{
		Type: events.JobCreated,
		Payload: events.JobCreatedEvent{
			JobID:       jobID,
			Owner:       params.Owner,
			Destination: params.Destination,
			Asset:       params.Asset.String(),
			Amount:      new(big.Int).Set(params.Amount),
			Network:     l.network,
			WindowStart: params.Window.Start,
			WindowEnd:   params.Window.End,
			MaxTotalFee: params.FeeGate.MaxTotalFee,
			Enforced:    params.FeeGate.Enforced,
		},
	})

	return jobID, nil
}

// evaluateExecution runs the execute guard chain against the current state.
// It is the single predicate shared by Execute and CanExecute, evaluated in
// guard order with the first failure winning. Caller must hold l.mu.
func (l *Ledger) evaluateExecution(caller common.Address, callerNetwork string, jobID uint64, observed *types.FeeReading) types.ExecReason {
	job, exists := l.jobs[jobID]
	if !exists || job.Status != types.JobStatusActive {
		return types.ReasonJobNotActive
	}
	if callerNetwork != job.Network {
		return types.ReasonWrongNetwork
	}

	now := l.now().Unix()
	if now < job.Window.Start {
		return types.ReasonTooEarly
	}
	if job.Window.Expired(now) {
		// Expiry forces execution at market price, bypassing the fee gate.
		if !job.Window.ExecuteOnExpiry {
			return types.ReasonWindowExpired
		}
		return types.ReasonNone
	}
	if job.FeeGate.Enforced {
		if !l.relayers[caller] {
			return types.ReasonUnauthorized
		}
		if !job.FeeGate.Satisfied(observed) {
			return types.ReasonFeeTooHigh
		}
	}
	return types.ReasonNone
}

// CanExecute is the read-only re-evaluation of the Execute preconditions.
// It never mutates state and always agrees with Execute under the same
// ledger state and reading.
func (l *Ledger) CanExecute(caller common.Address, callerNetwork string, jobID uint64, observed *types.FeeReading) (bool, types.ExecReason) {
	l.mu.Lock()
	defer l.mu.Unlock()

	reason := l.evaluateExecution(caller, callerNetwork, jobID, observed)
	return reason == types.ReasonNone, reason
}

// Execute releases the job's funds to its destination, minus the platform
// fee, after the guard chain passes. The status flip and both transfers are
// applied atomically: a failed transfer rolls everything back and the job
// stays Active.
func (l *Ledger) Execute(caller common.Address, callerNetwork string, jobID uint64, observed *types.FeeReading) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if reason := l.evaluateExecution(caller, callerNetwork, jobID, observed); reason != types.ReasonNone {
		return reasonError(reason)
	}

	job := l.jobs[jobID]
	now := l.now()

	platformFee := new(big.Int).Mul(job.Amount, big.NewInt(int64(l.feeBps)))
	platformFee.Div(platformFee, big.NewInt(10000))
	payout := new(big.Int).Sub(job.Amount, platformFee)

	// Status flips before the transfers are attempted; on any transfer
	// failure the whole operation is undone so partial payment is never
	// observable.
	job.Status = types.JobStatusExecuted

	if err := l.book.Transfer(custodyAccount, job.Destination, job.Asset, payout); err != nil {
		job.Status = types.JobStatusActive
		return err
	}
	if platformFee.Sign() > 0 {
		if err := l.book.Transfer(custodyAccount, l.collector, job.Asset, platformFee); err != nil {
			if rbErr := l.book.Transfer(job.Destination, custodyAccount, job.Asset, payout); rbErr != nil {
				l.logger.Error("Failed to roll back destination payout", "job_id", jobID, "error", rbErr)
			}
			job.Status = types.JobStatusActive
			return err
		}
	}

	job.ExecutedAt = now.Unix()
	job.ExecutedBy = caller
	job.ExecutedFee = observed

	l.logger.Info("Job executed",
		"job_id", jobID,
		"executor", caller.Hex(),
		"payout", payout.String(),
		"platform_fee", platformFee.String(),
	)

	var totalFee *big.Int
	if observed != nil {
		totalFee = observed.TotalFee
	}
	l.publish(events.Event{
		Type: events.JobExecuted,
		Payload: events.JobExecutedEvent{
			JobID:       jobID,
			Executor:    caller,
			Amount:      new(big.Int).Set(job.Amount),
			PlatformFee: platformFee,
			TotalFee:    totalFee,
			Timestamp:   now.UTC(),
		},
	})

	return nil
}

// Cancel refunds the job's full amount to its owner. Only the owner may
// cancel, only while the job is Active, and only before the window expires;
// once expiry makes the job unconditionally executable the owner's
// cancellation right lapses.
func (l *Ledger) Cancel(caller common.Address, jobID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, exists := l.jobs[jobID]
	if !exists || job.Status != types.JobStatusActive {
		return ErrJobNotActive
	}
	if caller != job.Owner {
		return ErrNotOwner
	}

	now := l.now()
	if now.Unix() >= job.Window.End {
		return ErrWindowExpired
	}

	job.Status = types.JobStatusCanceled
	if err := l.book.Transfer(custodyAccount, job.Owner, job.Asset, job.Amount); err != nil {
		job.Status = types.JobStatusActive
		return err
	}
	job.CanceledAt = now.Unix()

	l.logger.Info("Job canceled", "job_id", jobID, "owner", caller.Hex(), "refunded", job.Amount.String())

	l.publish(events.Event{
		Type: events.JobCanceled,
		Payload: events.JobCanceledEvent{
			JobID:     jobID,
			Owner:     job.Owner,
			Refunded:  new(big.Int).Set(job.Amount),
			Timestamp: now.UTC(),
		},
	})

	return nil
}

// GetJob returns a copy of the job.
func (l *Ledger) GetJob(jobID uint64) (types.Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	job, exists := l.jobs[jobID]
	if !exists {
		return types.Job{}, ErrJobNotFound
	}
	return *job, nil
}

// ListActiveJobs returns copies of all jobs still in the Active state. The
// watcher uses this to rebuild its watch set after a restart.
func (l *Ledger) ListActiveJobs() []types.Job {
	l.mu.Lock()
	defer l.mu.Unlock()

	var active []types.Job
	for _, job := range l.jobs {
		if job.Status == types.JobStatusActive {
			active = append(active, *job)
		}
	}
	return active
}

// SetRelayerAuthorization grants or revokes a principal's right to trigger
// fee-gated executions. Admin only; no fund movement.
func (l *Ledger) SetRelayerAuthorization(caller, relayer common.Address, authorized bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return ErrNotAdmin
	}

	eventType := events.RelayerRevoked
	var payload interface{} = events.RelayerRevokedEvent{Relayer: relayer}
	if authorized {
		l.relayers[relayer] = true
		eventType = events.RelayerAuthorized
		payload = events.RelayerAuthorizedEvent{Relayer: relayer}
	} else {
		delete(l.relayers, relayer)
	}

	l.logger.Info("Relayer authorization updated", "relayer", relayer.Hex(), "authorized", authorized)
	l.publish(events.Event{Type: eventType, Payload: payload})
	return nil
}

// IsAuthorizedRelayer reports whether the address may trigger fee-gated
// executions.
func (l *Ledger) IsAuthorizedRelayer(addr common.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.relayers[addr]
}

// SetPlatformFee updates the fee configuration. Changes apply only to future
// executions. Admin only.
func (l *Ledger) SetPlatformFee(caller common.Address, feeBps uint32, collector common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return ErrNotAdmin
	}
	if feeBps > maxFeeBps {
		return ErrInvalidFeeBps
	}
	if collector == (common.Address{}) {
		return ErrInvalidCollector
	}

	l.feeBps = feeBps
	l.collector = collector

	l.logger.Info("Platform fee updated", "fee_bps", feeBps, "collector", collector.Hex())
	l.publish(events.Event{
		Type:    events.FeeUpdated,
		Payload: events.FeeUpdatedEvent{FeeBps: feeBps, Collector: collector},
	})
	return nil
}

// PlatformFee returns the current fee configuration.
func (l *Ledger) PlatformFee() (uint32, common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.feeBps, l.collector
}

func (l *Ledger) publish(event events.Event) {
	if l.bus != nil {
		l.bus.Publish(event)
	}
}
