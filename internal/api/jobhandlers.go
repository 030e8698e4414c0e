package api

import (
	"net/http"

	"github.com/gasgate-labs/gasgate-backend/internal/ledger"
	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	destination, err := parseAddress("destination", req.Destination)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, err := parseAsset(req.AssetKind, req.Token)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := ledger.CreateParams{
		Owner:       owner,
		Destination: destination,
		Asset:       asset,
		Amount:      req.Amount.ToBigInt(),
		FeeGate: types.FeeGate{
			MaxBaseFee:     req.MaxBaseFee.ToBigInt(),
			MaxPriorityFee: req.MaxPriorityFee.ToBigInt(),
			MaxTotalFee:    req.MaxTotalFee.ToBigInt(),
			Enforced:       req.EnforceFeeGate,
		},
		Window: types.TimeWindow{
			Start:           req.WindowStart,
			End:             req.WindowEnd,
			ExecuteOnExpiry: req.ExecuteOnExpiry,
		},
		Memo:  req.Memo,
		Value: req.Value.ToBigInt(),
	}

	jobID, err := h.ledger.Create(params)
	if err != nil {
		h.logger.Errorf("[CreateJob] Creation for owner %s failed: %v", req.Owner, err)
		h.writeLedgerError(w, err)
		return
	}

	h.logger.Infof("[CreateJob] Created job %d for owner %s", jobID, req.Owner)
	h.writeJSON(w, http.StatusCreated, CreateJobResponse{JobID: jobID})
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.ledger.GetJob(jobID)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (h *Handler) ListActiveJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.ledger.ListActiveJobs()
	resp := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, jobToResponse(job))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ExecuteJob submits an execute call on behalf of the request's caller. When
// the job's fee gate is enforced a live oracle reading is attached, so the
// ledger gates on current market conditions.
func (h *Handler) ExecuteJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	var req ExecuteJobRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	network := req.Network
	if network == "" {
		network = h.ledger.Network()
	}

	reading, err := h.readingForJob(r, jobID)
	if err != nil {
		h.logger.Errorf("[ExecuteJob] Fee reading for job %d failed: %v", jobID, err)
		h.writeError(w, http.StatusBadGateway, "fee oracle unavailable: "+err.Error())
		return
	}

	if err := h.ledger.Execute(caller, network, jobID, reading); err != nil {
		h.logger.Warnf("[ExecuteJob] Execute of job %d by %s failed: %v", jobID, req.Caller, err)
		h.writeLedgerError(w, err)
		return
	}

	job, err := h.ledger.GetJob(jobID)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.logger.Infof("[ExecuteJob] Job %d executed by %s", jobID, req.Caller)
	h.writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	var req CancelJobRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.Cancel(caller, jobID); err != nil {
		h.logger.Warnf("[CancelJob] Cancel of job %d by %s failed: %v", jobID, req.Caller, err)
		h.writeLedgerError(w, err)
		return
	}

	job, err := h.ledger.GetJob(jobID)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.logger.Infof("[CancelJob] Job %d canceled by owner", jobID)
	h.writeJSON(w, http.StatusOK, jobToResponse(job))
}

// CanExecuteJob is the read-only gate preview. Caller and network come from
// query parameters; the same live reading the execute path would use is
// attached.
func (h *Handler) CanExecuteJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	caller, err := parseAddress("caller", r.URL.Query().Get("caller"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	network := r.URL.Query().Get("network")
	if network == "" {
		network = h.ledger.Network()
	}

	reading, err := h.readingForJob(r, jobID)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "fee oracle unavailable: "+err.Error())
		return
	}

	ok, reason := h.ledger.CanExecute(caller, network, jobID, reading)
	h.writeJSON(w, http.StatusOK, CanExecuteResponse{CanExecute: ok, Reason: string(reason)})
}

// readingForJob fetches a live fee reading for the job's network, but only
// when the job exists and actually enforces a fee gate. Oracle trouble on an
// ungated job must not block execution.
func (h *Handler) readingForJob(r *http.Request, jobID uint64) (*types.FeeReading, error) {
	job, err := h.ledger.GetJob(jobID)
	if err != nil {
		// Let the ledger report the missing job with its own reason.
		return nil, nil
	}
	if !job.FeeGate.Enforced {
		return nil, nil
	}
	return h.feeOracle.GetCurrentFeeReading(r.Context(), job.Network)
}
