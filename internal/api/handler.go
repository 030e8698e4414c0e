package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/gasgate-labs/gasgate-backend/internal/ledger"
	"github.com/gasgate-labs/gasgate-backend/internal/oracle"
	"github.com/gasgate-labs/gasgate-backend/internal/router"
	"github.com/gasgate-labs/gasgate-backend/internal/watcher"
	"github.com/gasgate-labs/gasgate-backend/pkg/logging"
)

type Handler struct {
	ledger    *ledger.Ledger
	feeOracle oracle.FeeOracle
	netRouter *router.Router
	watcher   *watcher.Watcher
	logger    logging.Logger
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		ledger:    deps.Ledger,
		feeOracle: deps.Oracle,
		netRouter: deps.Router,
		watcher:   deps.Watcher,
		logger:    deps.Logger,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Errorf("Error encoding response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeLedgerError maps the ledger's sentinel errors onto HTTP status codes.
func (h *Handler) writeLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrUnauthorized),
		errors.Is(err, ledger.ErrNotOwner),
		errors.Is(err, ledger.ErrNotAdmin):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrJobNotActive),
		errors.Is(err, ledger.ErrWrongNetwork),
		errors.Is(err, ledger.ErrTooEarly),
		errors.Is(err, ledger.ErrWindowExpired),
		errors.Is(err, ledger.ErrFeeTooHigh):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidRecipient),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidWindow),
		errors.Is(err, ledger.ErrFundingMismatch),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInvalidFeeBps),
		errors.Is(err, ledger.ErrInvalidCollector):
		status = http.StatusBadRequest
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "error decoding request: "+err.Error())
		return false
	}
	return true
}

func jobIDFromRequest(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
}

// Status reports process health and watcher statistics.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "healthy",
		"network": h.ledger.Network(),
	}
	if h.watcher != nil {
		status["watcher"] = h.watcher.Stats()
	}
	h.writeJSON(w, http.StatusOK, status)
}
