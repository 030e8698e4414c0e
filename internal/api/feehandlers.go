package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gasgate-labs/gasgate-backend/internal/oracle"
	"github.com/gasgate-labs/gasgate-backend/internal/router"
)

func (h *Handler) GetFeeReading(w http.ResponseWriter, r *http.Request) {
	network := mux.Vars(r)["network"]

	reading, err := h.feeOracle.GetCurrentFeeReading(r.Context(), network)
	if err != nil {
		if errors.Is(err, oracle.ErrUnknownNetwork) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Errorf("[GetFeeReading] Read for network %s failed: %v", network, err)
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, readingToResponse(reading))
}

func (h *Handler) CompareFees(w http.ResponseWriter, r *http.Request) {
	if h.netRouter == nil {
		h.writeError(w, http.StatusNotImplemented, "network routing is not configured")
		return
	}

	comparisons := h.netRouter.CompareAll(r.Context())
	resp := make([]ComparisonResponse, 0, len(comparisons))
	for _, c := range comparisons {
		resp = append(resp, ComparisonResponse{Network: c.Network, Reading: readingToResponse(c.Reading)})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RecommendNetwork(w http.ResponseWriter, r *http.Request) {
	if h.netRouter == nil {
		h.writeError(w, http.StatusNotImplemented, "network routing is not configured")
		return
	}

	var req RecommendRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if len(req.Preferred) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one preferred network is required")
		return
	}

	best, err := h.netRouter.Recommend(r.Context(), req.Preferred, req.Ceiling.ToBigInt(), req.AllowFallback)
	if err != nil {
		var noQualifier *router.NoQualifyingNetworkError
		if errors.As(err, &noQualifier) {
			comparisons := make([]ComparisonResponse, 0, len(noQualifier.Comparisons))
			for _, c := range noQualifier.Comparisons {
				comparisons = append(comparisons, ComparisonResponse{Network: c.Network, Reading: readingToResponse(c.Reading)})
			}
			h.writeJSON(w, http.StatusOK, RecommendResponse{Qualified: false, Comparisons: comparisons})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, RecommendResponse{
		Network:   best.Network,
		Reading:   readingToResponse(best.Reading),
		Qualified: true,
	})
}
