package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gasgate-labs/gasgate-backend/pkg/types"
)

func (h *Handler) SetRelayerAuthorization(w http.ResponseWriter, r *http.Request) {
	var req RelayerAuthRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	relayer, err := parseAddress("relayer", req.Relayer)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.SetRelayerAuthorization(caller, relayer, req.Authorized); err != nil {
		h.logger.Warnf("[SetRelayerAuthorization] Update for relayer %s failed: %v", req.Relayer, err)
		h.writeLedgerError(w, err)
		return
	}

	h.logger.Infof("[SetRelayerAuthorization] Relayer %s authorized=%t", req.Relayer, req.Authorized)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"relayer":    relayer.Hex(),
		"authorized": req.Authorized,
	})
}

func (h *Handler) SetPlatformFee(w http.ResponseWriter, r *http.Request) {
	var req PlatformFeeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	collector, err := parseAddress("collector", req.Collector)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.SetPlatformFee(caller, req.FeeBps, collector); err != nil {
		h.logger.Warnf("[SetPlatformFee] Update to %d bps failed: %v", req.FeeBps, err)
		h.writeLedgerError(w, err)
		return
	}

	h.logger.Infof("[SetPlatformFee] Platform fee set to %d bps, collector %s", req.FeeBps, req.Collector)
	h.writeJSON(w, http.StatusOK, PlatformFeeResponse{FeeBps: req.FeeBps, Collector: collector.Hex()})
}

func (h *Handler) GetPlatformFee(w http.ResponseWriter, r *http.Request) {
	feeBps, collector := h.ledger.PlatformFee()
	h.writeJSON(w, http.StatusOK, PlatformFeeResponse{FeeBps: feeBps, Collector: collector.Hex()})
}

// Deposit credits the custody book so an owner can fund jobs. This stands in
// for the on-chain value transfer that would accompany a real deposit.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	account, err := parseAddress("account", req.Account)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, err := parseAsset(req.AssetKind, req.Token)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount := req.Amount.ToBigInt()
	if amount == nil || amount.Sign() <= 0 {
		h.writeError(w, http.StatusBadRequest, "amount must be a positive integer")
		return
	}

	h.ledger.Book().Credit(account, asset, amount)
	h.logger.Infof("[Deposit] Credited %s %s to %s", amount, asset, req.Account)
	h.writeJSON(w, http.StatusOK, BalanceResponse{
		Account: account.Hex(),
		Asset:   asset.String(),
		Balance: types.NewBigInt(h.ledger.Book().Balance(account, asset)),
	})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress("address", mux.Vars(r)["address"])
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, err := parseAsset(r.URL.Query().Get("asset_kind"), r.URL.Query().Get("token"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, BalanceResponse{
		Account: account.Hex(),
		Asset:   asset.String(),
		Balance: types.NewBigInt(h.ledger.Book().Balance(account, asset)),
	})
}
