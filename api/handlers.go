package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"accrue/metrics"
	"accrue/models"
	"accrue/service"
)

// callerHeader carries the caller's address. Authenticating it is the
// deployment's concern (gateway, mTLS); the ledger only authorizes.
const callerHeader = "X-Caller-Address"

type handler struct {
	ledger    service.LedgerService
	rates     service.RateService
	collector *metrics.Collector
}

type amountRequest struct {
	Amount string `json:"amount,omitempty"`
	All    bool   `json:"all,omitempty"`
}

func (a amountRequest) toAmount() (models.Amount, error) {
	if a.All {
		return models.All(), nil
	}
	v, err := parseBigInt(a.Amount)
	if err != nil {
		return models.Amount{}, err
	}
	return models.Exact(v), nil
}

func parseBigInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer amount %q", s)
	}
	return v, nil
}

func caller(r *http.Request) (string, error) {
	addr := r.Header.Get(callerHeader)
	if addr == "" {
		return "", fmt.Errorf("missing %s header", callerHeader)
	}
	return addr, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the service error taxonomy onto HTTP statuses. Every
// rejected operation left state untouched, so all of these are safe to
// resubmit.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrRateIncreaseRejected):
		status = http.StatusConflict
	case errors.Is(err, service.ErrOverflow):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (h *handler) observe(operation string, err error) {
	if h.collector != nil {
		h.collector.ObserveOperation(operation, err)
	}
}

type accountResponse struct {
	Address     string `json:"address"`
	Balance     string `json:"balance"`
	Principal   string `json:"principal"`
	Rate        string `json:"rate"`
	LastSettled string `json:"last_settled,omitempty"`
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	balance, err := h.ledger.BalanceOf(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	principal, err := h.ledger.GetPrincipal(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	rate, err := h.ledger.GetUserRate(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	lastSettled, err := h.ledger.GetLastSettled(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := accountResponse{
		Address:   address,
		Balance:   balance.String(),
		Principal: principal.String(),
		Rate:      rate.String(),
	}
	if !lastSettled.IsZero() {
		resp.LastSettled = lastSettled.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getBalance(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	balance, err := h.ledger.BalanceOf(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": address, "balance": balance.String()})
}

func (h *handler) getHistory(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequest(w, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}

	entries, err := h.ledger.GetHistory(r.Context(), address, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	type entryResponse struct {
		Type            string         `json:"type"`
		PrincipalBefore string         `json:"principal_before"`
		PrincipalAfter  string         `json:"principal_after"`
		ChangeAmount    string         `json:"change_amount"`
		Metadata        map[string]any `json:"metadata,omitempty"`
		CreatedAt       string         `json:"created_at"`
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			Type:            string(e.EntryType),
			PrincipalBefore: e.PrincipalBefore.String(),
			PrincipalAfter:  e.PrincipalAfter.String(),
			ChangeAmount:    e.ChangeAmount.String(),
			Metadata:        e.Metadata,
			CreatedAt:       e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) settle(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	interest, err := h.ledger.Settle(r.Context(), address)
	h.observe("settle", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": address, "interest": interest.String()})
}

func (h *handler) mint(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	var req struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	amount, err := parseBigInt(req.Amount)
	if err != nil {
		badRequest(w, err)
		return
	}

	err = h.ledger.Mint(r.Context(), from, req.To, amount)
	h.observe("mint", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"to": req.To, "amount": amount.String()})
}

func (h *handler) burn(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	var req struct {
		From string `json:"from"`
		amountRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	amount, err := req.toAmount()
	if err != nil {
		badRequest(w, err)
		return
	}

	burned, err := h.ledger.Burn(r.Context(), from, req.From, amount)
	h.observe("burn", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"from": req.From, "burned": burned.String()})
}

func (h *handler) transfer(w http.ResponseWriter, r *http.Request) {
	from, err := caller(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	var req struct {
		To string `json:"to"`
		amountRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	amount, err := req.toAmount()
	if err != nil {
		badRequest(w, err)
		return
	}

	moved, err := h.ledger.Transfer(r.Context(), from, req.To, amount)
	h.observe("transfer", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"from": from, "to": req.To, "amount": moved.String()})
}

func (h *handler) transferFrom(w http.ResponseWriter, r *http.Request) {
	spender, err := caller(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
		amountRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	amount, err := req.toAmount()
	if err != nil {
		badRequest(w, err)
		return
	}

	moved, err := h.ledger.TransferFrom(r.Context(), spender, req.From, req.To, amount)
	h.observe("transfer_from", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"from": req.From, "to": req.To, "amount": moved.String()})
}

func (h *handler) approve(w http.ResponseWriter, r *http.Request) {
	owner, err := caller(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	var req struct {
		Spender string `json:"spender"`
		Amount  string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	amount, err := parseBigInt(req.Amount)
	if err != nil {
		badRequest(w, err)
		return
	}

	err = h.ledger.Approve(r.Context(), owner, req.Spender, amount)
	h.observe("approve", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": owner, "spender": req.Spender, "amount": amount.String()})
}

func (h *handler) getAllowance(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	spender := chi.URLParam(r, "spender")

	allowance, err := h.ledger.Allowance(r.Context(), owner, spender)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": owner, "spender": spender, "allowance": allowance.String()})
}

func (h *handler) listAllowances(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "address")

	allowances, err := h.ledger.ListAllowances(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}

	type allowanceResponse struct {
		Spender string `json:"spender"`
		Amount  string `json:"amount"`
	}

	out := make([]allowanceResponse, 0, len(allowances))
	for _, a := range allowances {
		out = append(out, allowanceResponse{
			Spender: a.Spender,
			Amount:  a.Amount.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.GetGlobalRate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"rate": rate.String()})
}

func (h *handler) setRate(w http.ResponseWriter, r *http.Request) {
	admin, err := caller(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	var req struct {
		Rate string `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}
	rate, err := parseBigInt(req.Rate)
	if err != nil {
		badRequest(w, err)
		return
	}

	err = h.rates.SetGlobalRate(r.Context(), admin, rate)
	h.observe("set_rate", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"rate": rate.String()})
}

func (h *handler) getRateChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := h.rates.ListRateChanges(r.Context(), 100)
	if err != nil {
		writeError(w, err)
		return
	}

	type changeResponse struct {
		OldRate   string `json:"old_rate"`
		NewRate   string `json:"new_rate"`
		ChangedBy string `json:"changed_by"`
		CreatedAt string `json:"created_at"`
	}

	out := make([]changeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, changeResponse{
			OldRate:   c.OldRate.String(),
			NewRate:   c.NewRate.String(),
			ChangedBy: c.ChangedBy,
			CreatedAt: c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.ledger.GetTotalSupply(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"total_supply": supply.String()})
}
