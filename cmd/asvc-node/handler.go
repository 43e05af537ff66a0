package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/engine"
	"github.com/cloverzk/asvc-rollup/ledger"
	"github.com/cloverzk/asvc-rollup/signer"
	"github.com/holiman/uint256"
)

// txRequest is the wire shape the request-handler task accepts for
// transfer/register admission: the hex/decimal-string JSON rendering
// of a ledger.Tx, signed over the same bytes Tx.Encode produces.
type txRequest struct {
	Type    string `json:"type"`
	From    uint32 `json:"from"`
	To      uint32 `json:"to,omitempty"`
	Amount  string `json:"amount,omitempty"`
	Addr    string `json:"addr"`
	Proof   string `json:"proof"`
	Nonce   uint32 `json:"nonce"`
	Balance string `json:"balance"`
	PubKey  string `json:"pub_key"`
	Sig     string `json:"sig"`
}

// requestHandler is the third long-lived task §5 names: an HTTP
// admission surface around TryInsert, holding no lock itself (Engine's
// own RWMutex serializes it against the listener and miner).
type requestHandler struct {
	e   *engine.Engine
	sig signer.Signer
}

func newRequestHandler(e *engine.Engine, sig signer.Signer) *requestHandler {
	return &requestHandler{e: e, sig: sig}
}

func (h *requestHandler) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tx", h.handleSubmitTx)
	mux.HandleFunc("GET /account/{slot}", h.handleGetAccount)
	mux.HandleFunc("GET /status", h.handleStatus)
	return mux
}

func (h *requestHandler) handleSubmitTx(w http.ResponseWriter, r *http.Request) {
	var req txRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	tx, sig, err := decodeTxRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	msg, err := tx.Encode()
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("encode tx: %w", err))
		return
	}
	if err := h.sig.Verify(tx.PubKey, msg, sig); err != nil {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("%w: %v", signer.ErrBadSig, err))
		return
	}

	if err := h.e.TryInsert(tx); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": tx.ID()})
}

func (h *requestHandler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	slot, err := parseSlot(r.PathValue("slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := h.e.Account(slot)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slot":    slot,
		"balance": rec.Balance.String(),
		"nonce":   rec.Nonce,
	})
}

func (h *requestHandler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"height":        h.e.Height(),
		"next_slot":     h.e.NextSlot(),
		"pending_count": h.e.PendingCount(),
	})
}

func decodeTxRequest(req txRequest) (*ledger.Tx, []byte, error) {
	var typ ledger.TxType
	switch req.Type {
	case "transfer":
		typ = ledger.TxTransfer
	case "register":
		typ = ledger.TxRegister
	default:
		return nil, nil, fmt.Errorf("unsupported tx type %q for admission", req.Type)
	}

	addrBytes, err := hex.DecodeString(req.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("decode addr: %w", err)
	}
	addr, err := curve.ScalarFromBytes(addrBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse addr: %w", err)
	}
	proofBytes, err := hex.DecodeString(req.Proof)
	if err != nil {
		return nil, nil, fmt.Errorf("decode proof: %w", err)
	}
	proof, err := curve.G1FromBytes(proofBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse proof: %w", err)
	}
	balance, err := parseUint128(req.Balance)
	if err != nil {
		return nil, nil, fmt.Errorf("parse balance: %w", err)
	}
	pubKey, err := hex.DecodeString(req.PubKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decode pub_key: %w", err)
	}
	sig, err := hex.DecodeString(req.Sig)
	if err != nil {
		return nil, nil, fmt.Errorf("decode sig: %w", err)
	}

	tx := &ledger.Tx{
		Type:    typ,
		From:    req.From,
		To:      req.To,
		Addr:    addr,
		Proof:   proof,
		Nonce:   req.Nonce,
		Balance: balance,
		PubKey:  pubKey,
	}
	if typ == ledger.TxTransfer {
		amount, err := parseUint128(req.Amount)
		if err != nil {
			return nil, nil, fmt.Errorf("parse amount: %w", err)
		}
		tx.Amount = amount
	}
	return tx, sig, nil
}

func parseUint128(s string) (*ledger.Uint128, error) {
	if s == "" {
		s = "0"
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, err
	}
	return ledger.ParseUint128(v)
}

func parseSlot(s string) (uint32, error) {
	var slot uint32
	if _, err := fmt.Sscanf(s, "%d", &slot); err != nil {
		return 0, fmt.Errorf("invalid slot %q", s)
	}
	return slot, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func runRequestHandler(ctx context.Context, addr string, h *requestHandler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: h.mux()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv
}
