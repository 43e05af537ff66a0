package engine

import (
	"fmt"

	"github.com/cloverzk/asvc-rollup/curve"
	"github.com/cloverzk/asvc-rollup/ledger"
)

// InitialState returns the genesis commitment bytes and the genesis
// commit-cell content (§6's Init transaction payload: commit_bytes,
// block0_bytes). The third piece §6 names, upks_bytes, is assembled by
// the caller via verifier.EncodeCellUpks against the same proving key
// passed to NewEngine — engine cannot depend on verifier's wire codec
// without an import cycle, since verifier calls engine.VerifyBlock.
func (e *Engine) InitialState() (commitBytes []byte, block0Bytes []byte, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.height != 0 {
		return nil, nil, fmt.Errorf("engine: initial state: engine has already advanced past genesis")
	}
	block0 := &ledger.Block{
		Height:    0,
		Commit:    e.commit,
		NewCommit: e.commit,
		Proof:     curve.G1{},
		Txs:       nil,
	}
	b0, err := block0.Encode()
	if err != nil {
		return nil, nil, fmt.Errorf("engine: initial state: encode block0: %w", err)
	}
	return curve.G1Bytes(e.commit), b0, nil
}
