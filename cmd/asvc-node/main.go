// Command asvc-node runs one rollup instance: the listener, miner and
// request-handler tasks of §5's single-threaded cooperative model,
// wired around a bbolt-backed engine.Engine.
package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cloverzk/asvc-rollup/asvc"
	"github.com/cloverzk/asvc-rollup/engine"
	"github.com/cloverzk/asvc-rollup/engine/store"
	"github.com/cloverzk/asvc-rollup/l1"
	"github.com/cloverzk/asvc-rollup/signer"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := engine.DefaultConfig()
	cfg := defaults

	fs := flag.NewFlagSet("asvc-node", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "node data directory")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	fs.Uint64Var(&cfg.DomainSize, "domain-size", defaults.DomainSize, "account table capacity (power of two)")
	fs.Uint64Var(&cfg.MinerIntervalMillis, "miner-interval-ms", defaults.MinerIntervalMillis, "miner tick interval in milliseconds")
	httpAddr := fs.String("http-addr", "127.0.0.1:8787", "request-handler listen address")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	mineExit := fs.Bool("mine-once", false, "drain the pool once, if non-empty, and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := engine.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
		return 2
	}

	if err := printConfig(stdout, cfg); err != nil {
		fmt.Fprintf(stderr, "config encode failed: %v\n", err)
		return 1
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(stderr, "store open failed: %v\n", err)
		return 2
	}
	defer db.Close()

	pk, vk, err := asvc.KeyGen(cfg.DomainSize, rand.Reader)
	if err != nil {
		fmt.Fprintf(stderr, "trusted setup failed: %v\n", err)
		return 2
	}

	e, err := engine.LoadEngine(pk, vk, db)
	if err != nil {
		fmt.Fprintf(stderr, "engine load failed: %v\n", err)
		return 2
	}
	e.AttachStore(db)

	if e.Height() == 0 && e.PendingCount() == 0 {
		commitBytes, block0Bytes, err := e.InitialState()
		if err != nil {
			fmt.Fprintf(stderr, "genesis state failed: %v\n", err)
			return 2
		}
		fmt.Fprintf(stdout, "genesis: commit=%x block0_len=%d domain=%d\n", commitBytes, len(block0Bytes), cfg.DomainSize)
	}
	fmt.Fprintf(stdout, "engine: height=%d next_slot=%d pending=%d\n", e.Height(), e.NextSlot(), e.PendingCount())

	sg := signer.Ed25519Signer{}
	chain := l1.NewMockChain()

	if *dryRun {
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := chain.Subscribe(ctx, e.Height()+1)
	if err != nil {
		fmt.Fprintf(stderr, "l1 subscribe failed: %v\n", err)
		return 2
	}
	go runListener(ctx, stdout, stderr, e, obs)

	interval := time.Duration(cfg.MinerIntervalMillis) * time.Millisecond
	if *mineExit {
		mineOnce(ctx, stdout, stderr, e, chain)
		return 0
	}
	go runMiner(ctx, stdout, stderr, e, chain, interval)

	handler := newRequestHandler(e, sg)
	srv := runRequestHandler(ctx, *httpAddr, handler)
	go func() {
		fmt.Fprintf(stdout, "request-handler listening on %s\n", *httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(stderr, "request-handler stopped: %v\n", err)
		}
	}()

	fmt.Fprintln(stdout, "asvc-node running")
	<-ctx.Done()
	fmt.Fprintln(stdout, "asvc-node stopped")
	return 0
}

// runListener applies every block the mock L1 reports, in the order
// it reports them. If ApplyBlock rejects a block (for example a stale
// height), it logs the error to stderr and moves on to the next
// observation; the rejected block is not retried.
func runListener(ctx context.Context, stdout, stderr io.Writer, e *engine.Engine, obs <-chan l1.ObservedBlock) {
	for {
		select {
		case <-ctx.Done():
			return
		case o, ok := <-obs:
			if !ok {
				return
			}
			income, outcome, err := e.OnL1Observed(o.BlockBytes)
			if err != nil {
				fmt.Fprintf(stderr, "listener: apply block at height %d failed: %v\n", o.Height, err)
				continue
			}
			fmt.Fprintf(stdout, "listener: applied height=%d income=%v outcome=%v\n", e.Height(), income, outcome)
		}
	}
}

// runMiner ticks every interval and drains the pending pool into one
// block, skipping a tick entirely if the previous tick's submission is
// still in flight (§5: "timer ticks that fire while a previous tick's
// work is in progress are skipped").
func runMiner(ctx context.Context, stdout, stderr io.Writer, e *engine.Engine, chain *l1.MockChain, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	busy := make(chan struct{}, 1)
	busy <- struct{}{}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case <-busy:
			default:
				continue // previous tick still submitting; skip this one
			}
			go func() {
				defer func() { busy <- struct{}{} }()
				mineOnce(ctx, stdout, stderr, e, chain)
			}()
		}
	}
}

func mineOnce(ctx context.Context, stdout, stderr io.Writer, e *engine.Engine, chain *l1.MockChain) {
	if e.PendingCount() == 0 {
		return
	}
	block, err := e.BuildMinerBlock()
	if err != nil {
		fmt.Fprintf(stderr, "miner: build block failed: %v\n", err)
		return
	}
	blockBytes, err := block.Encode()
	if err != nil {
		fmt.Fprintf(stderr, "miner: encode block failed: %v\n", err)
		return
	}
	txID, err := chain.Submit(ctx, blockBytes)
	if err != nil {
		fmt.Fprintf(stderr, "miner: l1 submit failed: %v\n", err)
		return
	}
	fmt.Fprintf(stdout, "miner: submitted height=%d tx_count=%d l1_tx=%s\n", block.Height, len(block.Txs), txID)
}

func printConfig(w io.Writer, cfg engine.Config) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
