// Package worker implements background mining for nodes configured with
// their own validator identity.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/state"
)

// pollInterval is how often the worker checks the mempool for work in the
// absence of an explicit signal.
const pollInterval = 10 * time.Second

// Worker manages the background mining workflow for the node.
type Worker struct {
	state       *state.State
	validator   string
	wg          sync.WaitGroup
	ticker      *time.Ticker
	shut        chan struct{}
	startMining chan bool
	evHandler   state.EventHandler
}

// Run creates a worker, registers it with the state package and starts the
// background mining goroutine. When validator is empty the node never
// auto-mines and the worker only exists to satisfy shutdown.
func Run(st *state.State, validator string, evHandler state.EventHandler) {
	w := Worker{
		state:       st,
		validator:   validator,
		ticker:      time.NewTicker(pollInterval),
		shut:        make(chan struct{}),
		startMining: make(chan bool, 1),
		evHandler:   evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.miningOperations()
	}()

	<-hasStarted
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.ticker.Stop()
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since an operation will start.
func (w *Worker) SignalStartMining() {
	if w.validator == "" {
		return
	}

	select {
	case w.startMining <- true:
	default:
	}
}

// =============================================================================

// miningOperations waits for work and runs mining attempts until shutdown.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started: validator[%s]", w.validator)
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			w.runMiningOperation()
		case <-w.ticker.C:
			w.runMiningOperation()
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation attempts to mine one block for the node's validator
// when there is work pending. Transient mining failures are logged and
// left for the next signal; they are never retried in a loop.
func (w *Worker) runMiningOperation() {
	if w.validator == "" {
		return
	}

	if w.state.MempoolCount() == 0 {
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	block, err := w.state.MineBlock(context.Background(), w.validator)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoTransactions):
			w.evHandler("worker: runMiningOperation: MINING: no transactions")
		case errors.Is(err, state.ErrProofSearchExhausted):
			w.evHandler("worker: runMiningOperation: MINING: proof search exhausted")
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: mined block[%d] txs[%d]", block.Height, block.Size)
}
