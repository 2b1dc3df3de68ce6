// Package chaingrp maintains the group of handlers for chain access.
package chaingrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/psinfinity/infinitychain/business/web/errs"
	"github.com/psinfinity/infinitychain/foundation/events"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/database"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/state"
	"github.com/psinfinity/infinitychain/foundation/web"
)

// Handlers manages the set of chain endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// AppendEntry adds a new event to the ledger and queues it for the next
// block.
func (h Handlers) AppendEntry(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ne newEntry
	if err := web.Decode(r, &ne); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("append entry", "traceid", v.TraceID, "actor", ne.Actor, "verb", ne.Verb, "namespace", ne.Namespace)

	entry, err := h.State.AppendLedgerEntry(ne.Actor, ne.Verb, ne.Target, ne.Namespace, ne.Data, ne.Priority, ne.Fee)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, entry, http.StatusCreated)
}

// QueryLedger returns ledger entries newest first, narrowed by the query
// string filters.
func (h Handlers) QueryLedger(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	filter, err := parseFilter(r)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	entries, err := h.State.QueryLedger(filter)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, entries, http.StatusOK)
}

// RegisterValidator stakes an identity into the validator set.
func (h Handlers) RegisterValidator(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nv newValidator
	if err := web.Decode(r, &nv); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	val, err := h.State.RegisterValidator(nv.Identity, nv.Stake)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrAlreadyRegistered):
			return errs.NewTrusted(err, http.StatusConflict)
		case errors.Is(err, database.ErrInsufficientStake), errors.Is(err, database.ErrInsufficientBalance):
			return errs.NewTrusted(err, http.StatusBadRequest)
		default:
			return err
		}
	}

	return web.Respond(ctx, w, val, http.StatusCreated)
}

// Validators returns every registered validator.
func (h Handlers) Validators(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vals, err := h.State.Validators()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, vals, http.StatusOK)
}

// Mine runs one block production cycle for the named validator.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var mr mineRequest
	if err := web.Decode(r, &mr); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("mine block", "traceid", v.TraceID, "validator", mr.Validator)

	block, err := h.State.MineBlock(ctx, mr.Validator)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrNotRegistered):
			return errs.NewTrusted(err, http.StatusNotFound)
		case errors.Is(err, state.ErrNotActive), errors.Is(err, state.ErrNoTransactions):
			return errs.NewTrusted(err, http.StatusBadRequest)
		case errors.Is(err, state.ErrProofSearchExhausted):
			return errs.NewTrusted(err, http.StatusConflict)
		default:
			return err
		}
	}

	return web.Respond(ctx, w, block, http.StatusCreated)
}

// ChainStats returns a summary of the chain.
func (h Handlers) ChainStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats, err := h.State.ChainStats()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, stats, http.StatusOK)
}

// VerifyChain replays the whole chain and reports every issue found.
func (h Handlers) VerifyChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	result, err := h.State.VerifyChain()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, result, http.StatusOK)
}

// BlockByHeight returns the block at the requested height.
func (h Handlers) BlockByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := strconv.ParseUint(web.Param(r, "height"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid height format: %w", err), http.StatusBadRequest)
	}

	block, err := h.State.GetBlock(height)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// TransactionByID returns a ledger entry and its confirmation status.
func (h Handlers) TransactionByID(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	status, err := h.State.GetTransaction(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// InfinityState returns the current hardening state.
func (h Handlers) InfinityState(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.InfinityState(), http.StatusOK)
}

// RecordAttack absorbs an observed attack and returns the escalated
// hardening state.
func (h Handlers) RecordAttack(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ar attackReport
	if err := web.Decode(r, &ar); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("record attack", "traceid", v.TraceID, "attacker", ar.Attacker, "type", ar.AttackType)

	st, err := h.State.RecordAttack(ar.Attacker, ar.AttackType)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// =============================================================================

// parseFilter builds a ledger query filter from the request query string.
func parseFilter(r *http.Request) (database.QueryFilter, error) {
	q := r.URL.Query()

	var filter database.QueryFilter
	filter.Actor = q.Get("actor")
	filter.Verb = q.Get("verb")
	filter.Namespace = q.Get("namespace")

	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return database.QueryFilter{}, fmt.Errorf("invalid since format: %w", err)
		}
		filter.Since = t
	}

	if until := q.Get("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return database.QueryFilter{}, fmt.Errorf("invalid until format: %w", err)
		}
		filter.Until = t
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return database.QueryFilter{}, fmt.Errorf("invalid limit format: %q", limit)
		}
		filter.Limit = n
	}

	return filter, nil
}
