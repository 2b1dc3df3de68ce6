// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/psinfinity/infinitychain/app/services/node/handlers/v1/chaingrp"
	"github.com/psinfinity/infinitychain/foundation/events"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/state"
	"github.com/psinfinity/infinitychain/foundation/web"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	cgh := chaingrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/genesis", cgh.Genesis)
	app.Handle(http.MethodPost, version, "/ledger", cgh.AppendEntry)
	app.Handle(http.MethodGet, version, "/ledger", cgh.QueryLedger)
	app.Handle(http.MethodPost, version, "/validators", cgh.RegisterValidator)
	app.Handle(http.MethodGet, version, "/validators", cgh.Validators)
	app.Handle(http.MethodPost, version, "/mine", cgh.Mine)
	app.Handle(http.MethodGet, version, "/chain/stats", cgh.ChainStats)
	app.Handle(http.MethodGet, version, "/chain/verify", cgh.VerifyChain)
	app.Handle(http.MethodGet, version, "/blocks/:height", cgh.BlockByHeight)
	app.Handle(http.MethodGet, version, "/transactions/:id", cgh.TransactionByID)
	app.Handle(http.MethodGet, version, "/infinity", cgh.InfinityState)
	app.Handle(http.MethodPost, version, "/infinity/attack", cgh.RecordAttack)
	app.Handle(http.MethodGet, version, "/events", cgh.Events)
}
