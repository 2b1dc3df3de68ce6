package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/psinfinity/infinitychain/app/services/node/handlers"
	"github.com/psinfinity/infinitychain/foundation/events"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/database"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/genesis"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/state"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage/leveldb"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage/memory"
	"github.com/psinfinity/infinitychain/foundation/infinitychain/worker"
	"github.com/psinfinity/infinitychain/foundation/logger"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			RateRPS         float64       `conf:"default:50"`
			RateBurst       int           `conf:"default:100"`
		}
		State struct {
			GenesisPath string `conf:"default:zblock/genesis.json"`
			Storage     string `conf:"default:leveldb,help:leveldb or memory"`
			DBPath      string `conf:"default:zblock/chain.db"`
			Validator   string `conf:"default:,help:identity that auto-mines, empty disables"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Chain Support

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis file: %w", err)
	}
	log.Infow("startup", "status", "genesis loaded", "chainid", gen.ChainID, "difficulty", gen.BaseDifficulty)

	// Pick the storage backend. Memory is for development only, every
	// restart starts the chain over.
	var kv storage.KV
	switch cfg.State.Storage {
	case "memory":
		kv = memory.New()
	case "leveldb":
		kv, err = leveldb.New(cfg.State.DBPath)
		if err != nil {
			return fmt.Errorf("unable to open chain database: %w", err)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.State.Storage)
	}

	db := database.New(kv)

	// The chain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The state value represents the chain node, owning the ledger, the
	// block store and the hardening machinery.
	st, err := state.New(state.Config{
		Genesis:   gen,
		DB:        db,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker performs background mining when a validator identity is
	// configured. The worker registers itself with the state.
	worker.Run(st, cfg.State.Validator, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls and start the service listening
	// for debug requests. Not concerned with shutting this down with load
	// shedding.
	debugMux := handlers.DebugMux(build, log)

	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:  shutdown,
		Log:       log,
		State:     st,
		Evts:      evts,
		RateRPS:   rate.Limit(cfg.Web.RateRPS),
		RateBurst: cfg.Web.RateBurst,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
