// Package server assembles the daemon: durable storage, the sale engine, the
// logical clock and the RPC surfaces, with one Run loop owning their
// lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/avelines/salevaultd/internal/config"
	"github.com/avelines/salevaultd/internal/core/sale"
	"github.com/avelines/salevaultd/internal/core/tick"
	"github.com/avelines/salevaultd/internal/core/token"
	"github.com/avelines/salevaultd/internal/rpc"
	"github.com/avelines/salevaultd/internal/storage/history"
	"github.com/avelines/salevaultd/internal/storage/saledb"
)

// Version is the daemon build version.
const Version = "0.1.0-dev"

const tickPersistInterval = 16

// eventRelay defers publisher binding: the engine is built before the hub,
// which needs the engine's RPC service.
type eventRelay struct {
	mu sync.RWMutex
	p  sale.Publisher
}

func (r *eventRelay) bind(p sale.Publisher) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *eventRelay) Publish(ev sale.Event) {
	r.mu.RLock()
	p := r.p
	r.mu.RUnlock()
	if p != nil {
		p.Publish(ev)
	}
}

// Node is the assembled daemon.
type Node struct {
	cfg     *config.Config
	log     *logrus.Logger
	store   *saledb.Store
	history *history.Store
	engine  *sale.Engine
	counter *tick.Counter
	ticker  *tick.Ticker
	hub     *rpc.Hub
	rpcSrv  *http.Server
	wsSrv   *http.Server
}

// New builds a Node from configuration. Token and vault collaborators are
// the in-process ledgers; a deployment bridging an external chain swaps
// them at this seam.
func New(cfg *config.Config) (*Node, error) {
	return NewWithCollaborators(cfg, token.NewMemLedger(), token.NewMemVault())
}

// NewWithCollaborators builds a Node with explicit token collaborators.
func NewWithCollaborators(cfg *config.Config, tokens token.Ledger, vault token.Vault) (*Node, error) {
	log := cfg.NewLogger()

	var db saledb.DB
	if cfg.Storage.Path != "" {
		pdb, err := saledb.OpenPebble(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		db = pdb
	} else {
		log.Warn("no storage path configured, state will not survive restart")
		db = saledb.NewMemDB()
	}
	store := saledb.NewStore(db)

	state, err := store.LoadState(context.Background())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}

	params := cfg.SaleParams()
	if state.Present {
		params = state.Params
		log.WithFields(logrus.Fields{
			"sellers": len(state.Books),
			"tick":    uint64(state.Tick),
		}).Info("restored persisted state")
	} else {
		// Seed the params record; its presence marks the database as
		// initialized for the next LoadState.
		if err := store.PutParams(params); err != nil {
			store.Close()
			return nil, fmt.Errorf("seed params: %w", err)
		}
	}

	var hist *history.Store
	if cfg.Storage.HistoryDriver != "" {
		hist, err = history.Open(cfg.Storage.HistoryDriver, cfg.Storage.HistoryDSN)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	counter := tick.NewCounter(state.Tick)
	ticker := tick.NewTicker(counter, cfg.Chain.TickInterval)
	relay := &eventRelay{}

	engineCfg := sale.Config{
		Params:    params,
		Clock:     counter,
		Tokens:    tokens,
		Vault:     vault,
		Self:      cfg.Self(),
		Store:     store,
		Publisher: relay,
		Logger:    log,
	}
	if hist != nil {
		engineCfg.Recorder = hist
	}
	engine, err := sale.New(engineCfg)
	if err != nil {
		store.Close()
		if hist != nil {
			hist.Close()
		}
		return nil, err
	}
	if state.Present {
		if err := engine.Restore(state.Books, state.Totals, state.Params); err != nil {
			store.Close()
			if hist != nil {
				hist.Close()
			}
			return nil, fmt.Errorf("restore engine: %w", err)
		}
	}

	service := rpc.NewService(engine, hist, counter, Version)
	hub := rpc.NewHub(service, log)
	relay.bind(hub)

	rpcHandler := rpc.NewServer(service, cfg.Server.RPCTimeout, log)
	n := &Node{
		cfg:     cfg,
		log:     log,
		store:   store,
		history: hist,
		engine:  engine,
		counter: counter,
		ticker:  ticker,
		hub:     hub,
		rpcSrv: &http.Server{
			Addr:         cfg.Server.RPCAddr,
			Handler:      rpcHandler,
			ReadTimeout:  cfg.Server.RPCTimeout,
			WriteTimeout: cfg.Server.RPCTimeout,
		},
		wsSrv: &http.Server{
			Addr:    cfg.Server.WSAddr,
			Handler: hub,
		},
	}
	return n, nil
}

// Engine exposes the sale engine, mainly for tests driving the node
// directly.
func (n *Node) Engine() *sale.Engine { return n.engine }

// Close releases storage for a node that never reached Run. Run closes on
// exit by itself.
func (n *Node) Close() { n.close() }

// Run serves until ctx is cancelled, then shuts everything down in reverse
// order of startup.
func (n *Node) Run(ctx context.Context) error {
	n.ticker.Start()
	defer n.ticker.Stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n.log.WithField("addr", n.cfg.Server.RPCAddr).Info("rpc listening")
		if err := n.rpcSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		n.log.WithField("addr", n.cfg.Server.WSAddr).Info("websocket listening")
		if err := n.wsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return n.persistTickLoop(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		n.shutdown()
		return nil
	})

	err := g.Wait()
	n.close()
	return err
}

// persistTickLoop checkpoints the logical clock so restarts resume near
// where they stopped. Windows only ever lengthen by the gap since the last
// checkpoint.
func (n *Node) persistTickLoop(ctx context.Context) error {
	interval := n.cfg.Chain.TickInterval * tickPersistInterval
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := n.store.PutTick(n.counter.Now()); err != nil {
				n.log.WithError(err).Error("persist tick at shutdown")
			}
			return nil
		case <-t.C:
			if err := n.store.PutTick(n.counter.Now()); err != nil {
				n.log.WithError(err).Error("persist tick")
			}
		}
	}
}

func (n *Node) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.rpcSrv.Shutdown(shutdownCtx); err != nil {
		n.log.WithError(err).Warn("rpc shutdown")
	}
	n.hub.Close()
	if err := n.wsSrv.Shutdown(shutdownCtx); err != nil {
		n.log.WithError(err).Warn("websocket shutdown")
	}
}

func (n *Node) close() {
	if n.history != nil {
		if err := n.history.Close(); err != nil {
			n.log.WithError(err).Warn("close history")
		}
	}
	if err := n.store.Close(); err != nil {
		n.log.WithError(err).Warn("close store")
	}
}
