// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/luxfi/ids"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge/bridge"
	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/config"
	"github.com/luxfi/xbridge/metrics"
	"github.com/luxfi/xbridge/signers"
	"github.com/luxfi/xbridge/state"
)

const (
	dbCacheMB = 16
	dbHandles = 16
)

// node is a bridge backed by the LevelDB database in the data dir.
type node struct {
	cfg       config.Config
	log       *zap.Logger
	bridge    *bridge.Bridge
	recoverer *signers.EthRecoverer
	metrics   *metrics.Metrics
	close     func() error
}

func openNode(cmd *cobra.Command, registerer prometheus.Registerer) (*node, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	c, err := codec.New(cfg.GetEncoding())
	if err != nil {
		return nil, err
	}
	recoverer, err := signers.NewEthRecoverer(cfg.RecoveryCacheSize)
	if err != nil {
		return nil, err
	}
	db, err := state.OpenLevelDB(cfg.DataDir, dbCacheMB, dbHandles)
	if err != nil {
		return nil, err
	}
	store := state.NewStore(db, cfg.GetKind().String(), nil)

	var m *metrics.Metrics
	if registerer != nil {
		m = metrics.NewMetrics(registerer)
	}
	b, err := bridge.New(bridge.Config{
		Kind:          cfg.GetKind(),
		Domain:        cfg.Domain(),
		Codec:         c,
		Store:         store,
		Recoverer:     recoverer,
		MaxFutureSkew: cfg.MaxFutureSkew,
		Logger:        log,
		Metrics:       m,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	initialized, err := store.Initialized()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if !initialized {
		log.Info("Initializing bridge state", zap.String("dataDir", cfg.DataDir))
		if err := b.Init(cfg.Genesis()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &node{
		cfg:       cfg,
		log:       log,
		bridge:    b,
		recoverer: recoverer,
		metrics:   m,
		close:     db.Close,
	}, nil
}

// apply submits a signed inbound request to the bridge.
func (n *node) apply(payload []byte, sigs [][]byte) (ids.ID, error) {
	req, err := n.bridge.Codec().Decode(payload)
	if err != nil {
		return ids.Empty, err
	}
	live, err := n.bridge.Signers()
	if err != nil {
		return ids.Empty, err
	}
	digest, err := digestOf(n.bridge.Domain(), payload)
	if err != nil {
		return ids.Empty, err
	}
	bundle, err := newBundle(n.recoverer, digest, sigs, live)
	if err != nil {
		return ids.Empty, err
	}

	switch req.Type() {
	case codec.TypeRelay:
		return n.bridge.Relay(payload, bundle)
	case codec.TypeWithdraw:
		return n.bridge.Withdraw(payload, bundle)
	case codec.TypeMint:
		return n.bridge.Mint(payload, bundle)
	case codec.TypeVaultWithdraw:
		return n.bridge.VaultWithdraw(payload, bundle)
	case codec.TypeUpdateSigners:
		return ids.Empty, n.bridge.UpdateSigners(payload, bundle.Sigs, live.Addresses(), live.Powers())
	default:
		return ids.Empty, fmt.Errorf("%s requests are not applied by a bridge", req.Type())
	}
}

func newRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Apply a signed request to the local bridge state",
		Long: `Apply a signed relay, withdraw, mint, vault-withdraw or update-signers
request to the bridge state in the data dir. The state is initialized from
the config on first use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := openNode(cmd, nil)
			if err != nil {
				return err
			}
			defer n.close()

			data, _ := cmd.Flags().GetString(dataFlag)
			payload, err := decodeHex(data)
			if err != nil {
				return err
			}
			sigsFlagValue, _ := cmd.Flags().GetString(sigsFlag)
			sigs, err := parseSigs(sigsFlagValue)
			if err != nil {
				return err
			}
			id, err := n.apply(payload, sigs)
			if err != nil {
				return err
			}
			if id != ids.Empty {
				fmt.Fprintln(cmd.OutOrStdout(), codec.Hex(id))
				if _, delayed, err := n.bridge.DelayedTransfer(id); err == nil && delayed {
					fmt.Fprintln(cmd.OutOrStdout(), "delayed")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringP(dataFlag, "d", "", "Encoded request (hex)")
	cmd.Flags().StringP(sigsFlag, "s", "", "Comma separated signatures (hex)")
	_ = cmd.MarkFlagRequired(dataFlag)
	_ = cmd.MarkFlagRequired(sigsFlag)
	return cmd
}

func newExecuteDelayedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute-delayed",
		Short: "Execute a delayed transfer whose delay has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := openNode(cmd, nil)
			if err != nil {
				return err
			}
			defer n.close()

			idHex, _ := cmd.Flags().GetString(idFlag)
			id, err := parseID(idHex)
			if err != nil {
				return err
			}
			return n.bridge.ExecuteDelayedTransfer(id)
		},
	}
	cmd.Flags().String(idFlag, "", "Delayed transfer id (hex)")
	_ = cmd.MarkFlagRequired(idFlag)
	return cmd
}

// refreshGauges sets the gauges derived from committed state. Counters only
// move in the process that applies the transitions.
func (n *node) refreshGauges() {
	for _, t := range n.cfg.Genesis().Tokens {
		v, err := n.bridge.EpochVolume(t.Token)
		if err != nil {
			n.log.Warn("Failed to read epoch volume", zap.Stringer("token", t.Token), zap.Error(err))
			continue
		}
		f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
		n.metrics.EpochVolume(t.Token.Hex(), f)
	}
}

func newServeMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve the bridge metrics over HTTP",
		Long: `Serve /metrics and /health for the bridge state in the data dir.

This is an inspection endpoint: relay, execute-delayed and the other commands
apply transitions in their own short-lived processes, so the transition
counters served here stay at zero. The epoch volume gauges of the configured
tokens are read from committed state on every scrape.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := prometheus.NewRegistry()
			n, err := openNode(cmd, registry)
			if err != nil {
				return err
			}
			defer n.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			gauges := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n.refreshGauges()
				gauges.ServeHTTP(w, r)
			})
			return serveMetrics(ctx, n.log, n.cfg.MetricsPort, handler, func(context.Context) error {
				_, err := n.bridge.Signers()
				return err
			})
		},
	}
}

// newHealthHandler reports the node up while check passes and answers 503
// otherwise.
func newHealthHandler(log *zap.Logger, check func(context.Context) error) http.Handler {
	checker := health.NewChecker(
		health.WithTimeout(5*time.Second),
		health.WithCheck(health.Check{
			Name: "signer-set",
			Check: func(ctx context.Context) error {
				if err := check(ctx); err != nil {
					log.Warn("Health check failed", zap.Error(err))
					return err
				}
				return nil
			},
		}),
	)
	return health.NewHandler(checker)
}

// serveMetrics serves /metrics from handler and /health from check until
// ctx is done.
func serveMetrics(ctx context.Context, log *zap.Logger, port uint16, handler http.Handler, check func(context.Context) error) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	mux.Handle("/health", newHealthHandler(log, check))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting metrics server", zap.Uint16("port", port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("Stopping metrics server")
		return server.Shutdown(shutdownCtx)
	}
}
