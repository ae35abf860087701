// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xbridge",
		Short: "xbridge - cross-chain value transfer bridge",
		Long: `xbridge verifies quorum-signed bridge requests and applies them to a
local bridge state.

It provides tools for encoding, signing and verifying requests, and for
applying signed requests to a LevelDB-backed bridge.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newIDCmd(),
		newSignCmd(),
		newVerifyCmd(),
		newRelayCmd(),
		newExecuteDelayedCmd(),
		newServeMetricsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xbridge %s (built %s)\n", version, buildDate)
		},
	}
}

// loadConfig builds the node configuration from the command's flags, the
// environment and the config file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return config.Config{}, fmt.Errorf("couldn't configure flags: %w", err)
	}
	cfg, err := config.NewConfig(v)
	if err != nil {
		return config.Config{}, fmt.Errorf("couldn't build config: %w", err)
	}
	return cfg, nil
}

// loadDomain reads only the signing domain, for commands that do not need
// a full node configuration.
func loadDomain(cmd *cobra.Command) (codec.Domain, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return codec.Domain{}, fmt.Errorf("couldn't configure flags: %w", err)
	}
	cfg, err := config.BuildConfig(v)
	if err != nil {
		return codec.Domain{}, err
	}
	return cfg.ParseDomain()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.GetLogLevel())
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Named("xbridge"), nil
}
