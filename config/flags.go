// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// BuildFlagSet returns the flags every node command accepts. Nested
// settings such as signers and token limits are only read from the config
// file.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("xbridge", pflag.ContinueOnError)
	AddFlags(fs)
	return fs
}

// AddFlags registers the node flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "Specifies the config file path.")
	fs.String(LogLevelKey, defaultLogLevel, "Log level: debug, info, warn or error.")
	fs.Uint16(MetricsPortKey, defaultMetricsPort, "Port the metrics endpoint listens on.")
	fs.String(DataDirKey, defaultDataDir, "Directory of the bridge state database.")
	fs.Uint64(ChainIDKey, 0, "Chain id of the local chain.")
	fs.String(ContractKey, "", "Address of the bridge contract.")
	fs.String(KindKey, defaultKind, "Bridge kind: liquidity, pegged or vault.")
	fs.String(EncodingKey, defaultEncoding, "Request encoding: proto or abi.")
	fs.Int(RecoveryCacheSizeKey, DefaultRecoveryCacheSize, "Number of recovered signers to cache.")
}

// DisplayUsageText prints the command line usage.
func DisplayUsageText() {
	usageText := `
Usage: xbridge [command] --config-file path-to-config

Options:
`
	fmt.Fprint(os.Stderr, usageText)
	BuildFlagSet().PrintDefaults()
}
