// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variables are the upper-cased keys below with this
	// prefix, e.g. XBRIDGE_DATA_DIR.
	EnvPrefix = "XBRIDGE"

	// Top-level configuration keys
	LogLevelKey           = "log-level"
	MetricsPortKey        = "metrics-port"
	DataDirKey            = "data-dir"
	ChainIDKey            = "chain-id"
	ContractKey           = "contract"
	KindKey               = "kind"
	EncodingKey           = "encoding"
	OwnerKey              = "owner"
	SignersKey            = "signers"
	TokensKey             = "tokens"
	EpochLengthKey        = "epoch-length"
	DelayPeriodKey        = "delay-period"
	MaxFutureSkewKey      = "max-future-skew"
	NoticePeriodKey       = "reset-notice-period"
	MinimalMaxSlippageKey = "minimal-max-slippage"
	RecoveryCacheSizeKey  = "recovery-cache-size"
)
