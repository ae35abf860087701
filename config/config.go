// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"go.uber.org/zap/zapcore"

	"github.com/luxfi/xbridge/bridge"
	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/risk"
)

const (
	defaultLogLevel           = "info"
	defaultMetricsPort        = uint16(9090)
	defaultDataDir            = "xbridge-data"
	defaultKind               = "liquidity"
	defaultEncoding           = "proto"
	defaultEpochLength        = uint64(0)
	defaultDelayPeriod        = uint64(0)
	defaultMaxFutureSkew      = time.Hour
	defaultNoticePeriod       = uint64(0)
	defaultMinimalMaxSlippage = uint32(0)

	DefaultRecoveryCacheSize = 1024
)

var (
	errMissingContract = errors.New("contract address not set")
	errMissingChainID  = errors.New("chain id not set")
	errNoSigners       = errors.New("no signers configured")
)

// SignerConfig is one initial signer and its power in decimal.
type SignerConfig struct {
	Address string `mapstructure:"address" json:"address"`
	Power   string `mapstructure:"power" json:"power"`
}

// TokenConfig holds the initial limits of one token, keyed by limit name,
// in decimal.
type TokenConfig struct {
	Token  string            `mapstructure:"token" json:"token"`
	Limits map[string]string `mapstructure:"limits" json:"limits"`
}

// Config is the configuration of one bridge node.
type Config struct {
	LogLevel           string         `mapstructure:"log-level" json:"log-level"`
	MetricsPort        uint16         `mapstructure:"metrics-port" json:"metrics-port"`
	DataDir            string         `mapstructure:"data-dir" json:"data-dir"`
	ChainID            uint64         `mapstructure:"chain-id" json:"chain-id"`
	Contract           string         `mapstructure:"contract" json:"contract"`
	Kind               string         `mapstructure:"kind" json:"kind"`
	Encoding           string         `mapstructure:"encoding" json:"encoding"`
	Owner              string         `mapstructure:"owner" json:"owner"`
	Signers            []SignerConfig `mapstructure:"signers" json:"signers"`
	Tokens             []TokenConfig  `mapstructure:"tokens" json:"tokens"`
	EpochLength        uint64         `mapstructure:"epoch-length" json:"epoch-length"`
	DelayPeriod        uint64         `mapstructure:"delay-period" json:"delay-period"`
	MaxFutureSkew      time.Duration  `mapstructure:"max-future-skew" json:"max-future-skew"`
	NoticePeriod       uint64         `mapstructure:"reset-notice-period" json:"reset-notice-period"`
	MinimalMaxSlippage uint32         `mapstructure:"minimal-max-slippage" json:"minimal-max-slippage"`
	RecoveryCacheSize  int            `mapstructure:"recovery-cache-size" json:"recovery-cache-size"`

	// Parsed by Validate
	logLevel zapcore.Level
	contract common.Address
	owner    common.Address
	kind     bridge.Kind
	encoding codec.Encoding
	genesis  bridge.Genesis
}

// Validate checks the configuration and parses its string fields.
func (c *Config) Validate() error {
	var err error
	if c.logLevel, err = zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	d, err := c.ParseDomain()
	if err != nil {
		return err
	}
	c.contract = d.Contract
	if c.kind, err = bridge.ParseKind(c.Kind); err != nil {
		return err
	}
	if c.encoding, err = codec.ParseEncoding(c.Encoding); err != nil {
		return err
	}
	if c.RecoveryCacheSize < 0 {
		return fmt.Errorf("invalid %s: %d", RecoveryCacheSizeKey, c.RecoveryCacheSize)
	}
	if c.owner, err = parseAddress(OwnerKey, c.Owner); err != nil {
		return err
	}
	if len(c.Signers) == 0 {
		return errNoSigners
	}

	g := bridge.Genesis{
		Owner:              c.owner,
		NoticePeriod:       c.NoticePeriod,
		EpochLength:        c.EpochLength,
		DelayPeriod:        c.DelayPeriod,
		MinimalMaxSlippage: c.MinimalMaxSlippage,
	}
	for i, s := range c.Signers {
		addr, err := parseAddress(fmt.Sprintf("%s[%d].address", SignersKey, i), s.Address)
		if err != nil {
			return err
		}
		power, err := parseAmount(fmt.Sprintf("%s[%d].power", SignersKey, i), s.Power)
		if err != nil {
			return err
		}
		g.Signers = append(g.Signers, addr)
		g.Powers = append(g.Powers, power)
	}
	for i, t := range c.Tokens {
		addr, err := parseAddress(fmt.Sprintf("%s[%d].token", TokensKey, i), t.Token)
		if err != nil {
			return err
		}
		tl := bridge.TokenLimits{Token: addr, Limits: make(map[risk.Limit]*uint256.Int, len(t.Limits))}
		for name, value := range t.Limits {
			l, err := parseLimit(name)
			if err != nil {
				return err
			}
			v, err := parseAmount(fmt.Sprintf("%s[%d].limits.%s", TokensKey, i, name), value)
			if err != nil {
				return err
			}
			tl.Limits[l] = v
		}
		g.Tokens = append(g.Tokens, tl)
	}
	c.genesis = g
	return nil
}

// ParseDomain parses the chain id and contract address.
func (c *Config) ParseDomain() (codec.Domain, error) {
	if c.ChainID == 0 {
		return codec.Domain{}, errMissingChainID
	}
	contract, err := parseAddress(ContractKey, c.Contract)
	if err != nil {
		return codec.Domain{}, err
	}
	if contract == (common.Address{}) {
		return codec.Domain{}, errMissingContract
	}
	return codec.Domain{ChainID: c.ChainID, Contract: contract}, nil
}

func (c *Config) GetLogLevel() zapcore.Level {
	return c.logLevel
}

// Domain is the signing domain of the configured contract.
func (c *Config) Domain() codec.Domain {
	return codec.Domain{ChainID: c.ChainID, Contract: c.contract}
}

func (c *Config) GetKind() bridge.Kind {
	return c.kind
}

func (c *Config) GetEncoding() codec.Encoding {
	return c.encoding
}

// Genesis is the initial bridge state described by the configuration.
func (c *Config) Genesis() bridge.Genesis {
	return c.genesis
}

func parseAddress(key, s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s: %q is not an address", key, s)
	}
	return common.HexToAddress(s), nil
}

// parseLimit matches limit names case-insensitively since viper lowercases
// map keys read from the config file.
func parseLimit(name string) (risk.Limit, error) {
	for _, l := range risk.Limits {
		if strings.EqualFold(string(l), name) {
			return l, nil
		}
	}
	return risk.ParseLimit(name)
}

func parseAmount(key, s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
