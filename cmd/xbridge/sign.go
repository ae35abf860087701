// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/spf13/cobra"

	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/signers"
)

const signerKeyEnv = "XBRIDGE_SIGNER_KEY"

// digestOf returns the digest signers sign for payload under d.
func digestOf(d codec.Domain, payload []byte) (common.Hash, error) {
	t, err := codec.PeekType(payload)
	if err != nil {
		return common.Hash{}, err
	}
	return codec.SignedDigest(d.Separator(t.DomainName()), payload), nil
}

func parseSigs(s string) ([][]byte, error) {
	var sigs [][]byte
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sig, err := decodeHex(part)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// newBundle recovers the signer of each signature and claims its power in
// live. Unknown and repeated signers are rejected.
func newBundle(r signers.Recoverer, digest common.Hash, sigs [][]byte, live *signers.Set) (signers.Bundle, error) {
	agg := signers.NewAggregator(r, digest, live, nil)
	for _, sig := range sigs {
		if _, err := agg.Add(sig); err != nil {
			return signers.Bundle{}, err
		}
	}
	return agg.Bundle(), nil
}

func newSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign an encoded request",
		Long: `Sign an encoded request for the configured chain and contract with a
secp256k1 key given by --key or ` + signerKeyEnv + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			domain, err := loadDomain(cmd)
			if err != nil {
				return err
			}
			data, _ := cmd.Flags().GetString(dataFlag)
			payload, err := decodeHex(data)
			if err != nil {
				return err
			}
			hexKey, _ := cmd.Flags().GetString(keyFlag)
			if hexKey == "" {
				hexKey = os.Getenv(signerKeyEnv)
			}
			if hexKey == "" {
				return fmt.Errorf("no signing key: set --%s or %s", keyFlag, signerKeyEnv)
			}
			signer, err := signers.NewLocalSignerFromHex(strings.TrimPrefix(hexKey, "0x"))
			if err != nil {
				return err
			}
			digest, err := digestOf(domain, payload)
			if err != nil {
				return err
			}
			sig, err := signer.Sign(digest)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "signer:    %s\n", signer.Address())
			fmt.Fprintf(out, "digest:    %s\n", digest)
			fmt.Fprintf(out, "signature: 0x%x\n", sig)
			return nil
		},
	}
	cmd.Flags().StringP(dataFlag, "d", "", "Encoded request (hex)")
	cmd.Flags().StringP(keyFlag, "k", "", "Private key (hex)")
	_ = cmd.MarkFlagRequired(dataFlag)
	return cmd
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify signatures against the configured signer set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			g := cfg.Genesis()
			live, err := signers.NewSet(g.Signers, g.Powers)
			if err != nil {
				return err
			}
			recoverer, err := signers.NewEthRecoverer(cfg.RecoveryCacheSize)
			if err != nil {
				return err
			}

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
			digest, err := digestOf(cfg.Domain(), payload)
			if err != nil {
				return err
			}
			bundle, err := newBundle(recoverer, digest, sigs, live)
			if err != nil {
				return err
			}
			if err := signers.Verify(recoverer, digest, bundle, live); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %d signers, quorum %s of %s\n",
				len(bundle.Signers), live.Quorum().Dec(), live.TotalPower().Dec())
			return nil
		},
	}
	cmd.Flags().StringP(dataFlag, "d", "", "Encoded request (hex)")
	cmd.Flags().StringP(sigsFlag, "s", "", "Comma separated signatures (hex)")
	_ = cmd.MarkFlagRequired(dataFlag)
	_ = cmd.MarkFlagRequired(sigsFlag)
	return cmd
}
