// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xbridge/codec"
	"github.com/luxfi/xbridge/signers"
)

const relayJSON = `{
	"Sender": "0x00000000000000000000000000000000000000a1",
	"Receiver": "0x00000000000000000000000000000000000000b0",
	"Token": "0x0000000000000000000000000000000000007777",
	"Amount": "100",
	"SrcChainID": 1,
	"DstChainID": 56,
	"SrcTransferID": "0x0000000000000000000000000000000000000000000000000000000000000001"
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestEncodeDecode(t *testing.T) {
	require := require.New(t)

	encoded, err := run(t, "encode", "--type", "relay", "--json", relayJSON)
	require.NoError(err)
	require.True(strings.HasPrefix(encoded, "0x"))

	payload, err := decodeHex(encoded)
	require.NoError(err)
	req, err := codec.ProtoCodec{}.Decode(payload)
	require.NoError(err)
	relay, ok := req.(*codec.RelayRequest)
	require.True(ok)
	require.Equal(uint64(100), relay.Amount.Uint64())
	require.Equal(uint64(56), relay.DstChainID)

	decoded, err := run(t, "decode", "--data", encoded)
	require.NoError(err)
	require.Contains(decoded, `"type": "relay"`)

	abiEncoded, err := run(t, "encode", "--encoding", "abi", "--type", "relay", "--json", relayJSON)
	require.NoError(err)
	require.NotEqual(encoded, abiEncoded)
	decoded, err = run(t, "decode", "--data", abiEncoded)
	require.NoError(err)
	require.Contains(decoded, `"type": "relay"`)
}

func TestEncodeRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown type", args: []string{"encode", "--type", "teleport", "--json", "{}"}},
		{name: "bad json", args: []string{"encode", "--type", "relay", "--json", "{"}},
		{name: "missing amount", args: []string{"encode", "--type", "relay", "--json", "{}"}},
		{name: "bad hex", args: []string{"decode", "--data", "0xzz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestSignAndVerify(t *testing.T) {
	require := require.New(t)

	var (
		hexKeys []string
		entries []string
	)
	for i := 0; i < 3; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(err)
		hexKeys = append(hexKeys, fmt.Sprintf("%x", crypto.FromECDSA(key)))
		addr := signers.NewLocalSigner(key).Address()
		entries = append(entries, fmt.Sprintf(`{"address": %q, "power": "1"}`, addr.Hex()))
	}
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(os.WriteFile(cfgPath, []byte(fmt.Sprintf(`{
		"chain-id": 56,
		"contract": "0x00000000000000000000000000000000000000b1",
		"signers": [%s]
	}`, strings.Join(entries, ","))), 0o600))

	encoded, err := run(t, "encode", "--type", "relay", "--json", relayJSON)
	require.NoError(err)

	var sigs []string
	for _, k := range hexKeys {
		out, err := run(t, "sign", "--config-file", cfgPath, "--data", encoded, "--key", k)
		require.NoError(err)
		for _, line := range strings.Split(out, "\n") {
			if v, ok := strings.CutPrefix(line, "signature: "); ok {
				sigs = append(sigs, v)
			}
		}
	}
	require.Len(sigs, 3)

	out, err := run(t, "verify", "--config-file", cfgPath, "--data", encoded, "--sigs", strings.Join(sigs, ","))
	require.NoError(err)
	require.Contains(out, "valid: 3 signers")

	_, err = run(t, "verify", "--config-file", cfgPath, "--data", encoded, "--sigs", strings.Join(sigs[:2], ","))
	require.ErrorIs(err, signers.ErrQuorumNotReached)

	// Signatures for another contract do not verify.
	out, err = run(t, "sign", "--config-file", cfgPath, "--contract", "0x00000000000000000000000000000000000000b2", "--data", encoded, "--key", hexKeys[0])
	require.NoError(err)
	other := strings.TrimPrefix(out[strings.LastIndex(out, "signature: "):], "signature: ")
	_, err = run(t, "verify", "--config-file", cfgPath, "--data", encoded, "--sigs", strings.Join([]string{other, sigs[1], sigs[2]}, ","))
	require.Error(err)
}

func TestRequestID(t *testing.T) {
	require := require.New(t)
	d := codec.Domain{ChainID: 56, Contract: common.HexToAddress("0xb1")}

	req, err := parseRequestJSON("relay", []byte(relayJSON))
	require.NoError(err)
	id, err := requestID(d, req)
	require.NoError(err)
	require.Equal(codec.TransferID(d, req.(*codec.RelayRequest)), id)

	_, err = requestID(d, &codec.RewardRequest{CumulativeRewardAmount: uint256.NewInt(1)})
	require.Error(err)
}
