// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

func TestPacker(t *testing.T) {
	require := require.New(t)

	got := NewPacker().
		Uint8(1).
		Uint64(2).
		Address(alice).
		Uint256(uint256.NewInt(3)).
		AddressArray([]common.Address{bob}).
		Uint256Array([]*uint256.Int{nil}).
		Text("x").
		Encoded()

	var want []byte
	want = append(want, 1)
	want = append(want, 0, 0, 0, 0, 0, 0, 0, 2)
	want = append(want, alice[:]...)
	want = append(want, common.LeftPadBytes([]byte{3}, 32)...)
	want = append(want, common.LeftPadBytes(bob[:], 32)...)
	want = append(want, make([]byte, 32)...)
	want = append(want, 'x')
	require.Equal(want, got)
}

func TestDomainSeparator(t *testing.T) {
	require := require.New(t)

	d := Domain{ChainID: 883, Contract: alice}
	want := common.Keccak256Hash(
		common.LeftPadBytes(big.NewInt(883).Bytes(), 32),
		alice[:],
		[]byte("Relay"),
	)
	require.Equal(want, d.Separator("Relay"))
	require.NotEqual(d.Separator("Relay"), d.Separator("Mint"))
	require.NotEqual(d.Separator("Relay"), Domain{ChainID: 884, Contract: alice}.Separator("Relay"))
	require.NotEqual(d.Separator("Relay"), Domain{ChainID: 883, Contract: bob}.Separator("Relay"))
}

func TestSignedDigest(t *testing.T) {
	require := require.New(t)

	sep := common.HexToHash("0x1234")
	payload := []byte("payload")
	inner := crypto.Keccak256(sep[:], payload)
	prefixed := append([]byte("\x19Ethereum Signed Message:\n32"), inner...)
	require.Equal(common.Keccak256Hash(prefixed), SignedDigest(sep, payload))
}

func TestDerivedIDs(t *testing.T) {
	require := require.New(t)

	d := Domain{ChainID: 56, Contract: token}
	relay := &RelayRequest{
		Sender:        alice,
		Receiver:      bob,
		Token:         token,
		Amount:        uint256.NewInt(1),
		SrcChainID:    1,
		DstChainID:    56,
		SrcTransferID: common.HexToHash("0x01"),
	}
	id := TransferID(d, relay)
	require.Equal(id, TransferID(d, relay))
	require.NotEqual(id, TransferID(Domain{ChainID: 57, Contract: token}, relay))

	other := *relay
	other.SrcTransferID = common.HexToHash("0x02")
	require.NotEqual(id, TransferID(d, &other))

	mint := &MintRequest{Token: token, Account: bob, Amount: uint256.NewInt(1), Depositor: alice, RefChainID: 1, RefID: common.HexToHash("0x01")}
	require.NotEqual(MintID(d, mint), MintID(Domain{ChainID: 56, Contract: alice}, mint))

	wd := &WithdrawRequest{ChainID: 56, SeqNum: 1, Receiver: bob, Token: token, Amount: uint256.NewInt(1)}
	want := common.Keccak256Hash(
		[]byte{0, 0, 0, 0, 0, 0, 0, 56},
		[]byte{0, 0, 0, 0, 0, 0, 0, 1},
		bob[:],
		token[:],
		common.LeftPadBytes([]byte{1}, 32),
	)
	require.Equal(want, common.Hash(WithdrawID(wd)))

	sendID := SendID(alice, bob, token, uint256.NewInt(1), 56, 9, 1)
	require.NotEqual(sendID, SendID(alice, bob, token, uint256.NewInt(1), 56, 10, 1))

	msgID := MessageID(alice, bob, 1, common.HexToHash("0xfe"), 56, []byte("hi"))
	require.NotEqual(msgID, MessageID(alice, bob, 1, common.HexToHash("0xfe"), 56, []byte("ho")))
	require.NotEqual(MessageWithTransferID(token, id), MessageWithTransferID(alice, id))
	require.Len(Hex(id), 66)
}
