// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

// Message id discriminants.
const (
	MessageTypeOnly         uint8 = 1
	MessageTypeWithTransfer uint8 = 2
)

// TransferID is the replay key of a relay on the destination chain.
func TransferID(d Domain, r *RelayRequest) ids.ID {
	return ids.ID(NewPacker().
		Bytes32(d.Separator(TypeRelay.DomainName())).
		Address(r.Sender).
		Address(r.Receiver).
		Address(r.Token).
		Uint256(r.Amount).
		Uint64(r.SrcChainID).
		Uint64(r.DstChainID).
		Bytes32(r.SrcTransferID).
		Keccak())
}

// WithdrawID is the replay key of a liquidity withdrawal.
func WithdrawID(r *WithdrawRequest) ids.ID {
	return ids.ID(NewPacker().
		Uint64(r.ChainID).
		Uint64(r.SeqNum).
		Address(r.Receiver).
		Address(r.Token).
		Uint256(r.Amount).
		Keccak())
}

// MintID is the replay key of a pegged mint.
func MintID(d Domain, r *MintRequest) ids.ID {
	return ids.ID(NewPacker().
		Address(r.Account).
		Address(r.Token).
		Uint256(r.Amount).
		Address(r.Depositor).
		Uint64(r.RefChainID).
		Bytes32(r.RefID).
		Address(d.Contract).
		Keccak())
}

// VaultWithdrawID is the replay key of a vault withdrawal.
func VaultWithdrawID(d Domain, r *VaultWithdrawRequest) ids.ID {
	return ids.ID(NewPacker().
		Address(r.Receiver).
		Address(r.Token).
		Uint256(r.Amount).
		Address(r.BurnAccount).
		Uint64(r.RefChainID).
		Bytes32(r.RefID).
		Address(d.Contract).
		Keccak())
}

// SendID identifies an outbound liquidity transfer. It becomes the
// SrcTransferID of the matching RelayRequest.
func SendID(sender, receiver, token common.Address, amount *uint256.Int, dstChainID, nonce, srcChainID uint64) ids.ID {
	return ids.ID(NewPacker().
		Address(sender).
		Address(receiver).
		Address(token).
		Uint256(amount).
		Uint64(dstChainID).
		Uint64(nonce).
		Uint64(srcChainID).
		Keccak())
}

// DepositID identifies a vault deposit. It becomes the RefID of the
// matching MintRequest.
func DepositID(depositor, token common.Address, amount *uint256.Int, mintChainID uint64, mintAccount common.Address, nonce, srcChainID uint64) ids.ID {
	return ids.ID(NewPacker().
		Address(depositor).
		Address(token).
		Uint256(amount).
		Uint64(mintChainID).
		Address(mintAccount).
		Uint64(nonce).
		Uint64(srcChainID).
		Keccak())
}

// BurnID identifies a pegged burn. It becomes the RefID of the matching
// VaultWithdrawRequest.
func BurnID(burner, token common.Address, amount *uint256.Int, withdrawAccount common.Address, nonce, srcChainID uint64) ids.ID {
	return ids.ID(NewPacker().
		Address(burner).
		Address(token).
		Uint256(amount).
		Address(withdrawAccount).
		Uint64(nonce).
		Uint64(srcChainID).
		Keccak())
}

// MessageID identifies a message-only execution.
func MessageID(sender, receiver common.Address, srcChainID uint64, srcTxHash common.Hash, dstChainID uint64, message []byte) ids.ID {
	return ids.ID(NewPacker().
		Uint8(MessageTypeOnly).
		Address(sender).
		Address(receiver).
		Uint64(srcChainID).
		Bytes32(srcTxHash).
		Uint64(dstChainID).
		Bytes(message).
		Keccak())
}

// MessageWithTransferID identifies a message execution bound to the bridge
// transfer xferID.
func MessageWithTransferID(bridge common.Address, xferID ids.ID) ids.ID {
	return ids.ID(NewPacker().
		Uint8(MessageTypeWithTransfer).
		Address(bridge).
		Bytes32(common.Hash(xferID)).
		Keccak())
}

// Hex formats an id the way chain tooling prints bytes32 values.
func Hex(id ids.ID) string {
	return common.Hash(id).Hex()
}
