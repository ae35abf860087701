// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

// ABICodec encodes request bodies as ABI tuples of 32 byte words.
type ABICodec struct{}

var abiLayouts = map[RequestType]abi.Arguments{
	TypeRelay:         abiArgs("address", "address", "address", "uint256", "uint64", "uint64", "bytes32"),
	TypeWithdraw:      abiArgs("uint64", "uint64", "address", "address", "uint256", "bytes32"),
	TypeMint:          abiArgs("address", "address", "uint256", "address", "uint64", "bytes32"),
	TypeVaultWithdraw: abiArgs("address", "address", "uint256", "address", "uint64", "bytes32"),
	TypeUpdateSigners: abiArgs("uint64", "address[]", "uint256[]"),
	TypeReward:        abiArgs("address", "uint256"),
	TypePenalty:       abiArgs("address", "uint64", "uint64", "uint64", "uint64", "address[]", "uint256[]"),
}

func abiArgs(types ...string) abi.Arguments {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args[i] = abi.Argument{Type: typ}
	}
	return args
}

func (ABICodec) Encoding() Encoding { return EncodingABI }

func (c ABICodec) Encode(req Request) ([]byte, error) { return encode(c, req) }

func (c ABICodec) Decode(b []byte) (Request, error) { return decode(c, b) }

func (ABICodec) encodeBody(req Request) ([]byte, error) {
	var values []any
	switch r := req.(type) {
	case *RelayRequest:
		values = []any{r.Sender, r.Receiver, r.Token, r.Amount.ToBig(), r.SrcChainID, r.DstChainID, [32]byte(r.SrcTransferID)}
	case *WithdrawRequest:
		values = []any{r.ChainID, r.SeqNum, r.Receiver, r.Token, r.Amount.ToBig(), [32]byte(r.RefID)}
	case *MintRequest:
		values = []any{r.Token, r.Account, r.Amount.ToBig(), r.Depositor, r.RefChainID, [32]byte(r.RefID)}
	case *VaultWithdrawRequest:
		values = []any{r.Token, r.Receiver, r.Amount.ToBig(), r.BurnAccount, r.RefChainID, [32]byte(r.RefID)}
	case *UpdateSignersRequest:
		values = []any{r.TriggerTime, nonNilAddresses(r.Signers), toBigs(r.Powers)}
	case *RewardRequest:
		values = []any{r.Recipient, r.CumulativeRewardAmount.ToBig()}
	case *PenaltyRequest:
		accounts := make([]common.Address, len(r.Collectors))
		amounts := make([]*big.Int, len(r.Collectors))
		for i, c := range r.Collectors {
			accounts[i] = c.Account
			amounts[i] = c.Amount.ToBig()
		}
		values = []any{r.Validator, r.Nonce, r.SlashFactor, r.ExpireTime, r.JailPeriod, accounts, amounts}
	default:
		return nil, ErrUnknownRequestType.Errorf("%T", req)
	}
	body, err := abiLayouts[req.Type()].Pack(values...)
	if err != nil {
		return nil, ErrInvalidField.Errorf("%v", err)
	}
	return body, nil
}

func (ABICodec) decodeBody(t RequestType, body []byte) (req Request, err error) {
	args, ok := abiLayouts[t]
	if !ok {
		return nil, ErrUnknownRequestType.Errorf("type %d", t)
	}
	values, err := args.Unpack(body)
	if err != nil {
		return nil, ErrMalformedRequest.Errorf("%v", err)
	}
	// Unpack guarantees the Go types of values for a fixed layout, a failed
	// assertion means the layout table and this switch disagree.
	defer func() {
		if r := recover(); r != nil {
			req, err = nil, ErrMalformedRequest.Errorf("%v", r)
		}
	}()
	switch t {
	case TypeRelay:
		return &RelayRequest{
			Sender:        values[0].(common.Address),
			Receiver:      values[1].(common.Address),
			Token:         values[2].(common.Address),
			Amount:        fromBig(values[3].(*big.Int)),
			SrcChainID:    values[4].(uint64),
			DstChainID:    values[5].(uint64),
			SrcTransferID: common.Hash(values[6].([32]byte)),
		}, nil
	case TypeWithdraw:
		return &WithdrawRequest{
			ChainID:  values[0].(uint64),
			SeqNum:   values[1].(uint64),
			Receiver: values[2].(common.Address),
			Token:    values[3].(common.Address),
			Amount:   fromBig(values[4].(*big.Int)),
			RefID:    common.Hash(values[5].([32]byte)),
		}, nil
	case TypeMint:
		return &MintRequest{
			Token:      values[0].(common.Address),
			Account:    values[1].(common.Address),
			Amount:     fromBig(values[2].(*big.Int)),
			Depositor:  values[3].(common.Address),
			RefChainID: values[4].(uint64),
			RefID:      common.Hash(values[5].([32]byte)),
		}, nil
	case TypeVaultWithdraw:
		return &VaultWithdrawRequest{
			Token:       values[0].(common.Address),
			Receiver:    values[1].(common.Address),
			Amount:      fromBig(values[2].(*big.Int)),
			BurnAccount: values[3].(common.Address),
			RefChainID:  values[4].(uint64),
			RefID:       common.Hash(values[5].([32]byte)),
		}, nil
	case TypeUpdateSigners:
		signers := values[1].([]common.Address)
		bigs := values[2].([]*big.Int)
		r := &UpdateSignersRequest{TriggerTime: values[0].(uint64)}
		if len(signers) > 0 {
			r.Signers = signers
		}
		for _, b := range bigs {
			r.Powers = append(r.Powers, fromBig(b))
		}
		return r, nil
	case TypeReward:
		return &RewardRequest{
			Recipient:              values[0].(common.Address),
			CumulativeRewardAmount: fromBig(values[1].(*big.Int)),
		}, nil
	case TypePenalty:
		accounts := values[5].([]common.Address)
		amounts := values[6].([]*big.Int)
		if len(accounts) != len(amounts) {
			return nil, ErrInvalidField.Errorf("%d collectors and %d amounts", len(accounts), len(amounts))
		}
		r := &PenaltyRequest{
			Validator:   values[0].(common.Address),
			Nonce:       values[1].(uint64),
			SlashFactor: values[2].(uint64),
			ExpireTime:  values[3].(uint64),
			JailPeriod:  values[4].(uint64),
		}
		for i := range accounts {
			r.Collectors = append(r.Collectors, AccountAmount{Account: accounts[i], Amount: fromBig(amounts[i])})
		}
		return r, nil
	}
	return nil, ErrUnknownRequestType.Errorf("type %d", t)
}

func fromBig(b *big.Int) *uint256.Int {
	v, _ := uint256.FromBig(b)
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

func toBigs(vs []*uint256.Int) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = v.ToBig()
	}
	return out
}

func nonNilAddresses(addrs []common.Address) []common.Address {
	if addrs == nil {
		return []common.Address{}
	}
	return addrs
}
