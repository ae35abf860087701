// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// ProtoCodec encodes request bodies in protobuf wire format. Addresses are
// 20 byte fields, ids 32 byte fields, and amounts minimal big-endian bytes.
// Zero scalars and zero amounts are omitted.
type ProtoCodec struct{}

func (ProtoCodec) Encoding() Encoding { return EncodingProto }

func (c ProtoCodec) Encode(req Request) ([]byte, error) { return encode(c, req) }

func (c ProtoCodec) Decode(b []byte) (Request, error) { return decode(c, b) }

func (ProtoCodec) encodeBody(req Request) ([]byte, error) {
	var b []byte
	switch r := req.(type) {
	case *RelayRequest:
		b = appendAddress(b, 1, r.Sender)
		b = appendAddress(b, 2, r.Receiver)
		b = appendAddress(b, 3, r.Token)
		b = appendAmount(b, 4, r.Amount)
		b = appendUint64(b, 5, r.SrcChainID)
		b = appendUint64(b, 6, r.DstChainID)
		b = appendHash(b, 7, r.SrcTransferID)
	case *WithdrawRequest:
		b = appendUint64(b, 1, r.ChainID)
		b = appendUint64(b, 2, r.SeqNum)
		b = appendAddress(b, 3, r.Receiver)
		b = appendAddress(b, 4, r.Token)
		b = appendAmount(b, 5, r.Amount)
		b = appendHash(b, 6, r.RefID)
	case *MintRequest:
		b = appendAddress(b, 1, r.Token)
		b = appendAddress(b, 2, r.Account)
		b = appendAmount(b, 3, r.Amount)
		b = appendAddress(b, 4, r.Depositor)
		b = appendUint64(b, 5, r.RefChainID)
		b = appendHash(b, 6, r.RefID)
	case *VaultWithdrawRequest:
		b = appendAddress(b, 1, r.Token)
		b = appendAddress(b, 2, r.Receiver)
		b = appendAmount(b, 3, r.Amount)
		b = appendAddress(b, 4, r.BurnAccount)
		b = appendUint64(b, 5, r.RefChainID)
		b = appendHash(b, 6, r.RefID)
	case *UpdateSignersRequest:
		b = appendUint64(b, 1, r.TriggerTime)
		for _, s := range r.Signers {
			b = appendAddress(b, 2, s)
		}
		// Repeated powers keep their position even when zero.
		for _, p := range r.Powers {
			b = protowire.AppendTag(b, 3, protowire.BytesType)
			b = protowire.AppendBytes(b, p.Bytes())
		}
	case *RewardRequest:
		b = appendAddress(b, 1, r.Recipient)
		b = appendAmount(b, 2, r.CumulativeRewardAmount)
	case *PenaltyRequest:
		b = appendAddress(b, 1, r.Validator)
		b = appendUint64(b, 2, r.Nonce)
		b = appendUint64(b, 3, r.SlashFactor)
		b = appendUint64(b, 4, r.ExpireTime)
		b = appendUint64(b, 5, r.JailPeriod)
		for _, c := range r.Collectors {
			var sub []byte
			sub = appendAddress(sub, 1, c.Account)
			sub = appendAmount(sub, 2, c.Amount)
			b = protowire.AppendTag(b, 6, protowire.BytesType)
			b = protowire.AppendBytes(b, sub)
		}
	default:
		return nil, ErrUnknownRequestType.Errorf("%T", req)
	}
	return b, nil
}

func (ProtoCodec) decodeBody(t RequestType, body []byte) (Request, error) {
	fields, err := readProtoFields(body)
	if err != nil {
		return nil, err
	}
	d := &protoDecoder{}
	switch t {
	case TypeRelay:
		r := &RelayRequest{Amount: new(uint256.Int)}
		for _, f := range fields {
			switch f.num {
			case 1:
				r.Sender = d.address(f)
			case 2:
				r.Receiver = d.address(f)
			case 3:
				r.Token = d.address(f)
			case 4:
				r.Amount = d.amount(f)
			case 5:
				r.SrcChainID = d.uint64(f)
			case 6:
				r.DstChainID = d.uint64(f)
			case 7:
				r.SrcTransferID = d.hash(f)
			default:
				d.unknown(f)
			}
		}
		return r, d.err
	case TypeWithdraw:
		r := &WithdrawRequest{Amount: new(uint256.Int)}
		for _, f := range fields {
			switch f.num {
			case 1:
				r.ChainID = d.uint64(f)
			case 2:
				r.SeqNum = d.uint64(f)
			case 3:
				r.Receiver = d.address(f)
			case 4:
				r.Token = d.address(f)
			case 5:
				r.Amount = d.amount(f)
			case 6:
				r.RefID = d.hash(f)
			default:
				d.unknown(f)
			}
		}
		return r, d.err
	case TypeMint:
		r := &MintRequest{Amount: new(uint256.Int)}
		for _, f := range fields {
			switch f.num {
			case 1:
				r.Token = d.address(f)
			case 2:
				r.Account = d.address(f)
			case 3:
				r.Amount = d.amount(f)
			case 4:
				r.Depositor = d.address(f)
			case 5:
				r.RefChainID = d.uint64(f)
			case 6:
				r.RefID = d.hash(f)
			default:
				d.unknown(f)
			}
		}
		return r, d.err
	case TypeVaultWithdraw:
		r := &VaultWithdrawRequest{Amount: new(uint256.Int)}
		for _, f := range fields {
			switch f.num {
			case 1:
				r.Token = d.address(f)
			case 2:
				r.Receiver = d.address(f)
			case 3:
				r.Amount = d.amount(f)
			case 4:
				r.BurnAccount = d.address(f)
			case 5:
				r.RefChainID = d.uint64(f)
			case 6:
				r.RefID = d.hash(f)
			default:
				d.unknown(f)
			}
		}
		return r, d.err
	case TypeUpdateSigners:
		r := &UpdateSignersRequest{}
		for _, f := range fields {
			switch f.num {
			case 1:
				r.TriggerTime = d.uint64(f)
			case 2:
				r.Signers = append(r.Signers, d.address(f))
			case 3:
				r.Powers = append(r.Powers, d.amount(f))
			default:
				d.unknown(f)
			}
		}
		return r, d.err
	case TypeReward:
		r := &RewardRequest{CumulativeRewardAmount: new(uint256.Int)}
		for _, f := range fields {
			switch f.num {
			case 1:
				r.Recipient = d.address(f)
			case 2:
				r.CumulativeRewardAmount = d.amount(f)
			default:
				d.unknown(f)
			}
		}
		return r, d.err
	case TypePenalty:
		r := &PenaltyRequest{}
		for _, f := range fields {
			switch f.num {
			case 1:
				r.Validator = d.address(f)
			case 2:
				r.Nonce = d.uint64(f)
			case 3:
				r.SlashFactor = d.uint64(f)
			case 4:
				r.ExpireTime = d.uint64(f)
			case 5:
				r.JailPeriod = d.uint64(f)
			case 6:
				r.Collectors = append(r.Collectors, d.accountAmount(f))
			default:
				d.unknown(f)
			}
		}
		return r, d.err
	default:
		return nil, ErrUnknownRequestType.Errorf("type %d", t)
	}
}

func appendAddress(b []byte, num protowire.Number, a common.Address) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, a[:])
}

func appendHash(b []byte, num protowire.Number, h common.Hash) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, h[:])
}

func appendAmount(b []byte, num protowire.Number, v *uint256.Int) []byte {
	if v == nil || v.IsZero() {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v.Bytes())
}

func appendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

type protoField struct {
	num   protowire.Number
	typ   protowire.Type
	value uint64
	bytes []byte
}

func readProtoFields(b []byte) ([]protoField, error) {
	var fields []protoField
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, ErrMalformedRequest.Errorf("tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		f := protoField{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.value, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			return nil, ErrMalformedRequest.Errorf("field %d: unsupported wire type %d", num, typ)
		}
		if n < 0 {
			return nil, ErrMalformedRequest.Errorf("field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]
		fields = append(fields, f)
	}
	return fields, nil
}

// protoDecoder records the first field error so decodeBody can read a whole
// message without checking after every field.
type protoDecoder struct {
	err error
}

func (d *protoDecoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *protoDecoder) want(f protoField, typ protowire.Type) bool {
	if f.typ != typ {
		d.fail(ErrMalformedRequest.Errorf("field %d: wire type %d", f.num, f.typ))
		return false
	}
	return true
}

func (d *protoDecoder) address(f protoField) common.Address {
	if !d.want(f, protowire.BytesType) {
		return common.Address{}
	}
	if len(f.bytes) != common.AddressLength {
		d.fail(ErrInvalidField.Errorf("field %d: address of %d bytes", f.num, len(f.bytes)))
		return common.Address{}
	}
	return common.BytesToAddress(f.bytes)
}

func (d *protoDecoder) hash(f protoField) common.Hash {
	if !d.want(f, protowire.BytesType) {
		return common.Hash{}
	}
	if len(f.bytes) != common.HashLength {
		d.fail(ErrInvalidField.Errorf("field %d: id of %d bytes", f.num, len(f.bytes)))
		return common.Hash{}
	}
	return common.BytesToHash(f.bytes)
}

func (d *protoDecoder) amount(f protoField) *uint256.Int {
	if !d.want(f, protowire.BytesType) {
		return new(uint256.Int)
	}
	if len(f.bytes) > 32 {
		d.fail(ErrInvalidField.Errorf("field %d: amount of %d bytes", f.num, len(f.bytes)))
		return new(uint256.Int)
	}
	return new(uint256.Int).SetBytes(f.bytes)
}

func (d *protoDecoder) uint64(f protoField) uint64 {
	if !d.want(f, protowire.VarintType) {
		return 0
	}
	return f.value
}

func (d *protoDecoder) accountAmount(f protoField) AccountAmount {
	out := AccountAmount{Amount: new(uint256.Int)}
	if !d.want(f, protowire.BytesType) {
		return out
	}
	sub, err := readProtoFields(f.bytes)
	if err != nil {
		d.fail(err)
		return out
	}
	for _, sf := range sub {
		switch sf.num {
		case 1:
			out.Account = d.address(sf)
		case 2:
			out.Amount = d.amount(sf)
		default:
			d.unknown(sf)
		}
	}
	return out
}

func (d *protoDecoder) unknown(f protoField) {
	d.fail(ErrMalformedRequest.Errorf("unknown field %d", f.num))
}
