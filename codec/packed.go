// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// Packer builds tightly packed byte strings. Scalars use their natural
// big-endian width, uint256 values take 32 bytes, and array elements are
// each padded to a 32 byte word.
type Packer struct {
	buf []byte
}

// NewPacker returns an empty packer
func NewPacker() *Packer {
	return &Packer{buf: make([]byte, 0, 256)}
}

func (p *Packer) Uint8(v uint8) *Packer {
	p.buf = append(p.buf, v)
	return p
}

func (p *Packer) Uint64(v uint64) *Packer {
	p.buf = binary.BigEndian.AppendUint64(p.buf, v)
	return p
}

// Uint256 appends v as a 32 byte word. A nil value packs as zero.
func (p *Packer) Uint256(v *uint256.Int) *Packer {
	var word [32]byte
	if v != nil {
		word = v.Bytes32()
	}
	p.buf = append(p.buf, word[:]...)
	return p
}

func (p *Packer) Address(a common.Address) *Packer {
	p.buf = append(p.buf, a[:]...)
	return p
}

func (p *Packer) Bytes32(h common.Hash) *Packer {
	p.buf = append(p.buf, h[:]...)
	return p
}

func (p *Packer) Bytes(b []byte) *Packer {
	p.buf = append(p.buf, b...)
	return p
}

func (p *Packer) Text(s string) *Packer {
	p.buf = append(p.buf, s...)
	return p
}

// AddressArray appends every address left padded to 32 bytes.
func (p *Packer) AddressArray(addrs []common.Address) *Packer {
	for _, a := range addrs {
		p.buf = append(p.buf, common.LeftPadBytes(a[:], 32)...)
	}
	return p
}

func (p *Packer) Uint256Array(vs []*uint256.Int) *Packer {
	for _, v := range vs {
		p.Uint256(v)
	}
	return p
}

// Encoded returns the packed bytes.
func (p *Packer) Encoded() []byte {
	return p.buf
}

// Keccak returns keccak256 of the packed bytes.
func (p *Packer) Keccak() common.Hash {
	return common.BytesToHash(crypto.Keccak256(p.buf))
}
