// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package codec

import (
	"bytes"
	"fmt"

	"github.com/luxfi/xbridge"
)

// Version is the envelope version written by every codec.
const Version = 1

const envelopeHeaderLen = 2

var (
	ErrMalformedRequest   = xbridge.NewError(xbridge.KindEncoding, "malformed request")
	ErrUnknownRequestType = xbridge.NewError(xbridge.KindEncoding, "unknown request type")
	ErrUnsupportedVersion = xbridge.NewError(xbridge.KindEncoding, "unsupported encoding version")
	ErrNonCanonical       = xbridge.NewError(xbridge.KindEncoding, "non-canonical encoding")
	ErrInvalidField       = xbridge.NewError(xbridge.KindEncoding, "invalid request field")
	ErrUnexpectedType     = xbridge.NewError(xbridge.KindEncoding, "unexpected request type")
)

// Encoding selects the body layout of encoded requests.
type Encoding uint8

const (
	// EncodingProto lays out bodies in protobuf wire format.
	EncodingProto Encoding = iota + 1
	// EncodingABI lays out bodies as ABI-encoded tuples.
	EncodingABI
)

func (e Encoding) String() string {
	switch e {
	case EncodingProto:
		return "proto"
	case EncodingABI:
		return "abi"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

// ParseEncoding parses the String form of an encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "proto":
		return EncodingProto, nil
	case "abi":
		return EncodingABI, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}

// Codec serializes requests into the bytes that signers sign. Encodings are
// deterministic and Decode only accepts bytes that Encode would produce.
type Codec interface {
	Encoding() Encoding
	Encode(req Request) ([]byte, error)
	Decode(b []byte) (Request, error)
}

// New returns the codec for enc.
func New(enc Encoding) (Codec, error) {
	switch enc {
	case EncodingProto:
		return ProtoCodec{}, nil
	case EncodingABI:
		return ABICodec{}, nil
	default:
		return nil, fmt.Errorf("unknown encoding %d", enc)
	}
}

type bodyCodec interface {
	encodeBody(req Request) ([]byte, error)
	decodeBody(t RequestType, body []byte) (Request, error)
}

func encode(c bodyCodec, req Request) ([]byte, error) {
	if req == nil {
		return nil, ErrMalformedRequest.Errorf("nil request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := c.encodeBody(req)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, envelopeHeaderLen+len(body))
	out = append(out, Version, byte(req.Type()))
	return append(out, body...), nil
}

func decode(c bodyCodec, b []byte) (Request, error) {
	if len(b) < envelopeHeaderLen {
		return nil, ErrMalformedRequest.Errorf("%d bytes", len(b))
	}
	if b[0] != Version {
		return nil, ErrUnsupportedVersion.Errorf("version %d", b[0])
	}
	t := RequestType(b[1])
	if t < TypeRelay || t > TypePenalty {
		return nil, ErrUnknownRequestType.Errorf("type %d", b[1])
	}
	req, err := c.decodeBody(t, b[envelopeHeaderLen:])
	if err != nil {
		return nil, err
	}
	// Reject alternative encodings of the same request.
	again, err := encode(c, req)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(again, b) {
		return nil, ErrNonCanonical
	}
	return req, nil
}

// PeekType returns the request type of an encoded request without decoding
// its body.
func PeekType(b []byte) (RequestType, error) {
	if len(b) < envelopeHeaderLen {
		return 0, ErrMalformedRequest.Errorf("%d bytes", len(b))
	}
	if b[0] != Version {
		return 0, ErrUnsupportedVersion.Errorf("version %d", b[0])
	}
	return RequestType(b[1]), nil
}

// DecodeAs decodes b with c and asserts the request is a T.
func DecodeAs[T Request](c Codec, b []byte) (T, error) {
	var zero T
	req, err := c.Decode(b)
	if err != nil {
		return zero, err
	}
	typed, ok := req.(T)
	if !ok {
		return zero, ErrUnexpectedType.Errorf("got %s", req.Type())
	}
	return typed, nil
}
