// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides diskfish's standard CBOR encoding
// configuration.
//
// CBOR is the wire format of the remote-control protocol: the Hello,
// Call, and Reply messages exchanged between a listening diskfish
// server and its remote clients. It is self-describing and
// length-prefixed, so the same bytes decode identically regardless of
// host byte order or struct layout, and a truncated stream is a clean
// decode error rather than a crash.
//
// This package provides the shared encoding and decoding modes so
// that both ends of the protocol encode identically without
// duplicating configuration. The encoder uses Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical data always
// produces identical bytes.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (the protocol socket):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Protocol message types carry `cbor` struct tags; they are never
// serialized as JSON.
package codec
