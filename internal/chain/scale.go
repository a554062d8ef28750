package chain

// This file implements the narrow slice of the SCALE codec the
// extrinsic builder needs: compact-encoded unsigned integers, byte
// vectors and fixed-width little-endian integers; the era/signature
// framing itself is assembled in extrinsic.go. The
// `go-substrate-rpc-client` module implements a much larger surface
// (runtime metadata decoding, arbitrary type registries, live node
// introspection) built for clients that resolve pallet/call indices
// from a fetched runtime. This module fixes a single pallet pair
// (Nolik, Balances) with indices read from a small local table (see
// calls.go), so it carries its own minimal encoder rather than the
// full client.

// CompactUint encodes n using the SCALE "compact" integer format.
func CompactUint(n uint64) []byte {
	switch {
	case n < 1<<6:
		return []byte{byte(n << 2)}
	case n < 1<<14:
		v := uint16(n<<2) | 0b01
		return []byte{byte(v), byte(v >> 8)}
	case n < 1<<30:
		v := uint32(n<<2) | 0b10
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	default:
		// Big-integer mode: mode bits 0b11 in the low byte, followed by
		// (byte-length - 4) in the upper 6 bits, then the value's bytes
		// little-endian.
		var b []byte
		v := n
		for v > 0 {
			b = append(b, byte(v))
			v >>= 8
		}
		header := byte((len(b)-4)<<2 | 0b11)
		return append([]byte{header}, b...)
	}
}

// Bytes encodes a byte slice as Compact(len) || data, the SCALE
// encoding of Vec<u8> / String.
func Bytes(b []byte) []byte {
	out := CompactUint(uint64(len(b)))
	return append(out, b...)
}

// String encodes a UTF-8 string the same way as Bytes.
func String(s string) []byte {
	return Bytes([]byte(s))
}

// FixedVec encodes a slice of fixed-size arrays as Compact(len)
// followed by each element's raw bytes, e.g. Vec<[u8;16]>.
func FixedVec(elems [][]byte) []byte {
	out := CompactUint(uint64(len(elems)))
	for _, e := range elems {
		out = append(out, e...)
	}
	return out
}

// Uint32LE encodes a fixed-width u32 in SCALE's native little-endian
// form, used for the runtime/transaction version fields of the signed
// extrinsic's additional-signed payload.
func Uint32LE(n uint32) []byte {
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
}

// Concat is a small helper to join SCALE-encoded fragments in order.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
