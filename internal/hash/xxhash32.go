// Package hash provides the deterministic string hashing used to assign
// evaluation contexts to rollout buckets. The split algorithm must produce
// bit-identical results across language SDKs, so Sum32 implements the
// public xxHash32 algorithm directly rather than relying on a 64-bit-only
// hash from the surrounding ecosystem (see DESIGN.md).
package hash

const (
	prime32_1 uint32 = 2654435761
	prime32_2 uint32 = 2246822519
	prime32_3 uint32 = 3266489917
	prime32_4 uint32 = 668265263
	prime32_5 uint32 = 374761393
)

// Sum32String hashes s with the given seed using xxHash32.
func Sum32String(s string, seed uint32) uint32 {
	return Sum32([]byte(s), seed)
}

// Sum32 hashes data with the given seed using xxHash32.
func Sum32(data []byte, seed uint32) uint32 {
	n := len(data)
	var h32 uint32
	i := 0

	if n >= 16 {
		v1 := seed + prime32_1 + prime32_2
		v2 := seed + prime32_2
		v3 := seed
		v4 := seed - prime32_1

		for ; i+16 <= n; i += 16 {
			v1 = round32(v1, le32(data[i:]))
			v2 = round32(v2, le32(data[i+4:]))
			v3 = round32(v3, le32(data[i+8:]))
			v4 = round32(v4, le32(data[i+12:]))
		}
		h32 = rotl32(v1, 1) + rotl32(v2, 7) + rotl32(v3, 12) + rotl32(v4, 18)
	} else {
		h32 = seed + prime32_5
	}

	h32 += uint32(n)

	for ; i+4 <= n; i += 4 {
		h32 += le32(data[i:]) * prime32_3
		h32 = rotl32(h32, 17) * prime32_4
	}
	for ; i < n; i++ {
		h32 += uint32(data[i]) * prime32_5
		h32 = rotl32(h32, 11) * prime32_1
	}

	h32 ^= h32 >> 15
	h32 *= prime32_2
	h32 ^= h32 >> 13
	h32 *= prime32_3
	h32 ^= h32 >> 16

	return h32
}

func round32(seed, input uint32) uint32 {
	seed += input * prime32_2
	seed = rotl32(seed, 13)
	seed *= prime32_1
	return seed
}

func rotl32(x uint32, r uint) uint32 {
	return (x << r) | (x >> (32 - r))
}

// le32 reads a little-endian uint32 from the first 4 bytes of b.
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
