package hash

// maxUint32 is the hash space used to scale weights.
const maxUint32 = ^uint32(0)

// WeightedIndex maps a string key to one of len(weights) indices using the
// xxHash32 digest of key, proportionally to weights. Weights need not sum
// to any particular total; only their relative magnitude matters. It
// returns defaultIndex if every weight is zero or the weights slice is
// empty.
//
// scaled[i] = (weights[i]/W) * M, then the first index whose cumulative
// scaled sum exceeds the hash wins.
func WeightedIndex(key string, seed uint32, weights []int, defaultIndex int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return defaultIndex
	}

	h := Sum32String(key, seed)
	m := float64(maxUint32)
	w := float64(total)

	var cumulative float64
	for i, weight := range weights {
		if weight < 0 {
			weight = 0
		}
		cumulative += (float64(weight) / w) * m
		if float64(h) < cumulative {
			return i
		}
	}
	return defaultIndex
}

// PromilleMatch reports whether key falls within the first passPromille
// (out of 100_000) of the hash space for key, per the segment split rule
// outcome. passPromille <= 0 never matches; passPromille >= 100_000
// always matches.
func PromilleMatch(key string, seed uint32, passPromille int) bool {
	if passPromille <= 0 {
		return false
	}
	if passPromille >= 100_000 {
		return true
	}
	h := Sum32String(key, seed)
	return int(h%100_000) < passPromille
}
