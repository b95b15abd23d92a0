package game

import "unicode/utf16"

// seedHash folds the seed's UTF-16 code units into a signed 32-bit hash
// (hash = hash*31 + unit, wrapping on overflow).
func seedHash(seed string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(seed)) {
		h = h*31 + int32(u)
	}
	return h
}

// deterministicShuffle permutes items in place with a Fisher–Yates pass driven by the
// seed hash. Other implementations of the protocol reproduce this order exactly, so the
// arithmetic must stay 32-bit signed with the absolute value taken in 64 bits.
func deterministicShuffle[T any](items []T, seed string) {
	h := seedHash(seed)
	for i := len(items) - 1; i > 0; i-- {
		h = h*31 + int32(i)
		abs := int64(h)
		if abs < 0 {
			abs = -abs
		}
		j := int(abs % int64(i+1))
		items[i], items[j] = items[j], items[i]
	}
}

func shuffleSeed(matchID, playerID string) string {
	return matchID + "-" + playerID
}
