package services

import (
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// contentID derives a stable positive 63-bit id from ordered parts.
// Identical parts always yield the same id, independent of row order.
func contentID(parts ...string) int64 {
	id := int64(xxhash.Sum64String(strings.Join(parts, "\x1f")) & math.MaxInt64)
	if id == 0 {
		// 0 is never a valid node id.
		return math.MaxInt64
	}
	return id
}

// rankPart renders one level of a hierarchy path for hashing.
func rankPart(rank, value string) string {
	return rank + "=" + value
}
