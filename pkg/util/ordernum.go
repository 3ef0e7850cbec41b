package util

import (
	"math/rand"
	"strconv"
	"time"
)

const (
	orderNumberPrefix    = "KB"
	orderNumberSuffixLen = 3
	orderNumberCharset   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// GenerateOrderNumber builds a human-readable order number from the last six
// digits of the millisecond timestamp plus a short random suffix, e.g.
// "KB123456A7Z". Collisions are possible; callers must check uniqueness
// against the store before committing.
func GenerateOrderNumber(now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}

	suffix := make([]byte, orderNumberSuffixLen)
	for i := range suffix {
		suffix[i] = orderNumberCharset[rand.Intn(len(orderNumberCharset))]
	}

	return orderNumberPrefix + ts + string(suffix)
}
