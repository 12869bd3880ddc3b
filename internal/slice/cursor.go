package slice

import (
	"strconv"
	"strings"
)

// Key is the position key used for ordering and cursoring. It is always the
// entity identifier: positive, monotonically assigned and never reused.
type Key = int64

// DecodeCursor parses a wire cursor. Empty, blank, non-numeric and
// non-positive input all decode to "no cursor" so a broken cursor restarts
// pagination instead of failing the request.
func DecodeCursor(raw string) (Key, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	k, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || k <= 0 {
		return 0, false
	}
	return k, true
}

// EncodeCursor renders a position key as a wire cursor.
func EncodeCursor(k Key) string {
	return strconv.FormatInt(k, 10)
}
