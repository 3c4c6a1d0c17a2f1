package fiscal

import (
	"strconv"
	"strings"
)

// offsetKind is the unit of an estimate offset token.
type offsetKind byte

const (
	offsetYear    offsetKind = 'y'
	offsetQuarter offsetKind = 'q'
)

// maxEstimateOffset bounds how far forward an estimate may be projected.
const maxEstimateOffset = 4

// parseOffset splits tokens such as "0y", "+1y" or "+2q" into their step
// count and unit. Tokens outside 0..maxEstimateOffset are rejected.
func parseOffset(token string) (n int, kind offsetKind, ok bool) {
	token = strings.TrimSpace(strings.ToLower(token))
	if len(token) < 2 {
		return 0, 0, false
	}
	kind = offsetKind(token[len(token)-1])
	if kind != offsetYear && kind != offsetQuarter {
		return 0, 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(token[:len(token)-1], "+"))
	if err != nil || n < 0 || n > maxEstimateOffset {
		return 0, 0, false
	}
	return n, kind, true
}
