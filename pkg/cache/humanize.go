package cache

import (
	"strings"

	"github.com/dustin/go-humanize"
)

func humanizeBytes(cost int64) string {
	if cost < 0 {
		cost = 0
	}
	return humanize.Bytes(uint64(cost))
}

// parseUsedMemoryHuman pulls Redis's own used_memory_human field out of an
// INFO memory response rather than re-deriving it from raw bytes.
func parseUsedMemoryHuman(info string) string {
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, "used_memory_human:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return "unknown"
}
