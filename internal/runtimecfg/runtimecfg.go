// Package runtimecfg applies the process-wide allocation policy from the
// configuration file. The policy only trades memory for CPU; it never
// changes what the program computes.
package runtimecfg

import (
	"fmt"
	"runtime/debug"

	"github.com/vadimpiven/reqmeta/pkg/config"
)

// Applied records what Apply changed, for logging.
type Applied struct {
	GCPercent   int
	MemoryLimit int64
}

// Apply sets the GC target percentage and soft memory limit from c.
// Zero values leave the runtime defaults (or GOGC/GOMEMLIMIT) alone.
func Apply(c config.RuntimeConfig) (Applied, error) {
	var applied Applied
	if c.GCPercent != 0 {
		debug.SetGCPercent(c.GCPercent)
		applied.GCPercent = c.GCPercent
	}
	if c.MemoryLimit != "" {
		limit, err := config.ParseBytes(c.MemoryLimit)
		if err != nil {
			return applied, fmt.Errorf("memory limit: %w", err)
		}
		debug.SetMemoryLimit(limit)
		applied.MemoryLimit = limit
	}
	return applied, nil
}
