package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count sizes a bounded worker pool from the CPUs the process may
// actually use. GOMAXPROCS reflects container CPU limits (Go 1.19+),
// so the count shrinks with the cgroup quota.
//
// perCPU scales for the workload: 1.0 when workers saturate a core,
// 2.0 when they mostly wait on files or the network. limit caps the
// result; 0 means uncapped.
//
// PIPELINE_WORKERS overrides the computed count, still subject to the
// limit.
func Count(perCPU float64, limit int) int {
	if override := os.Getenv("PIPELINE_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return clamp(count, limit)
		}
	}

	count := int(float64(runtime.GOMAXPROCS(0)) * perCPU)
	return clamp(count, limit)
}

// ForScan sizes the library scan pool. Scans read file headers, so
// workers spend most of their time blocked on the filesystem.
func ForScan(limit int) int {
	return Count(2.0, limit)
}

func clamp(count, limit int) int {
	if count < 1 {
		count = 1
	}
	if limit > 0 && count > limit {
		count = limit
	}
	return count
}
