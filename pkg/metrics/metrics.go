// Package metrics turns cumulative kernel counters into rates and derived
// quantities. Every function is pure: callers pass the previous and current
// samples explicitly and own their retention between polls.
//
// Two per-process CPU metrics are provided and deliberately kept apart:
//
//	ProcessCPURate    = Δticks / tickRate / Δwall   (instantaneous, needs two polls)
//	ProcessCPUAverage = ticks / tickRate / age      (average since the process started)
//
// A rate that cannot be computed is reported as NoData, never as 0 or NaN.
package metrics

import (
	"math"
	"time"
)

// Counter is a cumulative busy/total tick pair, such as the aggregate cpu
// row of /proc/stat.
type Counter interface {
	Active() uint64
	Total() uint64
}

// CPUUtilization returns Δactive/Δtotal between two samples, clamped to [0,1].
// It returns NoData when the totals are equal (interval too short) or went
// backwards (counter reset, samples swapped).
func CPUUtilization(prev, cur Counter) Ratio {
	if cur.Total() <= prev.Total() {
		return NoData
	}
	dTotal := cur.Total() - prev.Total()
	dActive := deltaU64(cur.Active(), prev.Active())
	return clamp01(ratio(float64(dActive), float64(dTotal)))
}

// ProcessCPURate returns the share of one CPU a process used between two
// polls: (Δticks/tickRate) seconds of CPU over elapsed wall seconds.
// It returns NoData for a non-positive window or tick rate, or when the
// counter went backwards (pid reused by a new process).
func ProcessCPURate(prevTicks, curTicks uint64, tickRate int64, elapsed time.Duration) Ratio {
	if tickRate <= 0 || elapsed <= 0 || curTicks < prevTicks {
		return NoData
	}
	cpuSec := float64(curTicks-prevTicks) / float64(tickRate)
	return ratio(cpuSec, elapsed.Seconds())
}

// ProcessCPUAverage returns CPU seconds consumed over the seconds the process
// has been alive. This is the all-time average, not a current rate.
func ProcessCPUAverage(cpuTicks, startTicks uint64, uptimeSeconds float64, tickRate int64) Ratio {
	if tickRate <= 0 {
		return NoData
	}
	age := ElapsedSeconds(startTicks, uptimeSeconds, tickRate)
	return ratio(float64(cpuTicks)/float64(tickRate), age)
}

// ElapsedSeconds returns how long a process started at startTicks (clock
// ticks after boot) has been running, given the current system uptime.
// It never returns a negative value.
func ElapsedSeconds(startTicks uint64, uptimeSeconds float64, tickRate int64) float64 {
	if tickRate <= 0 {
		return 0
	}
	el := uptimeSeconds - float64(startTicks)/float64(tickRate)
	if el < 0 || math.IsNaN(el) {
		return 0
	}
	return el
}

// MemoryUtilization returns (total-available)/total, clamped to [0,1], or
// NoData when total is zero.
func MemoryUtilization(totalKB, availableKB int64) Ratio {
	if totalKB <= 0 {
		return NoData
	}
	if availableKB < 0 {
		availableKB = 0
	}
	used := totalKB - availableKB
	if used < 0 {
		used = 0
	}
	return clamp01(ratio(float64(used), float64(totalKB)))
}

// Elapsed returns the wall time between two poll instants, or 0 when they
// are out of order.
func Elapsed(prev, cur time.Time) time.Duration {
	if prev.IsZero() || !cur.After(prev) {
		return 0
	}
	return cur.Sub(prev)
}
