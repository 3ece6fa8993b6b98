// Package proc reads point-in-time telemetry from a Linux procfs tree.
//
// Everything hangs off FS, a value holding the source Paths. FS has no
// mutable state: each call re-reads the files it needs and returns a fresh
// value, so it is safe to share between goroutines.
//
//   - System:        SystemSnapshot (os-release, version, uptime, stat, meminfo)
//   - CPU:           CPUSample, the cumulative aggregate "cpu" row of stat
//   - PIDs:          numeric entries of the procfs root
//   - ReadProcess:   ProcessSnapshot from <pid>/stat, <pid>/status, <pid>/cmdline
//   - ReadProcesses: ReadProcess over many pids with bounded parallelism
//
// Rates are not computed here. CPUSample and ProcessSnapshot hold cumulative
// counters; pass two of them, taken at different polls, to package metrics.
//
// Error handling
//
// Processes come and go between PIDs and ReadProcess. ReadProcess reports a
// vanished process as ErrProcessGone and ReadProcesses silently drops it.
// Within a file, a short or malformed field falls back to its zero value
// (UnknownKB for memory) and never aborts the rest of the read. The only
// source whose corruption is reported is the cpu row (ErrInvalidCPUSample),
// because a partial sample would produce a bogus utilization.
//
// Example: one refresh
//
//	fs := proc.NewFS(proc.DefaultPaths())
//	prev, _ := fs.CPU()
//	time.Sleep(time.Second)
//	cur, _ := fs.CPU()
//	fmt.Println(metrics.CPUUtilization(prev, cur))
//
//	pids, _ := fs.PIDs()
//	procs, _ := fs.ReadProcesses(ctx, pids, 8)
//
// Package monitor wraps this loop and keeps the previous samples.
package proc
