// Package gsmon is the core of the gsmon application: a single-endpoint
// reachability monitor with automatic recovery and periodic maintenance.
//
// Mechanism of Operation
//
// The monitor loop is strictly sequential. Each tick probes the configured
// gsocket endpoint once, bounded by the configured timeout. If the probe
// fails, a recovery episode runs: up to max_retries restore-then-reprobe
// attempts, resolving to either a restored endpoint or retry exhaustion.
// Exhaustion is logged at critical severity but never stops the loop; the
// next tick simply probes again.
//
// Maintenance (log pruning, disk-space check, health check) runs on its own
// cron-style cadence, independent of the monitor interval. The loop checks
// whether a cycle is due after each probe/recovery step and runs the whole
// cycle inline, so no two steps ever overlap.
//
// Every outcome is written as a typed Event through a Journaler. The journal
// subpackage provides the file-backed sink (guarded by a file lock so only
// one monitor runs per log file) and a console sink.
package gsmon
