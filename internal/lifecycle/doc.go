// Package lifecycle drives the display between mount and unmount.
//
// On Mount the Controller fetches the primary record, starts the throughput
// feed, announces the process start, starts the one-second stopwatch and
// subscribes to foreground/background transitions. Remote calls and the feed
// start run on their own goroutines, so Mount returns without waiting on the
// network. Every outcome is reported
// to a Sink as an Event; the Controller holds no display state of its own.
//
// Replies and ticks that belong to an earlier mount are discarded, so a
// remount never sees stale data.
package lifecycle
