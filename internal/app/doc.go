// Package app is the composition root for the interactive monitor.
//
// Run wires the pieces together in this order:
//
//  1. open the log file named by the config and build a charmbracelet/log logger on it
//  2. build the transport client (socket or HTTP) with NewRemote
//  3. load preferences and start prefs.Watch so edits made outside the monitor apply live
//  4. create the shared state.Store and a bouyomi.Talker bound to the run context
//  5. start the status poller
//  6. run the Bubble Tea UI until the user quits or the context is cancelled
//
// # Polling
//
// The poller asks the application for its status every poll interval and records the result
// in the store. Each consecutive failure doubles the delay before the next attempt, up to
// 30 seconds, so a stopped application is not hammered with connection attempts. The first
// successful poll resets the delay. Talk requests are never retried: the talker discards
// queued lines when a send fails.
//
// # Logging
//
// The monitor owns the terminal, so diagnostics go to the log file rather than stderr. The
// CLI subcommands use NewLogger with stderr instead.
package app
