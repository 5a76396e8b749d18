// Package logtail reads the most recent lines of the monitor's log file so the UI can show
// what the talker and poller reported (failed sends, dropped lines, connection errors)
// without leaving the terminal.
package logtail
