// Package state provides thread-safe state management for the bouyomi monitor.
//
// # Overview
//
// This package implements a small store for sharing the speech application's status and
// the lines recently submitted from the monitor between the background poller and the UI.
//
// # Architecture
//
//	Producer (Poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ client.Status()│            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │  render UI      │
//	└────────────────┘            └─────────────────┘
//
// The UI also calls RecordTalk whenever it hands a line to the talker.
//
// # Update Semantics
//
//	// Success case: replace the status
//	store.Update(status, nil)
//	→ snapshot.Status = status
//	→ snapshot.LastError = nil
//	→ snapshot.ConsecutiveFailures = 0
//
//	// Error case: keep the previous status
//	store.Update(bouyomi.Status{}, err)
//	→ snapshot.Status = <unchanged>
//	→ snapshot.LastError = err
//	→ snapshot.ConsecutiveFailures++
//
// Snapshot.IsOffline reports true after two consecutive failures, so a single dropped poll
// does not flip the header to OFFLINE.
//
// # Defensive Copying
//
// Snapshot returns a value whose History slice is a copy and whose error is re-wrapped, so
// callers can hold on to it without racing the poller.
package state
