// Package ui implements the Bubble Tea monitor for a running speech application.
//
// The monitor shows the application's state as last seen by the background poller (online or
// offline, paused, playing, queued task count), the local talker counters, the current talk
// settings and recently submitted lines. A text input lets the operator type lines which are
// queued on the talker with the saved voice, speed, tone and volume.
//
// # Keys
//
//	i / enter / esc   type, speak, leave the input
//	p r s c           pause, resume, skip, clear
//	v V               next / previous built-in voice
//	+ -               volume up / down
//	t                 cycle theme
//	?                 toggle help
//	q, ctrl+c         quit
//
// Setting and theme changes are written to the preferences file. Reloaded preferences arrive
// through Options.PrefsUpdates and replace the in-memory copy.
//
// The model never talks to the network from Update: control commands run as tea.Cmd functions
// and report back with a result message, and the snapshot is read from the shared state.Store
// on every tick.
package ui
