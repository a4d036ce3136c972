// Package ui is the smq terminal interface, built on Bubble Tea.
//
// The model merges three asynchronous sources into redraws: key presses,
// change signals from the state and history stores, and mixer events from
// the volume controller. waitForChange keeps exactly one blocking receive
// outstanding over the change channels; each signal refreshes the model from
// a fresh snapshot and re-arms the wait. Keys are buffered and only the most
// recent one is acted on at each tick, so holding a key cannot queue up more
// commands than the daemon can absorb. The add prompt is the exception and
// receives every key directly.
//
// Commands to the daemon and the mixer run as tea.Cmds with a timeout and
// report back through commandMsg and volumeMsg; failures land in the status
// line rather than ending the program.
package ui
