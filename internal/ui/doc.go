// Package ui implements the `watch` terminal view using bubbletea's Elm architecture.
//
// The [Model] polls a running service on a fixed interval through a [StatusClient], shows the
// current status text with the service health underneath, and keeps a short list of the distinct
// statuses seen since it started.
//
// Fetches run as [tea.Cmd]s and report back through message types (see message.go), so the
// update loop never blocks on the network.
//
// Keyboard: r refreshes immediately, j/k scroll the history and / filters it, ? toggles the full help, q quits.
package ui
