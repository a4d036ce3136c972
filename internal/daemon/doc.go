// Package daemon is the queue daemon behind `smq daemon`.
//
// It accepts wire frames on a unix socket, keeps the priority queue, drives
// mpv over its JSON IPC socket and publishes its state through the status,
// queue and history files that the UI watches. The socket server and the
// playback loop run as suture services under one supervisor.
package daemon
