// Package wire implements the binary frame exchanged between smq clients and
// the queue daemon over the local unix socket.
//
// # Frame Layout
//
// Every frame is a single write on its own connection:
//
//	[0:8]  priority, uint64 little-endian
//	[8]    message kind (EntryRequest=0, ControlRequest=1)
//	[9:]   payload, delimited by the end of the connection
//
// Entry payloads start with an entry type byte (YoutubeMedia=0, FileStream=1,
// LocalMedia=2, Command=3) followed by the UTF-8 location. Control payloads
// start with a command byte (ClearQueue=0 through PromoteEntry=6);
// RemoveFromQueue and PromoteEntry append the 8-byte little-endian entry id.
//
// The ordinals are pinned constants. Changing any of them breaks compatibility
// with running daemons.
package wire
