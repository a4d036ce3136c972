// Package peer pauses other media players while smqueue plays and resumes
// them afterwards. Spotify is reached over MPRIS on the session bus and MPD
// over its TCP protocol.
package peer
