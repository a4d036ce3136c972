// Package volume bridges an ALSA mixer control to the normalized volume shown
// in the UI.
//
// # Model
//
// A mixer reports three decibel values: MinDB, MaxDB and CurrentDB. The
// controller derives two numbers from them:
//
//   - Percentage, 1 - CurrentDB/MinDB, used as the step base for
//     Increment and Decrement. It is only meaningful when MinDB < 0; for
//     MinDB >= 0 it is reported as 0 and stepping fails with
//     ErrDegenerateRange.
//   - NormalizedLoudness, the alsamixer perceptual curve
//     10^((v-MaxDB)/60) rescaled so MinDB maps to 0 and MaxDB to 1, clamped
//     to [0,1]. Ranges of 24 dB or less use a linear mapping. When
//     MaxDB <= MinDB the result is 1 at or above MaxDB and 0 otherwise.
//
// # Stepping
//
// Increment(n) moves the target to ((1-p) - 0.01n) * MinDB and Decrement(n)
// to ((1-p) + 0.01n) * MinDB, where p is the freshly read percentage.
// Increment is ignored once p reaches 1 and Decrement once p reaches 0. The
// target is floored to 0.01 dB and handed to the mixer, which clamps it to
// its own range.
//
// # Events
//
// An EventSource streams element names from the mixer. Only names equal to
// the configured control (default "Master Playback Volume") are forwarded,
// and PollEvent drains them without blocking. Events only tell the UI to
// redraw; the new level comes from an explicit Read.
package volume
