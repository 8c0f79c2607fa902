// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and the frame/byte arithmetic used to size device buffers
// Package audio provides fundamental PCM types and utilities.
//
// Format describes a PCM stream (sample rate, channels, bit depth) and carries
// the arithmetic used to size hardware buffers:
//
//	format := audio.PCM16(44100, 2)
//	format.BytesPerFrame()    // 4
//	format.FramesToBytes(192) // 768
//
// It also provides helpers for converting between sample widths and for
// packing 16-bit little-endian PCM.
package audio
