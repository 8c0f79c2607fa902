// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM stream format, frame/byte sizing and sample conversions
package audio

import (
	"encoding/binary"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes a PCM stream format
type Format struct {
	Codec      string // Source codec tag ("pcm", "mp3", "flac", "wav", "tone")
	SampleRate int
	Channels   int
	BitDepth   int
}

// PCM16 returns a 16-bit signed little-endian PCM format
func PCM16(sampleRate, channels int) Format {
	return Format{
		Codec:      "pcm",
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   16,
	}
}

// BytesPerSample returns the size of one sample of one channel
func (f Format) BytesPerSample() int {
	return (f.BitDepth + 7) / 8
}

// BytesPerFrame returns the size of one frame (one sample for every channel)
func (f Format) BytesPerFrame() int {
	return f.BytesPerSample() * f.Channels
}

// FramesToBytes converts a frame count to a byte count
func (f Format) FramesToBytes(frames int) int {
	return frames * f.BytesPerFrame()
}

// BytesToFrames converts a byte count to a whole frame count
func (f Format) BytesToFrames(n int) int {
	bpf := f.BytesPerFrame()
	if bpf == 0 {
		return 0
	}
	return n / bpf
}

// Duration returns the play time of the given number of frames
func (f Format) Duration(frames int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// DurationToFrames converts a play time to a frame count, rounding down
func (f Format) DurationToFrames(d time.Duration) int {
	return int(int64(d) * int64(f.SampleRate) / int64(time.Second))
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// ScaleToInt16 converts a sample of arbitrary bit depth to 16-bit
func ScaleToInt16(sample int32, bitDepth int) int16 {
	switch {
	case bitDepth == 16:
		return int16(sample)
	case bitDepth > 16:
		return int16(sample >> (bitDepth - 16))
	default:
		return int16(sample << (16 - bitDepth))
	}
}

// PutInt16LE writes samples as little-endian 16-bit PCM into dst and returns bytes written
func PutInt16LE(dst []byte, samples []int16) int {
	n := 0
	for _, s := range samples {
		if n+2 > len(dst) {
			break
		}
		binary.LittleEndian.PutUint16(dst[n:], uint16(s))
		n += 2
	}
	return n
}

// Int16LE reads the little-endian 16-bit sample at sample index i
func Int16LE(src []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(src[i*2:]))
}
