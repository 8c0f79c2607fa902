// ABOUTME: Audio output package for low-latency playback
// ABOUTME: Provides the Stream engine, the platform boundary and device backends
// Package output provides a single-device, low-latency output stream engine.
//
// A Stream negotiates one fixed-size buffer with a platform buffer queue and
// keeps it populated by calling a SampleProducer from the platform's audio
// thread each time the previous buffer has been consumed. At most one buffer
// is ever in flight.
//
// Backends: oto (default), malgo, portaudio (build with -tags portaudio) and
// headless.
//
// Example:
//
//	platform, _ := output.NewPlatform("oto", output.PlatformOptions{})
//	stream := output.NewStream(platform, output.EngineConfig{})
//	err := stream.Open(output.StreamConfig{
//	    Format:          audio.PCM16(44100, 2),
//	    OnSamplesNeeded: tone.Fill,
//	    StartPlaying:    true,
//	})
//	...
//	stream.Close()
//	stream.Shutdown()
package output
