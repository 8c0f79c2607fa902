// ABOUTME: Sample producer package documentation
// ABOUTME: Describes file sources, the tone generator and prefetching
// Package source provides sample producers for the output stream engine.
//
// File sources decode MP3, FLAC and WAV into interleaved 16-bit PCM. Decoding
// must stay off the audio callback, so files are played through a Prefetcher:
//
//	src, err := source.Open("song.flac", true)
//	if err != nil {
//		return err
//	}
//	defer src.Close()
//
//	pf := source.NewPrefetcher(src, source.DefaultPrefetch)
//	pf.Start(ctx)
//	defer pf.Stop()
//
//	err = stream.Open(output.StreamConfig{
//		Format:          pf.Format(),
//		OnSamplesNeeded: pf.Fill,
//		StartPlaying:    true,
//	})
//
// ToneSource.Fill renders in place and can be used as a producer directly.
package source
